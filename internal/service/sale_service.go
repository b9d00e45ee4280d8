package service

import (
	"context"
	"fmt"
	"time"

	"stallsync/internal/dto"
	"stallsync/internal/ledger"
	"stallsync/internal/model"
	"stallsync/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleService converts carts into committed sale transactions while
// decrementing stall stock and propagating to linked masters, all in one
// transaction: a partial sale is never observable.
type SaleService interface {
	RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	// Delete soft-deletes a sale. Terminal: requires a justification, records
	// actor and timestamp, and is rejected on an already-deleted sale.
	Delete(ctx context.Context, actor Actor, id uuid.UUID, justification string) error
}

type saleService struct {
	sales     repository.SaleRepository
	items     repository.StockItemRepository
	movements repository.StockMovementRepository
	sites     repository.SiteRepository
}

func NewSaleService(
	sales repository.SaleRepository,
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	sites repository.SiteRepository,
) SaleService {
	return &saleService{sales: sales, items: items, movements: movements, sites: sites}
}

// ── RecordSale ───────────────────────────────────────────────────────────────
// One transaction:
//   1. resolve the stall and lock every line's stall item
//   2. unit prices come from the locked records; a client price that
//      disagrees fails the sale (no silent recalculation)
//   3. decrement each line, propagate to linked masters
//   4. create the sale transaction and one movement row per affected record,
//      all sharing a correlation id with the sale id attached

func (s *saleService) RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	stallID, err := uuid.Parse(req.StallID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid stall_id", ledger.ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", ledger.ErrValidation)
	}

	var sale model.SaleTransaction
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		stall, err := s.sites.FindStallByIDTx(tx, stallID)
		if err != nil {
			return notFound(err, "stall")
		}

		type resolvedLine struct {
			item   *model.StockItem
			before int
			qty    int
			price  decimal.Decimal
		}
		var lines []resolvedLine
		total := decimal.Zero

		for _, line := range req.Items {
			if line.Quantity < 1 {
				return fmt.Errorf("%w: line quantity must be at least 1", ledger.ErrValidation)
			}
			itemID, err := uuid.Parse(line.ItemID)
			if err != nil {
				return fmt.Errorf("%w: invalid item_id %q", ledger.ErrValidation, line.ItemID)
			}
			item, err := s.items.FindByIDForUpdate(tx, itemID)
			if err != nil {
				return notFound(err, "stall item")
			}
			if item.StallID == nil || *item.StallID != stall.ID {
				return fmt.Errorf("%w: item %q does not belong to the active stall", ledger.ErrInvalidScope, item.Name)
			}
			if line.PricePerUnit != nil && !line.PricePerUnit.Equal(item.Price) {
				return fmt.Errorf("%w: price for %q changed, re-quote required", ledger.ErrValidation, item.Name)
			}
			if item.Quantity < line.Quantity {
				return fmt.Errorf("%w: %q has %d, requested %d", ledger.ErrInsufficientStock, item.Name, item.Quantity, line.Quantity)
			}
			lines = append(lines, resolvedLine{item: item, before: item.Quantity, qty: line.Quantity, price: item.Price})
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		sale = model.SaleTransaction{
			SiteID:      stall.SiteID,
			StallID:     stall.ID,
			StaffID:     actor.ID,
			StaffName:   actor.Name,
			TotalAmount: total,
			Status:      model.SaleStatusActive,
		}
		for _, l := range lines {
			sale.Items = append(sale.Items, model.SoldItem{
				StockItemID:  l.item.ID,
				Name:         l.item.Name,
				Quantity:     l.qty,
				PricePerUnit: l.price,
				TotalPrice:   l.price.Mul(decimal.NewFromInt(int64(l.qty))),
			})
		}
		if err := s.sales.CreateTx(tx, &sale); err != nil {
			return err
		}

		correlationID := uuid.New()
		saleRef := sale.ID

		for _, l := range lines {
			item := l.item
			item.Quantity -= l.qty
			if err := s.items.SaveTx(tx, item); err != nil {
				return err
			}
			if err := s.logSaleMovement(tx, item, model.MovementSaleFromStall,
				-l.qty, l.before, item.Quantity, actor, correlationID, &saleRef,
				nil, item.OriginalMasterItemID); err != nil {
				return err
			}

			if !item.IsLinked() {
				continue
			}
			master, err := s.items.FindByIDForUpdate(tx, *item.OriginalMasterItemID)
			if err != nil {
				return notFound(err, "linked master")
			}
			if !master.IsMaster() || master.SiteID != item.SiteID {
				return fmt.Errorf("%w: stale master link on %q", ledger.ErrInvalidScope, item.Name)
			}
			if master.Quantity < l.qty {
				return fmt.Errorf("%w: master %q has %d, sale needs %d", ledger.ErrInsufficientStock, master.Name, master.Quantity, l.qty)
			}
			masterBefore := master.Quantity
			master.Quantity -= l.qty
			if err := s.items.SaveTx(tx, master); err != nil {
				return err
			}
			masterRef := master.ID
			if err := s.logSaleMovement(tx, master, model.MovementSaleAffectsMaster,
				-l.qty, masterBefore, master.Quantity, actor, correlationID, &saleRef,
				&item.ID, &masterRef); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return saleToResponse(&sale), nil
}

func (s *saleService) logSaleMovement(tx *gorm.DB, item *model.StockItem, movType string,
	delta, before, after int, actor Actor, correlationID uuid.UUID, saleID,
	linkedID, masterID *uuid.UUID) error {
	return s.movements.CreateTx(tx, &model.StockMovement{
		StockItemID:          item.ID,
		ItemName:             item.Name,
		LinkedStockItemID:    linkedID,
		MasterItemID:         masterID,
		SiteID:               item.SiteID,
		StallID:              item.StallID,
		Type:                 movType,
		QuantityChange:       delta,
		QuantityBefore:       before,
		QuantityAfter:        after,
		UserID:               actor.ID,
		UserName:             actor.Name,
		CorrelationID:        correlationID,
		RelatedTransactionID: saleID,
	})
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *saleService) Delete(ctx context.Context, actor Actor, id uuid.UUID, justification string) error {
	if justification == "" {
		return fmt.Errorf("%w: deletion requires a justification", ledger.ErrValidation)
	}
	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		sale, err := s.sales.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err, "sale")
		}
		if sale.Status != model.SaleStatusActive {
			return fmt.Errorf("%w: sale is already deleted", ledger.ErrValidation)
		}
		now := time.Now()
		sale.Status = model.SaleStatusDeleted
		sale.DeletedByID = &actor.ID
		sale.DeletedByName = &actor.Name
		sale.DeletedAt = &now
		sale.DeletionJustification = &justification
		return s.sales.SaveTx(tx, sale)
	})
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "sale")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	sum, err := s.sales.SumActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:        data,
		TotalAmount: sum,
		Total:       total,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}, nil
}

func saleToResponse(sale *model.SaleTransaction) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, dto.SaleItemResponse{
			ItemID:       it.StockItemID.String(),
			Name:         it.Name,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
			TotalPrice:   it.TotalPrice,
		})
	}
	resp := &dto.SaleResponse{
		ID:          sale.ID.String(),
		SiteID:      sale.SiteID.String(),
		StallID:     sale.StallID.String(),
		StaffID:     sale.StaffID.String(),
		StaffName:   sale.StaffName,
		Items:       items,
		TotalAmount: sale.TotalAmount,
		Status:      sale.Status,
		DeletedByName:         sale.DeletedByName,
		DeletionJustification: sale.DeletionJustification,
		CreatedAt:             sale.CreatedAt.Format(time.RFC3339),
	}
	if sale.DeletedAt != nil {
		formatted := sale.DeletedAt.Format(time.RFC3339)
		resp.DeletedAt = &formatted
	}
	return resp
}
