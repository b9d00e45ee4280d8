package service

import (
	"context"
	"errors"
	"fmt"

	"stallsync/internal/dto"
	"stallsync/internal/ledger"
	"stallsync/internal/model"
	"stallsync/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService is the stock allocation engine: the quantity-moving
// operations between master and stall records. Every operation runs inside
// one transaction against row-locked reads and appends movement rows for
// each record it touches, sharing a correlation id, so either the whole
// effect is durable or none of it is.
type LedgerService interface {
	Allocate(ctx context.Context, actor Actor, masterID uuid.UUID, req dto.AllocateRequest) (*dto.StockItemResponse, error)
	Return(ctx context.Context, actor Actor, stallItemID uuid.UUID, req dto.ReturnRequest) (*dto.StockItemResponse, error)
	Transfer(ctx context.Context, actor Actor, sourceItemID uuid.UUID, req dto.TransferRequest) (*dto.StockItemResponse, error)
	SetQuantity(ctx context.Context, actor Actor, itemID uuid.UUID, req dto.SetQuantityRequest) (*dto.StockItemResponse, error)
	DeleteItem(ctx context.Context, actor Actor, itemID uuid.UUID, notes string) error
	BatchSetQuantity(ctx context.Context, actor Actor, req dto.BatchSetQuantityRequest) ([]dto.StockItemResponse, error)
	BatchDelete(ctx context.Context, actor Actor, req dto.BatchDeleteRequest) error
}

type ledgerService struct {
	items     repository.StockItemRepository
	movements repository.StockMovementRepository
	sites     repository.SiteRepository
}

func NewLedgerService(
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	sites repository.SiteRepository,
) LedgerService {
	return &ledgerService{items: items, movements: movements, sites: sites}
}

// logMovement appends one audit row for item. before/after are the item's
// quantities around this operation; delta is signed relative to the item.
func (s *ledgerService) logMovement(tx *gorm.DB, item *model.StockItem, movType string,
	delta, before, after int, actor Actor, notes string, correlationID uuid.UUID,
	linkedID, masterID *uuid.UUID) error {
	return s.movements.CreateTx(tx, &model.StockMovement{
		StockItemID:       item.ID,
		ItemName:          item.Name,
		LinkedStockItemID: linkedID,
		MasterItemID:      masterID,
		SiteID:            item.SiteID,
		StallID:           item.StallID,
		Type:              movType,
		QuantityChange:    delta,
		QuantityBefore:    before,
		QuantityAfter:     after,
		UserID:            actor.ID,
		UserName:          actor.Name,
		Notes:             notes,
		CorrelationID:     correlationID,
	})
}

// ── Allocate ─────────────────────────────────────────────────────────────────
// Moves quantity from a master record to a stall, growing the linked stall
// record or creating it. Master and stall sides stay conserved: the sum of
// master quantity plus its children is unchanged by allocation.

func (s *ledgerService) Allocate(ctx context.Context, actor Actor, masterID uuid.UUID, req dto.AllocateRequest) (*dto.StockItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ledger.ErrValidation)
	}
	stallID, err := uuid.Parse(req.StallID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid stall_id", ledger.ErrValidation)
	}

	var result model.StockItem
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		master, err := s.items.FindByIDForUpdate(tx, masterID)
		if err != nil {
			return notFound(err, "master item")
		}
		if !master.IsMaster() {
			return fmt.Errorf("%w: %s is not a master record", ledger.ErrValidation, masterID)
		}
		stall, err := s.sites.FindStallByIDTx(tx, stallID)
		if err != nil {
			return notFound(err, "stall")
		}
		if stall.SiteID != master.SiteID {
			return fmt.Errorf("%w: stall belongs to a different site", ledger.ErrInvalidScope)
		}
		if master.Quantity < req.Quantity {
			return fmt.Errorf("%w: master has %d, requested %d", ledger.ErrInsufficientStock, master.Quantity, req.Quantity)
		}

		correlationID := uuid.New()

		masterBefore := master.Quantity
		master.Quantity -= req.Quantity
		if err := s.items.SaveTx(tx, master); err != nil {
			return err
		}

		child, err := s.items.FindStallChildForUpdate(tx, master.ID, stallID)
		var childBefore int
		switch {
		case err == nil:
			childBefore = child.Quantity
			child.Quantity += req.Quantity
			if err := s.items.SaveTx(tx, child); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			childBefore = 0
			link := master.ID
			child = &model.StockItem{
				Name:                 master.Name,
				Category:             master.Category,
				Quantity:             req.Quantity,
				Unit:                 master.Unit,
				CostPrice:            master.CostPrice,
				Price:                master.Price,
				LowStockThreshold:    master.LowStockThreshold,
				ImageURL:             master.ImageURL,
				SiteID:               master.SiteID,
				StallID:              &stallID,
				OriginalMasterItemID: &link,
			}
			if err := s.items.CreateTx(tx, child); err != nil {
				return err
			}
		default:
			return err
		}

		masterRef := master.ID
		if err := s.logMovement(tx, master, model.MovementAllocateOut,
			-req.Quantity, masterBefore, master.Quantity, actor, req.Notes,
			correlationID, &child.ID, &masterRef); err != nil {
			return err
		}
		if err := s.logMovement(tx, child, model.MovementReceiveAllocation,
			req.Quantity, childBefore, child.Quantity, actor, req.Notes,
			correlationID, &masterRef, &masterRef); err != nil {
			return err
		}

		result = *child
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return StockItemToResponse(&result), nil
}

// ── Return ───────────────────────────────────────────────────────────────────
// Moves quantity from a linked stall record back to its master.

func (s *ledgerService) Return(ctx context.Context, actor Actor, stallItemID uuid.UUID, req dto.ReturnRequest) (*dto.StockItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ledger.ErrValidation)
	}

	var result model.StockItem
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		item, err := s.items.FindByIDForUpdate(tx, stallItemID)
		if err != nil {
			return notFound(err, "stall item")
		}
		if item.IsMaster() {
			return fmt.Errorf("%w: %s is not a stall item", ledger.ErrValidation, stallItemID)
		}
		if item.OriginalMasterItemID == nil {
			return fmt.Errorf("%w: cannot return %q", ledger.ErrUnlinkedItem, item.Name)
		}
		if item.Quantity < req.Quantity {
			return fmt.Errorf("%w: stall item has %d, requested %d", ledger.ErrInsufficientStock, item.Quantity, req.Quantity)
		}
		master, err := s.items.FindByIDForUpdate(tx, *item.OriginalMasterItemID)
		if err != nil {
			return notFound(err, "linked master")
		}
		// Stored link is validated, never trusted: the master must still be
		// a master record in the same site.
		if !master.IsMaster() || master.SiteID != item.SiteID {
			return fmt.Errorf("%w: stale master link on %q", ledger.ErrInvalidScope, item.Name)
		}

		correlationID := uuid.New()

		itemBefore := item.Quantity
		item.Quantity -= req.Quantity
		if err := s.items.SaveTx(tx, item); err != nil {
			return err
		}
		masterBefore := master.Quantity
		master.Quantity += req.Quantity
		if err := s.items.SaveTx(tx, master); err != nil {
			return err
		}

		masterRef := master.ID
		if err := s.logMovement(tx, item, model.MovementReturnOut,
			-req.Quantity, itemBefore, item.Quantity, actor, req.Notes,
			correlationID, &masterRef, &masterRef); err != nil {
			return err
		}
		if err := s.logMovement(tx, master, model.MovementReceiveReturn,
			req.Quantity, masterBefore, master.Quantity, actor, req.Notes,
			correlationID, &item.ID, &masterRef); err != nil {
			return err
		}

		result = *item
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return StockItemToResponse(&result), nil
}

// ── Transfer ─────────────────────────────────────────────────────────────────
// Moves quantity between two stalls in the same site. Master stock is not
// touched; the master link, when present, travels to the destination record.

func (s *ledgerService) Transfer(ctx context.Context, actor Actor, sourceItemID uuid.UUID, req dto.TransferRequest) (*dto.StockItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ledger.ErrValidation)
	}
	destStallID, err := uuid.Parse(req.DestStallID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dest_stall_id", ledger.ErrValidation)
	}

	var result model.StockItem
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		source, err := s.items.FindByIDForUpdate(tx, sourceItemID)
		if err != nil {
			return notFound(err, "source stall item")
		}
		if source.IsMaster() {
			return fmt.Errorf("%w: %s is not a stall item", ledger.ErrValidation, sourceItemID)
		}
		if source.StallID != nil && *source.StallID == destStallID {
			return fmt.Errorf("%w: source and destination stall are the same", ledger.ErrValidation)
		}
		destStall, err := s.sites.FindStallByIDTx(tx, destStallID)
		if err != nil {
			return notFound(err, "destination stall")
		}
		if destStall.SiteID != source.SiteID {
			return fmt.Errorf("%w: cross-site transfer rejected", ledger.ErrInvalidScope)
		}
		if source.Quantity < req.Quantity {
			return fmt.Errorf("%w: source has %d, requested %d", ledger.ErrInsufficientStock, source.Quantity, req.Quantity)
		}

		// Destination record: same master link when the source is linked,
		// same name otherwise.
		var dest *model.StockItem
		if source.OriginalMasterItemID != nil {
			dest, err = s.items.FindStallChildForUpdate(tx, *source.OriginalMasterItemID, destStallID)
		} else {
			dest, err = s.items.FindStallByNameForUpdate(tx, source.SiteID, destStallID, source.Name)
		}

		correlationID := uuid.New()

		sourceBefore := source.Quantity
		source.Quantity -= req.Quantity
		if err2 := s.items.SaveTx(tx, source); err2 != nil {
			return err2
		}

		var destBefore int
		switch {
		case err == nil:
			destBefore = dest.Quantity
			dest.Quantity += req.Quantity
			if err := s.items.SaveTx(tx, dest); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			destBefore = 0
			dest = &model.StockItem{
				Name:                 source.Name,
				Category:             source.Category,
				Quantity:             req.Quantity,
				Unit:                 source.Unit,
				CostPrice:            source.CostPrice,
				Price:                source.Price,
				LowStockThreshold:    source.LowStockThreshold,
				ImageURL:             source.ImageURL,
				SiteID:               source.SiteID,
				StallID:              &destStallID,
				OriginalMasterItemID: source.OriginalMasterItemID,
			}
			if err := s.items.CreateTx(tx, dest); err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.logMovement(tx, source, model.MovementTransferOut,
			-req.Quantity, sourceBefore, source.Quantity, actor, req.Notes,
			correlationID, &dest.ID, source.OriginalMasterItemID); err != nil {
			return err
		}
		if err := s.logMovement(tx, dest, model.MovementTransferIn,
			req.Quantity, destBefore, dest.Quantity, actor, req.Notes,
			correlationID, &source.ID, dest.OriginalMasterItemID); err != nil {
			return err
		}

		result = *dest
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return StockItemToResponse(&result), nil
}

// ── SetQuantity ──────────────────────────────────────────────────────────────
// Absolute correction. On a linked stall item the signed delta propagates to
// the master; when the master cannot absorb the delta the whole operation
// fails instead of clamping.

func (s *ledgerService) SetQuantity(ctx context.Context, actor Actor, itemID uuid.UUID, req dto.SetQuantityRequest) (*dto.StockItemResponse, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ledger.ErrValidation)
	}

	var result model.StockItem
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		correlationID := uuid.New()
		item, err := s.setQuantityTx(tx, actor, itemID, req.Quantity, req.Notes,
			model.MovementDirectUpdate, correlationID)
		if err != nil {
			return err
		}
		result = *item
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return StockItemToResponse(&result), nil
}

// setQuantityTx is the shared body of SetQuantity and BatchSetQuantity.
func (s *ledgerService) setQuantityTx(tx *gorm.DB, actor Actor, itemID uuid.UUID,
	newQuantity int, notes, movType string, correlationID uuid.UUID) (*model.StockItem, error) {

	item, err := s.items.FindByIDForUpdate(tx, itemID)
	if err != nil {
		return nil, notFound(err, "stock item")
	}

	delta := newQuantity - item.Quantity
	before := item.Quantity
	item.Quantity = newQuantity
	if err := s.items.SaveTx(tx, item); err != nil {
		return nil, err
	}

	if err := s.logMovement(tx, item, movType,
		delta, before, item.Quantity, actor, notes,
		correlationID, nil, item.OriginalMasterItemID); err != nil {
		return nil, err
	}

	// Propagate the same delta to the linked master, if any.
	if item.IsLinked() && delta != 0 {
		master, err := s.items.FindByIDForUpdate(tx, *item.OriginalMasterItemID)
		if err != nil {
			return nil, notFound(err, "linked master")
		}
		if !master.IsMaster() || master.SiteID != item.SiteID {
			return nil, fmt.Errorf("%w: stale master link on %q", ledger.ErrInvalidScope, item.Name)
		}
		if master.Quantity+delta < 0 {
			return nil, fmt.Errorf("%w: master %q has %d, delta %d", ledger.ErrInconsistentPropagation, master.Name, master.Quantity, delta)
		}
		masterBefore := master.Quantity
		master.Quantity += delta
		if err := s.items.SaveTx(tx, master); err != nil {
			return nil, err
		}
		masterRef := master.ID
		if err := s.logMovement(tx, master, model.MovementDirectMasterUpd,
			delta, masterBefore, master.Quantity, actor, notes,
			correlationID, &item.ID, &masterRef); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// ── DeleteItem ───────────────────────────────────────────────────────────────
// Removes a stock record. The movement row written first carries the item's
// name and scope, so the audit trail survives the deletion.

func (s *ledgerService) DeleteItem(ctx context.Context, actor Actor, itemID uuid.UUID, notes string) error {
	return runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		return s.deleteItemTx(tx, actor, itemID, notes, model.MovementDelete, uuid.New())
	})
}

func (s *ledgerService) deleteItemTx(tx *gorm.DB, actor Actor, itemID uuid.UUID,
	notes, movType string, correlationID uuid.UUID) error {

	item, err := s.items.FindByIDForUpdate(tx, itemID)
	if err != nil {
		return notFound(err, "stock item")
	}
	if err := s.logMovement(tx, item, movType,
		-item.Quantity, item.Quantity, 0, actor, notes,
		correlationID, nil, item.OriginalMasterItemID); err != nil {
		return err
	}
	return s.items.DeleteTx(tx, item.ID)
}

// ── Batch operations ─────────────────────────────────────────────────────────
// All-or-nothing: one transaction, one correlation id. Per-row best-effort
// semantics live in the CSV import worker, not here.

func (s *ledgerService) BatchSetQuantity(ctx context.Context, actor Actor, req dto.BatchSetQuantityRequest) ([]dto.StockItemResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ledger.ErrValidation)
	}
	for _, entry := range req.Items {
		if entry.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ledger.ErrValidation)
		}
	}

	var results []dto.StockItemResponse
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		results = results[:0]
		correlationID := uuid.New()
		for _, entry := range req.Items {
			id, err := uuid.Parse(entry.ItemID)
			if err != nil {
				return fmt.Errorf("%w: invalid item_id %q", ledger.ErrValidation, entry.ItemID)
			}
			item, err := s.setQuantityTx(tx, actor, id, entry.Quantity, req.Notes,
				model.MovementBatchSet, correlationID)
			if err != nil {
				return err
			}
			results = append(results, *StockItemToResponse(item))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return results, nil
}

func (s *ledgerService) BatchDelete(ctx context.Context, actor Actor, req dto.BatchDeleteRequest) error {
	if len(req.ItemIDs) == 0 {
		return fmt.Errorf("%w: empty batch", ledger.ErrValidation)
	}
	return runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		correlationID := uuid.New()
		for _, raw := range req.ItemIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("%w: invalid item_id %q", ledger.ErrValidation, raw)
			}
			if err := s.deleteItemTx(tx, actor, id, req.Notes, model.MovementBatchDelete, correlationID); err != nil {
				return err
			}
		}
		return nil
	})
}
