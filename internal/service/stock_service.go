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
	"gorm.io/gorm"
)

// StockService is the CRUD surface around the ledger: record creation (master
// and direct stall), descriptive edits, and read projections. Quantity changes
// never happen here — they go through LedgerService so they are logged and
// propagated.
type StockService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error)
	List(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error)
	ListLowStock(ctx context.Context, siteID *uuid.UUID) ([]dto.StockItemResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type stockService struct {
	items     repository.StockItemRepository
	movements repository.StockMovementRepository
	sites     repository.SiteRepository
}

func NewStockService(
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	sites repository.SiteRepository,
) StockService {
	return &stockService{items: items, movements: movements, sites: sites}
}

// Create makes a master record (no stall_id) or a direct, unlinked stall
// record (stall_id present). The opening movement row records the initial
// quantity so the trail starts at creation.
func (s *stockService) Create(ctx context.Context, actor Actor, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid site_id", ledger.ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ledger.ErrValidation)
	}
	if _, err := s.sites.FindSiteByID(ctx, siteID); err != nil {
		return nil, notFound(err, "site")
	}

	item := &model.StockItem{
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		CostPrice:         req.CostPrice,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		ImageURL:          req.ImageURL,
		SiteID:            siteID,
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}

	movType := model.MovementCreateMaster
	if req.StallID != nil {
		stallID, err := uuid.Parse(*req.StallID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid stall_id", ledger.ErrValidation)
		}
		stall, err := s.sites.FindStallByID(ctx, stallID)
		if err != nil {
			return nil, notFound(err, "stall")
		}
		if stall.SiteID != siteID {
			return nil, fmt.Errorf("%w: stall belongs to a different site", ledger.ErrInvalidScope)
		}
		item.StallID = &stallID
		movType = model.MovementCreateStallDirect
	}

	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.items.CreateTx(tx, item); err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			StockItemID:    item.ID,
			ItemName:       item.Name,
			SiteID:         item.SiteID,
			StallID:        item.StallID,
			Type:           movType,
			QuantityChange: item.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  item.Quantity,
			UserID:         actor.ID,
			UserName:       actor.Name,
			CorrelationID:  uuid.New(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return StockItemToResponse(item), nil
}

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "stock item")
	}
	return StockItemToResponse(item), nil
}

func (s *stockService) List(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockItemResponse, 0, len(items))
	for i := range items {
		data = append(data, *StockItemToResponse(&items[i]))
	}
	return &dto.StockItemListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *stockService) ListLowStock(ctx context.Context, siteID *uuid.UUID) ([]dto.StockItemResponse, error) {
	items, err := s.items.ListLowStock(ctx, siteID)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockItemResponse, 0, len(items))
	for i := range items {
		data = append(data, *StockItemToResponse(&items[i]))
	}
	return data, nil
}

// Update edits descriptive attributes only; the quantity field is owned by
// the ledger and cannot be changed here. The edit runs against a locked read
// so a ledger commit landing just before it is never overwritten by the stale
// full-row save.
func (s *stockService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error) {
	var result model.StockItem
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		item, err := s.items.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err, "stock item")
		}
		if req.Name != nil {
			item.Name = *req.Name
		}
		if req.Category != nil {
			item.Category = *req.Category
		}
		if req.Unit != nil {
			item.Unit = *req.Unit
		}
		if req.CostPrice != nil {
			item.CostPrice = req.CostPrice
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.LowStockThreshold != nil {
			item.LowStockThreshold = *req.LowStockThreshold
		}
		if req.ImageURL != nil {
			item.ImageURL = req.ImageURL
		}
		if err := s.items.SaveTx(tx, item); err != nil {
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

func (s *stockService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		data = append(data, *movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// StockItemToResponse converts a model row to its API shape. Shared by the
// ledger and stock services.
func StockItemToResponse(item *model.StockItem) *dto.StockItemResponse {
	resp := &dto.StockItemResponse{
		ID:                item.ID.String(),
		Name:              item.Name,
		Category:          item.Category,
		Quantity:          item.Quantity,
		Unit:              item.Unit,
		CostPrice:         item.CostPrice,
		Price:             item.Price,
		LowStockThreshold: item.LowStockThreshold,
		ImageURL:          item.ImageURL,
		SiteID:            item.SiteID.String(),
		LowStock:          item.Quantity <= item.LowStockThreshold,
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
	if item.StallID != nil {
		id := item.StallID.String()
		resp.StallID = &id
	}
	if item.OriginalMasterItemID != nil {
		id := item.OriginalMasterItemID.String()
		resp.OriginalMasterItemID = &id
	}
	return resp
}

func movementToResponse(m *model.StockMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:             m.ID.String(),
		StockItemID:    m.StockItemID.String(),
		ItemName:       m.ItemName,
		SiteID:         m.SiteID.String(),
		Type:           m.Type,
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		UserID:         m.UserID.String(),
		UserName:       m.UserName,
		Notes:          m.Notes,
		CorrelationID:  m.CorrelationID.String(),
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.LinkedStockItemID != nil {
		id := m.LinkedStockItemID.String()
		resp.LinkedStockItemID = &id
	}
	if m.MasterItemID != nil {
		id := m.MasterItemID.String()
		resp.MasterItemID = &id
	}
	if m.StallID != nil {
		id := m.StallID.String()
		resp.StallID = &id
	}
	if m.RelatedTransactionID != nil {
		id := m.RelatedTransactionID.String()
		resp.RelatedTransactionID = &id
	}
	return resp
}
