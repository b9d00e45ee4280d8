package handler

import (
	"net/http"

	"stallsync/internal/apierror"
	"stallsync/internal/dto"
	"stallsync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stock  service.StockService
	ledger service.LedgerService
}

func NewStockHandler(stock service.StockService, ledger service.LedgerService) *StockHandler {
	return &StockHandler{stock: stock, ledger: ledger}
}

// ── CRUD ─────────────────────────────────────────────────────────────────────

func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.stock.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StockHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.stock.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) List(c *gin.Context) {
	var filter dto.StockItemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.stock.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) ListLowStock(c *gin.Context) {
	var siteID *uuid.UUID
	if raw := c.Query("site_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid site_id"))
			return
		}
		siteID = &id
	}
	resp, err := h.stock.ListLowStock(c.Request.Context(), siteID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.stock.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DeleteItemRequest
	_ = c.ShouldBindJSON(&req) // body is optional
	if err := h.ledger.DeleteItem(c.Request.Context(), actorFrom(c), id, req.Notes); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Ledger operations ────────────────────────────────────────────────────────

func (h *StockHandler) Allocate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AllocateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Allocate(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Return(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Return(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) Transfer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Transfer(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) SetQuantity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SetQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.SetQuantity(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) BatchSetQuantity(c *gin.Context) {
	var req dto.BatchSetQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.BatchSetQuantity(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) BatchDelete(c *gin.Context) {
	var req dto.BatchDeleteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.ledger.BatchDelete(c.Request.Context(), actorFrom(c), req); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Movement trail ───────────────────────────────────────────────────────────

func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.stock.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
