package handler

import (
	"net/http"

	"stallsync/internal/apierror"
	"stallsync/internal/dto"
	"stallsync/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// RecordSale commits a cart atomically: stall stock decrements, linked-master
// propagation, the sale transaction and its movement rows all land together.
func (h *SalesHandler) RecordSale(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordSale(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete soft-deletes a sale with a mandatory justification. Stock is not
// restored; the transaction is only excluded from aggregates.
func (h *SalesHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DeleteSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), id, req.Justification); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
