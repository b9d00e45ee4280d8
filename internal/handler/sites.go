package handler

import (
	"net/http"

	"stallsync/internal/apierror"
	"stallsync/internal/model"
	"stallsync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SitesHandler manages the scope entities (sites and their stalls). Thin
// enough that it talks to the repository directly.
type SitesHandler struct{ repo repository.SiteRepository }

func NewSitesHandler(repo repository.SiteRepository) *SitesHandler {
	return &SitesHandler{repo: repo}
}

type createSiteRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Location *string `json:"location"`
}

type createStallRequest struct {
	Name      string `json:"name"       validate:"required,min=2,max=120"`
	StallType string `json:"stall_type" validate:"omitempty,oneof=retail food"`
}

func (h *SitesHandler) CreateSite(c *gin.Context) {
	var req createSiteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	site := &model.Site{Name: req.Name, Location: req.Location, Active: true}
	if err := h.repo.CreateSite(c.Request.Context(), site); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (h *SitesHandler) ListSites(c *gin.Context) {
	sites, err := h.repo.ListSites(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sites"))
		return
	}
	c.JSON(http.StatusOK, sites)
}

func (h *SitesHandler) CreateStall(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid site id"))
		return
	}
	if _, err := h.repo.FindSiteByID(c.Request.Context(), siteID); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("site not found"))
		return
	}
	var req createStallRequest
	if !bindAndValidate(c, &req) {
		return
	}
	stall := &model.Stall{SiteID: siteID, Name: req.Name, StallType: req.StallType, Active: true}
	if stall.StallType == "" {
		stall.StallType = "retail"
	}
	if err := h.repo.CreateStall(c.Request.Context(), stall); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, stall)
}

func (h *SitesHandler) ListStalls(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid site id"))
		return
	}
	stalls, err := h.repo.ListStalls(c.Request.Context(), siteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list stalls"))
		return
	}
	c.JSON(http.StatusOK, stalls)
}
