package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/filmatlas/filmatlas/internal/services"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/response"
)

// DiscoverHandler serves the uncached browse listings.
type DiscoverHandler struct {
	svc *services.DiscoverService
}

// NewDiscoverHandler constructs a handler using the provided service.
func NewDiscoverHandler(svc *services.DiscoverService) *DiscoverHandler {
	return &DiscoverHandler{svc: svc}
}

// Trending returns the weekly trending listing as upstream JSON.
func (h *DiscoverHandler) Trending(c *gin.Context) {
	payload, err := h.svc.Trending(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}

// ByGenre returns the discovery listing for one genre as upstream JSON.
func (h *DiscoverHandler) ByGenre(c *gin.Context) {
	genreID, err := strconv.Atoi(c.Param("id"))
	if err != nil || genreID <= 0 {
		response.Error(c, appErrors.NewBadRequest("genre id must be a positive integer"))
		return
	}

	payload, err := h.svc.ByGenre(requestContext(c), genreID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}

// Search returns title search results as upstream JSON.
func (h *DiscoverHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.Error(c, appErrors.NewBadRequest("query parameter is required"))
		return
	}

	payload, err := h.svc.Search(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}
