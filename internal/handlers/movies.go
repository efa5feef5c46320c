package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/filmatlas/filmatlas/internal/services"
	"github.com/filmatlas/filmatlas/pkg/response"
)

// MovieHandler serves the cached per-title metadata fragments.
type MovieHandler struct {
	metadata *services.MetadataService
}

// NewMovieHandler constructs a handler using the provided service.
func NewMovieHandler(metadata *services.MetadataService) *MovieHandler {
	return &MovieHandler{metadata: metadata}
}

// Details returns the title details fragment as upstream JSON.
func (h *MovieHandler) Details(c *gin.Context) {
	kind, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	payload, err := h.metadata.GetOrFetchDetails(requestContext(c), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}

// Videos returns the trailers and clips fragment as upstream JSON.
func (h *MovieHandler) Videos(c *gin.Context) {
	kind, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	payload, err := h.metadata.GetOrFetchVideos(requestContext(c), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}

// Credits returns the cast and crew fragment as upstream JSON.
func (h *MovieHandler) Credits(c *gin.Context) {
	kind, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	payload, err := h.metadata.GetOrFetchCredits(requestContext(c), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}

// Providers returns the watch-providers fragment as upstream JSON.
func (h *MovieHandler) Providers(c *gin.Context) {
	kind, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	payload, err := h.metadata.GetOrFetchProviders(requestContext(c), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, payload)
}
