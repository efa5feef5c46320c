package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/filmatlas/filmatlas/internal/services"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/response"
)

// SoundtrackHandler resolves and serves soundtrack links for titles.
type SoundtrackHandler struct {
	svc *services.SoundtrackService
}

// NewSoundtrackHandler constructs a handler using the provided service.
func NewSoundtrackHandler(svc *services.SoundtrackService) *SoundtrackHandler {
	return &SoundtrackHandler{svc: svc}
}

// Resolve returns the best soundtrack URL for a title, or a null URL when no
// candidate qualifies. The title name travels as a query parameter because
// the numeric id alone cannot be matched against album names.
func (h *SoundtrackHandler) Resolve(c *gin.Context) {
	kind, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		response.Error(c, appErrors.NewBadRequest("name query parameter is required"))
		return
	}

	url, err := h.svc.Resolve(requestContext(c), kind, id, name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"soundtrack_url": url})
}
