package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"github.com/filmatlas/filmatlas/internal/app/maintenance"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/response"
)

// MaintenanceHandler exposes on-demand cache maintenance.
type MaintenanceHandler struct {
	cleaner *maintenance.Cleaner
}

// NewMaintenanceHandler constructs a handler using the provided cleaner.
func NewMaintenanceHandler(cleaner *maintenance.Cleaner) *MaintenanceHandler {
	return &MaintenanceHandler{cleaner: cleaner}
}

// Cleanup triggers an immediate sweep and reports row counts before and
// after. Tables are independent, so a broken table degrades the response
// instead of aborting the sweep: whatever counts could be gathered are
// returned together with the error detail. Only a sweep that fails on every
// table becomes an error response.
func (h *MaintenanceHandler) Cleanup(c *gin.Context) {
	ctx := requestContext(c)

	before, beforeErr := h.cleaner.Stats(ctx)
	cleaned, sweepErr := h.cleaner.RunOnce(ctx)
	after, afterErr := h.cleaner.Stats(ctx)

	if len(multierr.Errors(sweepErr)) >= maintenance.TableCount {
		response.Error(c, appErrors.Wrap(sweepErr, "cache cleanup failed"))
		return
	}

	payload := gin.H{
		"before":  before,
		"after":   after,
		"cleaned": cleaned,
	}
	if combined := multierr.Combine(beforeErr, sweepErr, afterErr); combined != nil {
		failures := multierr.Errors(combined)
		messages := make([]string, 0, len(failures))
		for _, failure := range failures {
			messages = append(messages, failure.Error())
		}
		payload["errors"] = messages
	}

	response.Success(c, http.StatusOK, payload)
}

// Stats returns current cache table row counts.
func (h *MaintenanceHandler) Stats(c *gin.Context) {
	counts, err := h.cleaner.Stats(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, counts)
}
