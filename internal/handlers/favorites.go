package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filmatlas/filmatlas/internal/services"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/response"
)

// FavoriteHandler exposes the per-user saved movies APIs.
type FavoriteHandler struct {
	svc *services.FavoriteService
}

// NewFavoriteHandler constructs a handler using the provided service.
func NewFavoriteHandler(svc *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

type saveFavoritePayload struct {
	MovieID      int64  `json:"movie_id" validate:"required"`
	MediaType    string `json:"media_type" validate:"required,oneof=movie tv"`
	Title        string `json:"title" validate:"required"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type removeFavoritePayload struct {
	MovieID int64 `json:"movie_id" validate:"required"`
}

// Save pins a title for the calling user.
func (h *FavoriteHandler) Save(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload saveFavoritePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	saved, err := h.svc.Save(requestContext(c), services.SaveFavoriteInput{
		UserID:       userID,
		MovieID:      payload.MovieID,
		MediaType:    payload.MediaType,
		Title:        payload.Title,
		PosterPath:   payload.PosterPath,
		BackdropPath: payload.BackdropPath,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, saved)
}

// Remove unpins a title for the calling user.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload removeFavoritePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.svc.Remove(requestContext(c), userID, payload.MovieID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// List returns the calling user's saved titles.
func (h *FavoriteHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rows, err := h.svc.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rows)
}

// IsSaved reports whether the calling user has pinned the given title.
func (h *FavoriteHandler) IsSaved(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	_, id, ok := parseMediaPath(c)
	if !ok {
		return
	}

	saved, err := h.svc.IsSaved(requestContext(c), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": saved})
}
