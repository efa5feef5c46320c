package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/app/maintenance"
	"github.com/filmatlas/filmatlas/internal/database/testutil"
	"github.com/filmatlas/filmatlas/internal/models"
)

type cleanupResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Before  maintenance.TableCounts  `json:"before"`
		After   maintenance.TableCounts  `json:"after"`
		Cleaned maintenance.CleanupStats `json:"cleaned"`
		Errors  []string                 `json:"errors"`
	} `json:"data"`
}

func newCleanupRouter(t *testing.T, now time.Time) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	cleaner, err := maintenance.NewCleaner(db, maintenance.WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	r := gin.New()
	r.POST("/cleanup", NewMaintenanceHandler(cleaner).Cleanup)
	return r, db
}

func postCleanup(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, cleanupResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cleanup", nil))

	var body cleanupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestCleanupReportsCounts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r, db := newCleanupRouter(t, now)

	require.NoError(t, db.Create(&models.MovieCache{
		MovieID:   1,
		MediaType: models.MediaTypeMovie,
		CachedAt:  now.Add(-48 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.MovieCache{
		MovieID:   2,
		MediaType: models.MediaTypeMovie,
		CachedAt:  now.Add(-time.Hour),
	}).Error)

	w, body := postCleanup(t, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)
	require.Equal(t, int64(2), body.Data.Before.MovieCache)
	require.Equal(t, int64(1), body.Data.Cleaned.MovieCache)
	require.Equal(t, int64(1), body.Data.After.MovieCache)
	require.Empty(t, body.Data.Errors)
}

func TestCleanupSweepsRemainingTablesWhenOneIsBroken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r, db := newCleanupRouter(t, now)

	require.NoError(t, db.Create(&models.MovieCache{
		MovieID:   1,
		MediaType: models.MediaTypeMovie,
		CachedAt:  now.Add(-48 * time.Hour),
	}).Error)
	require.NoError(t, db.Migrator().DropTable(&models.SpotifyToken{}))

	w, body := postCleanup(t, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)
	require.Equal(t, int64(1), body.Data.Cleaned.MovieCache)
	require.NotEmpty(t, body.Data.Errors)

	var remaining int64
	require.NoError(t, db.Model(&models.MovieCache{}).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestCleanupFailsWhenEveryTableIsBroken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r, db := newCleanupRouter(t, now)

	require.NoError(t, db.Migrator().DropTable(&models.SpotifyToken{}))
	require.NoError(t, db.Migrator().DropTable(&models.MovieCache{}))
	require.NoError(t, db.Migrator().DropTable(&models.SoundtrackCache{}))

	w, body := postCleanup(t, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.False(t, body.Success)
}
