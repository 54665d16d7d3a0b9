package server

import (
	"context"
	"encoding/json"
	"net/http"

	"maestro/config"
	"maestro/logger"
	"maestro/model"
	"maestro/repository"

	"github.com/go-playground/validator/v10"
)

// CatalogService is what the handlers need from the external music catalog.
// Satisfied by *catalog.Client; tests substitute a stub.
type CatalogService interface {
	Search(ctx context.Context, searchType, term string) ([]model.SearchResult, error)
	TrackAnalysis(ctx context.Context, trackID string) (*model.TrackAnalysis, error)
	ArtistAlbums(ctx context.Context, artistID string) ([]model.SearchResult, error)
	AlbumTracks(ctx context.Context, albumID string) ([]model.SearchResult, error)
}

// APIHandler bundles the repositories and collaborators behind the HTTP
// surface. Handlers receive the acting user explicitly through the request
// context set by AuthMiddleware; there is no ambient current-user state.
type APIHandler struct {
	userRepo     repository.UserRepository
	songRepo     repository.SongRepository
	playlistRepo repository.PlaylistRepository
	likeRepo     repository.LikeRepository
	catalog      CatalogService
	validate     *validator.Validate
	cfg          *config.Config
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	likeRepo repository.LikeRepository,
	catalogClient CatalogService,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		songRepo:     songRepo,
		playlistRepo: playlistRepo,
		likeRepo:     likeRepo,
		catalog:      catalogClient,
		validate:     validator.New(),
		cfg:          cfg,
	}
}

// writeJSON encodes payload as the response body.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError sends a JSON error message. Raw store errors never reach the
// client; callers pass a user-facing message and log the cause themselves.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate decodes the request body into dst and runs the
// validator over it. A false return means the response is already written.
func (h *APIHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}
