package server

import (
	"errors"
	"net/http"

	"maestro/cache"
	"maestro/core/catalog"
	"maestro/logger"

	"github.com/gorilla/mux"
)

// SearchHandler queries the catalog for tracks, artists or albums. Results
// are cached in Redis keyed by type and term.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	searchType := r.URL.Query().Get("type")
	term := r.URL.Query().Get("term")

	if term == "" {
		writeError(w, http.StatusBadRequest, "Search term is required")
		return
	}
	if !catalog.ValidSearchType(searchType) {
		writeError(w, http.StatusBadRequest, "Search type must be track, artist or album")
		return
	}

	ctx := r.Context()
	if cached, err := cache.GetSearch(ctx, searchType, term); err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": cached})
		return
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("Search cache read failed", logger.ErrorField(err))
	}

	results, err := h.catalog.Search(ctx, searchType, term)
	if err != nil {
		logger.Error("Catalog search failed",
			logger.String("type", searchType),
			logger.String("term", term),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Music catalog is unavailable, please try again")
		return
	}

	if err := cache.SetSearch(ctx, searchType, term, results); err != nil {
		logger.Warn("Search cache write failed", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ArtistAlbumsHandler lists an artist's albums from the catalog.
func (h *APIHandler) ArtistAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	artistID := mux.Vars(r)["artist_id"]

	albums, err := h.catalog.ArtistAlbums(r.Context(), artistID)
	if err != nil {
		logger.Error("Failed to fetch artist albums",
			logger.String("artistId", artistID),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Music catalog is unavailable, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"albums": albums})
}

// AlbumTracksHandler lists an album's tracks from the catalog.
func (h *APIHandler) AlbumTracksHandler(w http.ResponseWriter, r *http.Request) {
	albumID := mux.Vars(r)["album_id"]

	tracks, err := h.catalog.AlbumTracks(r.Context(), albumID)
	if err != nil {
		logger.Error("Failed to fetch album tracks",
			logger.String("albumId", albumID),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Music catalog is unavailable, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}
