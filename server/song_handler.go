package server

import (
	"context"
	"errors"
	"net/http"

	"maestro/cache"
	"maestro/core/catalog"
	"maestro/logger"
	"maestro/model"

	"github.com/gorilla/mux"
)

// songResolveFailure maps a fetch or resolve error to a response: upstream
// catalog failures are retryable 502s, anything else is a local failure.
func songResolveFailure(err error) (int, string) {
	if errors.Is(err, catalog.ErrUpstream) {
		return http.StatusBadGateway, "Music catalog is unavailable, please try again"
	}
	return http.StatusInternalServerError, "Failed to load song"
}

// fetchAnalysis resolves a track's analysis through the cache, falling
// back to the catalog. The catalog call happens before any local write so
// an upstream failure never leaves partial rows behind.
func (h *APIHandler) fetchAnalysis(ctx context.Context, trackID string) (*model.TrackAnalysis, error) {
	if cached, err := cache.GetAnalysis(ctx, trackID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("Analysis cache read failed", logger.ErrorField(err))
	}

	analysis, err := h.catalog.TrackAnalysis(ctx, trackID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetAnalysis(ctx, analysis); err != nil {
		logger.Warn("Analysis cache write failed", logger.ErrorField(err))
	}
	return analysis, nil
}

// resolveSong returns the registered song for trackID, fetching its
// analysis and registering it when it isn't known locally yet. Songs are
// only ever created here on demand, never speculatively.
func (h *APIHandler) resolveSong(ctx context.Context, trackID string) (*model.Song, error) {
	song, err := h.songRepo.GetByTrackID(trackID)
	if err != nil {
		return nil, err
	}
	if song != nil {
		return song, nil
	}

	analysis, err := h.fetchAnalysis(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return h.songRepo.GetOrCreate(model.SongFromAnalysis(analysis))
}

// SongDetailHandler shows the translated audio analysis of a track plus
// the acting user's like state. Viewing never persists a song row.
func (h *APIHandler) SongDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	trackID := mux.Vars(r)["track_id"]

	analysis, err := h.fetchAnalysis(r.Context(), trackID)
	if err != nil {
		logger.Error("Failed to fetch track analysis",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		status, msg := songResolveFailure(err)
		writeError(w, status, msg)
		return
	}

	liked, err := h.likeRepo.IsLiked(userID, trackID)
	if err != nil {
		logger.Error("Failed to check like state", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load song details")
		return
	}

	playlists, err := h.playlistRepo.GetByUserID(userID)
	if err != nil {
		logger.Error("Failed to list playlists for song detail", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load song details")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"song":      model.SongFromAnalysis(analysis),
		"liked":     liked,
		"playlists": playlists,
	})
}

// LikeSongHandler likes a track for the acting user, registering the song
// first when it isn't known locally. Liking twice is a no-op.
func (h *APIHandler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	trackID := mux.Vars(r)["track_id"]

	song, err := h.resolveSong(r.Context(), trackID)
	if err != nil {
		logger.Error("Failed to resolve song for like",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		status, msg := songResolveFailure(err)
		writeError(w, status, msg)
		return
	}

	like, err := h.likeRepo.Like(userID, song.TrackID)
	if err != nil {
		logger.Error("Failed to like song", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to like song")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Song liked",
		"like":    like,
	})
}

// UnlikeSongHandler removes the acting user's like for a track. Unliking
// a track that isn't liked is a no-op.
func (h *APIHandler) UnlikeSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	trackID := mux.Vars(r)["track_id"]

	if err := h.likeRepo.Unlike(userID, trackID); err != nil {
		logger.Error("Failed to unlike song", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to unlike song")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Song unliked"})
}

// LikedSongsHandler lists the songs the acting user has liked.
func (h *APIHandler) LikedSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	songs, err := h.likeRepo.ListByUser(userID)
	if err != nil {
		logger.Error("Failed to list liked songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list liked songs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}
