package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"maestro/logger"
	"maestro/model"
	"maestro/repository"

	"github.com/gorilla/mux"
)

// CreatePlaylistRequest represents the playlist creation body. An initial
// track may be supplied so a playlist can be created straight from a song
// page.
type CreatePlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=140"`
	TrackID     string `json:"trackId"`
}

// AddSongRequest represents the body for adding a song to a playlist.
type AddSongRequest struct {
	TrackID string `json:"trackId" validate:"required"`
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// ListPlaylistsHandler returns the acting user's playlists.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlists, err := h.playlistRepo.GetByUserID(userID)
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list playlists")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// CreatePlaylistHandler creates a playlist for the acting user and, when a
// track is supplied, resolves it against the catalog and adds it. The
// catalog fetch happens before the playlist row is written so an upstream
// failure creates nothing.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePlaylistRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var song *model.Song
	if req.TrackID != "" {
		song, err = h.resolveSong(r.Context(), req.TrackID)
		if err != nil {
			logger.Error("Failed to resolve initial track for playlist",
				logger.String("trackId", req.TrackID),
				logger.ErrorField(err))
			status, msg := songResolveFailure(err)
			writeError(w, status, msg)
			return
		}
	}

	playlist := &model.Playlist{
		Name:   req.Name,
		UserID: userID,
	}
	if req.Description != "" {
		playlist.Description = sql.NullString{String: req.Description, Valid: true}
	}

	// With an initial track the playlist insert and the association share
	// one transaction, so a failure partway creates no playlist at all.
	var playlistID int64
	if song != nil {
		playlistID, err = h.playlistRepo.CreateWithSong(playlist, song)
	} else {
		playlistID, err = h.playlistRepo.Create(playlist)
	}
	if err != nil {
		logger.Error("Failed to create playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}
	playlist.ID = playlistID

	logger.Info("Playlist created",
		logger.Int64("playlistId", playlistID),
		logger.Int64("userId", userID))
	writeJSON(w, http.StatusCreated, map[string]interface{}{"playlist": playlist})
}

// GetPlaylistHandler returns one of the acting user's playlists with its
// songs in add order.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetByID(playlistID)
	if err != nil {
		logger.Error("Failed to get playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get playlist")
		return
	}
	if playlist == nil || playlist.UserID != userID {
		// A foreign playlist is indistinguishable from a missing one.
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	songs, err := h.playlistRepo.Songs(playlistID)
	if err != nil {
		logger.Error("Failed to list playlist songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get playlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlist": playlist,
		"songs":    songs,
	})
}

// DeletePlaylistHandler deletes one of the acting user's playlists. The
// playlist's song associations go with it; the songs themselves stay.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetByID(playlistID)
	if err != nil {
		logger.Error("Failed to get playlist for delete", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete playlist")
		return
	}
	if playlist == nil || playlist.UserID != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if err := h.playlistRepo.Delete(playlistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to delete playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete playlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted"})
}

// AddSongToPlaylistHandler resolves a track through the catalog and
// appends it to one of the acting user's playlists. Repeat adds append
// repeat entries.
func (h *APIHandler) AddSongToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	var req AddSongRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	playlist, err := h.playlistRepo.GetByID(playlistID)
	if err != nil {
		logger.Error("Failed to get playlist for add", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to add song to playlist")
		return
	}
	if playlist == nil || playlist.UserID != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	// Catalog round trip first; the write transaction only opens once the
	// metadata is in hand.
	song, err := h.resolveSong(r.Context(), req.TrackID)
	if err != nil {
		logger.Error("Failed to resolve song for playlist add",
			logger.String("trackId", req.TrackID),
			logger.ErrorField(err))
		status, msg := songResolveFailure(err)
		writeError(w, status, msg)
		return
	}

	playlistSong, err := h.playlistRepo.AddSong(playlistID, userID, song)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to add song to playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to add song to playlist")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Song added to playlist",
		"playlistSong": playlistSong,
		"song":         song,
	})
}

// RemoveSongFromPlaylistHandler removes one association row. Removing a
// song that isn't in the playlist is a 404, matching the delete policy.
func (h *APIHandler) RemoveSongFromPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}
	songID, err := pathID(r, "song_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	playlist, err := h.playlistRepo.GetByID(playlistID)
	if err != nil {
		logger.Error("Failed to get playlist for remove", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to remove song from playlist")
		return
	}
	if playlist == nil || playlist.UserID != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if err := h.playlistRepo.RemoveSong(playlistID, songID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Song not in playlist")
			return
		}
		logger.Error("Failed to remove song from playlist", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to remove song from playlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Song removed from playlist"})
}
