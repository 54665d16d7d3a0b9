package server

import (
	"errors"
	"net/http"

	"maestro/logger"
	"maestro/repository"
)

// UpdateProfileRequest represents a profile edit.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// ProfileHandler returns the acting user's profile with their playlists
// and liked songs.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("Failed to get user profile", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get user profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	playlists, err := h.playlistRepo.GetByUserID(userID)
	if err != nil {
		logger.Error("Failed to list playlists for profile", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get user profile")
		return
	}

	liked, err := h.likeRepo.ListByUser(userID)
	if err != nil {
		logger.Error("Failed to list likes for profile", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get user profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"playlists":  playlists,
		"likedSongs": liked,
	})
}

// UpdateProfileHandler changes the acting user's username and email.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userRepo.UpdateUser(userID, req.Username, req.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			writeError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, repository.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "Email already taken")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			logger.Error("Failed to update user", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

// DeleteAccountHandler removes the acting user's account. Their playlists,
// playlist entries and likes go with it; song rows stay.
func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.userRepo.DeleteUser(userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error("Failed to delete user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	logger.Info("User account deleted", logger.Int64("userId", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
