package model

import "time"

// Like records that a user liked a song, keyed by the song's external track
// identifier. At most one row exists per (user, track) pair.
type Like struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	TrackID   string    `json:"trackId"`
	CreatedAt time.Time `json:"createdAt"`
}
