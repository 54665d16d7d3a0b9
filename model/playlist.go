package model

import (
	"database/sql"
	"time"
)

// Playlist belongs to exactly one user. Names are not unique.
type Playlist struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description sql.NullString `json:"description"`
	UserID      int64          `json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PlaylistSong links a playlist to a song and records who added it. The
// schema deliberately allows the same (playlist, song) pair more than once,
// so repeat adds append repeat rows.
type PlaylistSong struct {
	ID         int64     `json:"id"`
	PlaylistID int64     `json:"playlistId"`
	SongID     int64     `json:"songId"`
	UserID     int64     `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}
