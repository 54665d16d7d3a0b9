package repository

import (
	"database/sql"
	"fmt"
	"time"

	"maestro/logger"
	"maestro/model"
)

// PlaylistRepository owns playlists and the playlist/song associations.
type PlaylistRepository interface {
	Create(playlist *model.Playlist) (int64, error)
	CreateWithSong(playlist *model.Playlist, song *model.Song) (int64, error)
	GetByID(id int64) (*model.Playlist, error)
	GetByUserID(userID int64) ([]*model.Playlist, error)
	AddSong(playlistID, userID int64, song *model.Song) (*model.PlaylistSong, error)
	RemoveSong(playlistID, songID int64) error
	Delete(id int64) error
	Songs(playlistID int64) ([]*model.Song, error)
}

// sqlPlaylistRepository implements PlaylistRepository over database/sql.
type sqlPlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new sqlPlaylistRepository.
func NewPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &sqlPlaylistRepository{db: db}
}

// Create adds a new playlist. Names are not unique; creating always
// succeeds for a valid owner.
func (r *sqlPlaylistRepository) Create(playlist *model.Playlist) (int64, error) {
	query := "INSERT INTO playlists (name, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	now := time.Now()
	res, err := r.db.Exec(query, playlist.Name, playlist.Description, playlist.UserID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	return id, nil
}

// CreateWithSong adds a new playlist seeded with one song. The playlist
// insert, the song registration and the association all share a single
// transaction; if any step fails no playlist is left behind.
func (r *sqlPlaylistRepository) CreateWithSong(playlist *model.Playlist, song *model.Song) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin create playlist transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec("INSERT INTO playlists (name, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		playlist.Name, playlist.Description, playlist.UserID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create playlist: %w", err)
	}
	playlistID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}

	if _, err := addSongTx(tx, playlistID, playlist.UserID, song); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit create playlist transaction: %w", err)
	}

	logger.Debug("Playlist created with initial song",
		logger.Int64("playlistId", playlistID),
		logger.String("trackId", song.TrackID))
	return playlistID, nil
}

// GetByID retrieves a playlist by its ID.
func (r *sqlPlaylistRepository) GetByID(id int64) (*model.Playlist, error) {
	query := "SELECT id, name, description, user_id, created_at, updated_at FROM playlists WHERE id = ?"
	row := r.db.QueryRow(query, id)
	p := &model.Playlist{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist %d: %w", id, err)
	}
	return p, nil
}

// GetByUserID retrieves all playlists owned by a user, newest first.
func (r *sqlPlaylistRepository) GetByUserID(userID int64) ([]*model.Playlist, error) {
	query := "SELECT id, name, description, user_id, created_at, updated_at FROM playlists WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for user %d: %w", userID, err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		p := &model.Playlist{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist in GetByUserID: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetByUserID: %w", err)
	}
	return playlists, nil
}

// AddSong registers the song if needed and appends an association row
// attributed to userID, all in one transaction so a failure partway leaves
// nothing behind. Repeat adds of the same song are not deduplicated; each
// call appends another row.
func (r *sqlPlaylistRepository) AddSong(playlistID, userID int64, song *model.Song) (*model.PlaylistSong, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin add song transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRow("SELECT id FROM playlists WHERE id = ?", playlistID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check playlist %d: %w", playlistID, err)
	}

	playlistSong, err := addSongTx(tx, playlistID, userID, song)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit add song transaction: %w", err)
	}

	logger.Debug("Song added to playlist",
		logger.Int64("playlistId", playlistID),
		logger.Int64("songId", playlistSong.SongID),
		logger.Int64("userId", userID))
	return playlistSong, nil
}

// addSongTx registers the song and inserts the association row inside an
// existing transaction.
func addSongTx(tx *sql.Tx, playlistID, userID int64, song *model.Song) (*model.PlaylistSong, error) {
	stored, err := GetOrCreateSongTx(tx, song)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := tx.Exec("INSERT INTO playlist_songs (playlist_id, song_id, user_id, created_at) VALUES (?, ?, ?, ?)",
		playlistID, stored.ID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playlist song: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for playlist song: %w", err)
	}

	return &model.PlaylistSong{
		ID:         id,
		PlaylistID: playlistID,
		SongID:     stored.ID,
		UserID:     userID,
		CreatedAt:  now,
	}, nil
}

// RemoveSong deletes the first matching association row. A miss is
// signaled as ErrNotFound rather than ignored; the song row itself is
// never touched.
func (r *sqlPlaylistRepository) RemoveSong(playlistID, songID int64) error {
	var assocID int64
	err := r.db.QueryRow(
		"SELECT id FROM playlist_songs WHERE playlist_id = ? AND song_id = ? ORDER BY id LIMIT 1",
		playlistID, songID).Scan(&assocID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find playlist song (playlist %d, song %d): %w", playlistID, songID, err)
	}

	if _, err := r.db.Exec("DELETE FROM playlist_songs WHERE id = ?", assocID); err != nil {
		return fmt.Errorf("failed to delete playlist song %d: %w", assocID, err)
	}
	return nil
}

// Delete removes a playlist; its association rows cascade away while the
// referenced songs remain shared across the rest of the library.
func (r *sqlPlaylistRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Songs returns the songs of a playlist in the order they were added.
// Duplicate associations yield duplicate entries.
func (r *sqlPlaylistRepository) Songs(playlistID int64) ([]*model.Song, error) {
	query := `SELECT s.id, s.track_id, s.track_name, s.track_uri, s.artist_name, s.artist_id, s.album, s.album_art,
		s.tempo, s.tempo_confidence, s.time_signature, s.time_signature_confidence,
		s.key_name, s.key_confidence, s.mode, s.mode_confidence, s.duration, s.loudness, s.created_at, s.updated_at
		FROM playlist_songs ps JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ? ORDER BY ps.id`
	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for playlist %d: %w", playlistID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in playlist %d: %w", playlistID, err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in Songs: %w", err)
	}
	return songs, nil
}
