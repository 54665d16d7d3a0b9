package repository

import (
	"database/sql"
	"fmt"
	"time"

	"maestro/model"
)

// LikeRepository tracks per-user like state for songs. A (user, track)
// pair is either liked or not; both transitions are idempotent.
type LikeRepository interface {
	Like(userID int64, trackID string) (*model.Like, error)
	Unlike(userID int64, trackID string) error
	IsLiked(userID int64, trackID string) (bool, error)
	ListByUser(userID int64) ([]*model.Song, error)
}

// sqlLikeRepository implements LikeRepository over database/sql.
type sqlLikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new sqlLikeRepository.
func NewLikeRepository(db *sql.DB) LikeRepository {
	return &sqlLikeRepository{db: db}
}

// Like records that userID liked trackID. Liking an already-liked track
// returns the existing row unchanged: the unique constraint on
// (user_id, track_id) catches the duplicate insert and the row is re-read.
func (r *sqlLikeRepository) Like(userID int64, trackID string) (*model.Like, error) {
	now := time.Now()
	res, err := r.db.Exec("INSERT INTO likes (user_id, track_id, created_at) VALUES (?, ?, ?)",
		userID, trackID, now)
	if err != nil {
		if isUniqueViolation(err) {
			existing, readErr := r.get(userID, trackID)
			if readErr != nil {
				return nil, readErr
			}
			if existing == nil {
				return nil, fmt.Errorf("like (user %d, track %s) conflicted on insert but is not readable", userID, trackID)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert like (user %d, track %s): %w", userID, trackID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for like: %w", err)
	}
	return &model.Like{ID: id, UserID: userID, TrackID: trackID, CreatedAt: now}, nil
}

func (r *sqlLikeRepository) get(userID int64, trackID string) (*model.Like, error) {
	row := r.db.QueryRow("SELECT id, user_id, track_id, created_at FROM likes WHERE user_id = ? AND track_id = ?",
		userID, trackID)
	like := &model.Like{}
	err := row.Scan(&like.ID, &like.UserID, &like.TrackID, &like.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan like (user %d, track %s): %w", userID, trackID, err)
	}
	return like, nil
}

// Unlike removes the like if present. Unliking a track that isn't liked is
// a no-op; the pair is already in the NotLiked state.
func (r *sqlLikeRepository) Unlike(userID int64, trackID string) error {
	_, err := r.db.Exec("DELETE FROM likes WHERE user_id = ? AND track_id = ?", userID, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete like (user %d, track %s): %w", userID, trackID, err)
	}
	return nil
}

// IsLiked reports whether userID has liked trackID.
func (r *sqlLikeRepository) IsLiked(userID int64, trackID string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM likes WHERE user_id = ? AND track_id = ?", userID, trackID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check like (user %d, track %s): %w", userID, trackID, err)
	}
	return true, nil
}

// ListByUser returns the songs a user has liked, most recent first.
func (r *sqlLikeRepository) ListByUser(userID int64) ([]*model.Song, error) {
	query := `SELECT s.id, s.track_id, s.track_name, s.track_uri, s.artist_name, s.artist_id, s.album, s.album_art,
		s.tempo, s.tempo_confidence, s.time_signature, s.time_signature_confidence,
		s.key_name, s.key_confidence, s.mode, s.mode_confidence, s.duration, s.loudness, s.created_at, s.updated_at
		FROM likes l JOIN songs s ON s.track_id = l.track_id
		WHERE l.user_id = ? ORDER BY l.created_at DESC, l.id DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes for user %d: %w", userID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liked song for user %d: %w", userID, err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListByUser: %w", err)
	}
	return songs, nil
}
