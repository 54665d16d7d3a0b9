package repository

import (
	"database/sql"
	"fmt"
	"time"

	"maestro/logger"
	"maestro/model"
)

// SongRepository is the registry of locally persisted tracks. A song row is
// created lazily the first time a track is liked or added to a playlist,
// and at most one row ever exists per external track identifier.
type SongRepository interface {
	GetOrCreate(song *model.Song) (*model.Song, error)
	GetByTrackID(trackID string) (*model.Song, error)
	GetByID(id int64) (*model.Song, error)
}

// sqlSongRepository implements SongRepository over database/sql.
type sqlSongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new sqlSongRepository.
func NewSongRepository(db *sql.DB) SongRepository {
	return &sqlSongRepository{db: db}
}

const songColumns = `id, track_id, track_name, track_uri, artist_name, artist_id, album, album_art,
	tempo, tempo_confidence, time_signature, time_signature_confidence,
	key_name, key_confidence, mode, mode_confidence, duration, loudness, created_at, updated_at`

const insertSongQuery = `INSERT INTO songs (track_id, track_name, track_uri, artist_name, artist_id, album, album_art,
	tempo, tempo_confidence, time_signature, time_signature_confidence,
	key_name, key_confidence, mode, mode_confidence, duration, loudness, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.TrackID, &song.TrackName, &song.TrackURI,
		&song.ArtistName, &song.ArtistID, &song.Album, &song.AlbumArt,
		&song.Tempo, &song.TempoConfidence, &song.TimeSignature, &song.TimeSignatureConfidence,
		&song.Key, &song.KeyConfidence, &song.Mode, &song.ModeConfidence,
		&song.Duration, &song.Loudness, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, err
	}
	return song, nil
}

// GetOrCreate persists song unless a row for its track identifier already
// exists, and returns the stored row either way. The insert is attempted
// first and the unique constraint on track_id resolves concurrent calls: a
// conflicting insert falls back to re-reading the winner's row.
func (r *sqlSongRepository) GetOrCreate(song *model.Song) (*model.Song, error) {
	return getOrCreateSong(r.db, song)
}

// GetOrCreateSongTx is GetOrCreate running inside an existing transaction,
// for callers composing the song insert with an association write.
func GetOrCreateSongTx(tx *sql.Tx, song *model.Song) (*model.Song, error) {
	return getOrCreateSong(tx, song)
}

// execQuerier is the subset of sql.DB/sql.Tx the song registry needs.
type execQuerier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func getOrCreateSong(q execQuerier, song *model.Song) (*model.Song, error) {
	now := time.Now()
	res, err := q.Exec(insertSongQuery,
		song.TrackID, song.TrackName, song.TrackURI, song.ArtistName, song.ArtistID,
		song.Album, song.AlbumArt,
		song.Tempo, song.TempoConfidence, song.TimeSignature, song.TimeSignatureConfidence,
		song.Key, song.KeyConfidence, song.Mode, song.ModeConfidence,
		song.Duration, song.Loudness, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			existing, readErr := getSongByTrackID(q, song.TrackID)
			if readErr != nil {
				return nil, readErr
			}
			if existing == nil {
				return nil, fmt.Errorf("song %s conflicted on insert but is not readable", song.TrackID)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert song %s: %w", song.TrackID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}

	created := *song
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	logger.Debug("Song registered",
		logger.Int64("songId", id),
		logger.String("trackId", song.TrackID))
	return &created, nil
}

func getSongByTrackID(q execQuerier, trackID string) (*model.Song, error) {
	row := q.QueryRow("SELECT "+songColumns+" FROM songs WHERE track_id = ?", trackID)
	song, err := scanSong(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan song for track ID %s: %w", trackID, err)
	}
	return song, nil
}

// GetByTrackID retrieves a song by its external track identifier.
func (r *sqlSongRepository) GetByTrackID(trackID string) (*model.Song, error) {
	return getSongByTrackID(r.db, trackID)
}

// GetByID retrieves a song by its local ID.
func (r *sqlSongRepository) GetByID(id int64) (*model.Song, error) {
	row := r.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan song for ID %d: %w", id, err)
	}
	return song, nil
}
