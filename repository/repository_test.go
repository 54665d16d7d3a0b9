package repository

import (
	"database/sql"
	"testing"
	"time"

	"maestro/db"
	"maestro/model"

	_ "github.com/mattn/go-sqlite3"
)

// newTestDB opens an in-memory sqlite database with the full schema and
// foreign keys on, so constraint and cascade behavior match production.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}
	// In-memory sqlite is per-connection; a second pooled connection
	// would see an empty database.
	d.SetMaxOpenConns(1)
	if err := db.InitSchema(d, "sqlite3"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func createTestUser(t *testing.T, d *sql.DB, username, email string) int64 {
	t.Helper()
	id, err := NewUserRepository(d).CreateUser(&model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func testSong(trackID string) *model.Song {
	return &model.Song{
		TrackID:                 trackID,
		TrackName:               "Song " + trackID,
		TrackURI:                "spotify:track:" + trackID,
		ArtistName:              "Artist",
		ArtistID:                "artist1",
		Album:                   "Album",
		AlbumArt:                "http://img/album.jpg",
		Tempo:                   120,
		TempoConfidence:         92,
		TimeSignature:           4,
		TimeSignatureConfidence: 100,
		Key:                     "C",
		KeyConfidence:           63,
		Mode:                    "Major",
		ModeConfidence:          49,
		Duration:                3.78,
		Loudness:                -7.36,
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
}

func countRows(t *testing.T, d *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
