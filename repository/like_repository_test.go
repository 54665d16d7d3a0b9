package repository

import (
	"testing"
)

func TestLikeIsIdempotent(t *testing.T) {
	d := newTestDB(t)
	likeRepo := NewLikeRepository(d)
	songRepo := NewSongRepository(d)
	userID := createTestUser(t, d, "alice", "alice@x.com")

	if _, err := songRepo.GetOrCreate(testSong("abc123")); err != nil {
		t.Fatal(err)
	}

	first, err := likeRepo.Like(userID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	second, err := likeRepo.Like(userID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same like row, got %d and %d", first.ID, second.ID)
	}
	if n := countRows(t, d, "likes"); n != 1 {
		t.Errorf("expected exactly 1 like row, got %d", n)
	}
}

func TestLikeUnknownTrackFails(t *testing.T) {
	d := newTestDB(t)
	likeRepo := NewLikeRepository(d)
	userID := createTestUser(t, d, "alice", "alice@x.com")

	// No song row exists, so the insert trips the track foreign key. That
	// must surface as an error, not be mistaken for an already-liked pair.
	like, err := likeRepo.Like(userID, "no-such-track")
	if err == nil {
		t.Fatalf("expected error, got like %+v", like)
	}
	if like != nil {
		t.Errorf("expected nil like on failure, got %+v", like)
	}
	if n := countRows(t, d, "likes"); n != 0 {
		t.Errorf("expected 0 like rows, got %d", n)
	}
}

func TestLikeUnlikeStateMachine(t *testing.T) {
	d := newTestDB(t)
	likeRepo := NewLikeRepository(d)
	songRepo := NewSongRepository(d)
	userID := createTestUser(t, d, "alice", "alice@x.com")

	if _, err := songRepo.GetOrCreate(testSong("abc123")); err != nil {
		t.Fatal(err)
	}

	liked, err := likeRepo.IsLiked(userID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if liked {
		t.Error("fresh pair should not be liked")
	}

	if _, err := likeRepo.Like(userID, "abc123"); err != nil {
		t.Fatal(err)
	}
	liked, err = likeRepo.IsLiked(userID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !liked {
		t.Error("expected liked after Like")
	}

	if err := likeRepo.Unlike(userID, "abc123"); err != nil {
		t.Fatal(err)
	}
	liked, err = likeRepo.IsLiked(userID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if liked {
		t.Error("expected not liked after Unlike")
	}

	// Unlike of an absent like is a no-op.
	if err := likeRepo.Unlike(userID, "abc123"); err != nil {
		t.Fatal(err)
	}
}

func TestListByUser(t *testing.T) {
	d := newTestDB(t)
	likeRepo := NewLikeRepository(d)
	songRepo := NewSongRepository(d)
	userID := createTestUser(t, d, "alice", "alice@x.com")
	otherID := createTestUser(t, d, "bob", "bob@x.com")

	for _, trackID := range []string{"aaa", "bbb"} {
		if _, err := songRepo.GetOrCreate(testSong(trackID)); err != nil {
			t.Fatal(err)
		}
		if _, err := likeRepo.Like(userID, trackID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := likeRepo.Like(otherID, "aaa"); err != nil {
		t.Fatal(err)
	}

	songs, err := likeRepo.ListByUser(userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 liked songs, got %d", len(songs))
	}

	songs, err = likeRepo.ListByUser(otherID)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 1 || songs[0].TrackID != "aaa" {
		t.Errorf("unexpected likes for other user: %+v", songs)
	}
}
