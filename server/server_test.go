package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maestro/config"
	"maestro/core/auth"
	"maestro/core/catalog"
	"maestro/db"
	"maestro/model"
	"maestro/repository"

	_ "github.com/mattn/go-sqlite3"
)

// stubCatalog serves canned catalog responses so handler tests never
// touch the network.
type stubCatalog struct {
	analyses map[string]*model.TrackAnalysis
	results  []model.SearchResult
	err      error
}

func (s *stubCatalog) Search(ctx context.Context, searchType, term string) ([]model.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubCatalog) TrackAnalysis(ctx context.Context, trackID string) (*model.TrackAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.analyses[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: track %s not found", catalog.ErrUpstream, trackID)
	}
	return a, nil
}

func (s *stubCatalog) ArtistAlbums(ctx context.Context, artistID string) ([]model.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubCatalog) AlbumTracks(ctx context.Context, albumID string) ([]model.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func analysisFixture(trackID string) *model.TrackAnalysis {
	return &model.TrackAnalysis{
		TrackID:                 trackID,
		TrackName:               "Test Track",
		TrackURI:                "spotify:track:" + trackID,
		ArtistName:              "Test Artist",
		ArtistID:                "artist1",
		Album:                   "Test Album",
		AlbumArt:                "http://img/album.jpg",
		DurationMs:              227080,
		Tempo:                   120,
		TempoConfidence:         0.92,
		TimeSignature:           4,
		TimeSignatureConfidence: 1,
		Key:                     0,
		KeyConfidence:           0.63,
		Mode:                    1,
		ModeConfidence:          0.71,
		Loudness:                -7.2,
	}
}

// newTestServer wires the handler stack over an in-memory sqlite store
// and the stub catalog, returning a running httptest server plus the
// database for direct row assertions.
func newTestServer(t *testing.T, cat CatalogService) (*httptest.Server, *sql.DB) {
	t.Helper()
	auth.Configure("test-secret", time.Hour)

	d, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}
	d.SetMaxOpenConns(1)
	if err := db.InitSchema(d, "sqlite3"); err != nil {
		t.Fatal(err)
	}

	h := NewAPIHandler(
		repository.NewUserRepository(d),
		repository.NewSongRepository(d),
		repository.NewPlaylistRepository(d),
		repository.NewLikeRepository(d),
		cat,
		&config.Config{},
	)
	ts := httptest.NewServer(NewRouter(h))
	t.Cleanup(func() {
		ts.Close()
		d.Close()
	})
	return ts, d
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	return resp, decoded
}

func register(t *testing.T, ts *httptest.Server, username, email string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", username, resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", username, body)
	}
	return token
}

func countRowsT(t *testing.T, d *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, &stubCatalog{})

	register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d, body %v", resp.StatusCode, body)
	}
	if body["token"] == "" {
		t.Fatal("login returned no token")
	}

	// Email works as the login identifier too.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"username": "alice@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login by email: status %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", resp.StatusCode)
	}
	if body["error"] != "Invalid username or password" {
		t.Fatalf("bad password: message %v", body["error"])
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	ts, d := newTestServer(t, &stubCatalog{})

	register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username: status %d", resp.StatusCode)
	}
	if body["error"] != "Username already taken" {
		t.Fatalf("duplicate username: message %v", body["error"])
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: status %d", resp.StatusCode)
	}
	if body["error"] != "Email already taken" {
		t.Fatalf("duplicate email: message %v", body["error"])
	}

	if got := countRowsT(t, d, "users"); got != 1 {
		t.Fatalf("users rows = %d, want 1", got)
	}
}

func TestPlaylistFlow(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/playlists", token, map[string]string{
		"name":        "Road Trip",
		"description": "Songs for the open road",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create playlist: status %d, body %v", resp.StatusCode, body)
	}
	playlist := body["playlist"].(map[string]interface{})
	playlistID := int64(playlist["id"].(float64))

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/playlists/%d/songs", ts.URL, playlistID), token, map[string]string{
		"trackId": trackID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add song: status %d, body %v", resp.StatusCode, body)
	}
	song := body["song"].(map[string]interface{})
	if song["key"] != "C" || song["mode"] != "Major" {
		t.Fatalf("song translation: key=%v mode=%v", song["key"], song["mode"])
	}
	if song["tempo"].(float64) != 120 {
		t.Fatalf("song tempo = %v", song["tempo"])
	}

	if got := countRowsT(t, d, "songs"); got != 1 {
		t.Fatalf("songs rows = %d, want 1", got)
	}
	if got := countRowsT(t, d, "playlist_songs"); got != 1 {
		t.Fatalf("playlist_songs rows = %d, want 1", got)
	}

	// The association carries the acting user.
	var assocUser int64
	if err := d.QueryRow("SELECT user_id FROM playlist_songs").Scan(&assocUser); err != nil {
		t.Fatal(err)
	}
	var aliceID int64
	if err := d.QueryRow("SELECT id FROM users WHERE username = 'alice'").Scan(&aliceID); err != nil {
		t.Fatal(err)
	}
	if assocUser != aliceID {
		t.Fatalf("association user = %d, want %d", assocUser, aliceID)
	}

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/playlists/%d", ts.URL, playlistID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get playlist: status %d", resp.StatusCode)
	}
	songs := body["songs"].([]interface{})
	if len(songs) != 1 {
		t.Fatalf("playlist songs = %d, want 1", len(songs))
	}

	// Adding the same track again appends another entry.
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/playlists/%d/songs", ts.URL, playlistID), token, map[string]string{
		"trackId": trackID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("re-add song: status %d", resp.StatusCode)
	}
	if got := countRowsT(t, d, "playlist_songs"); got != 2 {
		t.Fatalf("playlist_songs rows after re-add = %d, want 2", got)
	}
	if got := countRowsT(t, d, "songs"); got != 1 {
		t.Fatalf("songs rows after re-add = %d, want 1", got)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/playlists/%d", ts.URL, playlistID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete playlist: status %d", resp.StatusCode)
	}
	if got := countRowsT(t, d, "playlist_songs"); got != 0 {
		t.Fatalf("playlist_songs rows after delete = %d, want 0", got)
	}
	if got := countRowsT(t, d, "songs"); got != 1 {
		t.Fatalf("songs rows after playlist delete = %d, want 1", got)
	}
}

func TestPlaylistAddSongUpstreamFailureWritesNothing(t *testing.T) {
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/playlists", token, map[string]string{
		"name": "Road Trip",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create playlist: status %d", resp.StatusCode)
	}
	playlist := body["playlist"].(map[string]interface{})
	playlistID := int64(playlist["id"].(float64))

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/playlists/%d/songs", ts.URL, playlistID), token, map[string]string{
		"trackId": "unknown-track",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("add unknown song: status %d, body %v", resp.StatusCode, body)
	}
	if body["error"] != "Music catalog is unavailable, please try again" {
		t.Fatalf("upstream failure message: %v", body["error"])
	}
	if got := countRowsT(t, d, "songs"); got != 0 {
		t.Fatalf("songs rows = %d, want 0", got)
	}
	if got := countRowsT(t, d, "playlist_songs"); got != 0 {
		t.Fatalf("playlist_songs rows = %d, want 0", got)
	}
}

func TestPlaylistIsolationAcrossUsers(t *testing.T) {
	ts, _ := newTestServer(t, &stubCatalog{})

	aliceToken := register(t, ts, "alice", "alice@example.com")
	bobToken := register(t, ts, "bob", "bob@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/playlists", aliceToken, map[string]string{
		"name": "Private Mix",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create playlist: status %d", resp.StatusCode)
	}
	playlist := body["playlist"].(map[string]interface{})
	playlistID := int64(playlist["id"].(float64))

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/playlists/%d", ts.URL, playlistID), bobToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign playlist read: status %d, want 404", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/playlists/%d", ts.URL, playlistID), bobToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign playlist delete: status %d, want 404", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/playlists", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list playlists: status %d", resp.StatusCode)
	}
	if playlists, ok := body["playlists"].([]interface{}); ok && len(playlists) != 0 {
		t.Fatalf("bob sees %d playlists, want 0", len(playlists))
	}
}

func TestUnauthenticatedMutationsRejected(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	cases := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/api/playlists", map[string]string{"name": "X"}},
		{http.MethodPost, "/api/playlists/1/songs", map[string]string{"trackId": trackID}},
		{http.MethodDelete, "/api/playlists/1", nil},
		{http.MethodPost, "/api/songs/" + trackID + "/like", nil},
		{http.MethodDelete, "/api/songs/" + trackID + "/like", nil},
		{http.MethodDelete, "/api/profile", nil},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, tc.method, ts.URL+tc.path, "", tc.body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
	}

	// A garbage token is rejected the same way.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/playlists", "not-a-token", map[string]string{"name": "X"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", resp.StatusCode)
	}

	for _, table := range []string{"playlists", "playlist_songs", "songs", "likes"} {
		if got := countRowsT(t, d, table); got != 0 {
			t.Errorf("%s rows = %d, want 0", table, got)
		}
	}
}

func TestLikeUnlikeFlow(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackID+"/like", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("like: status %d", resp.StatusCode)
	}
	// Liking twice stays at one row.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackID+"/like", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-like: status %d", resp.StatusCode)
	}
	if got := countRowsT(t, d, "likes"); got != 1 {
		t.Fatalf("likes rows = %d, want 1", got)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/songs/liked", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("liked list: status %d", resp.StatusCode)
	}
	songs := body["songs"].([]interface{})
	if len(songs) != 1 {
		t.Fatalf("liked songs = %d, want 1", len(songs))
	}
	first := songs[0].(map[string]interface{})
	if first["trackId"] != trackID {
		t.Fatalf("liked track = %v, want %s", first["trackId"], trackID)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/songs/"+trackID+"/like", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unlike: status %d", resp.StatusCode)
	}
	// Unliking an unliked track is still a success.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/songs/"+trackID+"/like", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-unlike: status %d", resp.StatusCode)
	}
	if got := countRowsT(t, d, "likes"); got != 0 {
		t.Fatalf("likes rows after unlike = %d, want 0", got)
	}
	// The song row outlives the like.
	if got := countRowsT(t, d, "songs"); got != 1 {
		t.Fatalf("songs rows after unlike = %d, want 1", got)
	}
}

func TestLikeWithStaleTokenAfterAccountDelete(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")
	if resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackID+"/like", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatal("initial like failed")
	}
	if resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/profile", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatal("account delete failed")
	}

	// The token still verifies but the user row is gone. The like insert
	// trips the user foreign key, which must surface as a failure rather
	// than a success with no row.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackID+"/like", token, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("stale-token like: status %d, body %v", resp.StatusCode, body)
	}
	if got := countRowsT(t, d, "likes"); got != 0 {
		t.Fatalf("likes rows = %d, want 0", got)
	}
}

func TestStoreConflictIsNotBlamedOnCatalog(t *testing.T) {
	const trackA = "aaa"
	const trackB = "bbb"
	// trackB's analysis reuses trackA's URI, so registering it fails in
	// the local store, not upstream.
	badB := analysisFixture(trackB)
	badB.TrackURI = "spotify:track:" + trackA
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{
		trackA: analysisFixture(trackA),
		trackB: badB,
	}}
	ts, _ := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")
	if resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackA+"/like", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatal("like of first track failed")
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackB+"/like", token, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("store conflict: status %d, want 500", resp.StatusCode)
	}
	if body["error"] == "Music catalog is unavailable, please try again" {
		t.Fatal("local store failure reported as a catalog outage")
	}
}

func TestSongDetailDoesNotPersist(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/songs/"+trackID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("song detail: status %d, body %v", resp.StatusCode, body)
	}
	song := body["song"].(map[string]interface{})
	if song["key"] != "C" || song["mode"] != "Major" {
		t.Fatalf("translated song: key=%v mode=%v", song["key"], song["mode"])
	}
	if liked, _ := body["liked"].(bool); liked {
		t.Fatal("fresh track reported as liked")
	}
	if got := countRowsT(t, d, "songs"); got != 0 {
		t.Fatalf("songs rows after view = %d, want 0", got)
	}
}

func TestSearchValidationAndUpstreamError(t *testing.T) {
	cat := &stubCatalog{results: []model.SearchResult{
		{ID: "t1", Name: "Track One", ArtistName: "Artist", Type: "track"},
	}}
	ts, _ := newTestServer(t, cat)
	token := register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/search?term=one&type=track", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d, body %v", resp.StatusCode, body)
	}
	results := body["results"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/search?type=track", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing term: status %d, want 400", resp.StatusCode)
	}

	cat.err = fmt.Errorf("%w: boom", catalog.ErrUpstream)
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/search?term=one&type=track", token, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("upstream failure: status %d", resp.StatusCode)
	}
	if body["error"] != "Music catalog is unavailable, please try again" {
		t.Fatalf("upstream message: %v", body["error"])
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	const trackID = "6y0igZArWVi6Iz0rj35c1Y"
	cat := &stubCatalog{analyses: map[string]*model.TrackAnalysis{trackID: analysisFixture(trackID)}}
	ts, d := newTestServer(t, cat)

	token := register(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/playlists", token, map[string]string{
		"name":    "Road Trip",
		"trackId": trackID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create playlist: status %d, body %v", resp.StatusCode, body)
	}
	if resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/songs/"+trackID+"/like", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatal("like failed")
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete account: status %d", resp.StatusCode)
	}

	for _, table := range []string{"users", "playlists", "playlist_songs", "likes"} {
		if got := countRowsT(t, d, table); got != 0 {
			t.Errorf("%s rows after account delete = %d, want 0", table, got)
		}
	}
	// Song metadata is shared and survives.
	if got := countRowsT(t, d, "songs"); got != 1 {
		t.Fatalf("songs rows after account delete = %d, want 1", got)
	}
}
