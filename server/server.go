package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maestro/cache"
	"maestro/config"
	"maestro/core/auth"
	"maestro/core/catalog"
	"maestro/db"
	"maestro/logger"
	"maestro/repository"

	"github.com/gorilla/mux"
)

// NewRouter builds the full route table around an APIHandler. Split out
// from Start so tests can drive the same routes through httptest.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(requestIDMiddleware)

	// Auth endpoints, no session required.
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// Catalog browsing.
	router.HandleFunc("/api/search", h.AuthMiddleware(h.SearchHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{artist_id}/albums", h.AuthMiddleware(h.ArtistAlbumsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{album_id}/tracks", h.AuthMiddleware(h.AlbumTracksHandler)).Methods(http.MethodGet)

	// Songs and likes. The literal "liked" route registers before the
	// {track_id} route so mux doesn't treat it as a track ID.
	router.HandleFunc("/api/songs/liked", h.AuthMiddleware(h.LikedSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{track_id}", h.AuthMiddleware(h.SongDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{track_id}/like", h.AuthMiddleware(h.LikeSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{track_id}/like", h.AuthMiddleware(h.UnlikeSongHandler)).Methods(http.MethodDelete)

	// Playlists.
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", h.AuthMiddleware(h.AddSongToPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{song_id}", h.AuthMiddleware(h.RemoveSongFromPlaylistHandler)).Methods(http.MethodDelete)

	// Profile.
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.DeleteAccountHandler)).Methods(http.MethodDelete)

	return router
}

// Start initializes all collaborators and runs the HTTP server until a
// shutdown signal arrives.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	// The cache is optional; without Redis every lookup goes upstream.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, catalog caching disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
	}

	userRepo := repository.NewUserRepository(db.DB)
	songRepo := repository.NewSongRepository(db.DB)
	playlistRepo := repository.NewPlaylistRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)

	catalogClient := catalog.NewClient(cfg)
	apiHandler := NewAPIHandler(userRepo, songRepo, playlistRepo, likeRepo, catalogClient, cfg)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}
