package api

import (
	"context"
	"net/http"
	"time"

	"bagking/internal/game"
	"bagking/pkg/logger"
	"bagking/pkg/store"

	"go.uber.org/zap"
)

// GameService is the surface of the game service the API routes to
type GameService interface {
	SaveScore(ctx context.Context, in game.SaveScoreInput) (game.SaveScoreResult, error)
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)
	Stats(ctx context.Context) (game.Stats, error)
	StartSession(ctx context.Context, playerName string) (string, error)
	UpdateSession(ctx context.Context, id string, final store.SessionFinal) error
	PlayerAchievements(ctx context.Context, player string) ([]game.AchievementStatus, error)
	ManualUnlock(ctx context.Context, player, achievementID string) (game.UnlockResult, error)
}

// Config holds API server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server serves the game HTTP API
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	game       GameService
	origins    []string
}

// New creates a new API server
func New(cfg Config, l *logger.Logger, svc GameService) *Server {
	s := &Server{
		logger:  l,
		game:    svc,
		origins: cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/", s.route("root", s.handleRoot))
	mux.HandleFunc("POST /api/scores", s.route("save_score", s.handleSaveScore))
	mux.HandleFunc("GET /api/leaderboard", s.route("leaderboard", s.handleLeaderboard))
	mux.HandleFunc("GET /api/stats", s.route("stats", s.handleStats))
	mux.HandleFunc("POST /api/session/start", s.route("session_start", s.handleStartSession))
	mux.HandleFunc("PUT /api/session/{id}", s.route("session_update", s.handleUpdateSession))
	mux.HandleFunc("GET /api/achievements/{player_name}", s.route("achievements", s.handleAchievements))
	mux.HandleFunc("POST /api/achievements/unlock", s.route("achievement_unlock", s.handleUnlock))

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.cors(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler exposes the configured handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting api server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
