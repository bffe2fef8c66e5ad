package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"bagking/internal/game"
	"bagking/pkg/achievements"
	"bagking/pkg/store"
)

type saveScoreRequest struct {
	PlayerName     string `json:"player_name"`
	Height         int    `json:"height"`
	Completed      bool   `json:"completed"`
	CompletionTime *int   `json:"completion_time"`
}

type saveScoreResponse struct {
	Success         bool                      `json:"success"`
	ScoreID         string                    `json:"score_id"`
	NewRecord       bool                      `json:"new_record"`
	NewAchievements []achievements.Definition `json:"new_achievements,omitempty"`
}

type startSessionRequest struct {
	PlayerName string `json:"player_name"`
}

type updateSessionRequest struct {
	Height    int  `json:"height"`
	Completed bool `json:"completed"`
	PlayTime  int  `json:"play_time"`
}

type unlockRequest struct {
	AchievementID string `json:"achievement_id"`
	PlayerName    string `json:"player_name"`
}

type unlockResponse struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message,omitempty"`
	Achievement *achievements.Definition `json:"achievement,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"message": "Plastic Bag King API is running!",
	})
}

func (s *Server) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.game.SaveScore(r.Context(), game.SaveScoreInput{
		PlayerName:     req.PlayerName,
		Height:         req.Height,
		Completed:      req.Completed,
		CompletionTime: req.CompletionTime,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, saveScoreResponse{
		Success:         true,
		ScoreID:         result.ScoreID,
		NewRecord:       result.NewRecord,
		NewAchievements: result.NewAchievements,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.clientError(w, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.game.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.game.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	// The body is optional: an anonymous session has no player name
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.clientError(w, "invalid request body")
		return
	}

	id, err := s.game.StartSession(r.Context(), req.PlayerName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"session_id": id})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.game.UpdateSession(r.Context(), r.PathValue("id"), store.SessionFinal{
		FinalHeight: req.Height,
		Completed:   req.Completed,
		PlayTime:    req.PlayTime,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.game.PlayerAchievements(r.Context(), r.PathValue("player_name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, statuses)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.game.ManualUnlock(r.Context(), req.PlayerName, req.AchievementID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if result.AlreadyUnlocked {
		s.respond(w, http.StatusOK, unlockResponse{
			Success: false,
			Message: "Achievement already unlocked",
		})
		return
	}
	s.respond(w, http.StatusOK, unlockResponse{
		Success:     true,
		Achievement: result.Definition,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.clientError(w, "invalid request body")
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Server) clientError(w http.ResponseWriter, msg string) {
	s.respond(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// writeError translates service errors into the response taxonomy:
// validation failures are client errors, missing documents are 404s,
// and anything else is a generic server error without internal detail
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr game.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respond(w, http.StatusBadRequest, errorResponse{Error: verr.Msg})
	case errors.Is(err, store.ErrNotFound):
		s.respond(w, http.StatusNotFound, errorResponse{Error: "Session not found"})
	default:
		s.logger.Error("request failed", err)
		s.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
