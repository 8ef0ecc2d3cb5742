package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/crease/internal/domain/ledger"
	"github.com/okian/crease/internal/domain/model"
)

type createScoreRequest struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	model.ScoreFields
}

func (c createScoreRequest) validate() error {
	if strings.TrimSpace(c.MatchID) == "" || strings.TrimSpace(c.PlayerID) == "" ||
		c.PlayerName == nil || strings.TrimSpace(*c.PlayerName) == "" ||
		c.Team == nil || strings.TrimSpace(*c.Team) == "" {
		return fmt.Errorf("%w: %s", ErrBadRequest, msgRequiredFields)
	}
	return validateFields(c.ScoreFields)
}

func validateFields(f model.ScoreFields) error {
	if name, ok := f.Negative(); ok {
		return fmt.Errorf("%w: %s must not be negative", ErrBadRequest, name)
	}
	return nil
}

type scoresResponse struct {
	Success bool                `json:"success"`
	Scores  []model.ScoreRecord `json:"scores"`
	Count   int                 `json:"count"`
}

type scoreResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Score   model.ScoreRecord `json:"score"`
}

func (s *Server) listScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.deps.QueryScores(r.Context(), model.ScoreFilter{
		MatchID:  q.Get("matchId"),
		PlayerID: q.Get("playerId"),
		Team:     q.Get("team"),
	})
	if err != nil {
		writeInternal(w, err)
		return
	}
	if recs == nil {
		recs = []model.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, scoresResponse{Success: true, Scores: recs, Count: len(recs)})
}

func (s *Server) createScore(w http.ResponseWriter, r *http.Request) {
	var req createScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": "))
		return
	}
	rec, err := s.deps.UpsertScore(r.Context(), req.MatchID, req.PlayerID, req.ScoreFields)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scoreResponse{Success: true, Message: "Score created successfully", Score: rec})
}

func (s *Server) getScore(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.GetScore(r.Context(), chi.URLParam(r, "matchId"), chi.URLParam(r, "playerId"))
	if errors.Is(err, ledger.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, msgScoreNotFound)
		return
	}
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Success: true, Score: rec})
}

func (s *Server) updateScore(w http.ResponseWriter, r *http.Request) {
	var fields model.ScoreFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if err := validateFields(fields); err != nil {
		writeFailure(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": "))
		return
	}
	rec, err := s.deps.UpdateScore(r.Context(), chi.URLParam(r, "matchId"), chi.URLParam(r, "playerId"), fields)
	if errors.Is(err, ledger.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, msgScoreNotFound)
		return
	}
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Success: true, Message: "Score updated successfully", Score: rec})
}

func (s *Server) deleteScore(w http.ResponseWriter, r *http.Request) {
	ok, err := s.deps.RemoveScore(r.Context(), chi.URLParam(r, "matchId"), chi.URLParam(r, "playerId"))
	if err != nil {
		writeInternal(w, err)
		return
	}
	if !ok {
		writeFailure(w, http.StatusNotFound, msgScoreNotFound)
		return
	}
	writeMessage(w, http.StatusOK, "Score deleted successfully")
}
