package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/crease/internal/adapters/source"
	"github.com/okian/crease/internal/domain/model"
)

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.deps.Matches(r.Context())
	if err != nil {
		writeInternal(w, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: matches})
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	card, ok := s.scorecard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: card})
}

func (s *Server) getMatchSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	switch section {
	case "commentary", "batting", "bowling":
	default:
		writeFailure(w, http.StatusNotFound, msgNotFound)
		return
	}
	card, ok := s.scorecard(w, r)
	if !ok {
		return
	}
	var data any
	switch section {
	case "commentary":
		data = nonNil(card.Commentary)
	case "batting":
		data = nonNil(card.Batting)
	case "bowling":
		data = nonNil(card.Bowling)
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: data})
}

func (s *Server) scorecard(w http.ResponseWriter, r *http.Request) (model.Scorecard, bool) {
	card, err := s.deps.Scorecard(r.Context(), chi.URLParam(r, "matchId"))
	if errors.Is(err, source.ErrMatchNotFound) {
		writeFailure(w, http.StatusNotFound, msgMatchNotFound)
		return model.Scorecard{}, false
	}
	if err != nil {
		writeInternal(w, err)
		return model.Scorecard{}, false
	}
	return card, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
