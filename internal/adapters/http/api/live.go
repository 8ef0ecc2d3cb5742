package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/crease/internal/domain/model"
)

type followResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	matchID, userID := chi.URLParam(r, "matchId"), chi.URLParam(r, "userId")
	if err := s.deps.Follow(r.Context(), userID, matchID); err != nil {
		if r.Context().Err() != nil {
			writeFailure(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Success: true, Message: "Following match", MatchID: matchID, UserID: userID})
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	matchID, userID := chi.URLParam(r, "matchId"), chi.URLParam(r, "userId")
	if !s.deps.Unfollow(r.Context(), userID, matchID) {
		writeFailure(w, http.StatusNotFound, "Not following match")
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Success: true, Message: "Unfollowed match", MatchID: matchID, UserID: userID})
}

type notificationsResponse struct {
	Success       bool                 `json:"success"`
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
	Count         int                  `json:"count"`
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeFailure(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	list := nonNil(s.deps.Notifications(r.Context(), userID, limit))
	writeJSON(w, http.StatusOK, notificationsResponse{
		Success:       true,
		Notifications: list,
		Unread:        s.deps.UnreadCount(r.Context(), userID),
		Count:         len(list),
	})
}

func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	s.deps.ClearNotifications(r.Context(), chi.URLParam(r, "userId"))
	writeMessage(w, http.StatusOK, "Notifications cleared")
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if !s.deps.MarkRead(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "notificationId")) {
		writeFailure(w, http.StatusNotFound, msgNotificationNot)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}
