package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/crease/pkg/logger"
)

// Follow subscribes userID to matchID's live updates. Following twice is a no-op.
// The first follower of a match starts its poll schedule; Follow returns after
// the first tick.
func (s *Service) Follow(ctx context.Context, userID, matchID string) error {
	if userID == "" || matchID == "" {
		return fmt.Errorf("%w: userId and matchId are required", ErrInvalidInput)
	}

	s.followMu.Lock()
	users, ok := s.followers[matchID]
	if !ok {
		users = make(map[string]*follow)
		s.followers[matchID] = users
	}
	if _, ok := users[userID]; ok {
		s.followMu.Unlock()
		return nil
	}
	f := &follow{}
	users[userID] = f
	s.followMu.Unlock()

	h, err := s.poller.Subscribe(ctx, matchID)

	s.followMu.Lock()
	current := s.followers[matchID][userID] == f
	if err != nil {
		if current {
			s.dropFollowerLocked(matchID, userID)
		}
		s.followMu.Unlock()
		return fmt.Errorf("follow %s: %w", matchID, err)
	}
	if !current {
		// Unfollowed while subscribing.
		s.followMu.Unlock()
		h.Unsubscribe(ctx)
		return nil
	}
	f.handle = h
	s.followMu.Unlock()

	s.logger.Info(ctx, "user following match",
		logger.String("user_id", userID),
		logger.String("match_id", matchID))
	return nil
}

// Unfollow removes userID from matchID's followers and reports whether it was following.
// The last follower stops the match's poll schedule.
func (s *Service) Unfollow(ctx context.Context, userID, matchID string) bool {
	s.followMu.Lock()
	f, ok := s.followers[matchID][userID]
	if ok {
		s.dropFollowerLocked(matchID, userID)
	}
	s.followMu.Unlock()
	if !ok {
		return false
	}
	if f.handle != nil {
		f.handle.Unsubscribe(ctx)
	}
	s.logger.Info(ctx, "user unfollowed match",
		logger.String("user_id", userID),
		logger.String("match_id", matchID))
	return true
}

// Followers returns the users following matchID, sorted.
func (s *Service) Followers(matchID string) []string {
	s.followMu.Lock()
	defer s.followMu.Unlock()
	out := make([]string, 0, len(s.followers[matchID]))
	for u := range s.followers[matchID] {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (s *Service) dropFollowerLocked(matchID, userID string) {
	delete(s.followers[matchID], userID)
	if len(s.followers[matchID]) == 0 {
		delete(s.followers, matchID)
	}
}

func (s *Service) followerCount() int {
	s.followMu.Lock()
	defer s.followMu.Unlock()
	n := 0
	for _, users := range s.followers {
		n += len(users)
	}
	return n
}
