package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/crease/internal/domain/ledger"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/notify"
	"github.com/okian/crease/internal/domain/poller"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

// ApplySnapshot writes a changed scorecard to the ledger without emitting
// ledger events, then notifies the match's followers once per derived event.
func (s *Service) ApplySnapshot(ctx context.Context, snap poller.Snapshot) error {
	card := snap.Card
	var events []model.Event

	for _, b := range card.Batting {
		ev, err := s.applyLine(ctx, snap.MatchID, b.ID(), model.ScoreFields{
			PlayerName: optString(b.Player),
			Team:       optString(b.Team),
			Runs:       model.IntPtr(b.Runs),
			BallsFaced: model.IntPtr(b.Balls),
			Fours:      model.IntPtr(b.Fours),
			Sixes:      model.IntPtr(b.Sixes),
		})
		if err != nil {
			return err
		}
		events = append(events, ev...)
	}
	for _, b := range card.Bowling {
		ev, err := s.applyLine(ctx, snap.MatchID, b.ID(), model.ScoreFields{
			PlayerName:   optString(b.Bowler),
			Team:         optString(b.Team),
			Wickets:      model.IntPtr(b.Wickets),
			OversBowled:  model.FloatPtr(b.Overs),
			RunsConceded: model.IntPtr(b.Runs),
		})
		if err != nil {
			return err
		}
		events = append(events, ev...)
	}

	if len(events) == 0 {
		events = append(events, updateEvent(snap))
	}
	s.notifyFollowers(ctx, snap.MatchID, events)
	return nil
}

func (s *Service) applyLine(ctx context.Context, matchID, playerID string, fields model.ScoreFields) ([]model.Event, error) {
	if playerID == "" {
		return nil, nil
	}
	ev, err := s.ledger.Apply(ctx, matchID, playerID, fields, ledger.Silent())
	if err != nil {
		return nil, fmt.Errorf("apply snapshot: %w", err)
	}
	return milestones(ev.Previous, ev.Record), nil
}

// milestones compares two versions of a record. A first observation is a
// baseline and yields nothing.
func milestones(prev *model.ScoreRecord, next model.ScoreRecord) []model.Event {
	if prev == nil {
		return nil
	}
	var out []model.Event
	data := map[string]string{"playerId": next.PlayerID, "playerName": next.PlayerName}

	if w, pw := model.IntValue(next.Wickets), model.IntValue(prev.Wickets); w > pw {
		out = append(out, model.Event{
			Type:    model.NotificationWicket,
			Title:   "Wicket!",
			Message: fmt.Sprintf("%s takes a wicket (%d in the innings)", next.PlayerName, w),
			MatchID: next.MatchID,
			Key:     "wicket:" + next.MatchID + ":" + next.PlayerID + ":" + strconv.Itoa(w),
			Data:    data,
		})
	}
	if r, pr := model.IntValue(next.Runs), model.IntValue(prev.Runs); r/100 > pr/100 {
		milestone := r / 100 * 100
		out = append(out, model.Event{
			Type:    model.NotificationCentury,
			Title:   "Century!",
			Message: fmt.Sprintf("%s reaches %d (%d runs)", next.PlayerName, milestone, r),
			MatchID: next.MatchID,
			Key:     "century:" + next.MatchID + ":" + next.PlayerID + ":" + strconv.Itoa(milestone),
			Data:    data,
		})
	}
	return out
}

func updateEvent(snap poller.Snapshot) model.Event {
	ev := model.Event{
		Type:    model.NotificationUpdate,
		Title:   "Live update",
		Message: "Match " + snap.Card.Status,
		MatchID: snap.MatchID,
		Key:     "update:" + snap.MatchID + ":" + strconv.FormatUint(snap.Hash, 16),
		Data:    map[string]string{"status": snap.Card.Status},
	}
	if c, ok := snap.Card.LatestCommentary(); ok {
		ev.Message = fmt.Sprintf("%.1f: %s", c.Over, c.Text)
		ev.Data["over"] = strconv.FormatFloat(c.Over, 'f', 1, 64)
		if c.Player != "" {
			ev.Data["player"] = c.Player
		}
	}
	return ev
}

// onScoreEvent turns non-silent ledger writes into notifications for followers.
func (s *Service) onScoreEvent(ctx context.Context, ev model.ScoreEvent) {
	rec := ev.Record
	var events []model.Event
	switch ev.Kind {
	case model.ScoreRemoved:
		events = []model.Event{{
			Type:    model.NotificationAlert,
			Title:   "Score removed",
			Message: fmt.Sprintf("%s's score was removed", displayName(rec)),
			MatchID: rec.MatchID,
			Data:    map[string]string{"playerId": rec.PlayerID},
		}}
	case model.ScoreUpserted:
		events = milestones(ev.Previous, rec)
		if len(events) == 0 {
			events = []model.Event{{
				Type:    model.NotificationUpdate,
				Title:   "Score updated",
				Message: scoreLine(rec),
				MatchID: rec.MatchID,
				Data:    map[string]string{"playerId": rec.PlayerID},
			}}
		}
	}
	s.notifyFollowers(ctx, rec.MatchID, events)
}

func (s *Service) notifyFollowers(ctx context.Context, matchID string, events []model.Event) {
	users := s.Followers(matchID)
	for _, ev := range events {
		for _, u := range users {
			if _, err := s.hub.Notify(ctx, u, ev); err != nil && !errors.Is(err, notify.ErrDuplicateEvent) {
				s.logger.Warn(ctx, "notify follower",
					logger.String("user_id", u),
					logger.String("match_id", matchID),
					logger.Error(err))
			}
		}
	}
}

func (s *Service) onPollError(ctx context.Context, matchID string, err error) {
	kind := "apply"
	if errors.Is(err, poller.ErrUpstreamUnavailable) {
		kind = "upstream"
	}
	metrics.RecordErrorByComponent("service", kind)
	s.logger.Debug(ctx, "poll error", logger.String("match_id", matchID), logger.Error(err))
}

func scoreLine(r model.ScoreRecord) string {
	line := displayName(r)
	if r.Runs != nil {
		line += fmt.Sprintf(" %d", *r.Runs)
		if r.BallsFaced != nil {
			line += fmt.Sprintf(" (%d)", *r.BallsFaced)
		}
	}
	if r.Wickets != nil {
		line += fmt.Sprintf(", %d wkts", *r.Wickets)
	}
	return line
}

func displayName(r model.ScoreRecord) string {
	if r.PlayerName != "" {
		return r.PlayerName
	}
	return r.PlayerID
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
