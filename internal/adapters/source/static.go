package source

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/crease/internal/domain/model"
)

// Static serves scorecards held in memory. Set replaces a card, which is how
// tests and local runs simulate a live feed.
type Static struct {
	mu      sync.RWMutex
	matches map[string]model.Match
	cards   map[string]model.Scorecard
}

// NewStatic creates an empty static source.
func NewStatic() *Static {
	return &Static{
		matches: make(map[string]model.Match),
		cards:   make(map[string]model.Scorecard),
	}
}

// NewDemo returns a static source seeded with two live demo matches.
func NewDemo() *Static {
	s := NewStatic()
	for _, m := range demoMatches() {
		s.AddMatch(m)
	}
	s.Set(demoScorecard("match_001"))
	s.Set(demoT20Scorecard("match_002"))
	return s
}

// AddMatch lists m as live.
func (s *Static) AddMatch(m model.Match) {
	s.mu.Lock()
	s.matches[m.ID] = m
	s.mu.Unlock()
}

// Set stores card under card.MatchID.
func (s *Static) Set(card model.Scorecard) {
	s.mu.Lock()
	s.cards[card.MatchID] = cloneCard(card)
	s.mu.Unlock()
}

// Update applies fn to a copy of the stored card and stores the result.
func (s *Static) Update(matchID string, fn func(*model.Scorecard)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	card = cloneCard(card)
	fn(&card)
	s.cards[matchID] = card
	return nil
}

func (s *Static) FetchScorecard(ctx context.Context, matchID string) (model.Scorecard, error) {
	if err := ctx.Err(); err != nil {
		return model.Scorecard{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[matchID]
	if !ok {
		return model.Scorecard{}, ErrMatchNotFound
	}
	return cloneCard(card), nil
}

func (s *Static) ListMatches(_ context.Context) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneCard(c model.Scorecard) model.Scorecard {
	out := c
	if c.Toss != nil {
		t := *c.Toss
		out.Toss = &t
	}
	out.Batting = append([]model.Batting(nil), c.Batting...)
	out.Bowling = append([]model.Bowling(nil), c.Bowling...)
	out.Commentary = append([]model.Commentary(nil), c.Commentary...)
	return out
}

func demoMatches() []model.Match {
	return []model.Match{
		{ID: "match_001", Status: "live", Format: "ODI",
			Team1: model.Team{Name: "India", Code: "IND"}, Team2: model.Team{Name: "Australia", Code: "AUS"}},
		{ID: "match_002", Status: "live", Format: "T20",
			Team1: model.Team{Name: "England", Code: "ENG"}, Team2: model.Team{Name: "Pakistan", Code: "PAK"}},
	}
}

func demoScorecard(matchID string) model.Scorecard {
	return model.Scorecard{
		MatchID: matchID,
		Status:  "live",
		Toss:    &model.Toss{Winner: "India", Decision: "bat"},
		Batting: []model.Batting{
			{Player: "Rohit Sharma", Team: "India", Runs: 45, Balls: 52, Fours: 4, Sixes: 1},
			{Player: "Virat Kohli", Team: "India", Runs: 78, Balls: 89, Fours: 8, Sixes: 2},
		},
		Bowling: []model.Bowling{
			{Bowler: "Pat Cummins", Team: "Australia", Overs: 8.2, Maidens: 1, Runs: 42, Wickets: 2},
			{Bowler: "Mitchell Starc", Team: "Australia", Overs: 7.0, Maidens: 0, Runs: 38, Wickets: 1},
		},
		Commentary: []model.Commentary{
			{Over: 32.2, Ball: 2, Text: "SIX! Over mid-wicket for maximum", Player: "Virat Kohli"},
			{Over: 32.1, Ball: 1, Text: "Four! Through covers", Player: "Virat Kohli"},
			{Over: 32.0, Ball: 0, Text: "Dot ball", Player: "Rohit Sharma"},
		},
	}
}

func demoT20Scorecard(matchID string) model.Scorecard {
	return model.Scorecard{
		MatchID: matchID,
		Status:  "live",
		Toss:    &model.Toss{Winner: "Pakistan", Decision: "bowl"},
		Batting: []model.Batting{
			{Player: "Jos Buttler", Team: "England", Runs: 61, Balls: 38, Fours: 6, Sixes: 3},
			{Player: "Phil Salt", Team: "England", Runs: 22, Balls: 15, Fours: 3, Sixes: 1},
		},
		Bowling: []model.Bowling{
			{Bowler: "Shaheen Afridi", Team: "Pakistan", Overs: 3.0, Runs: 27, Wickets: 1},
			{Bowler: "Haris Rauf", Team: "Pakistan", Overs: 3.0, Runs: 31, Wickets: 0},
		},
		Commentary: []model.Commentary{
			{Over: 9.4, Ball: 4, Text: "Pulled away for four", Player: "Jos Buttler"},
		},
	}
}
