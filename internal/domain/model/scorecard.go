package model

import (
	"strings"
	"unicode"
)

// Scorecard is a live match snapshot as served by the upstream cricket API.
type Scorecard struct {
	MatchID    string       `json:"matchId"`
	Status     string       `json:"status"`
	Toss       *Toss        `json:"toss,omitempty"`
	Batting    []Batting    `json:"batting"`
	Bowling    []Bowling    `json:"bowling"`
	Commentary []Commentary `json:"commentary"`
}

// Toss result.
type Toss struct {
	Winner   string `json:"winner"`
	Decision string `json:"decision"`
}

// Batting is one batter's line.
type Batting struct {
	Player     string   `json:"player"`
	PlayerID   string   `json:"playerId,omitempty"`
	Team       string   `json:"team,omitempty"`
	Runs       int      `json:"runs"`
	Balls      int      `json:"balls"`
	Fours      int      `json:"fours"`
	Sixes      int      `json:"sixes"`
	StrikeRate *float64 `json:"strikeRate,omitempty"`
	Dismissal  string   `json:"dismissal,omitempty"`
}

// Bowling is one bowler's figures.
type Bowling struct {
	Bowler   string   `json:"bowler"`
	PlayerID string   `json:"playerId,omitempty"`
	Team     string   `json:"team,omitempty"`
	Overs    float64  `json:"overs"`
	Maidens  int      `json:"maidens"`
	Runs     int      `json:"runs"`
	Wickets  int      `json:"wickets"`
	Economy  *float64 `json:"economy,omitempty"`
}

// Commentary is one ball-by-ball line.
type Commentary struct {
	Over   float64 `json:"over"`
	Ball   int     `json:"ball"`
	Text   string  `json:"text"`
	Player string  `json:"player"`
}

// Match is a row of the live matches listing.
type Match struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Team1     Team   `json:"team1"`
	Team2     Team   `json:"team2"`
	Format    string `json:"format"`
	StartDate string `json:"startDate,omitempty"`
}

// Team identifies a side.
type Team struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ID returns the batter's player id, deriving one from the name when absent.
func (b Batting) ID() string {
	if b.PlayerID != "" {
		return b.PlayerID
	}
	return PlayerSlug(b.Player)
}

// ID returns the bowler's player id, deriving one from the name when absent.
func (b Bowling) ID() string {
	if b.PlayerID != "" {
		return b.PlayerID
	}
	return PlayerSlug(b.Bowler)
}

// LatestCommentary returns the most recent commentary line.
func (s Scorecard) LatestCommentary() (Commentary, bool) {
	if len(s.Commentary) == 0 {
		return Commentary{}, false
	}
	latest := s.Commentary[0]
	for _, c := range s.Commentary[1:] {
		if c.Over > latest.Over || (c.Over == latest.Over && c.Ball > latest.Ball) {
			latest = c
		}
	}
	return latest, true
}

// PlayerSlug lower-cases name and joins its words with '-'.
func PlayerSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
