// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// ScoreRecord is the ledger's value for one (match, player) pair.
// Optional counters are nil when absent; absent fields are omitted from JSON.
type ScoreRecord struct {
	ID         string `json:"id"`
	MatchID    string `json:"matchId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Team       string `json:"team"`

	Runs         *int     `json:"runs,omitempty"`
	BallsFaced   *int     `json:"ballsFaced,omitempty"`
	Fours        *int     `json:"fours,omitempty"`
	Sixes        *int     `json:"sixes,omitempty"`
	Wickets      *int     `json:"wickets,omitempty"`
	OversBowled  *float64 `json:"oversBowled,omitempty"`
	RunsConceded *int     `json:"runsConceded,omitempty"`
	Catches      *int     `json:"catches,omitempty"`
	Stumps       *int     `json:"stumps,omitempty"`
	RunOuts      *int     `json:"runOuts,omitempty"`

	StrikeRate  *float64 `json:"strikeRate,omitempty"`
	EconomyRate *float64 `json:"economyRate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScoreFields is a partial update. Nil fields keep the previous value.
type ScoreFields struct {
	PlayerName *string `json:"playerName,omitempty"`
	Team       *string `json:"team,omitempty"`

	Runs         *int     `json:"runs,omitempty"`
	BallsFaced   *int     `json:"ballsFaced,omitempty"`
	Fours        *int     `json:"fours,omitempty"`
	Sixes        *int     `json:"sixes,omitempty"`
	Wickets      *int     `json:"wickets,omitempty"`
	OversBowled  *float64 `json:"oversBowled,omitempty"`
	RunsConceded *int     `json:"runsConceded,omitempty"`
	Catches      *int     `json:"catches,omitempty"`
	Stumps       *int     `json:"stumps,omitempty"`
	RunOuts      *int     `json:"runOuts,omitempty"`
}

// ScoreKey identifies a record. Ids are compared field by field, so no
// separator can make two distinct pairs collide.
type ScoreKey struct {
	MatchID  string
	PlayerID string
}

// KeyOf builds the key of (matchID, playerID).
func KeyOf(matchID, playerID string) ScoreKey {
	return ScoreKey{MatchID: matchID, PlayerID: playerID}
}

func (k ScoreKey) String() string {
	return k.MatchID + "/" + k.PlayerID
}

// Key returns the ledger key of the record.
func (r ScoreRecord) Key() ScoreKey {
	return KeyOf(r.MatchID, r.PlayerID)
}

// Clone returns a deep copy; pointer fields never alias the receiver.
func (r ScoreRecord) Clone() ScoreRecord {
	out := r
	out.Runs = cloneInt(r.Runs)
	out.BallsFaced = cloneInt(r.BallsFaced)
	out.Fours = cloneInt(r.Fours)
	out.Sixes = cloneInt(r.Sixes)
	out.Wickets = cloneInt(r.Wickets)
	out.OversBowled = cloneFloat(r.OversBowled)
	out.RunsConceded = cloneInt(r.RunsConceded)
	out.Catches = cloneInt(r.Catches)
	out.Stumps = cloneInt(r.Stumps)
	out.RunOuts = cloneInt(r.RunOuts)
	out.StrikeRate = cloneFloat(r.StrikeRate)
	out.EconomyRate = cloneFloat(r.EconomyRate)
	return out
}

// Merge applies the non-nil fields of f onto a copy of r.
func (r ScoreRecord) Merge(f ScoreFields) ScoreRecord {
	out := r.Clone()
	if f.PlayerName != nil {
		out.PlayerName = *f.PlayerName
	}
	if f.Team != nil {
		out.Team = *f.Team
	}
	mergeInt(&out.Runs, f.Runs)
	mergeInt(&out.BallsFaced, f.BallsFaced)
	mergeInt(&out.Fours, f.Fours)
	mergeInt(&out.Sixes, f.Sixes)
	mergeInt(&out.Wickets, f.Wickets)
	if f.OversBowled != nil {
		out.OversBowled = cloneFloat(f.OversBowled)
	}
	mergeInt(&out.RunsConceded, f.RunsConceded)
	mergeInt(&out.Catches, f.Catches)
	mergeInt(&out.Stumps, f.Stumps)
	mergeInt(&out.RunOuts, f.RunOuts)
	return out
}

// Negative reports the name of the first negative counter in f, if any.
func (f ScoreFields) Negative() (string, bool) {
	ints := []struct {
		name string
		v    *int
	}{
		{"runs", f.Runs}, {"ballsFaced", f.BallsFaced}, {"fours", f.Fours}, {"sixes", f.Sixes},
		{"wickets", f.Wickets}, {"runsConceded", f.RunsConceded}, {"catches", f.Catches},
		{"stumps", f.Stumps}, {"runOuts", f.RunOuts},
	}
	for _, c := range ints {
		if c.v != nil && *c.v < 0 {
			return c.name, true
		}
	}
	if f.OversBowled != nil && *f.OversBowled < 0 {
		return "oversBowled", true
	}
	return "", false
}

// ScoreFilter narrows a ledger query. Empty fields do not constrain.
type ScoreFilter struct {
	MatchID  string
	PlayerID string
	Team     string
}

// Matches reports whether r satisfies the filter. Team compares case-insensitively.
func (f ScoreFilter) Matches(r ScoreRecord) bool {
	if f.MatchID != "" && r.MatchID != f.MatchID {
		return false
	}
	if f.PlayerID != "" && r.PlayerID != f.PlayerID {
		return false
	}
	if f.Team != "" && !strings.EqualFold(r.Team, f.Team) {
		return false
	}
	return true
}

// ScoreEventKind tells listeners what happened to a record.
type ScoreEventKind string

const (
	ScoreUpserted ScoreEventKind = "upserted"
	ScoreRemoved  ScoreEventKind = "removed"
)

// ScoreEvent is emitted by the ledger after a write.
type ScoreEvent struct {
	Kind     ScoreEventKind
	Record   ScoreRecord
	Previous *ScoreRecord // nil on create
	Silent   bool
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }

// IntValue dereferences p, or returns 0 when absent.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func mergeInt(dst **int, src *int) {
	if src != nil {
		*dst = cloneInt(src)
	}
}
