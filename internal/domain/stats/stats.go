// Package stats computes the derived statistics of a score record.
//
// A derived value is absent (nil) when an operand is missing or its divisor is
// zero. Absent is never reported as zero; zero is a real value (no runs off a
// non-zero number of balls).
package stats

import "github.com/okian/crease/internal/domain/model"

// StrikeRate returns runs per hundred balls faced.
func StrikeRate(runs, ballsFaced *int) *float64 {
	if runs == nil || ballsFaced == nil || *ballsFaced == 0 {
		return nil
	}
	v := float64(*runs) / float64(*ballsFaced) * 100
	return &v
}

// EconomyRate returns runs conceded per over bowled.
// Overs are used as given; 8.2 is divided as the decimal 8.2.
func EconomyRate(runsConceded *int, oversBowled *float64) *float64 {
	if runsConceded == nil || oversBowled == nil || *oversBowled == 0 {
		return nil
	}
	v := float64(*runsConceded) / *oversBowled
	return &v
}

// Recompute sets both derived fields of r from its raw counters.
func Recompute(r *model.ScoreRecord) {
	r.StrikeRate = StrikeRate(r.Runs, r.BallsFaced)
	r.EconomyRate = EconomyRate(r.RunsConceded, r.OversBowled)
}
