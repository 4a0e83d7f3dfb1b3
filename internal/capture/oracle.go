package capture

// DefaultMaxNoChange is the default consecutive no-change streak that
// ends a run. Past the last page the reader stops responding to
// page-forward keys, so a few silent advances in a row mean the book
// is done.
const DefaultMaxNoChange = 3

// TerminationOracle decides when the book has ended. It is a
// heuristic: a long rendering stall can masquerade as end-of-book,
// which is why the streak limit is configuration and why cancellation
// always remains available as a manual override.
type TerminationOracle struct {
	maxStreak int
}

// NewTerminationOracle returns an oracle firing at the given streak.
// Values below 1 are clamped to 1.
func NewTerminationOracle(maxStreak int) TerminationOracle {
	if maxStreak < 1 {
		maxStreak = 1
	}
	return TerminationOracle{maxStreak: maxStreak}
}

// MaxStreak returns the configured streak limit.
func (o TerminationOracle) MaxStreak() int { return o.maxStreak }

// ShouldStop reports whether the run should terminate given the
// current consecutive no-change streak.
func (o TerminationOracle) ShouldStop(noChangeStreak int) bool {
	return noChangeStreak >= o.maxStreak
}
