package match

import "errors"

// Substitution failures are the one command family that distinguishes
// its rejection causes: callers show different prompts for an exhausted
// allowance versus a duplicate-player attempt.
var (
	ErrFinalized       = errors.New("match is finalized")
	ErrNoSubsRemaining = errors.New("no substitutions remaining")
)
