package domain

// Recommendation is the parsed verdict of the reasoning provider for one candidate.
// Trade can only be true when Confidence reached the configured minimum.
type Recommendation struct {
	Candidate  ConsensusCandidate
	Trade      bool
	Confidence float64 // [0,1]
	Rationale  string
	Citations  []int   // strategy numbers from the playbook
	SizeHint   float64 // optional (0,1] scale on the sized stake, 0 = none
	SkipReason string  // why Trade is false
	Failure    string  // set when the response could not be used
}

// Skip builds a skip recommendation with zero confidence.
func Skip(c ConsensusCandidate, failure string) Recommendation {
	return Recommendation{Candidate: c, SkipReason: failure, Failure: failure}
}

// RationaleRequest is what the reasoning provider receives: a system prompt
// with the trading policy and a user prompt with the enriched candidate.
type RationaleRequest struct {
	System string
	Prompt string
}
