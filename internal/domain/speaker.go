package domain

// VerificationResult is the outcome of a 1:1 voice comparison against a single
// named profile. Not persisted.
type VerificationResult struct {
	Accepted   bool    `json:"accepted"`
	Confidence float64 `json:"confidence"`
}

// IdentificationResult is the outcome of a 1:N comparison: the best-matching
// profile among the candidates, if any. Not persisted.
type IdentificationResult struct {
	ProfileID  string  `json:"identified_profile_id"`
	Confidence float64 `json:"confidence"`
}
