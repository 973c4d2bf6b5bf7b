package verification

// Result is one verifier judgment about a single image. Results are
// ephemeral: they feed a listing decision and are never persisted.
type Result struct {
	Matches       bool   `json:"matches"`
	DetectedItem  string `json:"detected_item"`
	Confidence    int    `json:"confidence"`
	Reasoning     string `json:"reasoning"`
	CategoryMatch bool   `json:"category_match"`
}

// FailedResult stands in for a missing or errored verifier call. A verifier
// outage must read as the strongest possible rejection, never as a pass.
func FailedResult(reason string) Result {
	return Result{
		Matches:      false,
		DetectedItem: "verification unavailable",
		Confidence:   0,
		Reasoning:    reason,
	}
}
