package verification

import "math"

// DefaultMinConfidence is the listing gate's confidence floor. A single image
// scored below this is treated as unreliable evidence for the whole listing,
// so the listing is refused outright with no override offered.
const DefaultMinConfidence = 50

// Decision is the aggregate outcome for one listing's image set.
type Decision struct {
	Blocked          bool `json:"blocked"`
	RequiresOverride bool `json:"requires_override"`
	AllMatch         bool `json:"all_match"`
	MinConfidence    int  `json:"min_confidence"`
	AvgConfidence    int  `json:"avg_confidence"`
}

// Gate turns a set of per-image verification results into one admit, block
// or needs-override decision for a listing.
type Gate struct {
	minConfidence int
}

// NewGate builds a gate with the given confidence floor. Values outside
// 0..100 fall back to DefaultMinConfidence.
func NewGate(minConfidence int) Gate {
	if minConfidence < 0 || minConfidence > 100 {
		minConfidence = DefaultMinConfidence
	}
	return Gate{minConfidence: minConfidence}
}

// MinConfidence reports the configured confidence floor.
func (g Gate) MinConfidence() int {
	return g.minConfidence
}

// Evaluate recomputes the listing decision from the full result set. It is
// pure: same results, same decision, no shared state.
//
// An empty result set blocks: no evidence is treated like failed evidence.
func (g Gate) Evaluate(results []Result) Decision {
	if len(results) == 0 {
		return Decision{Blocked: true}
	}

	allMatch := true
	minConf := results[0].Confidence
	sum := 0
	for _, r := range results {
		if !r.Matches {
			allMatch = false
		}
		if r.Confidence < minConf {
			minConf = r.Confidence
		}
		sum += r.Confidence
	}
	avg := int(math.Round(float64(sum) / float64(len(results))))

	d := Decision{
		AllMatch:      allMatch,
		MinConfidence: minConf,
		AvgConfidence: avg,
	}

	switch {
	case minConf < g.minConfidence:
		d.Blocked = true
	case !allMatch:
		d.RequiresOverride = true
	}
	return d
}
