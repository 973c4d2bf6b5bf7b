package verification

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Verifier scores one image against a listing's claimed description and
// category. Implementations may call out to a vision model; the core only
// consumes the result. Callers must map any error to FailedResult.
type Verifier interface {
	Verify(ctx context.Context, image []byte, description, category string) (Result, error)
}

// categoryKeywords drives the keyword verifier's category matching.
var categoryKeywords = map[string][]string{
	"tops":        {"shirt", "t-shirt", "blouse", "sweater", "top", "tank", "polo", "sweatshirt"},
	"bottoms":     {"pants", "jeans", "trousers", "shorts", "skirt", "leggings", "bottom"},
	"dresses":     {"dress", "gown", "frock"},
	"outerwear":   {"coat", "jacket", "blazer", "hoodie", "cardigan", "sweater"},
	"shoes":       {"shoes", "boots", "sneakers", "sandals", "heels", "flats"},
	"accessories": {"hat", "scarf", "belt", "bag", "jewelry", "watch", "sunglasses"},
}

// KeywordVerifier is a model-free verifier: it checks whether the description
// uses vocabulary belonging to the claimed category. Confidence is derived
// from a stable hash of the inputs so repeated calls agree, landing in 70-99
// on a keyword match and 20-59 otherwise.
type KeywordVerifier struct{}

func NewKeywordVerifier() KeywordVerifier {
	return KeywordVerifier{}
}

func (KeywordVerifier) Verify(_ context.Context, _ []byte, description, category string) (Result, error) {
	desc := strings.ToLower(description)
	cat := strings.ToLower(strings.TrimSpace(category))

	matched := false
	for _, kw := range categoryKeywords[cat] {
		if strings.Contains(desc, kw) {
			matched = true
			break
		}
	}

	h := fnv.New32a()
	h.Write([]byte(desc))
	h.Write([]byte(cat))
	seed := int(h.Sum32() % 30)

	var confidence int
	if matched {
		confidence = 70 + seed
	} else {
		confidence = 20 + seed
	}

	r := Result{
		Matches:       matched && confidence > 50,
		Confidence:    confidence,
		CategoryMatch: matched,
	}
	if matched {
		r.DetectedItem = fmt.Sprintf("detected %s item matching the description", cat)
		r.Reasoning = fmt.Sprintf("the description uses %s vocabulary", cat)
	} else {
		r.DetectedItem = fmt.Sprintf("detected item that may not match the %s description", cat)
		r.Reasoning = fmt.Sprintf("the description does not use %s vocabulary", cat)
	}
	return r, nil
}
