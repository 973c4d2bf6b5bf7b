package verification

import (
	"context"
	"testing"
)

func TestKeywordVerifier(t *testing.T) {
	t.Parallel()

	v := NewKeywordVerifier()

	t.Run("matching vocabulary scores confident match", func(t *testing.T) {
		r, err := v.Verify(context.Background(), nil, "Blue cotton t-shirt, lightly worn", "tops")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Matches || !r.CategoryMatch {
			t.Fatalf("expected match, got %+v", r)
		}
		if r.Confidence < 70 || r.Confidence > 99 {
			t.Fatalf("expected confidence in 70-99, got %d", r.Confidence)
		}
	})

	t.Run("wrong category vocabulary scores low", func(t *testing.T) {
		r, err := v.Verify(context.Background(), nil, "Blue cotton t-shirt", "shoes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Matches || r.CategoryMatch {
			t.Fatalf("expected mismatch, got %+v", r)
		}
		if r.Confidence < 20 || r.Confidence > 59 {
			t.Fatalf("expected confidence in 20-59, got %d", r.Confidence)
		}
	})

	t.Run("same inputs score identically", func(t *testing.T) {
		a, _ := v.Verify(context.Background(), nil, "wool winter coat", "outerwear")
		b, _ := v.Verify(context.Background(), nil, "wool winter coat", "outerwear")
		if a != b {
			t.Fatalf("expected deterministic results, got %+v and %+v", a, b)
		}
	})
}
