package verification

import "testing"

func TestGate_Evaluate(t *testing.T) {
	t.Parallel()

	gate := NewGate(DefaultMinConfidence)

	t.Run("single low confidence image blocks regardless of matches", func(t *testing.T) {
		d := gate.Evaluate([]Result{
			{Matches: true, Confidence: 80},
			{Matches: true, Confidence: 40},
		})
		if !d.Blocked {
			t.Fatalf("expected blocked, got %+v", d)
		}
		if d.RequiresOverride {
			t.Fatalf("hard gate must not offer an override, got %+v", d)
		}
		if d.MinConfidence != 40 {
			t.Fatalf("expected min confidence 40, got %d", d.MinConfidence)
		}
	})

	t.Run("confident mismatch needs override", func(t *testing.T) {
		d := gate.Evaluate([]Result{
			{Matches: false, Confidence: 70},
			{Matches: true, Confidence: 90},
		})
		if d.Blocked {
			t.Fatalf("expected not blocked, got %+v", d)
		}
		if !d.RequiresOverride {
			t.Fatalf("expected override required, got %+v", d)
		}
		if d.AllMatch {
			t.Fatalf("expected allMatch false, got %+v", d)
		}
	})

	t.Run("all confident matches proceed", func(t *testing.T) {
		d := gate.Evaluate([]Result{
			{Matches: true, Confidence: 75},
			{Matches: true, Confidence: 90},
		})
		if d.Blocked || d.RequiresOverride {
			t.Fatalf("expected clean pass, got %+v", d)
		}
		if !d.AllMatch {
			t.Fatalf("expected allMatch, got %+v", d)
		}
		if d.AvgConfidence != 83 {
			t.Fatalf("expected rounded average 83, got %d", d.AvgConfidence)
		}
		if d.MinConfidence != 75 {
			t.Fatalf("expected min confidence 75, got %d", d.MinConfidence)
		}
	})

	t.Run("errored result fails closed", func(t *testing.T) {
		d := gate.Evaluate([]Result{
			{Matches: true, Confidence: 95},
			FailedResult("verifier unavailable"),
		})
		if !d.Blocked {
			t.Fatalf("expected failed result to trigger the hard gate, got %+v", d)
		}
		if d.MinConfidence != 0 {
			t.Fatalf("expected min confidence 0, got %d", d.MinConfidence)
		}
	})

	t.Run("no results blocks", func(t *testing.T) {
		d := gate.Evaluate(nil)
		if !d.Blocked {
			t.Fatalf("expected empty result set to block, got %+v", d)
		}
	})

	t.Run("threshold is injected", func(t *testing.T) {
		strict := NewGate(90)
		d := strict.Evaluate([]Result{{Matches: true, Confidence: 85}})
		if !d.Blocked {
			t.Fatalf("expected 85 to block under a 90 floor, got %+v", d)
		}
		if relaxed := NewGate(30).Evaluate([]Result{{Matches: true, Confidence: 85}}); relaxed.Blocked {
			t.Fatalf("expected 85 to pass under a 30 floor, got %+v", relaxed)
		}
	})

	t.Run("out of range floor falls back to default", func(t *testing.T) {
		g := NewGate(250)
		if g.MinConfidence() != DefaultMinConfidence {
			t.Fatalf("expected default floor, got %d", g.MinConfidence())
		}
	})

	t.Run("repeated evaluation is deterministic", func(t *testing.T) {
		results := []Result{
			{Matches: false, Confidence: 62},
			{Matches: true, Confidence: 88},
		}
		first := gate.Evaluate(results)
		for i := 0; i < 5; i++ {
			if got := gate.Evaluate(results); got != first {
				t.Fatalf("expected identical decisions, got %+v then %+v", first, got)
			}
		}
	})
}
