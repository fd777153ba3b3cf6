package xrpc

import "testing"

func FuzzExponentialBackoffStrategyNextDelay(f *testing.F) {
	f.Add(0, 7, 16)
	f.Add(-1, 0, 0)
	f.Add(1000, 20, 5)
	f.Add(3, 7, 7)

	f.Fuzz(func(t *testing.T, attempt, minExponent, maxExponent int) {
		s := NewExponentialBackoffStrategy(minExponent, maxExponent)
		d := s.NextDelay(attempt)
		if d < 0 {
			t.Fatalf("NextDelay(%d) returned negative duration %s", attempt, d)
		}
	})
}

func FuzzLinearBackoffStrategyNextDelay(f *testing.F) {
	f.Add(0)
	f.Add(-100)
	f.Add(1_000_000)

	s := NewLinearBackoffStrategy()
	f.Fuzz(func(t *testing.T, attempt int) {
		d := s.NextDelay(attempt)
		if d < 0 {
			t.Fatalf("NextDelay(%d) returned negative duration %s", attempt, d)
		}
	})
}
