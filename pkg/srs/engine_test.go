package srs

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestQualityMapping(t *testing.T) {
	if Quality(true) != 5 {
		t.Fatalf("expected correct to map to 5, got %d", Quality(true))
	}
	if Quality(false) != 2 {
		t.Fatalf("expected incorrect to map to 2, got %d", Quality(false))
	}
}

func TestNextReviewSuccessSequence(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	state := State{Ease: 2.5, IntervalDays: 1, Repetitions: 0}

	// Third step is round(6 * 2.8) = 17 with the updated ease, not 16.
	wantIntervals := []int{1, 6, 17}
	wantEase := []float64{2.6, 2.7, 2.8}
	for i := range wantIntervals {
		next := NextReview(state, QualityCorrect, now)
		if next.IntervalDays != wantIntervals[i] {
			t.Fatalf("step %d: expected interval %d, got %+v", i, wantIntervals[i], next)
		}
		if !approx(next.Ease, wantEase[i]) {
			t.Fatalf("step %d: expected ease %.1f, got %v", i, wantEase[i], next.Ease)
		}
		if next.Repetitions != i+1 {
			t.Fatalf("step %d: expected repetitions %d, got %d", i, i+1, next.Repetitions)
		}
		if !next.DueAt.Equal(now.AddDate(0, 0, wantIntervals[i])) {
			t.Fatalf("step %d: expected due in %d days, got %v", i, wantIntervals[i], next.DueAt)
		}
		state = State{Ease: next.Ease, IntervalDays: next.IntervalDays, Repetitions: next.Repetitions}
	}
}

func TestNextReviewFailureResets(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	cases := []State{
		{Ease: 2.5, IntervalDays: 1, Repetitions: 0},
		{Ease: 2.9, IntervalDays: 40, Repetitions: 7},
		{Ease: 1.3, IntervalDays: 6, Repetitions: 2},
	}
	for _, state := range cases {
		for _, q := range []int{0, 1, 2} {
			next := NextReview(state, q, now)
			if next.IntervalDays != 1 || next.Repetitions != 0 {
				t.Fatalf("state %+v q=%d: expected reset, got %+v", state, q, next)
			}
			if !next.DueAt.Equal(now.AddDate(0, 0, 1)) {
				t.Fatalf("state %+v q=%d: expected due tomorrow, got %v", state, q, next.DueAt)
			}
			if !approx(next.Ease, math.Max(EaseFloor, state.Ease-0.2)) {
				t.Fatalf("state %+v q=%d: unexpected ease %v", state, q, next.Ease)
			}
		}
	}
}

func TestNextReviewEaseFloorHoldsForAnySequence(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(7))
	state := State{Ease: 2.5, IntervalDays: 1}
	for i := 0; i < 500; i++ {
		next := NextReview(state, rng.Intn(6), now)
		if next.Ease < EaseFloor {
			t.Fatalf("ease dropped below floor at step %d: %+v", i, next)
		}
		if next.IntervalDays < 1 {
			t.Fatalf("interval below one day at step %d: %+v", i, next)
		}
		state = State{Ease: next.Ease, IntervalDays: next.IntervalDays, Repetitions: next.Repetitions}
	}
}

func TestNextReviewIntermediateQualities(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	state := State{Ease: 2.5, IntervalDays: 6, Repetitions: 2}

	q4 := NextReview(state, 4, now)
	if !approx(q4.Ease, 2.5) {
		t.Fatalf("expected quality 4 to keep ease, got %v", q4.Ease)
	}
	if q4.IntervalDays != 15 {
		t.Fatalf("expected interval 15, got %d", q4.IntervalDays)
	}

	q3 := NextReview(state, 3, now)
	if !approx(q3.Ease, 2.36) {
		t.Fatalf("expected quality 3 ease 2.36, got %v", q3.Ease)
	}

	low := NextReview(State{Ease: 1.3, IntervalDays: 6, Repetitions: 2}, 3, now)
	if low.Ease != EaseFloor {
		t.Fatalf("expected floor on quality 3, got %v", low.Ease)
	}
}

func TestNextReviewClampsQuality(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	state := State{Ease: 2.5, IntervalDays: 1}

	if got, want := NextReview(state, 9, now), NextReview(state, 5, now); got != want {
		t.Fatalf("expected quality above 5 to behave as 5, got %+v want %+v", got, want)
	}
	if got, want := NextReview(state, -3, now), NextReview(state, 0, now); got != want {
		t.Fatalf("expected negative quality to behave as 0, got %+v want %+v", got, want)
	}
}

func TestIsDueInclusive(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	if !IsDue(now, now) {
		t.Fatalf("expected card due exactly now to be due")
	}
	if !IsDue(now.Add(-time.Second), now) {
		t.Fatalf("expected past due date to be due")
	}
	if IsDue(now.Add(time.Millisecond), now) {
		t.Fatalf("expected future due date not to be due")
	}
}

func TestErrorRate(t *testing.T) {
	cases := []struct {
		wrong, shown int
		want         float64
	}{
		{0, 0, 0},
		{3, 10, 30},
		{1, 3, 100.0 / 3},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := ErrorRate(tc.wrong, tc.shown); !approx(got, tc.want) {
			t.Fatalf("ErrorRate(%d, %d): got %v want %v", tc.wrong, tc.shown, got, tc.want)
		}
	}
}
