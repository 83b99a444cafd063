package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 10, 1, 0, 0, 0, loc), time.Date(2026, 3, 10, 3, 0, 0, 0, loc)},
		{time.Date(2026, 3, 10, 3, 0, 0, 0, loc), time.Date(2026, 3, 11, 3, 0, 0, 0, loc)},
		{time.Date(2026, 12, 31, 23, 0, 0, 0, loc), time.Date(2027, 1, 1, 3, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		if got := NextRun(tc.now, 3, 0); !got.Equal(tc.want) {
			t.Fatalf("NextRun(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := NewDailyScheduler(3, 0, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}
