package ratelimit

import (
	"testing"
	"time"
)

func TestVerdictAllowsUnderLimit(t *testing.T) {
	now := time.Now()
	res := verdict(3, 10, 0, now, time.Minute)
	if !res.Allowed {
		t.Fatalf("expected allowed when count < limit")
	}
	if res.Remaining != 6 {
		t.Fatalf("expected remaining 6, got %d", res.Remaining)
	}
	if res.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", res.Limit)
	}
}

func TestVerdictRejectsAtLimit(t *testing.T) {
	now := time.Now()
	oldest := now.Add(-30 * time.Second).UnixMilli()
	res := verdict(10, 10, oldest, now, time.Minute)
	if res.Allowed {
		t.Fatalf("expected rejection when count == limit")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", res.Remaining)
	}
	wantReset := oldest + time.Minute.Milliseconds()
	if res.ResetAt != wantReset {
		t.Fatalf("expected reset %d, got %d", wantReset, res.ResetAt)
	}
}

func TestVerdictResetDefaultsToFullWindow(t *testing.T) {
	now := time.Now()
	res := verdict(0, 5, 0, now, time.Minute)
	want := now.Add(time.Minute).UnixMilli()
	if res.ResetAt != want {
		t.Fatalf("expected reset %d, got %d", want, res.ResetAt)
	}
	if res.Remaining != 4 {
		t.Fatalf("expected remaining 4, got %d", res.Remaining)
	}
}
