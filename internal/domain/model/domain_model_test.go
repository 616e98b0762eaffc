//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"
)

func TestSubscriberExtend(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stacks onto a window still in the future", func(t *testing.T) {
		s := &Subscriber{Phone: "254712345678", ActiveUntil: now.Add(10 * time.Minute)}
		s.Extend(now, time.Hour)
		want := now.Add(70 * time.Minute)
		if !s.ActiveUntil.Equal(want) {
			t.Errorf("ActiveUntil = %v, want %v", s.ActiveUntil, want)
		}
	})

	t.Run("restarts from now when expired", func(t *testing.T) {
		s := &Subscriber{Phone: "254712345678", ActiveUntil: now.Add(-2 * time.Hour)}
		s.Extend(now, time.Hour)
		if want := now.Add(time.Hour); !s.ActiveUntil.Equal(want) {
			t.Errorf("ActiveUntil = %v, want %v", s.ActiveUntil, want)
		}
	})

	t.Run("zero value restarts from now", func(t *testing.T) {
		s := &Subscriber{Phone: "254712345678"}
		s.Extend(now, 30*time.Minute)
		if want := now.Add(30 * time.Minute); !s.ActiveUntil.Equal(want) {
			t.Errorf("ActiveUntil = %v, want %v", s.ActiveUntil, want)
		}
	})
}

func TestValidPhone(t *testing.T) {
	valid := []string{"254712345678", "254100000001"}
	invalid := []string{"0712345678", "25471234567", "2547123456789", "+254712345678", "", "254712a45678"}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Errorf("ValidPhone(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Errorf("ValidPhone(%q) = true, want false", p)
		}
	}
}

func TestPlanAccessDuration(t *testing.T) {
	p := &Plan{ID: 1, Duration: "1 day 02:00:00"}
	d, err := p.AccessDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 26*time.Hour {
		t.Errorf("AccessDuration = %v, want 26h", d)
	}

	bad := &Plan{ID: 2, Duration: "whenever"}
	if _, err := bad.AccessDuration(); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}

func TestProvisionJobMarkAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	boom := errors.New("controller down")

	j := NewProvisionJob("254712345678", "1hr", now)
	if j.Status != ProvisionJobStatusPending || j.ID == "" {
		t.Fatalf("unexpected new job: %+v", j)
	}

	j.MarkAttempt(now, boom, 3)
	if j.Status != ProvisionJobStatusPending || j.Attempts != 1 || j.LastError == "" {
		t.Errorf("after first failure: %+v", j)
	}
	if want := now.Add(time.Minute); !j.NextAttemptAt.Equal(want) {
		t.Errorf("NextAttemptAt = %v, want %v", j.NextAttemptAt, want)
	}

	j.MarkAttempt(now, nil, 3)
	if j.Status != ProvisionJobStatusDone || j.LastError != "" {
		t.Errorf("after success: %+v", j)
	}

	exhausted := NewProvisionJob("254712345678", "1hr", now)
	for i := 0; i < 3; i++ {
		exhausted.MarkAttempt(now, boom, 3)
	}
	if exhausted.Status != ProvisionJobStatusFailed {
		t.Errorf("status = %s, want failed after max attempts", exhausted.Status)
	}
}
