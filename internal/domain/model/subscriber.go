package model

import "time"

// Subscriber is the local entitlement record for a phone number. The phone
// doubles as the hotspot credential (name and password) pushed to the
// controller; ActiveUntil is the authoritative access window.
type Subscriber struct {
	Phone       string
	Password    string
	Profile     string
	PlanID      *int64
	ActiveUntil time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Subscriber) IsZero() bool { return s == nil || s.Phone == "" }

// ActiveAt reports whether the access window covers t.
func (s *Subscriber) ActiveAt(t time.Time) bool {
	return s != nil && s.ActiveUntil.After(t)
}

// Extend advances the access window by d. A window still in the future is
// stacked on (purchases accumulate); an expired one restarts from now.
// ActiveUntil never moves backwards.
func (s *Subscriber) Extend(now time.Time, d time.Duration) {
	if s.ActiveUntil.After(now) {
		s.ActiveUntil = s.ActiveUntil.Add(d)
	} else {
		s.ActiveUntil = now.Add(d)
	}
	s.UpdatedAt = now
}
