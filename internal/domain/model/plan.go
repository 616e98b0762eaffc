package model

import (
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/timespan"
)

// Plan is a purchasable access window with a fixed price in KES. The price
// doubles as the matching key for incoming payment confirmations, and
// Profile names the hotspot profile mirrored onto the access controller.
// Plans are administered out of band and read-only here.
type Plan struct {
	ID        int64
	Name      string
	Price     int64
	Duration  string // free-form, e.g. "1 day 02:00:00" or "2 hours"
	Profile   string
	RateLimit string // RouterOS rate-limit token, optional
	Active    bool
	CreatedAt time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == 0 }

// SessionTimeout returns the controller's compact token for the plan
// duration, or "" when the stored duration has no recognizable units.
func (p *Plan) SessionTimeout() string {
	return timespan.Normalize(p.Duration)
}

// AccessDuration converts the stored duration into the entitlement window
// length. A plan whose duration cannot be normalized is misconfigured.
func (p *Plan) AccessDuration() (time.Duration, error) {
	d, ok := timespan.Duration(timespan.Normalize(p.Duration))
	if !ok {
		return 0, domain.ErrInvalidArgument
	}
	return d, nil
}
