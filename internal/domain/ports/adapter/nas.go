package adapter

import "context"

// NetworkController is the hex port for the access controller's
// profile/subscriber directory. Both operations are idempotent: EnsureProfile
// creates only when absent, EnsureSubscriber replaces unconditionally.
type NetworkController interface {
	// EnsureProfile creates the named hotspot profile if missing.
	// rateLimit and sessionTimeout are controller-specific tokens; either
	// may be empty. Returns domain.ErrControllerUnavailable when no
	// session can be established.
	EnsureProfile(ctx context.Context, name, rateLimit, sessionTimeout string) error
	// EnsureSubscriber removes any credential named phone and recreates
	// it bound to profile (may be empty). The final create propagates
	// failure; the removal leg never does.
	EnsureSubscriber(ctx context.Context, phone, profile string) error
}
