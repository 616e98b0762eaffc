package nas

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
)

const (
	profilePrintCmd = "/ip/hotspot/user/profile/print"
	profileAddCmd   = "/ip/hotspot/user/profile/add"
	userPrintCmd    = "/ip/hotspot/user/print"
	userAddCmd      = "/ip/hotspot/user/add"
	userRemoveCmd   = "/ip/hotspot/user/remove"
)

var _ adapter.NetworkController = (*Provisioner)(nil)

// Provisioner maps subscriber and profile intents onto hotspot commands.
// All operations are written to converge: reads that fail look empty, and
// the writes after them either recreate the desired state or trap
// harmlessly on rows that already exist.
type Provisioner struct {
	exec *Executor
	log  *zerolog.Logger
}

func NewProvisioner(exec *Executor, logger *zerolog.Logger) *Provisioner {
	l := logger.With().Str("component", "NASProvisioner").Logger()
	return &Provisioner{exec: exec, log: &l}
}

// EnsureProfile creates the named user profile unless one already exists.
// Rate limit and session timeout are attached only when non-empty so the
// controller keeps its own defaults otherwise.
func (p *Provisioner) EnsureProfile(ctx context.Context, name, rateLimit, sessionTimeout string) error {
	rows, err := p.exec.Query(ctx, profilePrintCmd, "?name="+name)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	args := []string{"=name=" + name}
	if rateLimit != "" {
		args = append(args, "=rate-limit="+rateLimit)
	}
	if sessionTimeout != "" {
		args = append(args, "=session-timeout="+sessionTimeout)
	}
	if err := p.exec.Do(ctx, profileAddCmd, args...); err != nil {
		p.log.Error().Err(err).Str("profile", name).Msg("profile add failed")
		return err
	}
	p.log.Info().Str("profile", name).Msg("profile created")
	return nil
}

// EnsureSubscriber replaces any hotspot user rows for the phone with a
// single fresh one. The remove-then-add order resets session counters so a
// renewed plan starts with a clean uptime budget. Removal errors are logged
// and skipped; the add is what grants access and its error is the caller's.
func (p *Provisioner) EnsureSubscriber(ctx context.Context, phone, profile string) error {
	for _, row := range p.exec.Print(ctx, userPrintCmd, "?name="+phone) {
		id, ok := row[".id"]
		if !ok {
			continue
		}
		if err := p.exec.Do(ctx, userRemoveCmd, "=.id="+id); err != nil {
			p.log.Warn().Err(err).Str("phone", phone).Str("id", id).Msg("stale user removal failed")
		}
	}

	args := []string{"=name=" + phone, "=password=" + phone}
	if profile != "" {
		args = append(args, "=profile="+profile)
	}
	if err := p.exec.Do(ctx, userAddCmd, args...); err != nil {
		p.log.Error().Err(err).Str("phone", phone).Str("profile", profile).Msg("subscriber add failed")
		return err
	}
	p.log.Info().Str("phone", phone).Str("profile", profile).Msg("subscriber provisioned")
	return nil
}
