package nas

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	routeros "github.com/go-routeros/routeros/v3"
	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/config"
	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
)

// Conn is the command surface the executor needs from a controller session.
// *routeros.Client satisfies it.
type Conn interface {
	RunArgs(sentence []string) (*routeros.Reply, error)
}

// SessionProvider hands out the shared controller session and accepts
// invalidation when a handle turns out to be dead.
type SessionProvider interface {
	Acquire(ctx context.Context) (Conn, error)
	Invalidate(c Conn)
}

var _ SessionProvider = (*SessionManager)(nil)

// SessionManager owns the single lazily-dialed connection to the access
// controller. Acquire serializes on the mutex so at most one dial is in
// flight and only one physical connection exists. The RouterOS transport can
// die silently between calls, so every session is watched through the
// client's async error channel and dropped the moment an error surfaces;
// the next Acquire dials fresh.
type SessionManager struct {
	cfg config.NASConfig
	log *zerolog.Logger

	mu     sync.Mutex
	client *routeros.Client
}

func NewSessionManager(cfg config.NASConfig, logger *zerolog.Logger) *SessionManager {
	l := logger.With().Str("component", "NASSession").Logger()
	return &SessionManager{cfg: cfg, log: &l}
}

func (m *SessionManager) Acquire(ctx context.Context) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		c   *routeros.Client
		err error
	)
	if m.cfg.UseTLS {
		c, err = routeros.DialTLSTimeout(m.cfg.Address, m.cfg.Username, m.cfg.Password, &tls.Config{}, m.cfg.Timeout)
	} else {
		c, err = routeros.DialTimeout(m.cfg.Address, m.cfg.Username, m.cfg.Password, m.cfg.Timeout)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("address", m.cfg.Address).Msg("controller dial failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrControllerUnavailable, err)
	}

	errc := c.Async()
	go m.watch(c, errc)

	m.log.Info().Str("address", m.cfg.Address).Msg("controller session established")
	m.client = c
	return c, nil
}

// watch blocks on the transport's async error channel. Anything arriving
// there means the session is unusable even though no call failed.
func (m *SessionManager) watch(c *routeros.Client, errc <-chan error) {
	if err, ok := <-errc; ok && err != nil {
		m.log.Warn().Err(err).Msg("controller session errored asynchronously")
	}
	m.Invalidate(c)
}

// Invalidate drops the held session if it is still c. Safe to call with a
// stale handle; later sessions are untouched.
func (m *SessionManager) Invalidate(c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil || Conn(m.client) != c {
		return
	}
	m.client.Close()
	m.client = nil
	metrics.IncNASReconnect()
}

// Close is best-effort teardown; errors are swallowed since the goal is
// resource release.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}
