//go:build !integration

package nas

import (
	"context"
	"errors"
	"strings"
	"testing"

	routeros "github.com/go-routeros/routeros/v3"
	"github.com/go-routeros/routeros/v3/proto"
	"github.com/rs/zerolog"
)

type fakeConn struct {
	calls   [][]string
	replies []*routeros.Reply
	errs    []error
}

func (c *fakeConn) RunArgs(sentence []string) (*routeros.Reply, error) {
	c.calls = append(c.calls, sentence)
	i := len(c.calls) - 1
	var (
		reply *routeros.Reply
		err   error
	)
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	if reply == nil {
		reply = &routeros.Reply{}
	}
	if i < len(c.errs) {
		err = c.errs[i]
	}
	return reply, err
}

type fakeSession struct {
	conn        *fakeConn
	acquireErr  error
	invalidated int
}

func (s *fakeSession) Acquire(ctx context.Context) (Conn, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return s.conn, nil
}

func (s *fakeSession) Invalidate(c Conn) { s.invalidated++ }

func rows(maps ...map[string]string) *routeros.Reply {
	r := &routeros.Reply{}
	for _, m := range maps {
		r.Re = append(r.Re, &proto.Sentence{Map: m})
	}
	return r
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestExecutor(sess *fakeSession) *Executor {
	return NewExecutor(sess, testLogger())
}

func TestExecutorQuery(t *testing.T) {
	t.Run("returns one map per reply row", func(t *testing.T) {
		sess := &fakeSession{conn: &fakeConn{replies: []*routeros.Reply{
			rows(map[string]string{".id": "*1", "name": "a"}, map[string]string{".id": "*2", "name": "b"}),
		}}}
		got, err := newTestExecutor(sess).Query(context.Background(), "/ip/hotspot/user/print")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0]["name"] != "a" || got[1][".id"] != "*2" {
			t.Fatalf("unexpected rows: %+v", got)
		}
	})

	t.Run("falls back to completion sentence when no rows", func(t *testing.T) {
		reply := &routeros.Reply{Done: &proto.Sentence{Map: map[string]string{"ret": "*7"}}}
		sess := &fakeSession{conn: &fakeConn{replies: []*routeros.Reply{reply}}}
		got, err := newTestExecutor(sess).Query(context.Background(), "/ip/hotspot/user/add")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0]["ret"] != "*7" {
			t.Fatalf("unexpected rows: %+v", got)
		}
	})

	t.Run("transport error invalidates the session", func(t *testing.T) {
		sess := &fakeSession{conn: &fakeConn{errs: []error{errors.New("broken pipe")}}}
		if _, err := newTestExecutor(sess).Query(context.Background(), "/ip/hotspot/user/print"); err == nil {
			t.Fatal("expected error")
		}
		if sess.invalidated != 1 {
			t.Fatalf("invalidated = %d, want 1", sess.invalidated)
		}
	})

	t.Run("acquire failure propagates without a sentence", func(t *testing.T) {
		dialErr := errors.New("dial tcp: refused")
		sess := &fakeSession{acquireErr: dialErr}
		if _, err := newTestExecutor(sess).Query(context.Background(), "/ip/hotspot/user/print"); !errors.Is(err, dialErr) {
			t.Fatalf("got %v, want %v", err, dialErr)
		}
	})
}

func TestExecutorPrint(t *testing.T) {
	t.Run("degrades errors to empty", func(t *testing.T) {
		sess := &fakeSession{acquireErr: errors.New("down")}
		if got := newTestExecutor(sess).Print(context.Background(), "/ip/hotspot/user/print"); len(got) != 0 {
			t.Fatalf("expected empty, got %+v", got)
		}
	})
}

func TestProvisionerEnsureProfile(t *testing.T) {
	t.Run("skips creation when the profile exists", func(t *testing.T) {
		conn := &fakeConn{replies: []*routeros.Reply{rows(map[string]string{"name": "1h"})}}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureProfile(context.Background(), "1h", "5M/5M", "1h"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conn.calls) != 1 {
			t.Fatalf("expected lookup only, got calls %v", conn.calls)
		}
	})

	t.Run("creates the profile with limits attached", func(t *testing.T) {
		conn := &fakeConn{replies: []*routeros.Reply{rows()}}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureProfile(context.Background(), "1d", "10M/10M", "1d"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conn.calls) != 2 {
			t.Fatalf("expected lookup then add, got %v", conn.calls)
		}
		add := strings.Join(conn.calls[1], " ")
		for _, want := range []string{"/ip/hotspot/user/profile/add", "=name=1d", "=rate-limit=10M/10M", "=session-timeout=1d"} {
			if !strings.Contains(add, want) {
				t.Errorf("add sentence %q missing %q", add, want)
			}
		}
	})

	t.Run("omits empty limit words", func(t *testing.T) {
		conn := &fakeConn{replies: []*routeros.Reply{rows()}}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureProfile(context.Background(), "basic", "", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		add := strings.Join(conn.calls[1], " ")
		if strings.Contains(add, "rate-limit") || strings.Contains(add, "session-timeout") {
			t.Fatalf("unexpected limit words in %q", add)
		}
	})

	t.Run("propagates lookup failure", func(t *testing.T) {
		sess := &fakeSession{acquireErr: errors.New("down")}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureProfile(context.Background(), "1h", "", ""); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestProvisionerEnsureSubscriber(t *testing.T) {
	t.Run("removes stale rows before adding", func(t *testing.T) {
		conn := &fakeConn{replies: []*routeros.Reply{
			rows(map[string]string{".id": "*A", "name": "254712345678"}, map[string]string{".id": "*B", "name": "254712345678"}),
		}}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureSubscriber(context.Background(), "254712345678", "1d"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conn.calls) != 4 {
			t.Fatalf("expected print, 2 removes, add; got %v", conn.calls)
		}
		if conn.calls[1][0] != "/ip/hotspot/user/remove" || conn.calls[1][1] != "=.id=*A" {
			t.Fatalf("unexpected first remove: %v", conn.calls[1])
		}
		add := strings.Join(conn.calls[3], " ")
		for _, want := range []string{"/ip/hotspot/user/add", "=name=254712345678", "=password=254712345678", "=profile=1d"} {
			if !strings.Contains(add, want) {
				t.Errorf("add sentence %q missing %q", add, want)
			}
		}
	})

	t.Run("removal failure does not block the add", func(t *testing.T) {
		conn := &fakeConn{
			replies: []*routeros.Reply{rows(map[string]string{".id": "*A"})},
			errs:    []error{nil, errors.New("no such item")},
		}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureSubscriber(context.Background(), "254700000001", "1h"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := conn.calls[len(conn.calls)-1][0]; got != "/ip/hotspot/user/add" {
			t.Fatalf("last call = %q, want add", got)
		}
	})

	t.Run("add failure propagates", func(t *testing.T) {
		conn := &fakeConn{
			replies: []*routeros.Reply{rows()},
			errs:    []error{nil, errors.New("rejected")},
		}
		sess := &fakeSession{conn: conn}
		p := NewProvisioner(newTestExecutor(sess), testLogger())
		if err := p.EnsureSubscriber(context.Background(), "254700000002", ""); err == nil {
			t.Fatal("expected error")
		}
	})
}
