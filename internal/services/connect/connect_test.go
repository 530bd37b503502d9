package connect_test

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/services/connect"
)

type listResolver []string

func (l listResolver) Candidates(domain.Contact, bool) []string { return l }

// scriptDialer fails each address with the scripted error, or succeeds when
// the script holds nil.
type scriptDialer struct {
	mu     sync.Mutex
	script map[string]error
	dialed []string
}

func (d *scriptDialer) DialContext(_ context.Context, _, addr string) (net.Conn, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, addr)
	err, ok := d.script[addr]
	d.mu.Unlock()
	if !ok {
		return nil, errors.New("unexpected address " + addr)
	}
	if err != nil {
		return nil, err
	}
	a, b := net.Pipe()
	_ = b.Close()
	return a, nil
}

type recordingBook struct {
	domain.ContactBook
	last string
}

func (r *recordingBook) SetLastWorkingAddress(_ domain.PublicKey, addr string) { r.last = addr }

var (
	errRefused = &net.OpError{Op: "dial", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}
	errDNS     = &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "nowhere.lan", IsNotFound: true}}
	errOther   = &net.OpError{Op: "dial", Err: errors.New("network is unreachable")}
	errTimeout = &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded}
)

func settings() domain.Settings {
	s := domain.DefaultSettings()
	s.ConnectTimeout = 50
	return s
}

func TestConnect_ReturnsOnFirstSuccess(t *testing.T) {
	d := &scriptDialer{script: map[string]error{"a:1": errTimeout, "b:1": nil, "c:1": nil}}
	book := &recordingBook{}
	svc := connect.New(listResolver{"a:1", "b:1", "c:1"}, book, d)

	conn, err := svc.Connect(context.Background(), domain.Contact{}, settings())
	require.NoError(t, err)
	_ = conn.Close()

	assert.Equal(t, []string{"a:1", "b:1"}, d.dialed)
	assert.Equal(t, "b:1", book.last)
}

func TestConnect_AtMostOneAttemptPerCandidate(t *testing.T) {
	cands := listResolver{"a:1", "b:1", "c:1", "d:1"}
	script := map[string]error{}
	for _, c := range cands {
		script[c] = errOther
	}
	d := &scriptDialer{script: script}

	_, err := connect.New(cands, nil, d).Connect(context.Background(), domain.Contact{}, settings())
	require.Error(t, err)
	assert.Len(t, d.dialed, len(cands))

	var ce *connect.ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, len(cands), ce.Attempts)
}

func TestConnect_NoCandidates(t *testing.T) {
	_, err := connect.New(listResolver{}, nil, &scriptDialer{}).Connect(context.Background(), domain.Contact{}, settings())
	assert.Equal(t, connect.ClassNoCandidates, connect.ClassOf(err))
}

func TestConnect_FailurePrecedence(t *testing.T) {
	kinds := []struct {
		err   error
		class connect.Class
	}{
		{errTimeout, connect.ClassTimeout},
		{errOther, connect.ClassOther},
		{errDNS, connect.ClassUnknownHost},
		{errRefused, connect.ClassRefused},
	}

	// Every non-empty subset, in both forward and reverse order.
	for mask := 1; mask < 1<<len(kinds); mask++ {
		var (
			cands []string
			want  = connect.ClassNoCandidates
		)
		script := map[string]error{}
		for i, k := range kinds {
			if mask&(1<<i) == 0 {
				continue
			}
			addr := k.class.String() + ":1"
			cands = append(cands, addr)
			script[addr] = k.err
			if k.class > want {
				want = k.class
			}
		}
		for _, order := range [][]string{cands, reversed(cands)} {
			d := &scriptDialer{script: script}
			_, err := connect.New(listResolver(order), nil, d).Connect(context.Background(), domain.Contact{}, settings())
			assert.Equal(t, want, connect.ClassOf(err), "order %v", order)
		}
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, connect.ClassRefused, connect.Classify(errRefused))
	assert.Equal(t, connect.ClassUnknownHost, connect.Classify(errDNS))
	assert.Equal(t, connect.ClassTimeout, connect.Classify(errTimeout))
	assert.Equal(t, connect.ClassTimeout, connect.Classify(context.DeadlineExceeded))
	assert.Equal(t, connect.ClassOther, connect.Classify(errOther))
}

func TestConnect_LoopbackRefusedAndAccepted(t *testing.T) {
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	refusedAddr := closed.Addr().String()
	require.NoError(t, closed.Close())

	_, err = connect.New(listResolver{refusedAddr}, nil, nil).
		Connect(context.Background(), domain.Contact{}, settings())
	assert.Equal(t, connect.ClassRefused, connect.ClassOf(err))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			_ = c.Close()
		}
	}()

	conn, err := connect.New(listResolver{refusedAddr, ln.Addr().String()}, nil, nil).
		Connect(context.Background(), domain.Contact{}, settings())
	require.NoError(t, err)
	_ = conn.Close()
}

func TestConnect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &scriptDialer{script: map[string]error{"a:1": nil}}

	_, err := connect.New(listResolver{"a:1"}, nil, d).Connect(ctx, domain.Contact{}, settings())
	assert.Equal(t, connect.ClassTimeout, connect.ClassOf(err))
	assert.Empty(t, d.dialed)
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
