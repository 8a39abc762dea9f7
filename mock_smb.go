package smbmount

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// MockSMBBackend provides an in-memory SMB host simulation for testing.
// It serves a list of shares, can be made unreachable or inject errors
// into individual operations, and tracks all operations for verification.
// It implements both NetDialer and SMBDialer.
type MockSMBBackend struct {
	mu sync.RWMutex

	// shares in enumeration order
	shares []string

	// hosts that refuse connections
	unreachable map[string]bool

	// errors to inject for specific operations
	errorOnOp map[string]error

	// sessions currently logged on
	openSessions int

	// operation tracking for verification (separate mutex to avoid lock contention)
	opMu       sync.Mutex
	operations []MockOperation
}

// MockOperation records an operation performed on the mock backend.
type MockOperation struct {
	Op   string
	Host string
	Arg  string
	Time time.Time
}

// Operation names used by MockSMBBackend.
const (
	MockOpDial   = "dial"
	MockOpLogon  = "logon"
	MockOpList   = "list"
	MockOpMount  = "mount"
	MockOpUmount = "umount"
	MockOpLogoff = "logoff"
)

// NewMockSMBBackend creates a new mock SMB backend exporting the given
// shares plus the IPC$ administrative share.
func NewMockSMBBackend(shares ...string) *MockSMBBackend {
	m := &MockSMBBackend{
		unreachable: make(map[string]bool),
		errorOnOp:   make(map[string]error),
	}
	m.shares = append(m.shares, "IPC$")
	m.shares = append(m.shares, shares...)
	return m
}

// AddShare appends a share to the enumeration order.
func (m *MockSMBBackend) AddShare(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares = append(m.shares, name)
}

// SetUnreachable makes dials to host fail.
func (m *MockSMBBackend) SetUnreachable(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreachable[host] = true
}

// SetOperationError sets an error to return for a specific operation type.
func (m *MockSMBBackend) SetOperationError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorOnOp[op] = err
}

// ClearErrors clears all injected errors.
func (m *MockSMBBackend) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorOnOp = make(map[string]error)
	m.unreachable = make(map[string]bool)
}

// GetOperations returns all recorded operations.
func (m *MockSMBBackend) GetOperations() []MockOperation {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	result := make([]MockOperation, len(m.operations))
	copy(result, m.operations)
	return result
}

// CountOperations returns how many times op was performed.
func (m *MockSMBBackend) CountOperations(op string) int {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	n := 0
	for _, o := range m.operations {
		if o.Op == op {
			n++
		}
	}
	return n
}

// OpenSessions returns the number of sessions not yet logged off.
func (m *MockSMBBackend) OpenSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openSessions
}

func (m *MockSMBBackend) recordOp(op, host, arg string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.operations = append(m.operations, MockOperation{
		Op:   op,
		Host: host,
		Arg:  arg,
		Time: time.Now(),
	})
}

func (m *MockSMBBackend) opError(op string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorOnOp[op]
}

// DialContext implements NetDialer with an in-memory pipe.
func (m *MockSMBBackend) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	m.recordOp(MockOpDial, host, address)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	down := m.unreachable[host]
	m.mu.RUnlock()
	if down {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}
	if err := m.opError(MockOpDial); err != nil {
		return nil, err
	}

	client, server := net.Pipe()
	server.Close()
	return &mockConn{Conn: client, host: host}, nil
}

// Dial implements SMBDialer.
func (m *MockSMBBackend) Dial(ctx context.Context, conn net.Conn, config *Config) (SMBSession, error) {
	host := ""
	if mc, ok := conn.(*mockConn); ok {
		host = mc.host
	}
	m.recordOp(MockOpLogon, host, config.Username)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.opError(MockOpLogon); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.openSessions++
	m.mu.Unlock()

	return &mockSession{backend: m, host: host}, nil
}

type mockConn struct {
	net.Conn
	host string
}

// mockSession implements SMBSession on top of MockSMBBackend.
type mockSession struct {
	backend *MockSMBBackend
	host    string

	mu        sync.Mutex
	loggedOff bool
}

func (s *mockSession) ListSharenames(ctx context.Context) ([]string, error) {
	s.backend.recordOp(MockOpList, s.host, "")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.backend.opError(MockOpList); err != nil {
		return nil, err
	}

	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	names := make([]string, len(s.backend.shares))
	copy(names, s.backend.shares)
	return names, nil
}

func (s *mockSession) Mount(ctx context.Context, shareName string) (SMBShare, error) {
	s.backend.recordOp(MockOpMount, s.host, shareName)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.backend.opError(MockOpMount); err != nil {
		return nil, err
	}

	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	for _, name := range s.backend.shares {
		if name == shareName {
			return &mockShare{session: s, name: shareName}, nil
		}
	}
	return nil, errors.New("bad network name: " + shareName)
}

func (s *mockSession) Logoff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loggedOff {
		return ErrSessionClosed
	}
	s.loggedOff = true

	s.backend.recordOp(MockOpLogoff, s.host, "")
	s.backend.mu.Lock()
	s.backend.openSessions--
	s.backend.mu.Unlock()
	return s.backend.opError(MockOpLogoff)
}

type mockShare struct {
	session *mockSession
	name    string
}

func (sh *mockShare) Umount() error {
	sh.session.backend.recordOp(MockOpUmount, sh.session.host, sh.name)
	return sh.session.backend.opError(MockOpUmount)
}
