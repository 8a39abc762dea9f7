package smbmount

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// SMBCatalog is a SessionOpener backed by an SMB server's share enumeration.
// Each Open dials the host, authenticates and returns a session whose Query
// lists the server's disk shares.
//
// The SMB engine supports the ClassDiskShare class in any namespace.
// Administrative and hidden shares (names ending in "$") are not disk
// resources and are never returned. Contains matching is case-insensitive,
// like SMB share names themselves.
type SMBCatalog struct {
	config    *Config
	netDialer NetDialer
	smbDialer SMBDialer
}

// CatalogOption configures an SMBCatalog.
type CatalogOption func(*SMBCatalog)

// WithNetDialer replaces the TCP dialer.
func WithNetDialer(d NetDialer) CatalogOption {
	return func(c *SMBCatalog) {
		c.netDialer = d
	}
}

// WithSMBDialer replaces the SMB session dialer.
func WithSMBDialer(d SMBDialer) CatalogOption {
	return func(c *SMBCatalog) {
		c.smbDialer = d
	}
}

// NewSMBCatalog creates an SMB-backed catalog. A nil config uses defaults
// with guest access.
func NewSMBCatalog(config *Config, opts ...CatalogOption) (*SMBCatalog, error) {
	if config == nil {
		config = &Config{}
	}
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &SMBCatalog{
		config:    config,
		netDialer: &net.Dialer{Timeout: config.ConnTimeout},
		smbDialer: RealSMBDialer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open dials addr.Host and sets up an authenticated session. Transient
// network errors are retried according to the config's RetryPolicy.
func (c *SMBCatalog) Open(ctx context.Context, addr Address) (Session, error) {
	sess, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *SMBCatalog) dial(ctx context.Context, addr Address) (*smbSession, error) {
	port := addr.Port
	if port == 0 {
		port = c.config.Port
	}
	target := net.JoinHostPort(addr.Host, strconv.Itoa(port))

	var sess *smbSession
	err := withRetry(ctx, c.config, func() error {
		dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnTimeout)
		defer cancel()

		conn, err := c.netDialer.DialContext(dialCtx, "tcp", target)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", target, err)
		}

		session, err := c.smbDialer.Dial(dialCtx, conn, c.config)
		if err != nil {
			conn.Close()
			return err
		}

		sess = &smbSession{
			host:    addr.Host,
			conn:    conn,
			session: session,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.config.logf("Opened SMB session to %s", target)
	return sess, nil
}

// treeConnect opens a session to addr.Host, connects to shareName and
// disconnects again. It verifies the share can actually be mounted. The
// whole exchange is bounded by the config's OpTimeout.
func (c *SMBCatalog) treeConnect(ctx context.Context, addr Address, shareName string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.OpTimeout)
	defer cancel()

	sess, err := c.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.config.logf("Closing session to %s: %v", addr.Host, cerr)
		}
	}()

	share, err := sess.session.Mount(ctx, shareName)
	if err != nil {
		return fmt.Errorf("failed to mount share %s: %w", shareName, err)
	}
	return share.Umount()
}

// smbSession is a management session over one SMB connection.
type smbSession struct {
	host    string
	conn    net.Conn
	session SMBSession

	mu     sync.Mutex
	closed bool
}

// Query lists the server's disk shares matching q.
func (s *smbSession) Query(ctx context.Context, q Query) ([]DiskRecord, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}

	if q.Class != ClassDiskShare {
		return nil, fmt.Errorf("%w: class %q", ErrUnsupportedQuery, q.Class)
	}
	if q.Field != FieldShareName && q.Field != FieldFriendlyName {
		return nil, fmt.Errorf("%w: field %q", ErrUnsupportedQuery, q.Field)
	}

	names, err := s.session.ListSharenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shares on %s: %w", s.host, err)
	}

	needle := strings.ToLower(q.Contains)
	var records []DiskRecord
	for _, name := range names {
		if name == "" || strings.HasSuffix(name, "$") {
			continue
		}

		rec := DiskRecord{
			FriendlyName: `\\` + s.host + `\` + name,
			ShareName:    name,
			Host:         s.host,
		}

		field := rec.ShareName
		if q.Field == FieldFriendlyName {
			field = rec.FriendlyName
		}
		if strings.Contains(strings.ToLower(field), needle) {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Close logs off and closes the connection. Calling Close more than once is
// a no-op.
func (s *smbSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var result *multierror.Error
	if s.session != nil {
		if err := s.session.Logoff(); err != nil {
			result = multierror.Append(result, fmt.Errorf("logoff: %w", err))
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, fmt.Errorf("close connection: %w", err))
		}
	}
	return result.ErrorOrNil()
}
