package smbmount

import (
	"context"
	"fmt"
	"net"

	"github.com/hirochachacha/go-smb2"
)

// guestUser is sent when the config asks for guest access without a
// username.
const guestUser = "guest"

// realSMBSession wraps a go-smb2 Session to implement SMBSession.
type realSMBSession struct {
	session *smb2.Session
}

// ListSharenames enumerates shares through the srvsvc pipe on IPC$.
func (s *realSMBSession) ListSharenames(ctx context.Context) ([]string, error) {
	return s.session.WithContext(ctx).ListSharenames()
}

// Mount tree-connects to a share.
func (s *realSMBSession) Mount(ctx context.Context, shareName string) (SMBShare, error) {
	share, err := s.session.WithContext(ctx).Mount(shareName)
	if err != nil {
		return nil, err
	}
	return &realSMBShare{share: share}, nil
}

// Logoff ends the session.
func (s *realSMBSession) Logoff() error {
	return s.session.Logoff()
}

// realSMBShare wraps a go-smb2 Share to implement SMBShare.
type realSMBShare struct {
	share *smb2.Share
}

// Umount disconnects the tree.
func (sh *realSMBShare) Umount() error {
	return sh.share.Umount()
}

// RealSMBDialer implements SMBDialer using go-smb2 with NTLM authentication.
type RealSMBDialer struct{}

// Dial negotiates and authenticates an SMB session over conn.
func (RealSMBDialer) Dial(ctx context.Context, conn net.Conn, config *Config) (SMBSession, error) {
	user := config.Username
	if user == "" && config.GuestAccess {
		user = guestUser
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: config.Password,
			Domain:   config.Domain,
		},
	}

	session, err := d.DialContext(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("SMB session setup failed: %w", err)
	}
	return &realSMBSession{session: session}, nil
}
