package smbmount

import (
	"context"
	"net"
)

// SMBSession abstracts an SMB session for testability.
// This interface wraps the go-smb2 Session type.
type SMBSession interface {
	// ListSharenames enumerates the share names exported by the server.
	ListSharenames(ctx context.Context) ([]string, error)
	// Mount tree-connects to a share.
	Mount(ctx context.Context, shareName string) (SMBShare, error)
	// Logoff ends the session.
	Logoff() error
}

// SMBShare abstracts a tree connection for testability.
// This interface wraps the go-smb2 Share type.
type SMBShare interface {
	// Umount disconnects the tree.
	Umount() error
}

// SMBDialer abstracts the SMB session setup for testability.
// This allows injection of mock dialers for testing.
type SMBDialer interface {
	// Dial negotiates and authenticates an SMB session over conn.
	Dial(ctx context.Context, conn net.Conn, config *Config) (SMBSession, error)
}

// NetDialer opens the TCP connection an SMB session runs over.
// *net.Dialer satisfies it.
type NetDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
