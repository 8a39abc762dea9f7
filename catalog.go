package smbmount

import (
	"context"
	"fmt"
)

// ClassDiskShare is the resource class for virtual-disk resources exposed as
// disk shares.
const ClassDiskShare = "DiskShare"

// Fields a Query may filter on.
const (
	FieldShareName    = "ShareName"
	FieldFriendlyName = "FriendlyName"
)

// DiskRecord is one virtual-disk resource returned by a management query.
type DiskRecord struct {
	FriendlyName string // Display name of the resource
	ShareName    string // Share name used for matching
	Host         string // Host the record was read from
	Comment      string // Optional description
}

// String returns the friendly name, or the share name if it has none.
func (r DiskRecord) String() string {
	if r.FriendlyName != "" {
		return r.FriendlyName
	}
	return r.ShareName
}

// Query selects resources of one class within a namespace whose Field
// contains the Contains string. The match is a permissive substring match;
// case sensitivity is whatever the query engine provides. An empty Contains
// matches every resource.
type Query struct {
	Namespace string
	Class     string
	Field     string
	Contains  string
}

func (q Query) String() string {
	return fmt.Sprintf("%s:%s where %s contains %q", q.Namespace, q.Class, q.Field, q.Contains)
}

// Session is a scoped management connection to one host. Records are
// returned in the engine's enumeration order.
type Session interface {
	// Query runs q and returns the matching records.
	Query(ctx context.Context, q Query) ([]DiskRecord, error)
	// Close releases the session.
	Close() error
}

// SessionOpener opens management sessions. An implementation may return a
// non-nil Session together with an error when it was partially opened; the
// caller closes it.
type SessionOpener interface {
	Open(ctx context.Context, addr Address) (Session, error)
}

// SessionOpenerFunc adapts a function to SessionOpener.
type SessionOpenerFunc func(ctx context.Context, addr Address) (Session, error)

// Open calls f(ctx, addr).
func (f SessionOpenerFunc) Open(ctx context.Context, addr Address) (Session, error) {
	return f(ctx, addr)
}
