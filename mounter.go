package smbmount

import (
	"context"
	"fmt"
)

// Mounter performs the mount step for a resolved disk resource and returns
// the identifier reported to the caller.
type Mounter interface {
	Mount(ctx context.Context, addr Address, rec DiskRecord) (string, error)
}

// MounterFunc adapts a function to Mounter.
type MounterFunc func(ctx context.Context, addr Address, rec DiskRecord) (string, error)

// Mount calls f(ctx, addr, rec).
func (f MounterFunc) Mount(ctx context.Context, addr Address, rec DiskRecord) (string, error) {
	return f(ctx, addr, rec)
}

// NameMounter performs no mount and identifies the resource by its friendly
// name, or by the address when the record has none.
type NameMounter struct{}

// Mount returns the identifier for rec.
func (NameMounter) Mount(_ context.Context, addr Address, rec DiskRecord) (string, error) {
	if rec.FriendlyName != "" {
		return rec.FriendlyName, nil
	}
	return addr.String(), nil
}

// TreeMounter verifies the resolved share by tree-connecting to it over SMB
// and identifies it by its UNC path. The tree is disconnected again; no
// mount state is kept.
type TreeMounter struct {
	Catalog *SMBCatalog
}

// Mount tree-connects to rec.ShareName on addr.Host.
func (m TreeMounter) Mount(ctx context.Context, addr Address, rec DiskRecord) (string, error) {
	if m.Catalog == nil {
		return "", fmt.Errorf("%w: tree mounter has no catalog", ErrInvalidConfig)
	}
	if err := m.Catalog.treeConnect(ctx, addr, rec.ShareName); err != nil {
		return "", err
	}
	return `\\` + addr.Host + `\` + rec.ShareName, nil
}
