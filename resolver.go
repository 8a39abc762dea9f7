package smbmount

import (
	"context"
	"fmt"
)

// Resolver finds the virtual-disk resource behind an address by querying the
// host's management endpoint.
type Resolver struct {
	opener SessionOpener
	config *Config
}

// NewResolver creates a resolver that opens sessions with opener. A nil
// config uses defaults.
func NewResolver(opener SessionOpener, config *Config) (*Resolver, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: session opener is required", ErrInvalidConfig)
	}
	if config == nil {
		config = &Config{}
	}
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{opener: opener, config: config}, nil
}

// Resolve opens a session to addr.Host, queries for disk resources whose
// share name contains addr.SharePath and returns the first match. The
// session is closed before Resolve returns, whatever the outcome.
//
// Errors are *ResolveError values matching ErrConnectionFailed, ErrNotFound
// or ErrQueryFailed; when ctx was cancelled they also match ErrCancelled.
func (r *Resolver) Resolve(ctx context.Context, addr Address) (DiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return DiskRecord{}, newResolveError(ctx, "open", addr.Host, ErrConnectionFailed, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, r.config.OpTimeout)
	defer cancel()

	sess, err := openSession(opCtx, r.opener, addr)
	if err != nil {
		if sess != nil {
			r.closeSession(addr.Host, sess)
		}
		return DiskRecord{}, newResolveError(ctx, "open", addr.Host, ErrConnectionFailed, err)
	}
	if sess == nil {
		return DiskRecord{}, newResolveError(ctx, "open", addr.Host, ErrConnectionFailed, ErrSessionClosed)
	}
	defer r.closeSession(addr.Host, sess)

	if err := opCtx.Err(); err != nil {
		return DiskRecord{}, newResolveError(ctx, "query", addr.Host, ErrQueryFailed, err)
	}

	q := Query{
		Namespace: r.config.Namespace,
		Class:     r.config.Class,
		Field:     FieldShareName,
		Contains:  addr.SharePath,
	}

	records, err := runQuery(opCtx, sess, q)
	if err != nil {
		return DiskRecord{}, newResolveError(ctx, "query", addr.Host, ErrQueryFailed, err)
	}

	if len(records) == 0 {
		return DiskRecord{}, newResolveError(ctx, "query", addr.Host, ErrNotFound, nil)
	}

	rec := records[0]
	r.config.logf("Resolved %s to %q (share %q)", addr, rec.FriendlyName, rec.ShareName)
	return rec, nil
}

// openSession opens a session and converts a panic in the transport into an
// error.
func openSession(ctx context.Context, opener SessionOpener, addr Address) (sess Session, err error) {
	defer func() {
		if p := recover(); p != nil {
			sess = nil
			err = fmt.Errorf("open panicked: %v", p)
		}
	}()
	return opener.Open(ctx, addr)
}

// runQuery issues q and converts a panic in the transport into an error.
func runQuery(ctx context.Context, sess Session, q Query) (records []DiskRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = fmt.Errorf("query panicked: %v", p)
		}
	}()
	return sess.Query(ctx, q)
}

func (r *Resolver) closeSession(host string, sess Session) {
	if err := sess.Close(); err != nil {
		r.config.logf("Closing session to %s: %v", host, err)
	}
}
