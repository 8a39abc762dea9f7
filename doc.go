// Package smbmount resolves smb://host/share addresses into mounted virtual
// disk resources and reports a single outcome per request to a presentation
// layer.
//
// # Overview
//
// A request flows through three steps:
//
//   - ParseAddress validates the raw input against the smb:// grammar
//     without touching the network.
//   - A Resolver opens a management session to the host, queries for disk
//     resources whose share name contains the address's share path and
//     returns the first match. The session is always closed before Resolve
//     returns.
//   - An Orchestrator sequences both, runs the mount step and returns an
//     Outcome: Mounted with an identifier, or Failed with a Reason.
//
// # Basic Usage
//
//	catalog, err := smbmount.NewSMBCatalog(&smbmount.Config{
//	    Username: "jdoe",
//	    Password: "secret123",
//	    Domain:   "CORP",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resolver, err := smbmount.NewResolver(catalog, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	orch := smbmount.NewOrchestrator(resolver)
//
//	out := orch.Mount(ctx, "smb://fileserver01/backups")
//	fmt.Println(out.Message())
//
// # Matching
//
// Share matching is a permissive "contains" match, not equality: the address
// smb://host/back matches a share named "backups". When several shares match,
// the first one in the server's enumeration order wins. An address without a
// share segment (smb://host) is valid and matches the first disk share.
//
// # Errors
//
// Outcome.Reason collapses every resolver error to ReasonMountFailed.
// Outcome.Err keeps the full chain, so callers wanting finer reporting can
// test it with errors.Is against ErrConnectionFailed, ErrNotFound and
// ErrQueryFailed.
//
// # Presentation Layers
//
// Orchestrator.Mount blocks for the duration of network I/O. UI code should
// submit requests through a Dispatcher, which runs them off the caller's
// goroutine and delivers outcomes to a Sink one at a time.
package smbmount
