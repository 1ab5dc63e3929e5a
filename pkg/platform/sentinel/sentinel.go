package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and rail clients return
// these (optionally wrapped) so services can translate them into coded
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: name or ledger entry does not exist (or is zero)
// - ErrConflict: name already registered
// - ErrUnavailable: oracle, rail, or backing store temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
