// Package name stores the name→owner map. Records are immutable once
// created: there is no transfer, renewal, or expiry, which is what makes
// the read cache safe.
package name

import (
	"context"

	"namedeed/internal/registry/models"
)

// Store is the name map port.
type Store interface {
	// CreateIfAvailable registers the record iff its key is unowned.
	// Returns sentinel.ErrConflict when the name is already taken, so
	// exactly one of any set of concurrent attempts wins.
	CreateIfAvailable(ctx context.Context, record models.NameRecord) error

	// FindByName looks up a record by its fully-qualified key. Returns
	// sentinel.ErrNotFound for unregistered names.
	FindByName(ctx context.Context, name string) (models.NameRecord, error)
}
