// Package partition abstracts the per-tenant storage partition. The core
// only needs to create, drop and scope connections to a partition; the
// physical mechanics stay behind this interface.
package partition

import (
	"context"

	"gorm.io/gorm"
)

type Manager interface {
	CreatePartition(ctx context.Context, identifier string) error
	DropPartition(ctx context.Context, identifier string) error
	// Scope returns a handle whose operations run against the given
	// partition.
	Scope(db *gorm.DB, identifier string) *gorm.DB
}
