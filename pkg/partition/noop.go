package partition

import (
	"context"

	"gorm.io/gorm"
)

// noopManager keeps every partition in the shared database. Used with
// sqlite, where schemas are unavailable, and in tests.
type noopManager struct{}

func NewNoopManager() Manager {
	return &noopManager{}
}

func (noopManager) CreatePartition(context.Context, string) error {
	return nil
}

func (noopManager) DropPartition(context.Context, string) error {
	return nil
}

func (noopManager) Scope(db *gorm.DB, _ string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true})
}
