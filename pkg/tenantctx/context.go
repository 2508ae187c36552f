// Package tenantctx carries the per-request tenant binding. A Context is
// constructed once per request by the binder and is immutable afterwards;
// every tenant-scoped read or write must go through its DB handle.
package tenantctx

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey struct{}

// Context binds one request to exactly one tenant storage partition.
type Context struct {
	tenantID  uuid.UUID
	partition string
	status    string
	db        *gorm.DB
}

func New(tenantID uuid.UUID, partition, status string, db *gorm.DB) *Context {
	return &Context{
		tenantID:  tenantID,
		partition: partition,
		status:    status,
		db:        db,
	}
}

func (c *Context) TenantID() uuid.UUID { return c.tenantID }
func (c *Context) Partition() string   { return c.partition }
func (c *Context) Status() string      { return c.status }

// DB returns the handle scoped to this tenant's partition.
func (c *Context) DB() *gorm.DB { return c.db }

// With stores the tenant binding in the request context. A nil binding marks
// a platform-level request with no active tenant.
func With(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext returns the tenant binding, if the request has one.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	tc, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || tc == nil {
		return nil, false
	}
	return tc, true
}
