package guard

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bookmehq/bookme/internal/identity"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
	"github.com/bookmehq/bookme/pkg/tenantctx"
)

var (
	ErrNotAuthenticated       = errors.New("not_authenticated")
	ErrNotPlatformStaff       = errors.New("not_platform_staff")
	ErrNotATenantMember       = errors.New("not_a_tenant_member")
	ErrInsufficientPermission = errors.New("insufficient_permission")
	ErrTenantInactive         = errors.New("tenant_inactive")
)

var denialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bookme_authz_denials_total",
	Help: "Authorization denials by reason.",
}, []string{"reason"})

// Grant is the proof of a successful authorization: the membership that
// granted access and, when one is assigned, its role.
type Grant struct {
	Membership *userdomain.TenantMembership
	Role       *rbacdomain.TenantRole
}

type Guard struct {
	rbac  rbacdomain.Service
	users userdomain.Repository
}

func New(rbac rbacdomain.Service, users userdomain.Repository) *Guard {
	return &Guard{rbac: rbac, users: users}
}

// Authorize decides whether the identity may perform an operation
// requiring the given permission. A nil tenant binding is a
// platform-level request: only platform staff and superusers pass.
// Within a tenant: superusers bypass, everyone else needs an active
// membership whose effective permissions include the requirement.
func (g *Guard) Authorize(ctx context.Context, id *identity.Identity, tc *tenantctx.Context, required string) (*Grant, error) {
	if id == nil {
		return nil, deny(ErrNotAuthenticated)
	}

	if tc == nil {
		if id.Superuser || id.PlatformStaff {
			return &Grant{}, nil
		}
		return nil, deny(ErrNotPlatformStaff)
	}

	if id.Superuser {
		return &Grant{}, nil
	}

	// Suspended and cancelled tenants are dark for regular members.
	switch tc.Status() {
	case tenantdomain.StatusActive, tenantdomain.StatusTrial:
	default:
		return nil, deny(ErrTenantInactive)
	}

	membership, err := g.users.MembershipForUser(ctx, tc.TenantID(), id.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil || !membership.IsActive {
		return nil, deny(ErrNotATenantMember)
	}

	// An empty requirement means membership alone is enough.
	if required != "" {
		subject := rbacdomain.Subject{UserID: id.UserID}
		ok, err := g.rbac.HasPermission(ctx, tc.TenantID(), subject, required)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, deny(ErrInsufficientPermission)
		}
	}

	grant := &Grant{Membership: membership}
	if membership.RoleID != nil {
		role, err := g.rbac.GetRole(ctx, tc.TenantID(), *membership.RoleID)
		if err != nil && err != rbacdomain.ErrRoleNotFound {
			return nil, err
		}
		if err == nil {
			grant.Role = role
		}
	}
	return grant, nil
}

func deny(err error) error {
	denialsTotal.WithLabelValues(err.Error()).Inc()
	return err
}
