package domain

import "strings"

// SystemRolesVersion is bumped whenever a system role definition below
// changes. ResyncSystemRoles reconciles existing tenants to the current
// version.
const SystemRolesVersion = 2

type SystemRoleDefinition struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

// SystemRoles is the authoritative definition of the five seeded roles.
// Order matters only for readability.
func SystemRoles() []SystemRoleDefinition {
	return []SystemRoleDefinition{
		{
			Code:        RoleOwner,
			Name:        "Owner",
			Description: "Full access to everything, including roles and billing.",
			Permissions: AllPermissions(),
		},
		{
			Code:        RoleAdmin,
			Name:        "Administrator",
			Description: "Full operational access. Cannot manage roles or change billing.",
			Permissions: minus(AllPermissions(),
				"role.create", "role.update", "role.delete",
				"billing.update",
			),
		},
		{
			Code:        RoleManager,
			Name:        "Manager",
			Description: "Runs day-to-day operations.",
			Permissions: []string{
				"booking.view", "booking.create", "booking.update", "booking.delete",
				"customer.view", "customer.create", "customer.update", "customer.delete",
				"service.view", "service.update",
				"staff.view", "staff.update",
				"notification.view", "notification.create",
				"payment.view",
				"resource.view", "resource.update",
				"user.view",
				"membership.view",
			},
		},
		{
			Code:        RoleStaff,
			Name:        "Staff",
			Description: "Works their own schedule.",
			Permissions: []string{
				"booking.view", "booking.update",
				"customer.view",
				"service.view",
				"staff.view",
				"notification.view",
				"resource.view",
			},
		},
		{
			Code:        RoleViewer,
			Name:        "Viewer",
			Description: "Read-only access.",
			Permissions: viewOnly(),
		},
	}
}

func minus(all []string, drop ...string) []string {
	dropped := make(map[string]struct{}, len(drop))
	for _, code := range drop {
		dropped[code] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, code := range all {
		if _, ok := dropped[code]; !ok {
			out = append(out, code)
		}
	}
	return out
}

func viewOnly() []string {
	var out []string
	for _, code := range AllPermissions() {
		if strings.HasSuffix(code, ".view") {
			out = append(out, code)
		}
	}
	return out
}
