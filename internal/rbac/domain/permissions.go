package domain

import (
	"sort"
	"strings"
)

// Permission codes are "namespace.action". The registry is closed: role
// permission lists may only reference codes compiled in here.
var permissionRegistry = map[string][]string{
	"booking":      {"view", "create", "update", "delete"},
	"customer":     {"view", "create", "update", "delete"},
	"service":      {"view", "create", "update", "delete"},
	"staff":        {"view", "create", "update", "delete"},
	"notification": {"view", "create", "update", "delete"},
	"payment":      {"view", "create", "update", "delete"},
	"resource":     {"view", "create", "update", "delete"},
	"user":         {"view", "create", "update"},
	"membership":   {"view", "create", "update", "delete"},
	"role":         {"view", "create", "update", "delete"},
	"tenant":       {"view", "update"},
	"billing":      {"view", "update"},
}

var (
	allPermissions  []string
	validPermission map[string]struct{}
)

func init() {
	validPermission = make(map[string]struct{})
	for namespace, actions := range permissionRegistry {
		for _, action := range actions {
			code := namespace + "." + action
			allPermissions = append(allPermissions, code)
			validPermission[code] = struct{}{}
		}
	}
	sort.Strings(allPermissions)
}

// AllPermissions returns every registered permission code, sorted.
func AllPermissions() []string {
	out := make([]string, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// ValidPermission reports whether code is in the registry.
func ValidPermission(code string) bool {
	_, ok := validPermission[code]
	return ok
}

// Namespace returns the part of a permission code before the first dot.
func Namespace(code string) string {
	if i := strings.IndexByte(code, '.'); i > 0 {
		return code[:i]
	}
	return code
}

// NamespacePermissions returns all codes under one namespace.
func NamespacePermissions(namespace string) []string {
	actions, ok := permissionRegistry[namespace]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(actions))
	for _, action := range actions {
		out = append(out, namespace+"."+action)
	}
	return out
}
