package hostcheck

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bookmehq/bookme/internal/config"
	"github.com/bookmehq/bookme/internal/domaindir"
)

var ErrDisallowedHost = errors.New("disallowed_host")

var rejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bookme_host_rejected_total",
	Help: "Requests rejected because the Host header is not allowed.",
})

// Checker decides whether a Host header may be served. Loopback hosts
// are always allowed so health probes and local tooling keep working;
// beyond that a host must be a registered tenant domain, fall under the
// platform base wildcard, or appear in the static allow-list.
type Checker struct {
	directory *domaindir.Directory
	allowed   *config.AllowedHostsHolder
}

func New(directory *domaindir.Directory, allowed *config.AllowedHostsHolder) *Checker {
	return &Checker{directory: directory, allowed: allowed}
}

func (c *Checker) Validate(ctx context.Context, host string) error {
	host = domaindir.Normalize(host)
	if host == "" {
		rejectedTotal.Inc()
		return ErrDisallowedHost
	}

	if isLoopback(host) {
		return nil
	}
	if c.directory.Known(ctx, host) {
		return nil
	}
	if c.directory.IsBaseWildcard(host) {
		return nil
	}
	if c.inAllowList(host) {
		return nil
	}

	rejectedTotal.Inc()
	return ErrDisallowedHost
}

func (c *Checker) inAllowList(host string) bool {
	for _, allowed := range c.allowed.Get() {
		allowed = strings.ToLower(allowed)
		// A leading dot allows the domain and every subdomain.
		if strings.HasPrefix(allowed, ".") {
			if host == allowed[1:] || strings.HasSuffix(host, allowed) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
