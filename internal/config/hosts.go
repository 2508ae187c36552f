package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AllowedHostsHolder serves the static host allow-list. The list is read
// from an optional hosts.yml and hot-reloaded, so operators can admit new
// hostnames without a restart.
type AllowedHostsHolder struct {
	current atomic.Value // holds []string
}

func NewAllowedHostsHolder(cfg Config) (*AllowedHostsHolder, error) {
	v := viper.New()

	v.SetConfigName("hosts")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/bookme")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOOKME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &AllowedHostsHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No hosts file; fall back to the env-configured list.
		holder.current.Store(normalizeHosts(cfg.AllowedHosts))
		return holder, nil
	}

	holder.current.Store(normalizeHosts(append(v.GetStringSlice("hosts.allow"), cfg.AllowedHosts...)))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		holder.current.Store(normalizeHosts(append(v.GetStringSlice("hosts.allow"), cfg.AllowedHosts...)))
		log.Printf("[hosts-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAllowedHosts returns a holder with a fixed list and no file
// watching. Used by tests.
func NewStaticAllowedHosts(hosts []string) *AllowedHostsHolder {
	holder := &AllowedHostsHolder{}
	holder.current.Store(normalizeHosts(hosts))
	return holder
}

// Get returns the current allow-list snapshot.
func (h *AllowedHostsHolder) Get() []string {
	return h.current.Load().([]string)
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	seen := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}
