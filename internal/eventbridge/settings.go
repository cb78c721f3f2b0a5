package eventbridge

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/blockout/internal/config"
)

// Bridge defaults. The bridge only listens on loopback unless told otherwise.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 8765
	DefaultMaxBodyBytes int64 = 1 << 20
	DefaultTimeout            = 15 * time.Second

	// idleFactor scales Timeout into the keep-alive limit.
	idleFactor = 4

	envPrefix = "BLOCKOUT_BRIDGE_"
)

// Settings configure the bridge listener.
type Settings struct {
	Enabled      bool
	Host         string
	Port         int
	MaxBodyBytes int64
	// Timeout bounds reading a request and writing its response.
	Timeout time.Duration
}

// DefaultSettings returns an enabled loopback bridge.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Timeout:      DefaultTimeout,
	}
}

// SettingsFromConfig layers the bridge section of .blockout/config.yaml and
// then the BLOCKOUT_BRIDGE_* environment over the defaults. Both layers go
// through the same merge, so an invalid port is ignored either way.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg != nil {
		s.merge(cfg.Project.Bridge)
	}
	s.merge(bridgeFromEnv())
	return s
}

func bridgeFromEnv() config.BridgeConfig {
	var b config.BridgeConfig
	if enabled, err := strconv.ParseBool(env("ENABLED")); err == nil {
		b.Enabled = &enabled
	}
	b.Host = env("HOST")
	if port, err := strconv.Atoi(env("PORT")); err == nil {
		b.Port = port
	}
	return b
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func (s *Settings) merge(b config.BridgeConfig) {
	if b.Enabled != nil {
		s.Enabled = *b.Enabled
	}
	if host := strings.TrimSpace(b.Host); host != "" {
		s.Host = host
	}
	if b.Port > 0 && b.Port <= 65535 {
		s.Port = b.Port
	}
}

// fillDefaults covers Settings built by hand. Port 0 is kept so tests can
// bind an ephemeral port.
func (s *Settings) fillDefaults() {
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
}

// Address returns host:port.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the base URL for Address.
func (s Settings) URL() string {
	return "http://" + s.Address()
}
