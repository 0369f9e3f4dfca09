package breeze

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// ServerOptions is the set of operational knobs a Server is constructed
// with. It carries no file-loading or template-path surface — those
// belong to the build pipeline that sits outside this module — just
// the handful of settings the event loop itself needs.
type ServerOptions struct {
	// Address is the TCP address the listener binds, e.g. "localhost:8080".
	Address string `mapstructure:"address"`

	// PollTimeout caps how long a single multiplexer poll may block.
	// Default 10s.
	PollTimeout time.Duration `mapstructure:"poll_timeout"`

	// IdleTimeout is how long a connection may sit with no read or
	// write activity before the loop reaps it. Default 30s.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// MaxConnections bounds the slot allocator handing out connection
	// tokens. Default 1024.
	MaxConnections int `mapstructure:"max_connections"`
}

// DefaultServerOptions returns sensible default values a caller can
// selectively override.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Address:        "localhost:8080",
		PollTimeout:    10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxConnections: 1024,
	}
}

// DecodeServerOptions overlays raw (as decoded from whatever file format
// the external config loader understands — JSON, TOML, YAML; this
// package is agnostic) onto DefaultServerOptions via mapstructure.
func DecodeServerOptions(raw map[string]interface{}) (ServerOptions, error) {
	opts := DefaultServerOptions()
	if raw == nil {
		return opts, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}

	if err := dec.Decode(raw); err != nil {
		return opts, err
	}

	return opts, nil
}
