// Package plugins holds the remote backends a configured charging pool can
// delegate its commands to.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/logger"
	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
)

// Deps are the shared resources handed to remote factories.
type Deps struct {
	// Pool is the configuration of the pool the backend serves.
	Pool config.PoolConfig
	// Transport connects to the broker on first use. It is nil when no
	// broker is configured.
	Transport func() (coremqtt.Transport, error)
	// TopicPrefix and ClientID name the broker topics.
	TopicPrefix string
	ClientID    string
	Logger      logger.Logger
}

// RemoteFactory builds a remote charging pool from a raw configuration map.
type RemoteFactory func(conf map[string]any, deps Deps) (charging.RemoteChargingPool, error)

var Remotes = map[string]RemoteFactory{}

func RegisterRemote(name string, f RemoteFactory) { Remotes[name] = f }

// NewRemote builds the remote backend named by typ.
func NewRemote(typ string, conf map[string]any, deps Deps) (charging.RemoteChargingPool, error) {
	f, ok := Remotes[typ]
	if !ok {
		return nil, fmt.Errorf("unknown remote type %q (known: %v)", typ, RemoteTypes())
	}
	r, err := f(conf, deps)
	if err != nil {
		return nil, fmt.Errorf("create remote %s: %w", typ, err)
	}
	return r, nil
}

// RemoteTypes lists the registered remote types in sorted order.
func RemoteTypes() []string {
	out := make([]string, 0, len(Remotes))
	for name := range Remotes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
