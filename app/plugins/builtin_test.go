package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
	"github.com/kilianp07/wwcp/core/virtual"
)

func poolConfig() config.PoolConfig {
	return config.PoolConfig{
		ID: "DE*GEF*P1",
		Stations: []config.StationConfig{{
			ID: "DE*GEF*SA",
			EVSEs: []config.EVSEConfig{
				{ID: "DE*GEF*EA1", MaxPowerKW: 22},
				{ID: "DE*GEF*EA2", Status: "OutOfService"},
			},
		}},
	}
}

func TestRemoteTypes(t *testing.T) {
	assert.Equal(t, []string{"mqtt", "virtual"}, RemoteTypes())
	_, err := NewRemote("ocpp", nil, Deps{})
	assert.ErrorContains(t, err, "unknown remote type")
}

func TestVirtualRemote(t *testing.T) {
	r, err := NewRemote("virtual", map[string]any{"response_delay": "1ms"}, Deps{Pool: poolConfig()})
	require.NoError(t, err)
	vp, ok := r.(*virtual.ChargingPool)
	require.True(t, ok)
	assert.Equal(t, "DE*GEF*P1", vp.ID().String())

	e, ok := vp.EVSE(model.MustParseEVSEID("DE*GEF*EA2"))
	require.True(t, ok)
	assert.Equal(t, model.EVSEStatusOutOfService, e.Status())

	res := r.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(model.MustParseEVSEID("DE*GEF*EA1"))})
	assert.Equal(t, charging.ResultSuccess, res.Type)
}

func TestVirtualRemoteBadConfig(t *testing.T) {
	_, err := NewRemote("virtual", map[string]any{"response_delay": "soon"}, Deps{Pool: poolConfig()})
	assert.Error(t, err)
}

type nopTransport struct{ subs []string }

func (n *nopTransport) Publish(context.Context, string, []byte) error { return nil }
func (n *nopTransport) Subscribe(topic string, _ coremqtt.Handler) error {
	n.subs = append(n.subs, topic)
	return nil
}
func (n *nopTransport) Unsubscribe(string) error { return nil }

func TestMQTTRemote(t *testing.T) {
	_, err := NewRemote("mqtt", nil, Deps{Pool: poolConfig()})
	assert.ErrorContains(t, err, "requires a broker")

	tr := &nopTransport{}
	deps := Deps{
		Pool:        poolConfig(),
		Transport:   func() (coremqtt.Transport, error) { return tr, nil },
		TopicPrefix: "global",
		ClientID:    "svc",
	}
	r, err := NewRemote("mqtt", map[string]any{"timeout": "5ms"}, deps)
	require.NoError(t, err)
	assert.Contains(t, tr.subs, "global/pools/DE*GEF*P1/replies/svc")

	res := r.RemoteStop(context.Background(), charging.RemoteStopRequest{SessionID: "S1"})
	assert.Equal(t, charging.ResultTimeout, res.Type)
}
