package plugins

import (
	"fmt"
	"time"

	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/factory"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/virtual"
	"github.com/kilianp07/wwcp/infra/mqtt"
)

// VirtualConfig configures the "virtual" remote.
type VirtualConfig struct {
	ResponseDelay time.Duration `json:"response_delay"`
}

// MQTTConfig configures the "mqtt" remote.
type MQTTConfig struct {
	TopicPrefix string        `json:"topic_prefix"`
	Timeout     time.Duration `json:"timeout"`
}

func init() {
	RegisterRemote("virtual", func(conf map[string]any, deps Deps) (charging.RemoteChargingPool, error) {
		var vc VirtualConfig
		if err := factory.Decode(conf, &vc); err != nil {
			return nil, err
		}
		vp, err := NewVirtualPool(deps.Pool, virtual.WithResponseDelay(vc.ResponseDelay), virtual.WithLogger(deps.Logger))
		if err != nil {
			return nil, err
		}
		return vp, nil
	})
	RegisterRemote("mqtt", func(conf map[string]any, deps Deps) (charging.RemoteChargingPool, error) {
		var mc MQTTConfig
		if err := factory.Decode(conf, &mc); err != nil {
			return nil, err
		}
		if deps.Transport == nil {
			return nil, fmt.Errorf("mqtt remote requires a broker")
		}
		t, err := deps.Transport()
		if err != nil {
			return nil, err
		}
		prefix := mc.TopicPrefix
		if prefix == "" {
			prefix = deps.TopicPrefix
		}
		rp, err := mqtt.NewRemotePool(deps.Pool.PoolID(), t, mqtt.RemoteConfig{
			TopicPrefix: prefix,
			ClientID:    deps.ClientID,
			Timeout:     mc.Timeout,
			Logger:      deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		return rp, nil
	})
}

// NewVirtualPool builds a virtual pool mirroring the stations and EVSEs of cfg.
func NewVirtualPool(cfg config.PoolConfig, opts ...virtual.Option) (*virtual.ChargingPool, error) {
	id, err := model.ParseChargingPoolID(cfg.ID)
	if err != nil {
		return nil, err
	}
	if cfg.AdminStatus != "" {
		opts = append([]virtual.Option{virtual.WithAdminStatus(model.AdminStatus(cfg.AdminStatus))}, opts...)
	}
	vp := virtual.NewChargingPool(id, opts...)
	for _, sc := range cfg.Stations {
		sid, err := model.ParseChargingStationID(sc.ID)
		if err != nil {
			return nil, err
		}
		st := vp.AddChargingStation(sid)
		if sc.AdminStatus != "" {
			st.SetAdminStatus(model.AdminStatus(sc.AdminStatus))
		}
		for _, ec := range sc.EVSEs {
			eid, err := model.ParseEVSEID(ec.ID)
			if err != nil {
				return nil, err
			}
			eopts := []virtual.EVSEOption{virtual.WithMaxPower(ec.MaxPowerKW)}
			if ec.Status != "" {
				eopts = append(eopts, virtual.WithStatus(model.EVSEStatus(ec.Status)))
			}
			if ec.AdminStatus != "" {
				eopts = append(eopts, virtual.WithEVSEAdminStatus(model.AdminStatus(ec.AdminStatus)))
			}
			st.AddEVSE(eid, eopts...)
		}
	}
	return vp, nil
}
