package config

import (
	"fmt"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/factory"
	"github.com/kilianp07/wwcp/core/model"
)

// PoolConfig describes one charging pool and its stations.
type PoolConfig struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	AdminStatus  string          `json:"admin_status"`
	MaxPowerKW   float64         `json:"max_power_kw"`
	Aggregation  string          `json:"aggregation"`
	EnergyMeters []string        `json:"energy_meters"`
	Stations     []StationConfig `json:"stations"`
	// Remote selects the backend executing commands, e.g. type "virtual"
	// or "mqtt". Commands fail with Offline when unset.
	Remote *factory.ModuleConfig `json:"remote"`
}

// StationConfig describes a charging station.
type StationConfig struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	AdminStatus string       `json:"admin_status"`
	EVSEs       []EVSEConfig `json:"evses"`
}

// EVSEConfig describes an EVSE.
type EVSEConfig struct {
	ID          string   `json:"id"`
	MaxPowerKW  float64  `json:"max_power_kw"`
	Connectors  []string `json:"connectors"`
	Status      string   `json:"status"`
	AdminStatus string   `json:"admin_status"`
}

// SetDefaults marks pools, stations and EVSEs operational and EVSEs
// available unless configured otherwise.
func (p *PoolConfig) SetDefaults() {
	if p.AdminStatus == "" {
		p.AdminStatus = string(model.AdminStatusOperational)
	}
	for i := range p.Stations {
		s := &p.Stations[i]
		if s.AdminStatus == "" {
			s.AdminStatus = string(model.AdminStatusOperational)
		}
		for j := range s.EVSEs {
			e := &s.EVSEs[j]
			if e.Status == "" {
				e.Status = string(model.EVSEStatusAvailable)
			}
			if e.AdminStatus == "" {
				e.AdminStatus = string(model.AdminStatusOperational)
			}
		}
	}
}

// Validate parses every identifier and the aggregation strategy.
func (p PoolConfig) Validate() error {
	poolID, err := model.ParseChargingPoolID(p.ID)
	if err != nil {
		return err
	}
	if _, _, ok := charging.AggregatorByName(p.Aggregation); !ok {
		return fmt.Errorf("unknown aggregation %q", p.Aggregation)
	}
	if p.MaxPowerKW < 0 {
		return fmt.Errorf("max_power_kw must not be negative")
	}
	if p.Remote != nil && p.Remote.Type == "" {
		return fmt.Errorf("remote type is required")
	}
	evses := map[string]bool{}
	stations := map[string]bool{}
	for _, s := range p.Stations {
		sid, err := model.ParseChargingStationID(s.ID)
		if err != nil {
			return err
		}
		if sid.OperatorID() != poolID.OperatorID() {
			return fmt.Errorf("station %s outside operator %s", s.ID, poolID.OperatorID())
		}
		if stations[s.ID] {
			return fmt.Errorf("duplicate station id %s", s.ID)
		}
		stations[s.ID] = true
		for _, e := range s.EVSEs {
			if _, err := model.ParseEVSEID(e.ID); err != nil {
				return err
			}
			if evses[e.ID] {
				return fmt.Errorf("duplicate evse id %s", e.ID)
			}
			evses[e.ID] = true
			if e.MaxPowerKW < 0 {
				return fmt.Errorf("evse %s: max_power_kw must not be negative", e.ID)
			}
		}
	}
	return nil
}

// PoolID returns the parsed pool id. Call Validate first.
func (p PoolConfig) PoolID() model.ChargingPoolID {
	id, _ := model.ParseChargingPoolID(p.ID)
	return id
}
