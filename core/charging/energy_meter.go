package charging

import (
	"sort"

	"github.com/kilianp07/wwcp/core/model"
)

// EnergyMeter measures energy outside of a station, e.g. at the grid
// connection of a pool.
type EnergyMeter struct {
	ID              model.EnergyMeterID `json:"@id"`
	Model           string              `json:"model,omitempty"`
	Manufacturer    string              `json:"manufacturer,omitempty"`
	SerialNumber    string              `json:"serialNumber,omitempty"`
	FirmwareVersion string              `json:"firmwareVersion,omitempty"`
	PublicKey       string              `json:"publicKey,omitempty"`
}

// AddEnergyMeter adds a meter unless its id is present.
func (p *ChargingPool) AddEnergyMeter(m *EnergyMeter) ChangeResultType {
	if m == nil || m.ID == "" {
		return ChangeArgumentError
	}
	if !p.meters.TryAdd(m.ID, m) {
		return ChangeNoOperation
	}
	p.tracker.Touch()
	return ChangeSuccess
}

// RemoveEnergyMeter removes a meter.
func (p *ChargingPool) RemoveEnergyMeter(id model.EnergyMeterID) ChangeResultType {
	if _, ok := p.meters.TryRemove(id); !ok {
		return ChangeNoOperation
	}
	p.tracker.Touch()
	return ChangeSuccess
}

// EnergyMeters returns the meters ordered by id.
func (p *ChargingPool) EnergyMeters() []*EnergyMeter {
	out := p.meters.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
