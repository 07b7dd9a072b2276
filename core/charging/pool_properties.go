package charging

import (
	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/model"
)

func (p *ChargingPool) Name() model.I18NString { return p.name.Get() }

func (p *ChargingPool) SetName(n model.I18NString, opts ...entity.ChangeOption) bool {
	return p.name.Set(p.tracker, n, opts...)
}

func (p *ChargingPool) Description() model.I18NString { return p.description.Get() }

func (p *ChargingPool) SetDescription(d model.I18NString, opts ...entity.ChangeOption) bool {
	return p.description.Set(p.tracker, d, opts...)
}

func (p *ChargingPool) Brand() string { return p.brand.Get() }

func (p *ChargingPool) SetBrand(b string, opts ...entity.ChangeOption) bool {
	return p.brand.Set(p.tracker, b, opts...)
}

func (p *ChargingPool) OpeningTimes() *model.OpeningTimes { return p.openingTimes.Get() }

func (p *ChargingPool) SetOpeningTimes(o *model.OpeningTimes, opts ...entity.ChangeOption) bool {
	return p.openingTimes.Set(p.tracker, o, opts...)
}

func (p *ChargingPool) AuthenticationModes() []model.AuthenticationMode {
	return p.authenticationModes.Get()
}

func (p *ChargingPool) SetAuthenticationModes(m []model.AuthenticationMode, opts ...entity.ChangeOption) bool {
	return p.authenticationModes.Set(p.tracker, m, opts...)
}

func (p *ChargingPool) PaymentOptions() []model.PaymentOption { return p.paymentOptions.Get() }

func (p *ChargingPool) SetPaymentOptions(o []model.PaymentOption, opts ...entity.ChangeOption) bool {
	return p.paymentOptions.Set(p.tracker, o, opts...)
}

// MaxCurrent returns the maximum current of the grid connection in A.
func (p *ChargingPool) MaxCurrent() *float64 { return p.maxCurrent.Get() }

// SetMaxCurrent ignores changes of at most 0.01.
func (p *ChargingPool) SetMaxCurrent(a *float64, opts ...entity.ChangeOption) bool {
	return p.maxCurrent.Set(p.tracker, a, opts...)
}

// MaxPower returns the maximum power of the grid connection in kW.
func (p *ChargingPool) MaxPower() *float64 { return p.maxPower.Get() }

// SetMaxPower ignores changes of at most 0.01.
func (p *ChargingPool) SetMaxPower(kw *float64, opts ...entity.ChangeOption) bool {
	return p.maxPower.Set(p.tracker, kw, opts...)
}

// MaxCapacity returns the storage capacity in kWh.
func (p *ChargingPool) MaxCapacity() *float64 { return p.maxCapacity.Get() }

// SetMaxCapacity ignores changes of at most 0.01.
func (p *ChargingPool) SetMaxCapacity(kwh *float64, opts ...entity.ChangeOption) bool {
	return p.maxCapacity.Set(p.tracker, kwh, opts...)
}

func (p *ChargingPool) EnergyMix() string { return p.energyMix.Get() }

func (p *ChargingPool) SetEnergyMix(m string, opts ...entity.ChangeOption) bool {
	return p.energyMix.Set(p.tracker, m, opts...)
}

func (p *ChargingPool) DataSource() string { return p.dataSource.Get() }

func (p *ChargingPool) SetDataSource(s string, opts ...entity.ChangeOption) bool {
	return p.dataSource.Set(p.tracker, s, opts...)
}

// inheritDown clears property on every station after the pool value changed.
func (p *ChargingPool) inheritDown(changed bool, property string, opts []entity.ChangeOption) bool {
	if !changed {
		return false
	}
	for _, s := range p.stations.Values() {
		s.clear(s.tracker, property, opts...)
	}
	return true
}

// SetAddress sets the pool address and clears the station addresses.
func (p *ChargingPool) SetAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.address.Set(p.tracker, a, opts...), p.address.Name(), opts)
}

func (p *ChargingPool) SetGeoLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.geoLocation.Set(p.tracker, g, opts...), p.geoLocation.Name(), opts)
}

func (p *ChargingPool) SetEntranceAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.entranceAddress.Set(p.tracker, a, opts...), p.entranceAddress.Name(), opts)
}

func (p *ChargingPool) SetEntranceLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.entranceLocation.Set(p.tracker, g, opts...), p.entranceLocation.Name(), opts)
}

func (p *ChargingPool) SetExitAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.exitAddress.Set(p.tracker, a, opts...), p.exitAddress.Name(), opts)
}

func (p *ChargingPool) SetExitLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.exitLocation.Set(p.tracker, g, opts...), p.exitLocation.Name(), opts)
}

func (p *ChargingPool) SetAccessibility(a model.Accessibility, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.accessibility.Set(p.tracker, a, opts...), p.accessibility.Name(), opts)
}

func (p *ChargingPool) SetGridConnection(g model.GridConnection, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.gridConnection.Set(p.tracker, g, opts...), p.gridConnection.Name(), opts)
}

func (p *ChargingPool) SetHotlinePhoneNumber(n string, opts ...entity.ChangeOption) bool {
	return p.inheritDown(p.hotlinePhoneNumber.Set(p.tracker, n, opts...), p.hotlinePhoneNumber.Name(), opts)
}
