package charging

import (
	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/model"
)

func (s *ChargingStation) Name() model.I18NString { return s.name.Get() }

func (s *ChargingStation) SetName(n model.I18NString, opts ...entity.ChangeOption) bool {
	return s.name.Set(s.tracker, n, opts...)
}

func (s *ChargingStation) Description() model.I18NString { return s.description.Get() }

func (s *ChargingStation) SetDescription(d model.I18NString, opts ...entity.ChangeOption) bool {
	return s.description.Set(s.tracker, d, opts...)
}

func (s *ChargingStation) Brand() string { return s.brand.Get() }

func (s *ChargingStation) SetBrand(b string, opts ...entity.ChangeOption) bool {
	return s.brand.Set(s.tracker, b, opts...)
}

// PhysicalReference is the label printed on the station.
func (s *ChargingStation) PhysicalReference() string { return s.physicalReference.Get() }

func (s *ChargingStation) SetPhysicalReference(r string, opts ...entity.ChangeOption) bool {
	return s.physicalReference.Set(s.tracker, r, opts...)
}

func (s *ChargingStation) OpeningTimes() *model.OpeningTimes { return s.openingTimes.Get() }

func (s *ChargingStation) SetOpeningTimes(o *model.OpeningTimes, opts ...entity.ChangeOption) bool {
	return s.openingTimes.Set(s.tracker, o, opts...)
}

func (s *ChargingStation) MaxPower() *float64 { return s.maxPower.Get() }

func (s *ChargingStation) SetMaxPower(kw *float64, opts ...entity.ChangeOption) bool {
	return s.maxPower.Set(s.tracker, kw, opts...)
}

func (s *ChargingStation) MaxCurrent() *float64 { return s.maxCurrent.Get() }

func (s *ChargingStation) SetMaxCurrent(a *float64, opts ...entity.ChangeOption) bool {
	return s.maxCurrent.Set(s.tracker, a, opts...)
}

func (s *ChargingStation) SetAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return s.address.Set(s.tracker, a, opts...)
}

func (s *ChargingStation) SetGeoLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return s.geoLocation.Set(s.tracker, g, opts...)
}

func (s *ChargingStation) SetEntranceAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return s.entranceAddress.Set(s.tracker, a, opts...)
}

func (s *ChargingStation) SetEntranceLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return s.entranceLocation.Set(s.tracker, g, opts...)
}

func (s *ChargingStation) SetExitAddress(a *model.Address, opts ...entity.ChangeOption) bool {
	return s.exitAddress.Set(s.tracker, a, opts...)
}

func (s *ChargingStation) SetExitLocation(g *model.GeoCoordinate, opts ...entity.ChangeOption) bool {
	return s.exitLocation.Set(s.tracker, g, opts...)
}

func (s *ChargingStation) SetAccessibility(a model.Accessibility, opts ...entity.ChangeOption) bool {
	return s.accessibility.Set(s.tracker, a, opts...)
}

func (s *ChargingStation) SetGridConnection(g model.GridConnection, opts ...entity.ChangeOption) bool {
	return s.gridConnection.Set(s.tracker, g, opts...)
}

func (s *ChargingStation) SetHotlinePhoneNumber(n string, opts ...entity.ChangeOption) bool {
	return s.hotlinePhoneNumber.Set(s.tracker, n, opts...)
}

// EffectiveAddress returns the station address, or the pool address when
// the station has none.
func (s *ChargingStation) EffectiveAddress() *model.Address {
	if a := s.Address(); a != nil {
		return a
	}
	if p := s.Pool(); p != nil {
		return p.Address()
	}
	return nil
}

// EffectiveGeoLocation falls back to the pool location.
func (s *ChargingStation) EffectiveGeoLocation() *model.GeoCoordinate {
	if g := s.GeoLocation(); g != nil {
		return g
	}
	if p := s.Pool(); p != nil {
		return p.GeoLocation()
	}
	return nil
}

// EffectiveAccessibility falls back to the pool accessibility.
func (s *ChargingStation) EffectiveAccessibility() model.Accessibility {
	if a := s.Accessibility(); a != "" {
		return a
	}
	if p := s.Pool(); p != nil {
		return p.Accessibility()
	}
	return ""
}

// EffectiveGridConnection falls back to the pool grid connection.
func (s *ChargingStation) EffectiveGridConnection() model.GridConnection {
	if g := s.GridConnection(); g != "" {
		return g
	}
	if p := s.Pool(); p != nil {
		return p.GridConnection()
	}
	return ""
}

// EffectiveHotlinePhoneNumber falls back to the pool hotline.
func (s *ChargingStation) EffectiveHotlinePhoneNumber() string {
	if n := s.HotlinePhoneNumber(); n != "" {
		return n
	}
	if p := s.Pool(); p != nil {
		return p.HotlinePhoneNumber()
	}
	return ""
}
