package charging

import (
	"encoding/json"
	"time"
)

// JSON-LD contexts of the serialized entities.
const (
	PoolJSONContext    = "https://open.charging.cloud/contexts/wwcp+json/chargingPool"
	StationJSONContext = "https://open.charging.cloud/contexts/wwcp+json/chargingStation"
	EVSEJSONContext    = "https://open.charging.cloud/contexts/wwcp+json/evse"
)

// JSONOptions controls ToJSON.
type JSONOptions struct {
	// Embedded omits the @context of nested objects.
	Embedded bool
	// ExpandStations inlines the stations instead of listing their ids.
	ExpandStations bool
	// ExpandEVSEs inlines the EVSEs of expanded stations.
	ExpandEVSEs bool
}

type jsonObject map[string]any

func (o jsonObject) put(key string, v any, present bool) {
	if present {
		o[key] = v
	}
}

// ToJSON returns the JSON-LD representation of the pool.
func (p *ChargingPool) ToJSON(opt JSONOptions) map[string]any {
	o := jsonObject{"@id": p.id.String()}
	if !opt.Embedded {
		o["@context"] = PoolJSONContext
	}
	o.put("name", p.Name(), !p.Name().IsEmpty())
	o.put("description", p.Description(), !p.Description().IsEmpty())
	o.put("brand", p.Brand(), p.Brand() != "")
	o.put("address", p.Address(), p.Address() != nil)
	o.put("geoLocation", p.GeoLocation(), p.GeoLocation() != nil)
	o.put("entranceAddress", p.EntranceAddress(), p.EntranceAddress() != nil)
	o.put("entranceLocation", p.EntranceLocation(), p.EntranceLocation() != nil)
	o.put("exitAddress", p.ExitAddress(), p.ExitAddress() != nil)
	o.put("exitLocation", p.ExitLocation(), p.ExitLocation() != nil)
	o.put("openingTimes", p.OpeningTimes(), p.OpeningTimes() != nil)
	o.put("accessibility", p.Accessibility(), p.Accessibility() != "")
	o.put("gridConnection", p.GridConnection(), p.GridConnection() != "")
	o.put("hotlinePhoneNumber", p.HotlinePhoneNumber(), p.HotlinePhoneNumber() != "")
	o.put("authenticationModes", p.AuthenticationModes(), len(p.AuthenticationModes()) > 0)
	o.put("paymentOptions", p.PaymentOptions(), len(p.PaymentOptions()) > 0)
	o.put("maxCurrent", p.MaxCurrent(), p.MaxCurrent() != nil)
	o.put("maxPower", p.MaxPower(), p.MaxPower() != nil)
	o.put("maxCapacity", p.MaxCapacity(), p.MaxCapacity() != nil)
	o.put("energyMix", p.EnergyMix(), p.EnergyMix() != "")
	o.put("dataSource", p.DataSource(), p.DataSource() != "")
	o["status"] = p.Status()
	o["adminStatus"] = p.AdminStatus()
	o["lastChange"] = p.LastChange().UTC().Format(time.RFC3339)

	stations := p.ChargingStations()
	if opt.ExpandStations {
		list := make([]map[string]any, 0, len(stations))
		for _, s := range stations {
			list = append(list, s.ToJSON(JSONOptions{Embedded: true, ExpandEVSEs: opt.ExpandEVSEs}))
		}
		o["chargingStations"] = list
	} else {
		ids := make([]string, 0, len(stations))
		for _, s := range stations {
			ids = append(ids, s.ID().String())
		}
		o["chargingStationIds"] = ids
	}
	if meters := p.EnergyMeters(); len(meters) > 0 {
		o["energyMeters"] = meters
	}
	return o
}

// MarshalJSON serializes the pool with expanded stations.
func (p *ChargingPool) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToJSON(JSONOptions{ExpandStations: true, ExpandEVSEs: true}))
}

// ToJSON returns the JSON-LD representation of the station.
func (s *ChargingStation) ToJSON(opt JSONOptions) map[string]any {
	o := jsonObject{"@id": s.id.String()}
	if !opt.Embedded {
		o["@context"] = StationJSONContext
	}
	if p := s.Pool(); p != nil && !opt.Embedded {
		o["chargingPoolId"] = p.ID().String()
	}
	o.put("name", s.Name(), !s.Name().IsEmpty())
	o.put("description", s.Description(), !s.Description().IsEmpty())
	o.put("brand", s.Brand(), s.Brand() != "")
	o.put("physicalReference", s.PhysicalReference(), s.PhysicalReference() != "")
	o.put("address", s.Address(), s.Address() != nil)
	o.put("geoLocation", s.GeoLocation(), s.GeoLocation() != nil)
	o.put("accessibility", s.Accessibility(), s.Accessibility() != "")
	o.put("gridConnection", s.GridConnection(), s.GridConnection() != "")
	o.put("hotlinePhoneNumber", s.HotlinePhoneNumber(), s.HotlinePhoneNumber() != "")
	o.put("openingTimes", s.OpeningTimes(), s.OpeningTimes() != nil)
	o.put("maxPower", s.MaxPower(), s.MaxPower() != nil)
	o.put("maxCurrent", s.MaxCurrent(), s.MaxCurrent() != nil)
	o["status"] = s.Status()
	o["adminStatus"] = s.AdminStatus()

	evses := s.EVSEs()
	if opt.ExpandEVSEs {
		list := make([]map[string]any, 0, len(evses))
		for _, e := range evses {
			list = append(list, e.ToJSON(JSONOptions{Embedded: true}))
		}
		o["evses"] = list
	} else {
		ids := make([]string, 0, len(evses))
		for _, e := range evses {
			ids = append(ids, e.ID().String())
		}
		o["evseIds"] = ids
	}
	return o
}

// MarshalJSON serializes the station with expanded EVSEs.
func (s *ChargingStation) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON(JSONOptions{ExpandEVSEs: true}))
}

// ToJSON returns the JSON-LD representation of the EVSE.
func (e *EVSE) ToJSON(opt JSONOptions) map[string]any {
	o := jsonObject{"@id": e.id.String()}
	if !opt.Embedded {
		o["@context"] = EVSEJSONContext
	}
	o.put("description", e.Description(), !e.Description().IsEmpty())
	o.put("maxPower", e.MaxPower(), e.MaxPower() != nil)
	o.put("maxCurrent", e.MaxCurrent(), e.MaxCurrent() != nil)
	o.put("connectors", e.Connectors(), len(e.Connectors()) > 0)
	o.put("reservationId", e.ReservationID(), e.ReservationID() != "")
	o.put("sessionId", e.SessionID(), e.SessionID() != "")
	o["status"] = e.Status()
	o["adminStatus"] = e.AdminStatus()
	return o
}

// MarshalJSON serializes the EVSE.
func (e *EVSE) MarshalJSON() ([]byte, error) { return json.Marshal(e.ToJSON(JSONOptions{})) }
