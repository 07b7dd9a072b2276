package charging

import (
	"fmt"
	"sort"

	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/events"
	"github.com/kilianp07/wwcp/core/model"
)

// CollectionOption configures a station collection operation.
type CollectionOption func(*collectionOpts)

type collectionOpts struct {
	trackingID model.EventTrackingID
	onSuccess  func(*ChargingStation)
	onError    func(*ChargingStation, string)
}

// WithTrackingID correlates the operation with a request.
func WithTrackingID(id model.EventTrackingID) CollectionOption {
	return func(o *collectionOpts) { o.trackingID = id }
}

// OnSuccess is called after a successful change.
func OnSuccess(fn func(*ChargingStation)) CollectionOption {
	return func(o *collectionOpts) { o.onSuccess = fn }
}

// OnError is called when the change is rejected.
func OnError(fn func(*ChargingStation, string)) CollectionOption {
	return func(o *collectionOpts) { o.onError = fn }
}

func newCollectionOpts(opts []CollectionOption) collectionOpts {
	var o collectionOpts
	for _, fn := range opts {
		fn(&o)
	}
	if o.trackingID == "" {
		o.trackingID = model.NewEventTrackingID()
	}
	return o
}

func (p *ChargingPool) finish(o collectionOpts, res StationResult) StationResult {
	res.EventTrackingID = o.trackingID
	switch {
	case res.Type == ChangeError || res.Type == ChangeArgumentError:
		p.log.Warnf("%s: station change rejected: %s", p.id, res.Description)
		if o.onError != nil {
			o.onError(res.Station, res.Description)
		}
	case res.Type != ChangeNoOperation && o.onSuccess != nil:
		o.onSuccess(res.Station)
	}
	return res
}

// validate checks the station against the pool operator namespace.
func (p *ChargingPool) validate(s *ChargingStation) (ChangeResultType, string) {
	if s == nil {
		return ChangeArgumentError, "charging station must not be nil"
	}
	if s.ID().OperatorID() != p.operator && (p.allowForeign == nil || !p.allowForeign(s.ID())) {
		return ChangeArgumentError, fmt.Sprintf("charging station %s is not in the operator namespace %s", s.ID(), p.operator)
	}
	if owner := s.Pool(); owner != nil && owner != p {
		return ChangeArgumentError, fmt.Sprintf("charging station %s already belongs to pool %s", s.ID(), owner.ID())
	}
	return ChangeSuccess, ""
}

// AddChargingStation adds a new station. Adding an id twice is an error.
func (p *ChargingPool) AddChargingStation(s *ChargingStation, opts ...CollectionOption) StationResult {
	o := newCollectionOpts(opts)
	if t, d := p.validate(s); t != ChangeSuccess {
		return p.finish(o, StationResult{Type: t, Station: s, Description: d})
	}
	if !p.stations.TryAdd(s.ID(), s) {
		return p.finish(o, StationResult{Type: ChangeError, Station: s, Description: "charging station " + s.ID().String() + " already exists"})
	}
	p.connect(s)
	return p.finish(o, StationResult{Type: ChangeSuccess, Station: s})
}

// AddChargingStationIfNotExists adds s unless its id is present, in which
// case the existing station is returned with NoOperation.
func (p *ChargingPool) AddChargingStationIfNotExists(s *ChargingStation, opts ...CollectionOption) StationResult {
	o := newCollectionOpts(opts)
	if t, d := p.validate(s); t != ChangeSuccess {
		return p.finish(o, StationResult{Type: t, Station: s, Description: d})
	}
	actual, added := p.stations.GetOrAdd(s.ID(), s)
	if !added {
		return p.finish(o, StationResult{Type: ChangeNoOperation, Station: actual})
	}
	p.connect(s)
	return p.finish(o, StationResult{Type: ChangeSuccess, Station: s})
}

// AddOrUpdateChargingStation adds s or replaces the station with the same id.
func (p *ChargingPool) AddOrUpdateChargingStation(s *ChargingStation, opts ...CollectionOption) StationResult {
	o := newCollectionOpts(opts)
	if t, d := p.validate(s); t != ChangeSuccess {
		return p.finish(o, StationResult{Type: t, Station: s, Description: d})
	}
	old, replaced := p.stations.AddOrUpdate(s.ID(), s)
	if !replaced {
		p.connect(s)
		return p.finish(o, StationResult{Type: ChangeAdded, Station: s})
	}
	if old != s {
		p.disconnect(old)
		p.connect(s)
	}
	return p.finish(o, StationResult{Type: ChangeUpdated, Station: s})
}

// UpdateChargingStation replaces an existing station.
func (p *ChargingPool) UpdateChargingStation(s *ChargingStation, opts ...CollectionOption) StationResult {
	o := newCollectionOpts(opts)
	if t, d := p.validate(s); t != ChangeSuccess {
		return p.finish(o, StationResult{Type: t, Station: s, Description: d})
	}
	old, ok := p.stations.TryUpdate(s.ID(), s)
	if !ok {
		return p.finish(o, StationResult{Type: ChangeError, Station: s, Description: "unknown charging station " + s.ID().String()})
	}
	if old != s {
		p.disconnect(old)
		p.connect(s)
	}
	return p.finish(o, StationResult{Type: ChangeUpdated, Station: s})
}

// RemoveChargingStation removes the station with the given id.
func (p *ChargingPool) RemoveChargingStation(id model.ChargingStationID, opts ...CollectionOption) StationResult {
	o := newCollectionOpts(opts)
	s, ok := p.stations.TryRemove(id)
	if !ok {
		return p.finish(o, StationResult{Type: ChangeNoOperation, Description: "unknown charging station " + id.String()})
	}
	p.disconnect(s)
	return p.finish(o, StationResult{Type: ChangeSuccess, Station: s})
}

// connect wires the station events into the pool events.
func (p *ChargingPool) connect(s *ChargingStation) {
	s.setPool(p)
	sender := p.id.String()
	sid := s.ID().String()
	links := []func(){
		s.OnPropertyChanged(func(c entity.PropertyChange) {
			emit(p.log, sender, "StationPropertyChanged", &p.Events.StationPropertyChanged, c)
			p.publish(events.PropertyEvent{Timestamp: c.Timestamp, Entity: events.EntityChargingStation, ID: sid, Property: c.Property, DataSource: c.DataSource})
		}),
		s.Events.StatusChanged.Add(func(u StationStatusUpdate) {
			emit(p.log, sender, "StationStatusChanged", &p.Events.StationStatusChanged, u)
			p.publish(events.StatusEvent{Timestamp: u.Timestamp, Entity: events.EntityChargingStation, ID: sid, PoolID: sender, Old: string(u.Old), New: string(u.New)})
			p.aggregate()
		}),
		s.Events.AdminStatusChanged.Add(func(u StationAdminStatusUpdate) {
			emit(p.log, sender, "StationAdminStatusChanged", &p.Events.StationAdminStatusChanged, u)
			p.publish(events.StatusEvent{Timestamp: u.Timestamp, Entity: events.EntityChargingStation, ID: sid, PoolID: sender, Admin: true, Old: string(u.Old), New: string(u.New)})
		}),
		s.Events.EVSEStatusChanged.Add(func(u EVSEStatusUpdate) {
			emit(p.log, sender, "EVSEStatusChanged", &p.Events.EVSEStatusChanged, u)
			p.publish(events.StatusEvent{Timestamp: u.Timestamp, Entity: events.EntityEVSE, ID: u.ID.String(), PoolID: sender, Old: string(u.Old), New: string(u.New)})
		}),
		s.Events.EVSEAdminStatusChanged.Add(func(u EVSEAdminStatusUpdate) {
			emit(p.log, sender, "EVSEAdminStatusChanged", &p.Events.EVSEAdminStatusChanged, u)
			p.publish(events.StatusEvent{Timestamp: u.Timestamp, Entity: events.EntityEVSE, ID: u.ID.String(), PoolID: sender, Admin: true, Old: string(u.Old), New: string(u.New)})
		}),
	}
	p.mu.Lock()
	p.stationLinks[s.ID()] = links
	p.mu.Unlock()

	p.tracker.Touch()
	emit(p.log, sender, "StationAdded", &p.Events.StationAdded, s)
	p.publish(events.StationEvent{Timestamp: p.clock(), PoolID: sender, StationID: sid})
	p.aggregate()
}

func (p *ChargingPool) disconnect(s *ChargingStation) {
	p.mu.Lock()
	links := p.stationLinks[s.ID()]
	delete(p.stationLinks, s.ID())
	p.mu.Unlock()
	for _, l := range links {
		l()
	}
	s.setPool(nil)

	p.tracker.Touch()
	emit(p.log, p.id.String(), "StationRemoved", &p.Events.StationRemoved, s)
	p.publish(events.StationEvent{Timestamp: p.clock(), PoolID: p.id.String(), StationID: s.ID().String(), Removed: true})
	p.aggregate()
}

// ContainsChargingStation reports whether the pool owns id.
func (p *ChargingPool) ContainsChargingStation(id model.ChargingStationID) bool {
	return p.stations.Contains(id)
}

// GetChargingStation returns the station with the given id.
func (p *ChargingPool) GetChargingStation(id model.ChargingStationID) (*ChargingStation, bool) {
	return p.stations.Get(id)
}

// ChargingStations returns a point-in-time snapshot ordered by id.
func (p *ChargingPool) ChargingStations() []*ChargingStation {
	out := p.stations.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

// ChargingStationIDs returns the station ids ordered.
func (p *ChargingPool) ChargingStationIDs() []model.ChargingStationID {
	ids := p.stations.Keys()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// EVSEs returns a snapshot of all EVSEs of all stations.
func (p *ChargingPool) EVSEs() []*EVSE {
	var out []*EVSE
	for _, s := range p.ChargingStations() {
		out = append(out, s.EVSEs()...)
	}
	return out
}

// GetEVSE returns the EVSE with the given id.
func (p *ChargingPool) GetEVSE(id model.EVSEID) (*EVSE, bool) {
	if s := p.stationForEVSE(id); s != nil {
		return s.GetEVSE(id)
	}
	return nil, false
}

// ContainsEVSE reports whether any station owns id.
func (p *ChargingPool) ContainsEVSE(id model.EVSEID) bool { return p.stationForEVSE(id) != nil }

func (p *ChargingPool) stationForEVSE(id model.EVSEID) *ChargingStation {
	for _, s := range p.stations.Values() {
		if s.ContainsEVSE(id) {
			return s
		}
	}
	return nil
}
