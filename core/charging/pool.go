package charging

import (
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/events"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/status"
	"github.com/kilianp07/wwcp/internal/eventbus"
	"github.com/kilianp07/wwcp/internal/idset"
)

// ChargingPool is a group of charging stations at one site, operated by a
// single charging station operator.
type ChargingPool struct {
	id           model.ChargingPoolID
	operator     model.OperatorID
	log          logger.Logger
	bus          eventbus.EventBus
	tracker      *entity.Tracker
	remote       RemoteChargingPool
	aggregator   PoolStatusAggregator
	allowForeign func(model.ChargingStationID) bool
	reservations ReservationStore
	sessions     SessionStore
	historyMax   int
	clock        func() time.Time
	initialAdmin model.AdminStatus

	name                *entity.Value[model.I18NString]
	description         *entity.Value[model.I18NString]
	brand               *entity.Value[string]
	openingTimes        *entity.Value[*model.OpeningTimes]
	authenticationModes *entity.Value[[]model.AuthenticationMode]
	paymentOptions      *entity.Value[[]model.PaymentOption]
	maxCurrent          *entity.Value[*float64]
	maxPower            *entity.Value[*float64]
	maxCapacity         *entity.Value[*float64]
	energyMix           *entity.Value[string]
	dataSource          *entity.Value[string]
	inheritable

	stations *idset.Set[model.ChargingStationID, *ChargingStation]
	meters   *idset.Set[model.EnergyMeterID, *EnergyMeter]

	mu           sync.Mutex
	stationLinks map[model.ChargingStationID][]func()
	unsubs       []func()

	status      *status.Schedule[model.ChargingPoolStatus]
	adminStatus *status.Schedule[model.AdminStatus]

	Events PoolEvents
}

// PoolOption configures a ChargingPool.
type PoolOption func(*ChargingPool)

// WithLogger sets the pool logger.
func WithLogger(l logger.Logger) PoolOption { return func(p *ChargingPool) { p.log = logger.OrNop(l) } }

// WithEventBus publishes pool, station and EVSE events on b.
func WithEventBus(b eventbus.EventBus) PoolOption { return func(p *ChargingPool) { p.bus = b } }

// WithRemoteChargingPool sets the backend executing pool level commands and
// the commands of stations without their own backend.
func WithRemoteChargingPool(r RemoteChargingPool) PoolOption {
	return func(p *ChargingPool) { p.remote = r }
}

// WithStatusAggregator replaces the station status aggregation. A nil
// aggregator disables it; the owner then sets the pool status directly.
func WithStatusAggregator(a PoolStatusAggregator) PoolOption {
	return func(p *ChargingPool) { p.aggregator = a }
}

// WithAllowForeignStation accepts stations outside the operator namespace
// when fn returns true.
func WithAllowForeignStation(fn func(model.ChargingStationID) bool) PoolOption {
	return func(p *ChargingPool) { p.allowForeign = fn }
}

// WithReservationStore records reservations created through the pool.
func WithReservationStore(s ReservationStore) PoolOption {
	return func(p *ChargingPool) { p.reservations = s }
}

// WithSessionStore records sessions started through the pool.
func WithSessionStore(s SessionStore) PoolOption { return func(p *ChargingPool) { p.sessions = s } }

// WithStatusHistory sets the length of the status histories.
func WithStatusHistory(n int) PoolOption { return func(p *ChargingPool) { p.historyMax = n } }

// WithClock replaces the time source.
func WithClock(fn func() time.Time) PoolOption { return func(p *ChargingPool) { p.clock = fn } }

// WithAdminStatus sets the initial admin status. Defaults to Operational.
func WithAdminStatus(a model.AdminStatus) PoolOption {
	return func(p *ChargingPool) { p.initialAdmin = a }
}

// NewChargingPool creates a pool within the namespace of its operator.
func NewChargingPool(id model.ChargingPoolID, opts ...PoolOption) *ChargingPool {
	p := &ChargingPool{
		id:                  id,
		operator:            id.OperatorID(),
		log:                 logger.NopLogger{},
		aggregator:          AvailabilityFirstPoolStatus,
		historyMax:          status.DefaultMaxSize,
		clock:               time.Now,
		initialAdmin:        model.AdminStatusOperational,
		name:                entity.NewValueFunc("Name", model.I18NString(nil), model.I18NString.Equal),
		description:         entity.NewValueFunc("Description", model.I18NString(nil), model.I18NString.Equal),
		brand:               entity.NewValue("Brand", ""),
		openingTimes:        entity.NewValueFunc[*model.OpeningTimes]("OpeningTimes", nil, (*model.OpeningTimes).Equal),
		authenticationModes: entity.NewValueFunc[[]model.AuthenticationMode]("AuthenticationModes", nil, entity.SliceEqual[model.AuthenticationMode]),
		paymentOptions:      entity.NewValueFunc[[]model.PaymentOption]("PaymentOptions", nil, entity.SliceEqual[model.PaymentOption]),
		maxCurrent:          entity.NewValueFunc[*float64]("MaxCurrent", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		maxPower:            entity.NewValueFunc[*float64]("MaxPower", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		maxCapacity:         entity.NewValueFunc[*float64]("MaxCapacity", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		energyMix:           entity.NewValue("EnergyMix", ""),
		dataSource:          entity.NewValue("DataSource", ""),
		inheritable:         newInheritable(),
		stations:            idset.New[model.ChargingStationID, *ChargingStation](),
		meters:              idset.New[model.EnergyMeterID, *EnergyMeter](),
		stationLinks:        make(map[model.ChargingStationID][]func()),
	}
	for _, o := range opts {
		o(p)
	}
	p.tracker = entity.NewTracker(id.String(), p.log)
	p.tracker.SetClock(p.clock)

	now := p.clock()
	p.status = status.New[model.ChargingPoolStatus](p.historyMax, p.log)
	p.adminStatus = status.New[model.AdminStatus](p.historyMax, p.log)
	p.status.Insert(model.PoolStatusUnknown, now, "")
	p.adminStatus.Insert(p.initialAdmin, now, "")
	p.status.OnChanged(p.statusChanged)
	p.adminStatus.OnChanged(p.adminStatusChanged)

	p.tracker.OnPropertyChanged(func(c entity.PropertyChange) {
		p.publish(events.PropertyEvent{Timestamp: c.Timestamp, Entity: events.EntityChargingPool, ID: id.String(), Property: c.Property, DataSource: c.DataSource})
	})
	if src, ok := p.remote.(EVSEStatusSource); ok {
		p.unsubs = append(p.unsubs, src.OnEVSEStatusChanged(p.applyRemoteStatus))
	}
	return p
}

// ID returns the pool identifier.
func (p *ChargingPool) ID() model.ChargingPoolID { return p.id }

// Operator returns the operator owning the pool namespace.
func (p *ChargingPool) Operator() model.OperatorID { return p.operator }

// Remote returns the pool backend, nil when none is configured.
func (p *ChargingPool) Remote() RemoteChargingPool { return p.remote }

// LastChange returns the time of the last property or collection change.
func (p *ChargingPool) LastChange() time.Time { return p.tracker.LastChange() }

// OnPropertyChanged registers a listener for pool property changes.
func (p *ChargingPool) OnPropertyChanged(fn func(entity.PropertyChange)) (remove func()) {
	return p.tracker.OnPropertyChanged(fn)
}

// Close detaches all stations from the pool event wiring and unsubscribes
// from the remote status source.
func (p *ChargingPool) Close() {
	p.mu.Lock()
	unsubs := p.unsubs
	p.unsubs = nil
	links := p.stationLinks
	p.stationLinks = make(map[model.ChargingStationID][]func())
	p.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	for _, ls := range links {
		for _, l := range ls {
			l()
		}
	}
}

func (p *ChargingPool) publish(e eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

// Status returns the newest pool status.
func (p *ChargingPool) Status() model.ChargingPoolStatus { return p.status.Current() }

// StatusHistory returns the status history, newest first.
func (p *ChargingPool) StatusHistory() []status.Entry[model.ChargingPoolStatus] {
	return p.status.History()
}

// SetStatus records a status at ts; a zero ts means now. Pools with a
// status aggregator overwrite it on the next station status change.
func (p *ChargingPool) SetStatus(s model.ChargingPoolStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = p.clock()
	}
	return p.status.Insert(s, ts, dataSource)
}

// AdminStatus returns the newest admin status.
func (p *ChargingPool) AdminStatus() model.AdminStatus { return p.adminStatus.Current() }

// AdminStatusHistory returns the admin status history, newest first.
func (p *ChargingPool) AdminStatusHistory() []status.Entry[model.AdminStatus] {
	return p.adminStatus.History()
}

// SetAdminStatus records an admin status at ts; a zero ts means now.
func (p *ChargingPool) SetAdminStatus(a model.AdminStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = p.clock()
	}
	return p.adminStatus.Insert(a, ts, dataSource)
}

func (p *ChargingPool) statusChanged(c status.Change[model.ChargingPoolStatus]) {
	emit(p.log, p.id.String(), "StatusChanged", &p.Events.StatusChanged,
		PoolStatusUpdate{ID: p.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
	p.publish(events.StatusEvent{Timestamp: c.Timestamp, Entity: events.EntityChargingPool, ID: p.id.String(),
		PoolID: p.id.String(), Old: string(c.Old), New: string(c.New)})
}

func (p *ChargingPool) adminStatusChanged(c status.Change[model.AdminStatus]) {
	emit(p.log, p.id.String(), "AdminStatusChanged", &p.Events.AdminStatusChanged,
		PoolAdminStatusUpdate{ID: p.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
	p.publish(events.StatusEvent{Timestamp: c.Timestamp, Entity: events.EntityChargingPool, ID: p.id.String(),
		PoolID: p.id.String(), Admin: true, Old: string(c.Old), New: string(c.New)})
}

// aggregate recomputes the pool status from its stations.
func (p *ChargingPool) aggregate() {
	if p.aggregator == nil {
		return
	}
	report := StationStatusReport{
		PoolID:    p.id,
		Timestamp: p.clock(),
		Statuses:  make(map[model.ChargingStationID]model.ChargingStationStatus),
	}
	for _, s := range p.stations.Values() {
		report.Statuses[s.ID()] = s.Status()
	}
	p.status.Insert(p.aggregator(report), report.Timestamp, "aggregation")
}

// applyRemoteStatus mirrors a backend EVSE status into the owning station.
func (p *ChargingPool) applyRemoteStatus(u EVSEStatusUpdate) {
	st := p.stationForEVSE(u.ID)
	if st == nil {
		p.log.Debugf("%s: status update for unknown EVSE %s", p.id, u.ID)
		return
	}
	st.applyRemoteStatus(u)
}
