package charging

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/status"
	"github.com/kilianp07/wwcp/internal/idset"
)

// ChargingStation groups EVSEs at one physical location of a pool.
type ChargingStation struct {
	id         model.ChargingStationID
	log        logger.Logger
	tracker    *entity.Tracker
	remote     RemoteChargingStation
	aggregator StationStatusAggregator
	historyMax int

	mu        sync.RWMutex
	pool      *ChargingPool
	evseLinks map[model.EVSEID][]func()
	unsubs    []func()

	name              *entity.Value[model.I18NString]
	description       *entity.Value[model.I18NString]
	brand             *entity.Value[string]
	physicalReference *entity.Value[string]
	openingTimes      *entity.Value[*model.OpeningTimes]
	maxPower          *entity.Value[*float64]
	maxCurrent        *entity.Value[*float64]
	inheritable

	evses       *idset.Set[model.EVSEID, *EVSE]
	status      *status.Schedule[model.ChargingStationStatus]
	adminStatus *status.Schedule[model.AdminStatus]

	Events StationEvents
}

// StationOption configures a ChargingStation.
type StationOption func(*ChargingStation)

// WithStationLogger sets the logger.
func WithStationLogger(l logger.Logger) StationOption {
	return func(s *ChargingStation) { s.log = logger.OrNop(l) }
}

// WithRemoteChargingStation sets the backend executing commands.
func WithRemoteChargingStation(r RemoteChargingStation) StationOption {
	return func(s *ChargingStation) { s.remote = r }
}

// WithStationStatusAggregator replaces the EVSE status aggregation. A nil
// aggregator disables it; the owner then sets the station status directly.
func WithStationStatusAggregator(a StationStatusAggregator) StationOption {
	return func(s *ChargingStation) { s.aggregator = a }
}

// WithStationStatusHistory sets the status history length.
func WithStationStatusHistory(n int) StationOption {
	return func(s *ChargingStation) { s.historyMax = n }
}

// WithStationAdminStatus sets the initial admin status.
func WithStationAdminStatus(a model.AdminStatus) StationOption {
	return func(s *ChargingStation) { s.adminStatus.Insert(a, time.Now(), "") }
}

// NewChargingStation creates a station. It joins a pool through
// ChargingPool.AddChargingStation.
func NewChargingStation(id model.ChargingStationID, opts ...StationOption) *ChargingStation {
	s := &ChargingStation{
		id:                id,
		log:               logger.NopLogger{},
		aggregator:        AvailabilityFirstStationStatus,
		historyMax:        status.DefaultMaxSize,
		evseLinks:         make(map[model.EVSEID][]func()),
		name:              entity.NewValueFunc("Name", model.I18NString(nil), model.I18NString.Equal),
		description:       entity.NewValueFunc("Description", model.I18NString(nil), model.I18NString.Equal),
		brand:             entity.NewValue("Brand", ""),
		physicalReference: entity.NewValue("PhysicalReference", ""),
		openingTimes:      entity.NewValueFunc[*model.OpeningTimes]("OpeningTimes", nil, (*model.OpeningTimes).Equal),
		maxPower:          entity.NewValueFunc[*float64]("MaxPower", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		maxCurrent:        entity.NewValueFunc[*float64]("MaxCurrent", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		inheritable:       newInheritable(),
		evses:             idset.New[model.EVSEID, *EVSE](),
		adminStatus:       status.New[model.AdminStatus](status.DefaultMaxSize, nil),
	}
	s.adminStatus.Insert(model.AdminStatusOperational, time.Now(), "")
	for _, o := range opts {
		o(s)
	}
	s.tracker = entity.NewTracker(id.String(), s.log)
	s.adminStatus.Resize(s.historyMax)
	s.status = status.New[model.ChargingStationStatus](s.historyMax, s.log)
	s.status.Insert(model.StationStatusUnknown, s.tracker.Now(), "")
	s.status.OnChanged(s.statusChanged)
	s.adminStatus.OnChanged(s.adminStatusChanged)

	if src, ok := s.remote.(EVSEStatusSource); ok {
		s.unsubs = append(s.unsubs, src.OnEVSEStatusChanged(s.applyRemoteStatus))
	}
	return s
}

// ID returns the station identifier.
func (s *ChargingStation) ID() model.ChargingStationID { return s.id }

// Pool returns the owning pool, nil while detached.
func (s *ChargingStation) Pool() *ChargingPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

func (s *ChargingStation) setPool(p *ChargingPool) {
	s.mu.Lock()
	s.pool = p
	s.mu.Unlock()
}

// Remote returns the station backend, nil when none is configured.
func (s *ChargingStation) Remote() RemoteChargingStation { return s.remote }

// Close detaches the station from its remote status source.
func (s *ChargingStation) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// LastChange returns the time of the last property change.
func (s *ChargingStation) LastChange() time.Time { return s.tracker.LastChange() }

// OnPropertyChanged registers a property change listener.
func (s *ChargingStation) OnPropertyChanged(fn func(entity.PropertyChange)) (remove func()) {
	return s.tracker.OnPropertyChanged(fn)
}

// AddEVSE attaches an EVSE. Its operator must match the station operator.
func (s *ChargingStation) AddEVSE(e *EVSE) EVSEResult {
	tid := model.NewEventTrackingID()
	if e == nil {
		return EVSEResult{Type: ChangeArgumentError, EventTrackingID: tid, Description: "EVSE must not be nil"}
	}
	if e.ID().OperatorID() != s.id.OperatorID() {
		return EVSEResult{Type: ChangeArgumentError, EVSE: e, EventTrackingID: tid,
			Description: "EVSE " + e.ID().String() + " is not in the operator namespace of " + s.id.String()}
	}
	if !s.evses.TryAdd(e.ID(), e) {
		return EVSEResult{Type: ChangeError, EVSE: e, EventTrackingID: tid, Description: "EVSE already exists"}
	}
	e.attach(s)
	s.connectEVSE(e)
	s.tracker.Touch()
	emit(s.log, s.id.String(), "EVSEAdded", &s.Events.EVSEAdded, e)
	s.aggregate(e.Status() == model.EVSEStatusUnknown)
	return EVSEResult{Type: ChangeSuccess, EVSE: e, EventTrackingID: tid}
}

// RemoveEVSE detaches an EVSE.
func (s *ChargingStation) RemoveEVSE(id model.EVSEID) EVSEResult {
	tid := model.NewEventTrackingID()
	e, ok := s.evses.TryRemove(id)
	if !ok {
		return EVSEResult{Type: ChangeNoOperation, EventTrackingID: tid, Description: "unknown EVSE"}
	}
	s.disconnectEVSE(id)
	e.attach(nil)
	s.tracker.Touch()
	emit(s.log, s.id.String(), "EVSERemoved", &s.Events.EVSERemoved, e)
	s.aggregate(false)
	return EVSEResult{Type: ChangeSuccess, EVSE: e, EventTrackingID: tid}
}

func (s *ChargingStation) connectEVSE(e *EVSE) {
	sender := s.id.String()
	links := []func(){
		e.Events.StatusChanged.Add(func(u EVSEStatusUpdate) {
			emit(s.log, sender, "EVSEStatusChanged", &s.Events.EVSEStatusChanged, u)
			s.aggregate(false)
		}),
		e.Events.AdminStatusChanged.Add(func(u EVSEAdminStatusUpdate) {
			emit(s.log, sender, "EVSEAdminStatusChanged", &s.Events.EVSEAdminStatusChanged, u)
		}),
		e.OnPropertyChanged(func(c entity.PropertyChange) {
			emit(s.log, sender, "EVSEPropertyChanged", &s.Events.EVSEPropertyChanged, c)
		}),
	}
	s.mu.Lock()
	s.evseLinks[e.ID()] = links
	s.mu.Unlock()
}

func (s *ChargingStation) disconnectEVSE(id model.EVSEID) {
	s.mu.Lock()
	links := s.evseLinks[id]
	delete(s.evseLinks, id)
	s.mu.Unlock()
	for _, l := range links {
		l()
	}
}

// ContainsEVSE reports whether the station owns id.
func (s *ChargingStation) ContainsEVSE(id model.EVSEID) bool { return s.evses.Contains(id) }

// GetEVSE returns the EVSE with the given id.
func (s *ChargingStation) GetEVSE(id model.EVSEID) (*EVSE, bool) { return s.evses.Get(id) }

// EVSEs returns a snapshot of the EVSEs ordered by id.
func (s *ChargingStation) EVSEs() []*EVSE {
	out := s.evses.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

// Status returns the newest station status.
func (s *ChargingStation) Status() model.ChargingStationStatus { return s.status.Current() }

// StatusHistory returns the status history, newest first.
func (s *ChargingStation) StatusHistory() []status.Entry[model.ChargingStationStatus] {
	return s.status.History()
}

// SetStatus records a status at ts; a zero ts means now.
func (s *ChargingStation) SetStatus(st model.ChargingStationStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = s.tracker.Now()
	}
	return s.status.Insert(st, ts, dataSource)
}

// AdminStatus returns the newest admin status.
func (s *ChargingStation) AdminStatus() model.AdminStatus { return s.adminStatus.Current() }

// AdminStatusHistory returns the admin status history, newest first.
func (s *ChargingStation) AdminStatusHistory() []status.Entry[model.AdminStatus] {
	return s.adminStatus.History()
}

// SetAdminStatus records an admin status at ts; a zero ts means now.
func (s *ChargingStation) SetAdminStatus(a model.AdminStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = s.tracker.Now()
	}
	return s.adminStatus.Insert(a, ts, dataSource)
}

// aggregate recomputes the station status from its EVSEs. skipUnknown
// avoids replacing a directly set status with Unknown.
func (s *ChargingStation) aggregate(skipUnknown bool) {
	if s.aggregator == nil {
		return
	}
	report := EVSEStatusReport{
		StationID: s.id,
		Timestamp: s.tracker.Now(),
		Statuses:  make(map[model.EVSEID]model.EVSEStatus),
	}
	for _, e := range s.evses.Values() {
		report.Statuses[e.ID()] = e.Status()
	}
	st := s.aggregator(report)
	if skipUnknown && st == model.StationStatusUnknown {
		return
	}
	s.status.Insert(st, report.Timestamp, "aggregation")
}

func (s *ChargingStation) statusChanged(c status.Change[model.ChargingStationStatus]) {
	emit(s.log, s.id.String(), "StatusChanged", &s.Events.StatusChanged,
		StationStatusUpdate{ID: s.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
}

func (s *ChargingStation) adminStatusChanged(c status.Change[model.AdminStatus]) {
	emit(s.log, s.id.String(), "AdminStatusChanged", &s.Events.AdminStatusChanged,
		StationAdminStatusUpdate{ID: s.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
}

// applyRemoteStatus mirrors a backend status update into the local EVSE.
func (s *ChargingStation) applyRemoteStatus(u EVSEStatusUpdate) {
	e, ok := s.evses.Get(u.ID)
	if !ok {
		s.log.Debugf("%s: status update for unknown EVSE %s", s.id, u.ID)
		return
	}
	src := u.DataSource
	if src == "" {
		src = "remote"
	}
	e.SetStatus(u.New, u.Timestamp, src)
}

// findEVSE returns the EVSE matching pred.
func (s *ChargingStation) findEVSE(pred func(*EVSE) bool) *EVSE {
	for _, e := range s.evses.Values() {
		if pred(e) {
			return e
		}
	}
	return nil
}
