package charging

import (
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/status"
)

// EVSE is a single charging point of a station.
type EVSE struct {
	id         model.EVSEID
	log        logger.Logger
	tracker    *entity.Tracker
	historyMax int

	mu      sync.RWMutex
	station *ChargingStation

	description   *entity.Value[model.I18NString]
	maxPower      *entity.Value[*float64]
	maxCurrent    *entity.Value[*float64]
	connectors    *entity.Value[[]model.ConnectorType]
	reservationID *entity.Value[model.ReservationID]
	sessionID     *entity.Value[model.ChargingSessionID]

	status      *status.Schedule[model.EVSEStatus]
	adminStatus *status.Schedule[model.AdminStatus]

	Events EVSEEvents
}

// EVSEOption configures an EVSE.
type EVSEOption func(*EVSE)

// WithEVSELogger sets the logger of the EVSE.
func WithEVSELogger(l logger.Logger) EVSEOption { return func(e *EVSE) { e.log = logger.OrNop(l) } }

// WithEVSEMaxPower sets the initial maximum power in kW.
func WithEVSEMaxPower(kw float64) EVSEOption {
	return func(e *EVSE) { e.maxPower = entity.NewValueFunc("MaxPower", entity.Float(kw), entity.FloatEqual(entity.MaxValueEpsilon)) }
}

// WithConnectors sets the initial connector types.
func WithConnectors(c ...model.ConnectorType) EVSEOption {
	return func(e *EVSE) { e.connectors = entity.NewValueFunc("Connectors", c, entity.SliceEqual[model.ConnectorType]) }
}

// WithEVSEStatusHistory sets the length of the status histories.
func WithEVSEStatusHistory(n int) EVSEOption { return func(e *EVSE) { e.historyMax = n } }

// WithEVSEStatus sets the initial status.
func WithEVSEStatus(s model.EVSEStatus) EVSEOption {
	return func(e *EVSE) { e.status.Insert(s, time.Now(), "") }
}

// WithEVSEAdminStatus sets the initial admin status.
func WithEVSEAdminStatus(s model.AdminStatus) EVSEOption {
	return func(e *EVSE) { e.adminStatus.Insert(s, time.Now(), "") }
}

// NewEVSE creates an EVSE. It is attached to a station by
// ChargingStation.AddEVSE.
func NewEVSE(id model.EVSEID, opts ...EVSEOption) *EVSE {
	e := &EVSE{
		id:            id,
		log:           logger.NopLogger{},
		description:   entity.NewValueFunc("Description", model.I18NString(nil), model.I18NString.Equal),
		maxPower:      entity.NewValueFunc[*float64]("MaxPower", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		maxCurrent:    entity.NewValueFunc[*float64]("MaxCurrent", nil, entity.FloatEqual(entity.MaxValueEpsilon)),
		connectors:    entity.NewValueFunc[[]model.ConnectorType]("Connectors", nil, entity.SliceEqual[model.ConnectorType]),
		reservationID: entity.NewValue[model.ReservationID]("ReservationID", ""),
		sessionID:     entity.NewValue[model.ChargingSessionID]("ChargingSessionID", ""),
		status:        status.New[model.EVSEStatus](status.DefaultMaxSize, nil),
		adminStatus:   status.New[model.AdminStatus](status.DefaultMaxSize, nil),
	}
	now := time.Now()
	e.status.Insert(model.EVSEStatusUnknown, now, "")
	e.adminStatus.Insert(model.AdminStatusOperational, now, "")
	for _, o := range opts {
		o(e)
	}
	e.status.Resize(e.historyMax)
	e.adminStatus.Resize(e.historyMax)
	e.tracker = entity.NewTracker(id.String(), e.log)
	e.status.OnChanged(e.statusChanged)
	e.adminStatus.OnChanged(e.adminStatusChanged)
	return e
}

// ID returns the EVSE identifier.
func (e *EVSE) ID() model.EVSEID { return e.id }

// Station returns the owning station, nil while detached.
func (e *EVSE) Station() *ChargingStation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.station
}

func (e *EVSE) attach(s *ChargingStation) {
	e.mu.Lock()
	e.station = s
	e.mu.Unlock()
}

// LastChange returns the time of the last property change.
func (e *EVSE) LastChange() time.Time { return e.tracker.LastChange() }

// OnPropertyChanged registers a property change listener.
func (e *EVSE) OnPropertyChanged(fn func(entity.PropertyChange)) (remove func()) {
	return e.tracker.OnPropertyChanged(fn)
}

func (e *EVSE) Description() model.I18NString { return e.description.Get() }

func (e *EVSE) SetDescription(d model.I18NString, opts ...entity.ChangeOption) bool {
	return e.description.Set(e.tracker, d, opts...)
}

// MaxPower returns the maximum power in kW, nil when unknown.
func (e *EVSE) MaxPower() *float64 { return e.maxPower.Get() }

// SetMaxPower ignores changes of at most 0.01 kW.
func (e *EVSE) SetMaxPower(kw *float64, opts ...entity.ChangeOption) bool {
	return e.maxPower.Set(e.tracker, kw, opts...)
}

// MaxCurrent returns the maximum current in A, nil when unknown.
func (e *EVSE) MaxCurrent() *float64 { return e.maxCurrent.Get() }

func (e *EVSE) SetMaxCurrent(a *float64, opts ...entity.ChangeOption) bool {
	return e.maxCurrent.Set(e.tracker, a, opts...)
}

func (e *EVSE) Connectors() []model.ConnectorType { return e.connectors.Get() }

func (e *EVSE) SetConnectors(c []model.ConnectorType, opts ...entity.ChangeOption) bool {
	return e.connectors.Set(e.tracker, c, opts...)
}

// ReservationID returns the reservation currently holding the EVSE.
func (e *EVSE) ReservationID() model.ReservationID { return e.reservationID.Get() }

// SessionID returns the session currently running at the EVSE.
func (e *EVSE) SessionID() model.ChargingSessionID { return e.sessionID.Get() }

func (e *EVSE) setReservation(id model.ReservationID) { e.reservationID.Set(e.tracker, id) }
func (e *EVSE) setSession(id model.ChargingSessionID) { e.sessionID.Set(e.tracker, id) }

// Status returns the newest status.
func (e *EVSE) Status() model.EVSEStatus { return e.status.Current() }

// StatusHistory returns the status history, newest first.
func (e *EVSE) StatusHistory() []status.Entry[model.EVSEStatus] { return e.status.History() }

// SetStatus records a status at ts; a zero ts means now.
func (e *EVSE) SetStatus(s model.EVSEStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = e.tracker.Now()
	}
	return e.status.Insert(s, ts, dataSource)
}

// AdminStatus returns the newest admin status.
func (e *EVSE) AdminStatus() model.AdminStatus { return e.adminStatus.Current() }

// AdminStatusHistory returns the admin status history, newest first.
func (e *EVSE) AdminStatusHistory() []status.Entry[model.AdminStatus] {
	return e.adminStatus.History()
}

// SetAdminStatus records an admin status at ts; a zero ts means now.
func (e *EVSE) SetAdminStatus(s model.AdminStatus, ts time.Time, dataSource string) bool {
	if ts.IsZero() {
		ts = e.tracker.Now()
	}
	return e.adminStatus.Insert(s, ts, dataSource)
}

func (e *EVSE) statusChanged(c status.Change[model.EVSEStatus]) {
	emit(e.log, e.id.String(), "StatusChanged", &e.Events.StatusChanged,
		EVSEStatusUpdate{ID: e.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
}

func (e *EVSE) adminStatusChanged(c status.Change[model.AdminStatus]) {
	emit(e.log, e.id.String(), "AdminStatusChanged", &e.Events.AdminStatusChanged,
		EVSEAdminStatusUpdate{ID: e.id, Timestamp: c.Timestamp, Old: c.Old, New: c.New, DataSource: c.Meta})
}
