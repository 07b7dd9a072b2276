package virtual

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// ChargingPool is an in-memory charging pool backend.
type ChargingPool struct {
	id    model.ChargingPoolID
	log   logger.Logger
	clock func() time.Time
	delay time.Duration

	mu           sync.Mutex
	admin        model.AdminStatus
	stations     map[model.ChargingStationID]*ChargingStation
	reservations map[model.ReservationID]*charging.Reservation
	sessions     map[model.ChargingSessionID]*charging.ChargingSession

	statusListeners eventbus.Handlers[charging.EVSEStatusUpdate]
	updates         *eventbus.TypedBus[charging.EVSEStatusUpdate]
}

// Option configures a ChargingPool.
type Option func(*ChargingPool)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(p *ChargingPool) { p.log = logger.OrNop(l) } }

// WithClock replaces time.Now, e.g. for reservation expiry in tests.
func WithClock(now func() time.Time) Option {
	return func(p *ChargingPool) {
		if now != nil {
			p.clock = now
		}
	}
}

// WithResponseDelay delays every command answer by d. A request whose
// context ends first gets a Timeout result.
func WithResponseDelay(d time.Duration) Option { return func(p *ChargingPool) { p.delay = d } }

// WithAdminStatus sets the initial admin status of the pool.
func WithAdminStatus(a model.AdminStatus) Option { return func(p *ChargingPool) { p.admin = a } }

// NewChargingPool creates an empty operational pool.
func NewChargingPool(id model.ChargingPoolID, opts ...Option) *ChargingPool {
	p := &ChargingPool{
		id:           id,
		log:          logger.NopLogger{},
		clock:        time.Now,
		admin:        model.AdminStatusOperational,
		stations:     make(map[model.ChargingStationID]*ChargingStation),
		reservations: make(map[model.ReservationID]*charging.Reservation),
		sessions:     make(map[model.ChargingSessionID]*charging.ChargingSession),
		updates:      eventbus.NewTyped[charging.EVSEStatusUpdate](),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ID returns the pool identifier.
func (p *ChargingPool) ID() model.ChargingPoolID { return p.id }

// AdminStatus returns the admin status of the pool.
func (p *ChargingPool) AdminStatus() model.AdminStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.admin
}

// SetAdminStatus changes the admin status of the pool.
func (p *ChargingPool) SetAdminStatus(a model.AdminStatus) {
	p.mu.Lock()
	p.admin = a
	p.mu.Unlock()
}

// AddChargingStation creates a station. It returns the existing station when
// the id is already present.
func (p *ChargingPool) AddChargingStation(id model.ChargingStationID) *ChargingStation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.stations[id]; ok {
		return s
	}
	s := &ChargingStation{id: id, pool: p, admin: model.AdminStatusOperational, evses: make(map[model.EVSEID]*EVSE)}
	p.stations[id] = s
	return s
}

// RemoveChargingStation removes a station and reports whether it existed.
func (p *ChargingPool) RemoveChargingStation(id model.ChargingStationID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.stations[id]; !ok {
		return false
	}
	delete(p.stations, id)
	return true
}

// ChargingStation returns a station by id.
func (p *ChargingPool) ChargingStation(id model.ChargingStationID) (*ChargingStation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stations[id]
	return s, ok
}

// ChargingStations returns the stations ordered by id.
func (p *ChargingPool) ChargingStations() []*ChargingStation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortedStations()
}

// EVSE returns an EVSE of any station.
func (p *ChargingPool) EVSE(id model.EVSEID) (*EVSE, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.findEVSE(id)
	return e, e != nil
}

// Reservation returns a copy of a stored reservation.
func (p *ChargingPool) Reservation(id model.ReservationID) (*charging.Reservation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.reservations[id]
	return r.Clone(), ok
}

// Reservations returns copies of all stored reservations ordered by id.
func (p *ChargingPool) Reservations() []*charging.Reservation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*charging.Reservation, 0, len(p.reservations))
	for _, r := range p.reservations {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Session returns a copy of a stored session.
func (p *ChargingPool) Session(id model.ChargingSessionID) (*charging.ChargingSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	return s.Clone(), ok
}

// Sessions returns copies of all stored sessions ordered by id.
func (p *ChargingPool) Sessions() []*charging.ChargingSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*charging.ChargingSession, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnEVSEStatusChanged registers a synchronous listener for EVSE status
// changes.
func (p *ChargingPool) OnEVSEStatusChanged(fn func(charging.EVSEStatusUpdate)) func() {
	return p.statusListeners.Add(fn)
}

// StatusUpdates returns a buffered stream of EVSE status changes. Slow
// readers miss updates.
func (p *ChargingPool) StatusUpdates() <-chan charging.EVSEStatusUpdate { return p.updates.Subscribe() }

// Close ends all status update streams.
func (p *ChargingPool) Close() { p.updates.Close() }

// ExpireReservations marks active reservations whose window ended at now as
// Expired and frees their EVSEs. It returns the expired reservations.
func (p *ChargingPool) ExpireReservations(now time.Time) []*charging.Reservation {
	var (
		expired []*charging.Reservation
		changes []charging.EVSEStatusUpdate
	)
	p.mu.Lock()
	for id, r := range p.reservations {
		if r.Status != charging.ReservationActive || !r.IsExpired(now) {
			continue
		}
		next, err := r.WithStatus(charging.ReservationExpired)
		if err != nil {
			continue
		}
		p.reservations[id] = next
		changes = append(changes, p.releaseReservation(next, nil, now)...)
		expired = append(expired, next.Clone())
	}
	p.mu.Unlock()

	p.emit(changes)
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	if len(expired) > 0 {
		p.log.Infof("%s: %d reservation(s) expired", p.id, len(expired))
	}
	return expired
}

func (p *ChargingPool) sortedStations() []*ChargingStation {
	out := make([]*ChargingStation, 0, len(p.stations))
	for _, s := range p.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out
}

func (p *ChargingPool) findEVSE(id model.EVSEID) *EVSE {
	for _, s := range p.stations {
		if e, ok := s.evses[id]; ok {
			return e
		}
	}
	return nil
}

// releaseReservation frees every EVSE held by r or its sub-reservations
// except keep.
func (p *ChargingPool) releaseReservation(r *charging.Reservation, keep *EVSE, now time.Time) []charging.EVSEStatusUpdate {
	held := map[model.ReservationID]bool{r.ID: true}
	for _, s := range r.SubReservations {
		held[s.ID] = true
	}
	var changes []charging.EVSEStatusUpdate
	for _, st := range p.stations {
		for _, e := range st.evses {
			if e == keep || !held[e.reservationID] {
				continue
			}
			e.reservationID = ""
			if c, ok := e.setStatus(model.EVSEStatusAvailable, now, "reservation"); ok {
				changes = append(changes, c)
			}
		}
	}
	return changes
}

// emit delivers status changes collected under the lock.
func (p *ChargingPool) emit(changes []charging.EVSEStatusUpdate) {
	for _, c := range changes {
		for _, err := range p.statusListeners.Emit(c) {
			p.log.Errorf("%s: EVSE status listener: %v", p.id, err)
		}
		p.updates.Publish(c)
	}
}
