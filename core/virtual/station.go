package virtual

import (
	"sort"

	"github.com/kilianp07/wwcp/core/model"
)

// ChargingStation is an in-memory charging station owned by a virtual pool.
type ChargingStation struct {
	id    model.ChargingStationID
	pool  *ChargingPool
	admin model.AdminStatus
	evses map[model.EVSEID]*EVSE
}

// EVSEOption configures an EVSE added to a station.
type EVSEOption func(*EVSE)

// WithStatus sets the initial EVSE status. The default is Available.
func WithStatus(s model.EVSEStatus) EVSEOption { return func(e *EVSE) { e.status = s } }

// WithMaxPower sets the rated power in kW.
func WithMaxPower(kw float64) EVSEOption { return func(e *EVSE) { e.maxPower = kw } }

// WithEVSEAdminStatus sets the initial EVSE admin status.
func WithEVSEAdminStatus(a model.AdminStatus) EVSEOption { return func(e *EVSE) { e.admin = a } }

// ID returns the station identifier.
func (s *ChargingStation) ID() model.ChargingStationID { return s.id }

// Pool returns the owning pool.
func (s *ChargingStation) Pool() *ChargingPool { return s.pool }

// AdminStatus returns the admin status of the station.
func (s *ChargingStation) AdminStatus() model.AdminStatus {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	return s.admin
}

// SetAdminStatus changes the admin status of the station.
func (s *ChargingStation) SetAdminStatus(a model.AdminStatus) {
	s.pool.mu.Lock()
	s.admin = a
	s.pool.mu.Unlock()
}

// AddEVSE creates an EVSE. It returns the existing EVSE when the id is
// already present in the pool.
func (s *ChargingStation) AddEVSE(id model.EVSEID, opts ...EVSEOption) *EVSE {
	p := s.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.findEVSE(id); e != nil {
		return e
	}
	e := &EVSE{id: id, station: s, status: model.EVSEStatusAvailable, admin: model.AdminStatusOperational}
	for _, o := range opts {
		o(e)
	}
	s.evses[id] = e
	return e
}

// EVSEs returns the EVSEs ordered by id.
func (s *ChargingStation) EVSEs() []*EVSE {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	return s.sortedEVSEs()
}

func (s *ChargingStation) sortedEVSEs() []*EVSE {
	out := make([]*EVSE, 0, len(s.evses))
	for _, e := range s.evses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out
}

func (s *ChargingStation) operational() bool { return s.admin.AllowsCommands() }
