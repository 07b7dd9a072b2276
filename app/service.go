package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/app/plugins"
	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/charging"
	coremetrics "github.com/kilianp07/wwcp/core/metrics"
	"github.com/kilianp07/wwcp/core/model"
	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
	"github.com/kilianp07/wwcp/core/store"
	"github.com/kilianp07/wwcp/infra/commandlog"
	"github.com/kilianp07/wwcp/infra/logger"
	"github.com/kilianp07/wwcp/infra/metrics"
	"github.com/kilianp07/wwcp/infra/mqtt"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// expirer is implemented by backends keeping their own reservations.
type expirer interface {
	ExpireReservations(now time.Time) []*charging.Reservation
}

// PoolHandle bundles a configured pool with its stores and backend.
type PoolHandle struct {
	Pool   *charging.ChargingPool
	Store  *store.Memory
	Remote charging.RemoteChargingPool
}

// Service owns the configured charging pools and the ambient services
// observing them: metrics, command log and periodic jobs.
type Service struct {
	cfg    *config.Config
	pools  map[string]*PoolHandle
	order  []string
	bus    *eventbus.Bus
	sink   coremetrics.MetricsSink
	cmdLog commandlog.Store
	log    logger.Logger
	clock  func() time.Time

	mqttOnce sync.Once
	mqttCli  *mqtt.Client
	mqttErr  error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	cmdLog, err := commandlog.New(cfg.CommandLog.Store())
	if err != nil {
		return nil, fmt.Errorf("command log: %w", err)
	}
	s := &Service{
		cfg:    cfg,
		pools:  make(map[string]*PoolHandle, len(cfg.Pools)),
		bus:    eventbus.New(),
		sink:   sink,
		cmdLog: cmdLog,
		log:    logg,
		clock:  time.Now,
	}
	for _, pc := range cfg.Pools {
		h, err := s.buildPool(pc)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("pool %s: %w", pc.ID, err)
		}
		s.pools[pc.ID] = h
		s.order = append(s.order, pc.ID)
	}
	sort.Strings(s.order)
	return s, nil
}

// transport connects the shared MQTT client on first use.
func (s *Service) transport() (coremqtt.Transport, error) {
	s.mqttOnce.Do(func() {
		if s.cfg.MQTT.Broker == "" {
			s.mqttErr = fmt.Errorf("mqtt broker not configured")
			return
		}
		s.mqttCli, s.mqttErr = mqtt.NewClient(s.cfg.MQTT)
	})
	if s.mqttErr != nil {
		return nil, s.mqttErr
	}
	return s.mqttCli, nil
}

func (s *Service) buildPool(pc config.PoolConfig) (*PoolHandle, error) {
	id, err := model.ParseChargingPoolID(pc.ID)
	if err != nil {
		return nil, err
	}
	poolAgg, stationAgg, ok := charging.AggregatorByName(pc.Aggregation)
	if !ok {
		return nil, fmt.Errorf("unknown aggregation %q", pc.Aggregation)
	}
	mem := store.NewMemory()
	h := &PoolHandle{Store: mem}
	if pc.Remote != nil {
		h.Remote, err = plugins.NewRemote(pc.Remote.Type, pc.Remote.Conf, plugins.Deps{
			Pool:        pc,
			Transport:   s.transport,
			TopicPrefix: s.cfg.MQTT.TopicPrefix,
			ClientID:    s.cfg.MQTT.ClientID,
			Logger:      logger.New("remote"),
		})
		if err != nil {
			return nil, err
		}
	}

	opts := []charging.PoolOption{
		charging.WithLogger(logger.New("charging_pool")),
		charging.WithEventBus(s.bus),
		charging.WithStatusAggregator(poolAgg),
		charging.WithReservationStore(mem.Reservations()),
		charging.WithSessionStore(mem.Sessions()),
	}
	if pc.AdminStatus != "" {
		opts = append(opts, charging.WithAdminStatus(model.AdminStatus(pc.AdminStatus)))
	}
	if h.Remote != nil {
		opts = append(opts, charging.WithRemoteChargingPool(h.Remote))
	}
	history := s.cfg.Service.StatusHistory
	if history > 0 {
		opts = append(opts, charging.WithStatusHistory(history))
	}
	p := charging.NewChargingPool(id, opts...)
	h.Pool = p

	if pc.Name != "" {
		p.SetName(model.NewI18NString(model.LangEN, pc.Name))
	}
	if pc.Brand != "" {
		p.SetBrand(pc.Brand)
	}
	if pc.MaxPowerKW > 0 {
		kw := pc.MaxPowerKW
		p.SetMaxPower(&kw)
	}
	for _, m := range pc.EnergyMeters {
		p.AddEnergyMeter(&charging.EnergyMeter{ID: model.EnergyMeterID(m)})
	}

	for _, sc := range pc.Stations {
		st, err := buildStation(sc, stationAgg, history)
		if err != nil {
			return nil, err
		}
		if res := p.AddChargingStation(st); !res.Succeeded() {
			return nil, fmt.Errorf("add station %s: %s %s", sc.ID, res.Type, res.Description)
		}
	}
	return h, nil
}

func buildStation(sc config.StationConfig, agg charging.StationStatusAggregator, history int) (*charging.ChargingStation, error) {
	sid, err := model.ParseChargingStationID(sc.ID)
	if err != nil {
		return nil, err
	}
	opts := []charging.StationOption{
		charging.WithStationLogger(logger.New("charging_station")),
		charging.WithStationStatusAggregator(agg),
	}
	if sc.AdminStatus != "" {
		opts = append(opts, charging.WithStationAdminStatus(model.AdminStatus(sc.AdminStatus)))
	}
	if history > 0 {
		opts = append(opts, charging.WithStationStatusHistory(history))
	}
	st := charging.NewChargingStation(sid, opts...)
	if sc.Name != "" {
		st.SetName(model.NewI18NString(model.LangEN, sc.Name))
	}
	for _, ec := range sc.EVSEs {
		eid, err := model.ParseEVSEID(ec.ID)
		if err != nil {
			return nil, err
		}
		eopts := []charging.EVSEOption{charging.WithEVSEStatusHistory(history)}
		if ec.MaxPowerKW > 0 {
			eopts = append(eopts, charging.WithEVSEMaxPower(ec.MaxPowerKW))
		}
		if len(ec.Connectors) > 0 {
			cs := make([]model.ConnectorType, len(ec.Connectors))
			for i, c := range ec.Connectors {
				cs[i] = model.ConnectorType(c)
			}
			eopts = append(eopts, charging.WithConnectors(cs...))
		}
		if ec.Status != "" {
			eopts = append(eopts, charging.WithEVSEStatus(model.EVSEStatus(ec.Status)))
		}
		if ec.AdminStatus != "" {
			eopts = append(eopts, charging.WithEVSEAdminStatus(model.AdminStatus(ec.AdminStatus)))
		}
		if res := st.AddEVSE(charging.NewEVSE(eid, eopts...)); res.Type != charging.ChangeSuccess && res.Type != charging.ChangeAdded {
			return nil, fmt.Errorf("add evse %s: %s %s", ec.ID, res.Type, res.Description)
		}
	}
	return st, nil
}

// Pool returns the handle of the pool with the given id.
func (s *Service) Pool(id string) (*PoolHandle, bool) {
	h, ok := s.pools[id]
	return h, ok
}

// Pools returns the pool handles ordered by id.
func (s *Service) Pools() []*PoolHandle {
	out := make([]*PoolHandle, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pools[id])
	}
	return out
}

// Bus returns the event bus the pools publish on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// CommandLog returns the command log store, nil when disabled.
func (s *Service) CommandLog() commandlog.Store { return s.cmdLog }

// Run starts the collectors and periodic jobs and blocks until the context
// is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink, s.cfg.Metrics.EventBuffer)
	commandlog.StartRecorder(ctx, s.bus, s.cmdLog, s.cfg.CommandLog.Buffer)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("serving %d charging pools", len(s.order))
	s.RecordPower()

	power := time.NewTicker(s.cfg.Service.PowerInterval())
	defer power.Stop()
	expiry := time.NewTicker(s.cfg.Service.ExpiryInterval())
	defer expiry.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-power.C:
			s.RecordPower()
		case <-expiry.C:
			s.ExpireReservations(s.clock())
		}
	}
}

// RecordPower hands an installed power snapshot of every pool to the
// metrics sink.
func (s *Service) RecordPower() {
	rec, ok := s.sink.(coremetrics.PowerRecorder)
	if !ok {
		return
	}
	now := s.clock()
	for _, h := range s.Pools() {
		sum := h.Pool.PowerSummary()
		if err := rec.RecordPower(coremetrics.PowerRecord{
			PoolID:      h.Pool.ID().String(),
			EVSEs:       sum.EVSEs,
			TotalKW:     sum.TotalKW,
			MaxKW:       sum.MaxKW,
			GridLimitKW: sum.GridLimitKW,
			Time:        now,
		}); err != nil {
			s.log.Errorf("record power of %s: %v", h.Pool.ID(), err)
		}
		if sum.Oversubscribed {
			s.log.Warnf("pool %s oversubscribed: %.1f kW installed, %.1f kW grid limit", h.Pool.ID(), sum.TotalKW, sum.GridLimitKW)
		}
	}
}

// ExpireReservations expires the reservations whose window ended before now
// in the pool stores and in backends keeping their own.
func (s *Service) ExpireReservations(now time.Time) int {
	n := 0
	for _, h := range s.Pools() {
		expired := h.Store.Reservations().Expire(now)
		for _, r := range expired {
			s.log.Infof("reservation %s at %s expired", r.ID, r.Location)
		}
		n += len(expired)
		if e, ok := h.Remote.(expirer); ok {
			expired = append(expired, e.ExpireReservations(now)...)
		}
		h.Pool.ReleaseReservations(expired...)
	}
	return n
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	for _, h := range s.pools {
		h.Pool.Close()
		if c, ok := h.Remote.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		} else if c, ok := h.Remote.(interface{ Close() }); ok {
			c.Close()
		}
	}
	if s.cmdLog != nil {
		errs = append(errs, s.cmdLog.Close())
	}
	if ic, ok := s.sink.(interface{ Close() }); ok {
		ic.Close()
	}
	if s.mqttCli != nil {
		s.mqttCli.Disconnect()
	}
	s.bus.Close()
	return errors.Join(errs...)
}
