package metrics

import (
	"context"

	"github.com/kilianp07/wwcp/core/events"
	coremetrics "github.com/kilianp07/wwcp/core/metrics"
	"github.com/kilianp07/wwcp/infra/logger"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// charging events. It stops when the context is canceled or the bus closes.
// Events missed while buffer is full are counted by the bus and logged.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, buffer int) {
	if bus == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
	sub := bus.SubscribeN(buffer)
	go func() {
		defer bus.Unsubscribe(sub)
		var reported uint64
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if n := bus.Dropped(sub); n > reported {
					log.Warnf("missed %d events, raise metrics.event_buffer", n-reported)
					reported = n
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.CommandEvent:
		return sink.RecordCommand(coremetrics.CommandRecord{
			EventTrackingID: e.EventTrackingID,
			Command:         e.Command,
			PoolID:          e.PoolID,
			Location:        e.Location,
			Result:          e.Result,
			Description:     e.Description,
			Runtime:         e.Runtime,
			Time:            e.Timestamp,
		})
	case events.StatusEvent:
		if r, ok := sink.(coremetrics.StatusRecorder); ok {
			return r.RecordStatus(coremetrics.StatusRecord{
				Entity: e.Entity,
				ID:     e.ID,
				PoolID: e.PoolID,
				Admin:  e.Admin,
				Old:    e.Old,
				New:    e.New,
				Time:   e.Timestamp,
			})
		}
	case events.StationEvent:
		if r, ok := sink.(coremetrics.StationRecorder); ok {
			return r.RecordStationChange(coremetrics.StationChange{
				PoolID:    e.PoolID,
				StationID: e.StationID,
				Removed:   e.Removed,
				Time:      e.Timestamp,
			})
		}
	}
	return nil
}
