package commandlog

import (
	"context"

	"github.com/kilianp07/wwcp/core/events"
	"github.com/kilianp07/wwcp/infra/logger"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// StartRecorder appends every CommandEvent published on bus to store until
// ctx is canceled or the bus closes. Its subscription blocks publishers once
// buffer events are pending, so a slow store delays commands instead of
// losing their records.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, buffer int) {
	if bus == nil || store == nil {
		return
	}
	log := logger.New("command-log")
	sub := bus.SubscribeBlocking(buffer)
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, isCmd := ev.(events.CommandEvent)
				if !isCmd {
					continue
				}
				if err := store.Append(ctx, FromEvent(e)); err != nil {
					log.Errorf("append %s %s: %v", e.Command, e.EventTrackingID, err)
				}
			}
		}
	}()
}
