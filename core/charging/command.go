package charging

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/wwcp/core/events"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// commander carries what the command template needs from its entity.
type commander struct {
	sender  string
	poolID  string
	log     logger.Logger
	now     func() time.Time
	publish func(eventbus.Event)
}

type commandHooks[Req any, Res any] struct {
	name     string
	request  *eventbus.Handlers[RequestEvent[Req]]
	response *eventbus.Handlers[ResponseEvent[Req, Res]]
}

// runCommand emits the request event, executes exec with panics converted by
// fail, then emits the response event and publishes a CommandEvent.
func runCommand[Req any, Res commandResult[Res]](
	ctx context.Context,
	c commander,
	hooks commandHooks[Req, Res],
	req Req,
	trackingID, location string,
	exec func(context.Context) Res,
	fail func(string) Res,
) Res {
	now := c.now
	if now == nil {
		now = time.Now
	}
	started := now()
	begin := time.Now()
	emit(c.log, c.sender, hooks.name+"Request", hooks.request, RequestEvent[Req]{
		Timestamp: started,
		Sender:    c.sender,
		Request:   req,
	})

	res := safeExec(ctx, c.log, c.sender, hooks.name, exec, fail)
	runtime := time.Since(begin)
	res = res.withRuntime(runtime)

	emit(c.log, c.sender, hooks.name+"Response", hooks.response, ResponseEvent[Req, Res]{
		Timestamp: now(),
		Sender:    c.sender,
		Request:   req,
		Result:    res,
		Runtime:   runtime,
	})

	typ, desc := res.outcome()
	if c.publish != nil {
		c.publish(events.CommandEvent{
			Timestamp:       started,
			EventTrackingID: trackingID,
			Command:         hooks.name,
			PoolID:          c.poolID,
			Location:        location,
			Result:          string(typ),
			Description:     desc,
			Runtime:         runtime,
		})
	}
	c.log.Debugw("command processed", map[string]any{
		"sender":   c.sender,
		"command":  hooks.name,
		"location": location,
		"result":   string(typ),
		"runtime":  runtime.String(),
	})
	return res
}

func safeExec[Res any](ctx context.Context, log logger.Logger, sender, name string, exec func(context.Context) Res, fail func(string) Res) (res Res) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			log.Errorf("%s: %s failed: %s", sender, name, msg)
			res = fail(msg)
		}
	}()
	return exec(ctx)
}
