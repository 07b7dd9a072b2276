package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/logger"
	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
)

// Responder serves the commands published for one pool by executing them
// against a local backend, e.g. a virtual pool. EVSE status updates of the
// backend are published on the status topic.
type Responder struct {
	backend   charging.RemoteChargingPool
	transport coremqtt.Transport
	topics    coremqtt.Topics
	timeout   time.Duration
	log       logger.Logger

	mu           sync.Mutex
	ctx          context.Context
	removeStatus func()
	wg           sync.WaitGroup
}

// NewResponder creates a responder for backend below prefix.
func NewResponder(t coremqtt.Transport, backend charging.RemoteChargingPool, prefix string, timeout time.Duration, log logger.Logger) *Responder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Responder{
		backend:   backend,
		transport: t,
		topics:    coremqtt.NewTopics(prefix, backend.ID().String()),
		timeout:   timeout,
		log:       logger.OrNop(log),
	}
}

// Start subscribes to the command topic. Commands are handled until Stop is
// called or ctx ends.
func (r *Responder) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()
	if err := r.transport.Subscribe(r.topics.Commands(), r.onCommand); err != nil {
		return err
	}
	if src, ok := r.backend.(charging.EVSEStatusSource); ok {
		remove := src.OnEVSEStatusChanged(func(u charging.EVSEStatusUpdate) { r.publishStatus(ctx, u) })
		r.mu.Lock()
		r.removeStatus = remove
		r.mu.Unlock()
	}
	r.log.Infof("serving pool %s on %s", r.backend.ID(), r.topics.Commands())
	return nil
}

// Stop unsubscribes and waits for in-flight commands.
func (r *Responder) Stop() error {
	r.mu.Lock()
	if r.removeStatus != nil {
		r.removeStatus()
		r.removeStatus = nil
	}
	r.mu.Unlock()
	err := r.transport.Unsubscribe(r.topics.Commands())
	r.wg.Wait()
	return err
}

func (r *Responder) publishStatus(ctx context.Context, u charging.EVSEStatusUpdate) {
	b, err := json.Marshal(coremqtt.EVSEStatusMessage{
		EVSEID:     u.ID.String(),
		Timestamp:  u.Timestamp,
		Old:        string(u.Old),
		New:        string(u.New),
		DataSource: u.DataSource,
	})
	if err != nil {
		r.log.Errorf("encode status: %v", err)
		return
	}
	if err := r.transport.Publish(ctx, r.topics.EVSEStatus(), b); err != nil {
		r.log.Errorf("publish status of %s: %v", u.ID, err)
	}
}

func (r *Responder) onCommand(_ string, payload []byte) {
	var cmd coremqtt.CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		r.log.Errorf("failed to decode command: %v", err)
		return
	}
	if cmd.ReplyTo == "" {
		r.log.Warnf("command %s without reply topic", cmd.CorrelationID)
		return
	}
	r.mu.Lock()
	parent := r.ctx
	r.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(parent, r.timeout)
		defer cancel()
		reply := coremqtt.ReplyMessage{CorrelationID: cmd.CorrelationID}
		res, err := r.execute(ctx, cmd)
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.Payload = res
		}
		b, err := json.Marshal(reply)
		if err != nil {
			r.log.Errorf("encode reply: %v", err)
			return
		}
		if err := r.transport.Publish(ctx, cmd.ReplyTo, b); err != nil {
			r.log.Errorf("publish reply %s: %v", cmd.CorrelationID, err)
		}
	}()
}

func (r *Responder) execute(ctx context.Context, cmd coremqtt.CommandMessage) (json.RawMessage, error) {
	switch cmd.Command {
	case coremqtt.CommandReserve:
		return serve(ctx, cmd.Payload, r.backend.Reserve)
	case coremqtt.CommandCancelReservation:
		return serve(ctx, cmd.Payload, r.backend.CancelReservation)
	case coremqtt.CommandRemoteStart:
		return serve(ctx, cmd.Payload, r.backend.RemoteStart)
	case coremqtt.CommandRemoteStop:
		return serve(ctx, cmd.Payload, r.backend.RemoteStop)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Command)
	}
}

func serve[Req, Res any](ctx context.Context, payload json.RawMessage, fn func(context.Context, Req) Res) (json.RawMessage, error) {
	var req Req
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return json.Marshal(fn(ctx, req))
}
