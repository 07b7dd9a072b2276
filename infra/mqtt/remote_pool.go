package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// RemoteConfig configures a RemotePool.
type RemoteConfig struct {
	TopicPrefix string
	// ClientID names the reply topic of this pool client.
	ClientID string
	Timeout  time.Duration
	Logger   logger.Logger
}

// RemotePool forwards charging commands to a pool backend behind a broker
// and mirrors the EVSE status updates it publishes.
type RemotePool struct {
	id        model.ChargingPoolID
	transport coremqtt.Transport
	topics    coremqtt.Topics
	replyTo   string
	timeout   time.Duration
	log       logger.Logger

	mu      sync.Mutex
	pending map[string]chan coremqtt.ReplyMessage

	listeners eventbus.Handlers[charging.EVSEStatusUpdate]
}

// NewRemotePool subscribes to the reply and status topics of id.
func NewRemotePool(id model.ChargingPoolID, t coremqtt.Transport, cfg RemoteConfig) (*RemotePool, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	topics := coremqtt.NewTopics(cfg.TopicPrefix, id.String())
	p := &RemotePool{
		id:        id,
		transport: t,
		topics:    topics,
		replyTo:   topics.Replies(cfg.ClientID),
		timeout:   cfg.Timeout,
		log:       logger.OrNop(cfg.Logger),
		pending:   make(map[string]chan coremqtt.ReplyMessage),
	}
	if err := t.Subscribe(p.replyTo, p.onReply); err != nil {
		return nil, err
	}
	if err := t.Subscribe(topics.EVSEStatus(), p.onStatus); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the id of the remote pool.
func (p *RemotePool) ID() model.ChargingPoolID { return p.id }

// OnEVSEStatusChanged registers fn for status updates received from the broker.
func (p *RemotePool) OnEVSEStatusChanged(fn func(charging.EVSEStatusUpdate)) (remove func()) {
	return p.listeners.Add(fn)
}

// Close drops the subscriptions. Pending requests run into their timeout.
func (p *RemotePool) Close() error {
	return errors.Join(
		p.transport.Unsubscribe(p.replyTo),
		p.transport.Unsubscribe(p.topics.EVSEStatus()),
	)
}

func (p *RemotePool) onReply(_ string, payload []byte) {
	var msg coremqtt.ReplyMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.log.Errorf("failed to decode reply: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.pending[msg.CorrelationID]
	delete(p.pending, msg.CorrelationID)
	p.mu.Unlock()
	if !ok {
		p.log.Debugf("reply %s without pending request", msg.CorrelationID)
		return
	}
	ch <- msg
}

func (p *RemotePool) onStatus(_ string, payload []byte) {
	var msg coremqtt.EVSEStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.log.Errorf("failed to decode status: %v", err)
		return
	}
	id, err := model.ParseEVSEID(msg.EVSEID)
	if err != nil {
		p.log.Warnf("status for invalid evse %q: %v", msg.EVSEID, err)
		return
	}
	errs := p.listeners.Emit(charging.EVSEStatusUpdate{
		ID:         id,
		Timestamp:  msg.Timestamp,
		Old:        model.EVSEStatus(msg.Old),
		New:        model.EVSEStatus(msg.New),
		DataSource: msg.DataSource,
	})
	for _, err := range errs {
		p.log.Errorf("evse status listener: %v", err)
	}
}

// Reserve sends a reserve command.
func (p *RemotePool) Reserve(ctx context.Context, req charging.ReserveRequest) charging.ReservationResult {
	return call(ctx, p, coremqtt.CommandReserve, req, func(t charging.ResultType, d string) charging.ReservationResult {
		return charging.ReservationResult{Type: t, Description: d}
	})
}

// CancelReservation sends a cancel command.
func (p *RemotePool) CancelReservation(ctx context.Context, req charging.CancelReservationRequest) charging.CancelReservationResult {
	return call(ctx, p, coremqtt.CommandCancelReservation, req, func(t charging.ResultType, d string) charging.CancelReservationResult {
		return charging.CancelReservationResult{Type: t, ReservationID: req.ReservationID, Description: d}
	})
}

// RemoteStart sends a remote start command.
func (p *RemotePool) RemoteStart(ctx context.Context, req charging.RemoteStartRequest) charging.RemoteStartResult {
	return call(ctx, p, coremqtt.CommandRemoteStart, req, func(t charging.ResultType, d string) charging.RemoteStartResult {
		return charging.RemoteStartResult{Type: t, Description: d}
	})
}

// RemoteStop sends a remote stop command.
func (p *RemotePool) RemoteStop(ctx context.Context, req charging.RemoteStopRequest) charging.RemoteStopResult {
	return call(ctx, p, coremqtt.CommandRemoteStop, req, func(t charging.ResultType, d string) charging.RemoteStopResult {
		return charging.RemoteStopResult{Type: t, SessionID: req.SessionID, Description: d}
	})
}

// call publishes one command and waits for its reply. Transport failures
// become Offline or Error results, a missing reply a Timeout result.
func call[Req, Res any](ctx context.Context, p *RemotePool, command string, req Req, fail func(charging.ResultType, string) Res) Res {
	body, err := json.Marshal(req)
	if err != nil {
		return fail(charging.ResultError, fmt.Sprintf("encode request: %v", err))
	}
	corrID := uuid.NewString()
	msg, err := json.Marshal(coremqtt.CommandMessage{
		CorrelationID: corrID,
		ReplyTo:       p.replyTo,
		Command:       command,
		Timestamp:     time.Now().UnixMilli(),
		Payload:       body,
	})
	if err != nil {
		return fail(charging.ResultError, fmt.Sprintf("encode command: %v", err))
	}

	ch := make(chan coremqtt.ReplyMessage, 1)
	p.mu.Lock()
	p.pending[corrID] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, corrID)
		p.mu.Unlock()
	}()

	if err := p.transport.Publish(ctx, p.topics.Commands(), msg); err != nil {
		if errors.Is(err, coremqtt.ErrNotConnected) {
			return fail(charging.ResultOffline, err.Error())
		}
		return fail(charging.ResultError, fmt.Sprintf("publish %s: %v", command, err))
	}
	p.log.Debugw("command sent", map[string]any{"command": command, "correlation_id": corrID, "pool_id": p.id.String()})

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fail(charging.ResultTimeout, ctx.Err().Error())
	case <-timer.C:
		return fail(charging.ResultTimeout, coremqtt.ErrReplyTimeout.Error())
	case reply := <-ch:
		if reply.Error != "" {
			return fail(charging.ResultError, reply.Error)
		}
		var res Res
		if err := json.Unmarshal(reply.Payload, &res); err != nil {
			return fail(charging.ResultError, fmt.Sprintf("decode reply: %v", err))
		}
		return res
	}
}

var (
	_ charging.RemoteChargingPool = (*RemotePool)(nil)
	_ charging.EVSEStatusSource   = (*RemotePool)(nil)
)
