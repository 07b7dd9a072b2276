package mqtt

import (
	"encoding/json"
	"time"
)

// Command names carried in CommandMessage.
const (
	CommandReserve           = "reserve"
	CommandCancelReservation = "cancel_reservation"
	CommandRemoteStart       = "remote_start"
	CommandRemoteStop        = "remote_stop"
)

// CommandMessage is a request sent to a remote pool. The responder answers
// on ReplyTo with a ReplyMessage carrying the same CorrelationID.
type CommandMessage struct {
	CorrelationID string          `json:"correlation_id"`
	ReplyTo       string          `json:"reply_to"`
	Command       string          `json:"command"`
	Timestamp     int64           `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// ReplyMessage answers a CommandMessage. Error is set when the responder
// could not process the request at all.
type ReplyMessage struct {
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// EVSEStatusMessage reports one EVSE status change.
type EVSEStatusMessage struct {
	EVSEID     string    `json:"evse_id"`
	Timestamp  time.Time `json:"timestamp"`
	Old        string    `json:"old"`
	New        string    `json:"new"`
	DataSource string    `json:"data_source,omitempty"`
}
