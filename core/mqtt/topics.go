package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the root of every topic when none is configured.
const DefaultPrefix = "wwcp"

// Topics builds the topic names of one charging pool.
//
//	<prefix>/pools/<pool>/commands            command requests
//	<prefix>/pools/<pool>/replies/<client>    replies for one client
//	<prefix>/pools/<pool>/evse_status         EVSE status changes
type Topics struct {
	Prefix string
	PoolID string
}

// NewTopics returns the topics of poolID below prefix.
func NewTopics(prefix, poolID string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix, PoolID: poolID}
}

func (t Topics) base() string { return fmt.Sprintf("%s/pools/%s", t.Prefix, t.PoolID) }

// Commands is the topic a responder listens on.
func (t Topics) Commands() string { return t.base() + "/commands" }

// Replies is the reply topic of clientID.
func (t Topics) Replies(clientID string) string { return t.base() + "/replies/" + clientID }

// EVSEStatus carries EVSE status updates.
func (t Topics) EVSEStatus() string { return t.base() + "/evse_status" }
