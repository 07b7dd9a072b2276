package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// broker routes messages between mock clients by exact topic.
type broker struct {
	mu   sync.Mutex
	subs map[string][]paho.MessageHandler
}

func newBroker() *broker { return &broker{subs: make(map[string][]paho.MessageHandler)} }

func (b *broker) deliver(c paho.Client, topic string, payload []byte) {
	b.mu.Lock()
	hs := append([]paho.MessageHandler(nil), b.subs[topic]...)
	b.mu.Unlock()
	for _, h := range hs {
		h(c, mockMessage{topic: topic, p: payload})
	}
}

type record struct {
	topic string
	qos   byte
}

// mockClient implements paho.Client for tests. When broker is set,
// published messages are delivered to its subscribers.
type mockClient struct {
	opts         *paho.ClientOptions
	broker       *broker
	disconnected bool

	mu          sync.Mutex
	subscribed  []record
	published   []record
	publishErrs []error
}

// useMock installs a constructor returning mc and restores the original on cleanup.
func useMock(t interface{ Cleanup(func()) }, mc *mockClient) {
	orig := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = orig })
}

func (m *mockClient) IsConnected() bool { return !m.disconnected }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	m.published = append(m.published, record{topic, qos})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		m.mu.Unlock()
		if err != nil {
			return &dummyToken{err: err}
		}
	} else {
		m.mu.Unlock()
	}
	if m.broker != nil {
		b, _ := payload.([]byte)
		m.broker.deliver(m, topic, b)
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, h paho.MessageHandler) paho.Token {
	m.mu.Lock()
	m.subscribed = append(m.subscribed, record{topic, qos})
	m.mu.Unlock()
	if m.broker != nil {
		m.broker.mu.Lock()
		m.broker.subs[topic] = append(m.broker.subs[topic], h)
		m.broker.mu.Unlock()
	}
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(topics ...string) paho.Token {
	if m.broker != nil {
		m.broker.mu.Lock()
		for _, t := range topics {
			delete(m.broker.subs, t)
		}
		m.broker.mu.Unlock()
	}
	return &dummyToken{}
}
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return !m.disconnected }

func (m *mockClient) publishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
