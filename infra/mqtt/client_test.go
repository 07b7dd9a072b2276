package mqtt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	coremqtt "github.com/kilianp07/wwcp/core/mqtt"
)

func TestQoSSettings(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: map[string]byte{"publish": 2, "subscribe": 1}})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Subscribe("a", func(string, []byte) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(mc.subscribed) == 0 || mc.subscribed[0].qos != 1 {
		t.Fatalf("subscribe qos not applied")
	}
	if err := cli.Publish(context.Background(), "b", []byte("x")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) == 0 || mc.published[0].qos != 2 {
		t.Fatalf("publish qos not applied")
	}
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}
	cli, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if !mc.opts.WillEnabled {
		t.Fatalf("will not enabled")
	}
	if mc.opts.WillTopic != "lwt" || string(mc.opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
	cli.Disconnect()
	if len(mc.published) != 0 {
		t.Fatalf("unexpected publish on disconnect")
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Publish(context.Background(), "t", []byte("x")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries, got %d publishes", len(mc.published))
	}
}

func TestRetryExhausted(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Publish(context.Background(), "t", nil); !errors.Is(err, fail) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(mc.published) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(mc.published))
	}
}

func TestPublishNotConnected(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", ClientID: "id"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cli.Disconnect()
	if err := cli.Publish(context.Background(), "t", nil); !errors.Is(err, coremqtt.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestResubscribeOnConnect(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", ClientID: "id"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Subscribe("a", func(string, []byte) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	mc.Connect()
	if len(mc.subscribed) != 2 || mc.subscribed[1].topic != "a" {
		t.Fatalf("subscription not restored: %+v", mc.subscribed)
	}
	if err := cli.Unsubscribe("a"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	mc.Connect()
	if len(mc.subscribed) != 2 {
		t.Fatalf("unsubscribed topic restored")
	}
}
