package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/wwcp/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
}

func (l *lineRecorder) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.bodies...)
}

func TestInfluxSink_RecordCommand(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	err := sink.RecordCommand(coremetrics.CommandRecord{
		EventTrackingID: "t1",
		Command:         "Reserve",
		PoolID:          "DE*GEF*P1",
		Location:        "DE*GEF*E1",
		Result:          "Success",
		Runtime:         1500 * time.Microsecond,
		Time:            now,
	})
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("charging_command").
		AddTag("command", "Reserve").
		AddTag("location", "DE*GEF*E1").
		AddTag("pool_id", "DE*GEF*P1").
		AddTag("result", "Success").
		AddField("event_tracking_id", "t1").
		AddField("runtime_ms", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := rec.all(); len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordStatus(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordStatus(coremetrics.StatusRecord{Entity: "EVSE", ID: "DE*GEF*E1", Old: "Available", New: "Charging", Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("status_change").
		AddTag("admin", "false").
		AddTag("entity", "EVSE").
		AddTag("id", "DE*GEF*E1").
		AddField("new", "Charging").
		AddField("old", "Available").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := rec.all(); len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordPower(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordPower(coremetrics.PowerRecord{PoolID: "P", EVSEs: 2, TotalKW: 44, MaxKW: 22, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("pool_power").
		AddTag("pool_id", "P").
		AddField("evses", 2).
		AddField("grid_limit_kw", 0.0).
		AddField("max_kw", 22.0).
		AddField("total_kw", 44.0).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := rec.all(); len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
