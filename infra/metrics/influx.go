package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/wwcp/core/metrics"
	"github.com/kilianp07/wwcp/infra/logger"
)

// InfluxSink writes charging events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommand writes a charging_command point.
func (s *InfluxSink) RecordCommand(rec coremetrics.CommandRecord) error {
	p := write.NewPointWithMeasurement("charging_command").
		AddTag("command", rec.Command).
		AddTag("location", rec.Location).
		AddTag("pool_id", rec.PoolID).
		AddTag("result", rec.Result).
		AddField("event_tracking_id", rec.EventTrackingID).
		AddField("runtime_ms", round3(rec.Runtime.Seconds()*1000)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordStatus writes a status_change point.
func (s *InfluxSink) RecordStatus(rec coremetrics.StatusRecord) error {
	p := write.NewPointWithMeasurement("status_change").
		AddTag("admin", strconv.FormatBool(rec.Admin)).
		AddTag("entity", rec.Entity).
		AddTag("id", rec.ID)
	if rec.PoolID != "" {
		p = p.AddTag("pool_id", rec.PoolID)
	}
	p = p.AddField("new", rec.New).
		AddField("old", rec.Old).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordStationChange writes a station_change point.
func (s *InfluxSink) RecordStationChange(ev coremetrics.StationChange) error {
	p := write.NewPointWithMeasurement("station_change").
		AddTag("pool_id", ev.PoolID).
		AddTag("station_id", ev.StationID).
		AddField("removed", ev.Removed).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordPower writes a pool_power point.
func (s *InfluxSink) RecordPower(rec coremetrics.PowerRecord) error {
	p := write.NewPointWithMeasurement("pool_power").
		AddTag("pool_id", rec.PoolID).
		AddField("evses", rec.EVSEs).
		AddField("grid_limit_kw", round3(rec.GridLimitKW)).
		AddField("max_kw", round3(rec.MaxKW)).
		AddField("total_kw", round3(rec.TotalKW)).
		SetTime(rec.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
