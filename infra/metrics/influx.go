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

	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/infra/logger"
)

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds connection settings for an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
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

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrip writes a finished trip.
func (s *InfluxSink) RecordTrip(rec coremetrics.TripRecord) error {
	p := write.NewPointWithMeasurement("trip").
		AddTag("car_id", rec.CarID).
		AddTag("trip_id", rec.TripID).
		AddField("origin", int(rec.Origin)).
		AddField("floor", int(rec.Floor)).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		AddField("reroutes", rec.Reroutes).
		AddField("served", rec.Served).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordWait writes the pending time of a served request.
func (s *InfluxSink) RecordWait(rec coremetrics.WaitRecord) error {
	p := write.NewPointWithMeasurement("request_wait").
		AddTag("kind", rec.Kind.String()).
		AddTag("floor", strconv.Itoa(int(rec.Floor)))
	if rec.CarID != "" {
		p = p.AddTag("car_id", rec.CarID)
	}
	p = p.AddField("wait_ms", round3(rec.Wait.Seconds()*1000)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordReroute writes a change of target.
func (s *InfluxSink) RecordReroute(rec coremetrics.RerouteRecord) error {
	p := write.NewPointWithMeasurement("reroute").
		AddTag("car_id", rec.CarID).
		AddTag("trip_id", rec.TripID).
		AddTag("mode", rec.Mode).
		AddField("from", int(rec.From)).
		AddField("to", int(rec.To)).
		AddField("velocity", round3(rec.Velocity)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordAssignment writes a dispatcher decision.
func (s *InfluxSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	p := write.NewPointWithMeasurement("assignment").
		AddTag("car_id", rec.CarID).
		AddTag("strategy", rec.Strategy).
		AddField("floors", rec.Floors).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordPending writes the size of the pending request set.
func (s *InfluxSink) RecordPending(n int) error {
	p := write.NewPointWithMeasurement("pending_requests").
		AddField("count", n).
		SetTime(time.Now())
	return s.write(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
