package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/dispatch/logging"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Scheduler.TimeScale = 20
	cfg.TripLog = config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "trips.jsonl")}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceServesCall(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	require.NoError(t, svc.Press(ctx, model.CallRequest(model.DirUp, 3)))
	require.Eventually(t, func() bool {
		for _, c := range svc.Status().List(carstatus.Filter{}) {
			if c.CurrentFloor == 3 && !c.Moving {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		recs, err := svc.trips.Query(context.Background(), logging.LogQuery{})
		return err == nil && len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServicePressValidation(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	err = svc.Press(ctx, model.PanelRequest("nope", 1))
	assert.ErrorIs(t, err, elevator.ErrUnknownCar)
	err = svc.Press(ctx, model.CallRequest(model.DirDown, 42))
	assert.ErrorIs(t, err, elevator.ErrFloorOutOfRange)
}

func TestServiceHandler(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cars/elevator2/panel", "application/json", strings.NewReader(`{"floor":5}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/cars/elevator2")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		var st elevator.CarStatus
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return false
		}
		return st.Moving || st.CurrentFloor == 5
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/trips")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSnapshotsFollowSimulatedTime(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	sub := svc.snaps.Subscribe()
	svc.startSnapshots()
	svc.sched.Advance(3 * time.Duration(cfg.HTTP.SnapshotMS) * time.Millisecond)

	got := 0
	for len(sub) > 0 {
		<-sub
		got++
	}
	assert.Equal(t, 3, got)
}
