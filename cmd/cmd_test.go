package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/liftsim/api/cars"
	"github.com/kilianp07/liftsim/auth"
	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/model"
)

type recordPresser struct{ reqs []model.Request }

func (p *recordPresser) Press(_ context.Context, req model.Request) error {
	p.reqs = append(p.reqs, req)
	return nil
}

func newAPI(t *testing.T, token string) (*httptest.Server, *recordPresser) {
	t.Helper()
	store := carstatus.NewMemoryStore()
	store.Set(elevator.Snapshot{Cars: []elevator.CarStatus{
		{ID: "elevator1", State: elevator.StateMoving, Moving: true, Direction: model.DirUp, CurrentFloor: 2, VisualFloor: 2.4, Stops: []model.Floor{5}},
		{ID: "elevator2", State: elevator.StateIdle},
	}})
	p := &recordPresser{}
	srv := httptest.NewServer(cars.NewHandler(store, p, token))
	t.Cleanup(srv.Close)
	return srv, p
}

func TestFetchAndPrintCars(t *testing.T) {
	srv, _ := newAPI(t, "")
	list, err := fetchCars(context.Background(), srv.Client(), srv.URL+"/", false)
	require.NoError(t, err)
	require.Len(t, list, 2)

	moving, err := fetchCars(context.Background(), srv.Client(), srv.URL, true)
	require.NoError(t, err)
	require.Len(t, moving, 1)
	assert.Equal(t, "elevator1", moving[0].ID)

	var buf bytes.Buffer
	require.NoError(t, printCars(&buf, list))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "elevator1")
	assert.Contains(t, lines[1], "2.40")
	assert.Contains(t, lines[1], "[5]")
}

func TestFetchCarsError(t *testing.T) {
	srv, _ := newAPI(t, "")
	_, err := fetchCars(context.Background(), srv.Client(), srv.URL+"/missing", false)
	assert.Error(t, err)
}

func TestPressHTTP(t *testing.T) {
	srv, p := newAPI(t, "secret")
	ctx := context.Background()
	client, err := auth.NewHTTPClient(ctx, auth.Conf{Token: "secret"})
	require.NoError(t, err)
	require.NoError(t, pressHTTP(ctx, client, srv.URL, model.CallRequest(model.DirDown, 3)))
	require.NoError(t, pressHTTP(ctx, client, srv.URL, model.PanelRequest("elevator2", 6)))
	assert.Equal(t, []model.Request{
		model.CallRequest(model.DirDown, 3),
		model.PanelRequest("elevator2", 6),
	}, p.reqs)

	wrong, err := auth.NewHTTPClient(ctx, auth.Conf{Token: "wrong"})
	require.NoError(t, err)
	err = pressHTTP(ctx, wrong, srv.URL, model.CallRequest(model.DirUp, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
