package cars

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/model"
)

type fakePresser struct {
	reqs []model.Request
	err  error
}

func (f *fakePresser) Press(_ context.Context, req model.Request) error {
	if f.err != nil {
		return f.err
	}
	f.reqs = append(f.reqs, req)
	return nil
}

func newStore() *carstatus.MemoryStore {
	store := carstatus.NewMemoryStore()
	store.Set(elevator.Snapshot{
		Cars: []elevator.CarStatus{
			{ID: "elevator1", State: elevator.StateMoving, Moving: true, Direction: model.DirUp, CurrentFloor: 2},
			{ID: "elevator2", State: elevator.StateIdle, CurrentFloor: 0},
		},
		Requests: []model.Request{model.CallRequest(model.DirDown, 5)},
	})
	return store
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListAndFilter(t *testing.T) {
	h := NewHandler(newStore(), &fakePresser{}, "")
	rr := do(t, h, "GET", "/api/cars", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []elevator.CarStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 cars, got %d", len(out))
	}
	rr = do(t, h, "GET", "/api/cars?moving=true&direction=up", "", "")
	out = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != "elevator1" {
		t.Fatalf("unexpected filter result %#v", out)
	}
	if rr := do(t, h, "GET", "/api/cars?moving=maybe", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCarByID(t *testing.T) {
	h := NewHandler(newStore(), &fakePresser{}, "")
	rr := do(t, h, "GET", "/api/cars/elevator2", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var st elevator.CarStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ID != "elevator2" || st.State != elevator.StateIdle {
		t.Fatalf("unexpected car %#v", st)
	}
	if rr := do(t, h, "GET", "/api/cars/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestRequests(t *testing.T) {
	h := NewHandler(newStore(), &fakePresser{}, "")
	rr := do(t, h, "GET", "/api/requests", "", "")
	var out []model.Request
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Kind != model.KindDown || out[0].Floor != 5 {
		t.Fatalf("unexpected requests %#v", out)
	}
}

func TestPressEndpoints(t *testing.T) {
	p := &fakePresser{}
	h := NewHandler(newStore(), p, "tok")
	if rr := do(t, h, "POST", "/api/calls", `{"floor":3,"direction":"up"}`, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if rr := do(t, h, "POST", "/api/calls", `{"floor":3,"direction":"up"}`, "tok"); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, "POST", "/api/cars/elevator1/panel", `{"floor":0}`, "tok"); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rr.Code, rr.Body.String())
	}
	if len(p.reqs) != 2 {
		t.Fatalf("expected 2 presses, got %d", len(p.reqs))
	}
	if !p.reqs[0].Same(model.CallRequest(model.DirUp, 3)) || !p.reqs[1].Same(model.PanelRequest("elevator1", 0)) {
		t.Fatalf("unexpected presses %v", p.reqs)
	}
	if rr := do(t, h, "POST", "/api/calls", `{"floor":3}`, "tok"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing direction got %d", rr.Code)
	}
	if rr := do(t, h, "POST", "/api/calls", `{"direction":"down"}`, "tok"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing floor got %d", rr.Code)
	}
}

func TestPressErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("car x: %w", elevator.ErrUnknownCar), http.StatusNotFound},
		{fmt.Errorf("floor 99: %w", elevator.ErrFloorOutOfRange), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := NewHandler(newStore(), &fakePresser{err: c.err}, "")
		rr := do(t, h, "POST", "/api/cars/x/panel", `{"floor":99}`, "")
		if rr.Code != c.want {
			t.Errorf("%v: expected %d got %d", c.err, c.want, rr.Code)
		}
	}
}
