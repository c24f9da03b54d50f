// Package cars exposes car state and button presses over HTTP.
package cars

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/model"
)

// Presser applies a button press to the simulation.
type Presser interface {
	Press(ctx context.Context, req model.Request) error
}

type handler struct {
	store carstatus.Store
	press Presser
	token string
}

// NewHandler returns the car API:
//
//	GET  /api/cars               list cars, filtered by ?moving= and ?direction=
//	GET  /api/cars/{id}          one car
//	POST /api/cars/{id}/panel    press a panel button, body {"floor":3}
//	GET  /api/requests           pending requests
//	POST /api/calls              press a hall button, body {"floor":2,"direction":"up"}
//	GET  /api/snapshot           full building snapshot
//
// POST endpoints require "Authorization: Bearer <token>" when token is non-empty.
func NewHandler(store carstatus.Store, p Presser, token string) http.Handler {
	h := &handler{store: store, press: p, token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cars", h.list)
	mux.HandleFunc("GET /api/cars/{id}", h.car)
	mux.HandleFunc("POST /api/cars/{id}/panel", h.authorized(h.panel))
	mux.HandleFunc("GET /api/requests", h.requests)
	mux.HandleFunc("POST /api/calls", h.authorized(h.call))
	mux.HandleFunc("GET /api/snapshot", h.snapshot)
	return mux
}

func (h *handler) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	var f carstatus.Filter
	if s := r.URL.Query().Get("moving"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid moving filter", http.StatusBadRequest)
			return
		}
		f.Moving = &v
	}
	if s := r.URL.Query().Get("direction"); s != "" {
		d, err := model.ParseDirection(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Direction = d
	}
	writeJSON(w, http.StatusOK, h.store.List(f))
}

func (h *handler) car(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store.Car(r.PathValue("id"))
	if !ok {
		http.Error(w, "car not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) requests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Requests())
}

func (h *handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

type pressBody struct {
	Floor     *model.Floor    `json:"floor"`
	Direction model.Direction `json:"direction"`
}

func decodePress(r *http.Request) (pressBody, error) {
	var body pressBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, err
	}
	if body.Floor == nil {
		return body, errors.New("floor is required")
	}
	return body, nil
}

func (h *handler) panel(w http.ResponseWriter, r *http.Request) {
	body, err := decodePress(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.apply(w, r, model.PanelRequest(r.PathValue("id"), *body.Floor))
}

func (h *handler) call(w http.ResponseWriter, r *http.Request) {
	body, err := decodePress(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Direction == model.DirNone {
		http.Error(w, "direction must be up or down", http.StatusBadRequest)
		return
	}
	h.apply(w, r, model.CallRequest(body.Direction, *body.Floor))
}

func (h *handler) apply(w http.ResponseWriter, r *http.Request, req model.Request) {
	err := h.press.Press(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, req)
	case errors.Is(err, elevator.ErrUnknownCar):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, elevator.ErrFloorOutOfRange), errors.Is(err, model.ErrInvalidDirection):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
