package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// maxGap caps the wait between two presses so a quiet hour still ends.
const maxGap = 10 * time.Minute

// Generator draws button presses with exponential inter-arrival times.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with cfg.Seed.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Gap returns the wait before the next press at wall time now. Hours with a
// zero weight wait until the next hour.
func (g *Generator) Gap(now time.Time) time.Duration {
	w := g.cfg.Profile[now.Hour()]
	if w <= 0 {
		next := now.Truncate(time.Hour).Add(time.Hour)
		return next.Sub(now)
	}
	perMinute := g.cfg.Rate * w
	gap := time.Duration(g.rng.ExpFloat64() / perMinute * float64(time.Minute))
	if gap > maxGap {
		gap = maxGap
	}
	return gap
}

// Next draws one press. Hall calls at the ground floor go up and at the top
// floor go down.
func (g *Generator) Next() model.Request {
	top := g.cfg.Floors - 1
	if len(g.cfg.Cars) > 0 && g.rng.Float64() < g.cfg.PanelPct {
		car := g.cfg.Cars[g.rng.Intn(len(g.cfg.Cars))]
		return model.PanelRequest(car, model.Floor(g.rng.Intn(g.cfg.Floors)))
	}
	f := g.rng.Intn(g.cfg.Floors)
	dir := model.DirUp
	switch {
	case f == top:
		dir = model.DirDown
	case f > 0 && g.rng.Intn(2) == 0:
		dir = model.DirDown
	}
	return model.CallRequest(dir, model.Floor(f))
}

// FlatProfile gives every hour the same weight.
func FlatProfile() [24]float64 {
	var prof [24]float64
	for i := range prof {
		prof[i] = 1
	}
	return prof
}

// LoadTrafficProfile reads hourly weights keyed by hour ("0".."23") from
// JSON. Missing hours weigh zero.
func LoadTrafficProfile(data []byte) ([24]float64, error) {
	var m map[string]float64
	var prof [24]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return prof, err
	}
	for h, v := range m {
		var hour int
		if _, err := fmt.Sscanf(h, "%d", &hour); err != nil {
			continue
		}
		if hour >= 0 && hour < 24 {
			prof[hour] = v
		}
	}
	return prof, nil
}
