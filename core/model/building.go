package model

import (
	"errors"
	"fmt"
)

// FloorDef describes one floor of the building.
type FloorDef struct {
	Label string `json:"label" yaml:"label"`
}

// CarDef describes one elevator car at startup.
type CarDef struct {
	ID           string `json:"id" yaml:"id"`
	InitialFloor Floor  `json:"initial_floor" yaml:"initial_floor"`
}

// BuildingConfig is the read-only layout of the building: its floors, bottom
// to top, and its cars.
type BuildingConfig struct {
	Floors []FloorDef `json:"floors" yaml:"floors"`
	Cars   []CarDef   `json:"cars" yaml:"cars"`
}

// DefaultBuilding returns the eight floor, two car layout.
func DefaultBuilding() BuildingConfig {
	return BuildingConfig{
		Floors: []FloorDef{
			{Label: "Ground"},
			{Label: "1st Floor"},
			{Label: "2nd Floor"},
			{Label: "3rd Floor"},
			{Label: "4th Floor"},
			{Label: "5th Floor"},
			{Label: "6th Floor"},
			{Label: "7th Floor"},
		},
		Cars: []CarDef{{ID: "elevator1"}, {ID: "elevator2"}},
	}
}

// SetDefaults fills an empty layout with the default building.
func (b *BuildingConfig) SetDefaults() {
	def := DefaultBuilding()
	if len(b.Floors) == 0 {
		b.Floors = def.Floors
	}
	if len(b.Cars) == 0 {
		b.Cars = def.Cars
	}
}

// Validate checks that the layout is usable.
func (b BuildingConfig) Validate() error {
	if len(b.Floors) < 2 {
		return errors.New("building needs at least two floors")
	}
	if len(b.Cars) == 0 {
		return errors.New("building needs at least one car")
	}
	seen := make(map[string]struct{}, len(b.Cars))
	for _, c := range b.Cars {
		if c.ID == "" {
			return errors.New("car id is required")
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate car id %s", c.ID)
		}
		seen[c.ID] = struct{}{}
		if !b.Contains(c.InitialFloor) {
			return fmt.Errorf("car %s starts outside the building at floor %d", c.ID, c.InitialFloor)
		}
	}
	return nil
}

// FloorCount returns the number of floors.
func (b BuildingConfig) FloorCount() int { return len(b.Floors) }

// Top returns the highest floor index.
func (b BuildingConfig) Top() Floor { return Floor(len(b.Floors) - 1) }

// Contains reports whether f is a floor of the building.
func (b BuildingConfig) Contains(f Floor) bool {
	return f >= 0 && int(f) < len(b.Floors)
}

// Label returns the display label of floor f, or its number when unnamed.
func (b BuildingConfig) Label(f Floor) string {
	if b.Contains(f) && b.Floors[f].Label != "" {
		return b.Floors[f].Label
	}
	return fmt.Sprintf("%d", f)
}
