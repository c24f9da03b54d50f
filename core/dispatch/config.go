package dispatch

import "errors"

// Config defines dispatch-related settings.
type Config struct {
	// ConcurrentTrips lets every car move independently. The default keeps a
	// single car moving at any instant.
	ConcurrentTrips bool `json:"concurrent_trips"`
	// MinPickupDistance is the smallest distance in floors between a moving
	// car and a hall call it may pick up on the way.
	MinPickupDistance float64 `json:"min_pickup_distance"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.MinPickupDistance == 0 {
		c.MinPickupDistance = 1.0
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MinPickupDistance < 0 {
		return errors.New("min_pickup_distance must not be negative")
	}
	return nil
}
