package config

import "time"

// ServiceConfig holds the periodic jobs of the service.
type ServiceConfig struct {
	// PowerIntervalSeconds is the period of the installed power snapshots.
	PowerIntervalSeconds int `json:"power_interval_seconds"`
	// ExpiryIntervalSeconds is the period of the reservation expiry sweep.
	ExpiryIntervalSeconds int `json:"expiry_interval_seconds"`
	// StatusHistory bounds the status schedules of every entity.
	StatusHistory int `json:"status_history"`
}

// SetDefaults applies sane defaults.
func (c *ServiceConfig) SetDefaults() {
	if c.PowerIntervalSeconds <= 0 {
		c.PowerIntervalSeconds = 60
	}
	if c.ExpiryIntervalSeconds <= 0 {
		c.ExpiryIntervalSeconds = 30
	}
}

func (c ServiceConfig) PowerInterval() time.Duration {
	return time.Duration(c.PowerIntervalSeconds) * time.Second
}

func (c ServiceConfig) ExpiryInterval() time.Duration {
	return time.Duration(c.ExpiryIntervalSeconds) * time.Second
}
