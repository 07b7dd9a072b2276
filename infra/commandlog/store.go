// Package commandlog persists the outcome of every charging command and
// answers queries by pool, command, result and time range.
package commandlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/wwcp/core/events"
)

// Record captures one processed charging command.
type Record struct {
	Timestamp       time.Time     `json:"timestamp"`
	EventTrackingID string        `json:"event_tracking_id"`
	Command         string        `json:"command"`
	PoolID          string        `json:"pool_id"`
	Location        string        `json:"location"`
	Result          string        `json:"result"`
	Description     string        `json:"description,omitempty"`
	Runtime         time.Duration `json:"runtime_ns"`
}

// FromEvent converts a bus event into a Record.
func FromEvent(e events.CommandEvent) Record {
	return Record{
		Timestamp:       e.Timestamp,
		EventTrackingID: e.EventTrackingID,
		Command:         e.Command,
		PoolID:          e.PoolID,
		Location:        e.Location,
		Result:          e.Result,
		Description:     e.Description,
		Runtime:         e.Runtime,
	}
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start   time.Time
	End     time.Time
	PoolID  string
	Command string
	Result  string
}

// Matches reports whether r passes every filter of q.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.PoolID != "" && r.PoolID != q.PoolID {
		return false
	}
	if q.Command != "" && r.Command != q.Command {
		return false
	}
	return q.Result == "" || r.Result == q.Result
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	// Backend is one of "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB enables rotation of the JSONL file when positive.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// New opens the store described by cfg. Backend "none" or "" returns nil.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			s, err := NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		s, err := NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown command log backend %q", cfg.Backend)
	}
}
