package app

import (
	"sync"
	"time"

	"github.com/relabs-tech/wavebuoy/internal/env"
)

// StatusSnapshot is what the web endpoint and display show.
type StatusSnapshot struct {
	Device       string      `json:"device"`
	Time         time.Time   `json:"time"`
	Epoch        int64       `json:"epoch"`
	PositionTime uint32      `json:"position_time"`
	Lat          float64     `json:"lat"`
	Lon          float64     `json:"lon"`
	Fix          bool        `json:"fix"`
	Buffered     int         `json:"buffered"`
	StorageQueue int         `json:"storage_queue"`
	TxQueue      int         `json:"tx_queue"`
	StorageID    uint32      `json:"storage_id"`
	Env          *env.Sample `json:"env,omitempty"`
}

// Status holds the latest snapshot.
type Status struct {
	mu   sync.RWMutex
	last StatusSnapshot
	have bool
	env  *env.Sample
}

// Set replaces the snapshot, keeping the last environment sample.
func (s *Status) Set(snap StatusSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Env = s.env
	s.last = snap
	s.have = true
}

// SetEnv records an environment sample.
func (s *Status) SetEnv(e env.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = &e
	s.last.Env = s.env
}

// Get returns the snapshot and whether one was set.
func (s *Status) Get() (StatusSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.have
}
