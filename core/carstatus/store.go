// Package carstatus keeps a copy of the building state that can be read from
// any goroutine, such as HTTP handlers and the MQTT bridge.
package carstatus

import (
	"sort"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"github.com/kilianp07/liftsim/core/elevator"
	"github.com/kilianp07/liftsim/core/model"
)

// Filter selects cars by state.
type Filter struct {
	Moving    *bool
	Direction model.Direction
}

type Store interface {
	Set(elevator.Snapshot)
	Snapshot() elevator.Snapshot
	List(Filter) []elevator.CarStatus
	Car(id string) (elevator.CarStatus, bool)
	Requests() []model.Request
}

// MemoryStore is a Store guarded by a read-write mutex. Readers receive deep
// copies and may keep them.
type MemoryStore struct {
	mu   sync.RWMutex
	snap elevator.Snapshot
	byID map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]int{}}
}

func (s *MemoryStore) Set(snap elevator.Snapshot) {
	var cp elevator.Snapshot
	if err := deepcopy.Copy(&cp, &snap); err != nil {
		cp = snap
	}
	idx := make(map[string]int, len(cp.Cars))
	for i, c := range cp.Cars {
		idx[c.ID] = i
	}
	s.mu.Lock()
	s.snap = cp
	s.byID = idx
	s.mu.Unlock()
}

func (s *MemoryStore) Snapshot() elevator.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out elevator.Snapshot
	if err := deepcopy.Copy(&out, &s.snap); err != nil {
		return elevator.Snapshot{}
	}
	return out
}

func (s *MemoryStore) List(f Filter) []elevator.CarStatus {
	snap := s.Snapshot()
	res := make([]elevator.CarStatus, 0, len(snap.Cars))
	for _, c := range snap.Cars {
		if f.Moving != nil && c.Moving != *f.Moving {
			continue
		}
		if f.Direction != model.DirNone && c.Direction != f.Direction {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *MemoryStore) Car(id string) (elevator.CarStatus, bool) {
	s.mu.RLock()
	i, ok := s.byID[id]
	var st elevator.CarStatus
	if ok {
		ok = deepcopy.Copy(&st, &s.snap.Cars[i]) == nil
	}
	s.mu.RUnlock()
	return st, ok
}

func (s *MemoryStore) Requests() []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Request, len(s.snap.Requests))
	copy(out, s.snap.Requests)
	return out
}
