package storage

import (
	"context"
	"sort"
	"sync"

	"unbiasedmc/internal/model"
)

type MemoryStore struct {
	mu         sync.RWMutex
	runs       map[string]model.RunRecord
	replicates map[string][]model.ReplicateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]model.RunRecord)
		s.replicates = make(map[string][]model.ReplicateRecord)
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.replicates = make(map[string][]model.ReplicateRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]model.RunRecord)
		s.replicates = make(map[string][]model.ReplicateRecord)
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveReplicates(_ context.Context, runID string, replicates []model.ReplicateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replicates == nil {
		s.runs = make(map[string]model.RunRecord)
		s.replicates = make(map[string][]model.ReplicateRecord)
	}
	copied := make([]model.ReplicateRecord, len(replicates))
	copy(copied, replicates)
	s.replicates[runID] = copied
	return nil
}

func (s *MemoryStore) GetReplicates(_ context.Context, runID string) ([]model.ReplicateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	replicates, ok := s.replicates[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.ReplicateRecord, len(replicates))
	copy(copied, replicates)
	return copied, true, nil
}
