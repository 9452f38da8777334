// Package recordstore provides the report.Store implementations: a
// MySQL-backed store for production and an in-memory store for tests and
// ephemeral environments.
package recordstore

import (
	"cleanops/domain/report"
	"sync"

	"github.com/fundwit/go-commons/types"
)

var _ report.Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu         sync.RWMutex
	records    map[types.ID]report.WorkReport
	activeKeys map[string]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    map[types.ID]report.WorkReport{},
		activeKeys: map[string]types.ID{},
	}
}

func (s *MemoryStore) Get(id types.ID) (*report.WorkReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, found := s.records[id]
	if !found {
		return nil, false, nil
	}
	c := clone(&r)
	return &c, true, nil
}

func (s *MemoryStore) Create(r *report.WorkReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.LogID]; exists {
		return report.ErrAlreadyExists
	}
	if r.ActiveKey != nil {
		if _, taken := s.activeKeys[*r.ActiveKey]; taken {
			return report.ErrAlreadyExists
		}
		s.activeKeys[*r.ActiveKey] = r.LogID
	}
	s.records[r.LogID] = clone(r)
	return nil
}

func (s *MemoryStore) ConditionalPut(r *report.WorkReport, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.records[r.LogID]
	if !found || existing.Version != expectedVersion {
		return report.ErrVersionConflict
	}
	if r.ActiveKey != nil {
		if owner, taken := s.activeKeys[*r.ActiveKey]; taken && owner != r.LogID {
			return report.ErrAlreadyExists
		}
	}
	if existing.ActiveKey != nil && (r.ActiveKey == nil || *r.ActiveKey != *existing.ActiveKey) {
		delete(s.activeKeys, *existing.ActiveKey)
	}
	if r.ActiveKey != nil {
		s.activeKeys[*r.ActiveKey] = r.LogID
	}
	s.records[r.LogID] = clone(r)
	return nil
}

func (s *MemoryStore) Find(q report.StoreQuery) ([]report.WorkReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []report.WorkReport{}
	for id := range s.records {
		r := s.records[id]
		if !matches(&r, q) {
			continue
		}
		result = append(result, clone(&r))
	}
	return result, nil
}

func matches(r *report.WorkReport, q report.StoreQuery) bool {
	if q.WorkerID != "" && r.WorkerID != q.WorkerID {
		return false
	}
	if q.TemplateID != "" && r.TemplateID != q.TemplateID {
		return false
	}
	if q.DateFrom != "" && r.WorkDate < q.DateFrom {
		return false
	}
	if q.DateTo != "" && r.WorkDate > q.DateTo {
		return false
	}
	if len(q.States) > 0 {
		found := false
		for _, s := range q.States {
			if s == r.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func clone(r *report.WorkReport) report.WorkReport {
	c := *r
	c.History = make(report.History, len(r.History))
	copy(c.History, r.History)
	if r.ActiveKey != nil {
		key := *r.ActiveKey
		c.ActiveKey = &key
	}
	return c
}
