package authz

import (
	"context"
	"errors"
	"institute-service/internal/domain/policy"
	"sync"
)

var errStoreDown = errors.New("store unreachable")

// memoryStore is an in-memory policy repository with failure injection.
type memoryStore struct {
	mu      sync.Mutex
	rules   []policy.Rule
	nextID  int64
	failAll bool
	failOps map[string]bool
}

func newMemoryStore(rules ...policy.Rule) *memoryStore {
	s := &memoryStore{failOps: map[string]bool{}}
	for _, r := range rules {
		s.insertLocked(r)
	}
	return s
}

func (s *memoryStore) fail(op string) error {
	if s.failAll || s.failOps[op] {
		return errStoreDown
	}
	return nil
}

func (s *memoryStore) snapshot() []policy.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]policy.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *memoryStore) contains(r policy.Rule) bool {
	for _, existing := range s.snapshot() {
		if sameRule(existing, r) {
			return true
		}
	}
	return false
}

func (s *memoryStore) LoadAll(ctx context.Context) ([]policy.Rule, error) {
	if err := s.fail("load"); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *memoryStore) Insert(ctx context.Context, rule policy.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert"); err != nil {
		return err
	}
	s.insertLocked(rule)
	return nil
}

func (s *memoryStore) InsertBatch(ctx context.Context, rules []policy.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert"); err != nil {
		return err
	}
	for _, r := range rules {
		s.insertLocked(r)
	}
	return nil
}

func (s *memoryStore) Remove(ctx context.Context, rule policy.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("remove"); err != nil {
		return err
	}
	s.removeWhere(func(r policy.Rule) bool { return sameRule(r, rule) })
	return nil
}

func (s *memoryStore) RemoveBatch(ctx context.Context, rules []policy.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("remove"); err != nil {
		return err
	}
	for _, rule := range rules {
		s.removeWhere(func(r policy.Rule) bool { return sameRule(r, rule) })
	}
	return nil
}

func (s *memoryStore) RemoveFiltered(ctx context.Context, filter policy.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("remove"); err != nil {
		return err
	}
	s.removeWhere(filter.Matches)
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("clear"); err != nil {
		return err
	}
	s.rules = nil
	return nil
}

func (s *memoryStore) ReplaceAll(ctx context.Context, rules []policy.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("replace"); err != nil {
		return err
	}
	s.rules = nil
	for _, r := range rules {
		s.insertLocked(r)
	}
	return nil
}

func (s *memoryStore) insertLocked(rule policy.Rule) {
	for _, r := range s.rules {
		if sameRule(r, rule) {
			return
		}
	}
	s.nextID++
	rule.ID = s.nextID
	s.rules = append(s.rules, rule)
}

func (s *memoryStore) removeWhere(match func(policy.Rule) bool) {
	kept := s.rules[:0]
	for _, r := range s.rules {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	s.rules = kept
}

func sameRule(a, b policy.Rule) bool {
	return a.PType == b.PType && a.V == b.V
}
