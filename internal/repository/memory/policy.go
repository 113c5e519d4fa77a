// Package memory holds process-local repositories. The CLI uses them to
// evaluate seed files without a database.
package memory

import (
	"context"
	"institute-service/internal/domain/policy"
	"sync"
)

// PolicyRepository keeps rules in insertion order and ignores duplicates,
// matching the unique index on the SQL table.
type PolicyRepository struct {
	mu     sync.RWMutex
	rules  []policy.Rule
	nextID int64
}

func NewPolicyRepository(rules ...policy.Rule) *PolicyRepository {
	r := &PolicyRepository{}
	for _, rule := range rules {
		r.insertLocked(rule)
	}
	return r
}

func (r *PolicyRepository) LoadAll(ctx context.Context) ([]policy.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]policy.Rule, len(r.rules))
	copy(out, r.rules)
	return out, nil
}

func (r *PolicyRepository) Insert(ctx context.Context, rule policy.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertLocked(rule)
	return nil
}

func (r *PolicyRepository) InsertBatch(ctx context.Context, rules []policy.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range rules {
		r.insertLocked(rule)
	}
	return nil
}

func (r *PolicyRepository) Remove(ctx context.Context, rule policy.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeWhere(func(existing policy.Rule) bool { return sameRule(existing, rule) })
	return nil
}

func (r *PolicyRepository) RemoveBatch(ctx context.Context, rules []policy.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range rules {
		r.removeWhere(func(existing policy.Rule) bool { return sameRule(existing, rule) })
	}
	return nil
}

func (r *PolicyRepository) RemoveFiltered(ctx context.Context, filter policy.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeWhere(filter.Matches)
	return nil
}

func (r *PolicyRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = nil
	return nil
}

func (r *PolicyRepository) ReplaceAll(ctx context.Context, rules []policy.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = nil
	for _, rule := range rules {
		r.insertLocked(rule)
	}
	return nil
}

func (r *PolicyRepository) insertLocked(rule policy.Rule) {
	for _, existing := range r.rules {
		if sameRule(existing, rule) {
			return
		}
	}
	r.nextID++
	rule.ID = r.nextID
	r.rules = append(r.rules, rule)
}

func (r *PolicyRepository) removeWhere(match func(policy.Rule) bool) {
	kept := r.rules[:0]
	for _, rule := range r.rules {
		if !match(rule) {
			kept = append(kept, rule)
		}
	}
	r.rules = kept
}

func sameRule(a, b policy.Rule) bool {
	return a.PType == b.PType && a.V == b.V
}
