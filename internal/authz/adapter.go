package authz

import (
	"context"
	"fmt"
	"institute-service/internal/domain/policy"
	"institute-service/internal/repository"
	"log"
	"time"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
)

const defaultStoreTimeout = 10 * time.Second

var _ persist.BatchAdapter = (*Adapter)(nil)

// Adapter persists enforcer mutations through the policy repository. The
// enforcer calls it before touching its in-memory model, so a store failure
// leaves the model unchanged.
type Adapter struct {
	store   repository.PolicyRepository
	timeout time.Duration
}

func NewAdapter(store repository.PolicyRepository, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Adapter{store: store, timeout: timeout}
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	ctx, cancel := a.context()
	defer cancel()

	rules, err := a.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			log.Printf("authz: skipping stored rule %d: %v", rule.ID, err)
			continue
		}

		line := append([]string{rule.PType}, rule.Values()...)
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}

	return nil
}

func (a *Adapter) SavePolicy(m model.Model) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.ReplaceAll(ctx, rulesFromModel(m))
}

func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.Insert(ctx, policy.NewRule(ptype, rule...))
}

func (a *Adapter) AddPolicies(sec string, ptype string, rules [][]string) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.InsertBatch(ctx, toRules(ptype, rules))
}

func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.Remove(ctx, policy.NewRule(ptype, rule...))
}

func (a *Adapter) RemovePolicies(sec string, ptype string, rules [][]string) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.RemoveBatch(ctx, toRules(ptype, rules))
}

func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.store.RemoveFiltered(ctx, policy.NewFilter(ptype, fieldIndex, fieldValues...))
}

func (a *Adapter) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// ValidateRule checks that a rule has a known type and exactly the number of
// non-empty fields that type requires.
func ValidateRule(rule policy.Rule) error {
	var want int
	switch rule.PType {
	case policy.TypePermission:
		want = permissionFields
	case policy.TypeRoleLink:
		want = linkFields
	default:
		return fmt.Errorf(errUnknownPolicyTypeFmt, ErrInvalidRule, rule.PType)
	}

	values := rule.Values()
	if len(values) != want {
		return fmt.Errorf(errRuleFieldCountFmt, ErrInvalidRule, rule.PType, want, values)
	}
	for _, v := range values {
		if v == "" {
			return fmt.Errorf(errRuleFieldCountFmt, ErrInvalidRule, rule.PType, want, values)
		}
	}

	return nil
}

func rulesFromModel(m model.Model) []policy.Rule {
	var rules []policy.Rule
	for _, sec := range []string{sectionPolicy, sectionRole} {
		for ptype, assertion := range m[sec] {
			rules = append(rules, toRules(ptype, assertion.Policy)...)
		}
	}
	return rules
}

func toRules(ptype string, values [][]string) []policy.Rule {
	rules := make([]policy.Rule, 0, len(values))
	for _, v := range values {
		rules = append(rules, policy.NewRule(ptype, v...))
	}
	return rules
}
