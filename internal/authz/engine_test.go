package authz

import (
	"context"
	"errors"
	"institute-service/internal/domain/policy"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grant(role, resource, action string) policy.Rule {
	return policy.Grant{Role: role, Resource: resource, Action: action}.Rule()
}

func link(child, parent string) policy.Rule {
	return policy.Link{Child: child, Parent: parent}.Rule()
}

func newTestEngine(t *testing.T, rules ...policy.Rule) (*Engine, *memoryStore) {
	t.Helper()
	store := newMemoryStore(rules...)
	engine, err := NewEngine(store, Options{})
	require.NoError(t, err)
	return engine, store
}

func mustEnforce(t *testing.T, e *Engine, sub, obj, act string) bool {
	t.Helper()
	allowed, err := e.Enforce(sub, obj, act)
	require.NoError(t, err)
	return allowed
}

// ============================================================================
// Construction
// ============================================================================

func TestNewEngineFailsWhenStoreUnreachable(t *testing.T) {
	store := newMemoryStore(grant("teacher", "employee", "view"))
	store.failOps["load"] = true

	engine, err := NewEngine(store, Options{})

	require.Error(t, err)
	assert.Nil(t, engine)
	assert.True(t, errors.Is(err, errStoreDown))
}

func TestNewEngineSkipsMalformedStoredRules(t *testing.T) {
	engine, _ := newTestEngine(t,
		grant("teacher", "employee", "view"),
		policy.NewRule("p", "teacher", "employee"),
		policy.NewRule("x", "a", "b", "c"),
	)

	policies, err := engine.GetPolicy()
	require.NoError(t, err)
	assert.Equal(t, []policy.Grant{{Role: "teacher", Resource: "employee", Action: "view"}}, policies)
}

// ============================================================================
// Enforcement
// ============================================================================

func TestEnforceDirectGrant(t *testing.T) {
	engine, _ := newTestEngine(t, grant("teacher", "employee", "view"))

	assert.True(t, mustEnforce(t, engine, "teacher", "employee", "view"))
	assert.False(t, mustEnforce(t, engine, "teacher", "employee", "delete"))
	assert.False(t, mustEnforce(t, engine, "student", "employee", "view"))
}

func TestEnforceTransitiveInheritance(t *testing.T) {
	engine, _ := newTestEngine(t,
		grant("teacher", "employee", "view"),
		link("principal", "teacher"),
		link("admin", "principal"),
	)

	assert.True(t, mustEnforce(t, engine, "principal", "employee", "view"))
	assert.True(t, mustEnforce(t, engine, "admin", "employee", "view"))
	assert.False(t, mustEnforce(t, engine, "teacher", "employee", "update"))
}

func TestEnforceDeniesEmptyArguments(t *testing.T) {
	engine, _ := newTestEngine(t, grant("teacher", "employee", "view"))

	assert.False(t, mustEnforce(t, engine, "", "employee", "view"))
	assert.False(t, mustEnforce(t, engine, "teacher", "", "view"))
	assert.False(t, mustEnforce(t, engine, "teacher", "employee", ""))
}

// ============================================================================
// Mutation
// ============================================================================

func TestAddPolicyPersistsBeforeAllowing(t *testing.T) {
	engine, store := newTestEngine(t)

	added, err := engine.AddPolicy("teacher", "notice", "add")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, store.contains(grant("teacher", "notice", "add")))
	assert.True(t, mustEnforce(t, engine, "teacher", "notice", "add"))

	added, err = engine.AddPolicy("teacher", "notice", "add")
	require.NoError(t, err)
	assert.False(t, added, "duplicate grant is a no-op")
}

func TestAddPolicyRejectsEmptyFields(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name                   string
		role, resource, action string
	}{
		{"empty role", "", "notice", "add"},
		{"empty resource", "teacher", "", "add"},
		{"empty action", "teacher", "notice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.AddPolicy(tt.role, tt.resource, tt.action)
			assert.ErrorIs(t, err, ErrInvalidPolicy)

			_, err = engine.RemovePolicy(tt.role, tt.resource, tt.action)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}

func TestAddPolicyStoreFailureLeavesModelUnchanged(t *testing.T) {
	engine, store := newTestEngine(t)
	store.failOps["insert"] = true

	added, err := engine.AddPolicy("teacher", "notice", "add")

	require.Error(t, err)
	assert.False(t, added)
	assert.False(t, mustEnforce(t, engine, "teacher", "notice", "add"))
}

func TestRemovePolicyRevokesImmediately(t *testing.T) {
	engine, store := newTestEngine(t, grant("teacher", "employee", "view"))
	require.True(t, mustEnforce(t, engine, "teacher", "employee", "view"))

	removed, err := engine.RemovePolicy("teacher", "employee", "view")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, mustEnforce(t, engine, "teacher", "employee", "view"))
	assert.False(t, store.contains(grant("teacher", "employee", "view")))

	removed, err = engine.RemovePolicy("teacher", "employee", "view")
	require.NoError(t, err)
	assert.False(t, removed, "removing a missing grant is a no-op")
}

func TestRoleLinks(t *testing.T) {
	engine, store := newTestEngine(t, grant("teacher", "leave", "list"))

	added, err := engine.AddRoleLink("principal", "teacher")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, store.contains(link("principal", "teacher")))
	assert.True(t, mustEnforce(t, engine, "principal", "leave", "list"))

	links, err := engine.GetRoleLinks()
	require.NoError(t, err)
	assert.Equal(t, []policy.Link{{Child: "principal", Parent: "teacher"}}, links)

	roles, err := engine.GetAllNamedRoles()
	require.NoError(t, err)
	assert.Contains(t, roles, "teacher")

	removed, err := engine.RemoveRoleLink("principal", "teacher")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, mustEnforce(t, engine, "principal", "leave", "list"))
}

func TestRoleLinkValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.AddRoleLink("admin", "admin")
	assert.ErrorIs(t, err, ErrInvalidRoleLink)

	_, err = engine.AddRoleLink("", "teacher")
	assert.ErrorIs(t, err, ErrInvalidRoleLink)
}

func TestAddRoleLinkDuplicateIsNoop(t *testing.T) {
	engine, store := newTestEngine(t, link("principal", "teacher"))
	store.failOps["insert"] = true

	added, err := engine.AddRoleLink("principal", "teacher")
	require.NoError(t, err, "an existing link never reaches the store")
	assert.False(t, added)

	removed, err := engine.RemoveRoleLink("admin", "teacher")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddRoleLinkRejectsCycles(t *testing.T) {
	engine, store := newTestEngine(t,
		link("principal", "teacher"),
		link("admin", "principal"),
	)

	_, err := engine.AddRoleLink("teacher", "admin")
	assert.ErrorIs(t, err, ErrRoleLinkCycle)
	_, err = engine.AddRoleLink("teacher", "principal")
	assert.ErrorIs(t, err, ErrRoleLinkCycle)
	assert.Len(t, store.snapshot(), 2)

	added, err := engine.AddRoleLink("admin", "teacher")
	require.NoError(t, err, "a shortcut to an existing ancestor is not a cycle")
	assert.True(t, added)
}

func TestOppositeLinksRacingCannotBothLand(t *testing.T) {
	for i := 0; i < 20; i++ {
		engine, _ := newTestEngine(t)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		pairs := [][2]string{{"teacher", "principal"}, {"principal", "teacher"}}
		for j, p := range pairs {
			wg.Add(1)
			go func(j int, child, parent string) {
				defer wg.Done()
				_, errs[j] = engine.AddRoleLink(child, parent)
			}(j, p[0], p[1])
		}
		wg.Wait()

		links, err := engine.GetRoleLinks()
		require.NoError(t, err)
		require.Len(t, links, 1)

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, ErrRoleLinkCycle)
				failed++
			}
		}
		assert.Equal(t, 1, failed)
	}
}

func TestInherits(t *testing.T) {
	links := []policy.Link{
		{Child: "principal", Parent: "teacher"},
		{Child: "admin", Parent: "principal"},
		{Child: "admin", Parent: "accountant"},
	}

	assert.True(t, Inherits(links, "admin", "teacher"))
	assert.True(t, Inherits(links, "admin", "admin"))
	assert.False(t, Inherits(links, "teacher", "admin"))
	assert.False(t, Inherits(links, "accountant", "principal"))
}

// ============================================================================
// Change notification
// ============================================================================

type stubWatcher struct {
	mu      sync.Mutex
	updates int
	err     error
}

func (w *stubWatcher) SetUpdateCallback(func(string)) error { return nil }

func (w *stubWatcher) Update() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates++
	return w.err
}

func (w *stubWatcher) Close() {}

func (w *stubWatcher) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updates
}

func TestOnlyRealChangesNotifyWatcher(t *testing.T) {
	watcher := &stubWatcher{}
	engine, err := NewEngine(newMemoryStore(), Options{Watcher: watcher})
	require.NoError(t, err)

	_, err = engine.AddPolicy("teacher", "notice", "view")
	require.NoError(t, err)
	_, err = engine.AddPolicy("teacher", "notice", "view")
	require.NoError(t, err)
	_, err = engine.AddRoleLink("principal", "teacher")
	require.NoError(t, err)
	_, err = engine.AddRoleLink("principal", "teacher")
	require.NoError(t, err)
	_, err = engine.RemovePolicy("student", "notice", "view")
	require.NoError(t, err)

	assert.Equal(t, 2, watcher.count())
}

func TestMutationSucceedsWhenPublishFails(t *testing.T) {
	watcher := &stubWatcher{err: errors.New("redis down")}
	store := newMemoryStore()
	engine, err := NewEngine(store, Options{Watcher: watcher})
	require.NoError(t, err)

	added, err := engine.AddPolicy("teacher", "notice", "view")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, store.contains(grant("teacher", "notice", "view")))

	added, err = engine.AddRoleLink("principal", "teacher")
	require.NoError(t, err)
	assert.True(t, added)

	require.NoError(t, engine.RenameRole(context.Background(), "teacher", "faculty"))
	assert.True(t, mustEnforce(t, engine, "principal", "notice", "view"))
	assert.Equal(t, 3, watcher.count())
}

// ============================================================================
// Views
// ============================================================================

func TestGetAllPoliciesOnlyReturnsActiveGrants(t *testing.T) {
	engine, _ := newTestEngine(t,
		grant("teacher", "employee", "view"),
		grant("accountant", "payroll", "list"),
	)

	policies, err := engine.GetAllPolicies()
	require.NoError(t, err)
	assert.Len(t, policies, 2)

	for _, p := range policies {
		assert.True(t, mustEnforce(t, engine, p.Role, p.Resource, p.Action), "%+v must enforce", p)
	}
}

func TestPermissionsForRoleIncludesInherited(t *testing.T) {
	engine, _ := newTestEngine(t,
		grant("teacher", "student", "view"),
		grant("principal", "notice", "add"),
		link("principal", "teacher"),
	)

	perms, err := engine.PermissionsForRole("principal")
	require.NoError(t, err)
	assert.ElementsMatch(t, []policy.Grant{
		{Role: "principal", Resource: "notice", Action: "add"},
		{Role: "teacher", Resource: "student", Action: "view"},
	}, perms)
}

// ============================================================================
// Bulk operations
// ============================================================================

func TestReloadPicksUpExternalChanges(t *testing.T) {
	engine, store := newTestEngine(t)

	require.NoError(t, store.Insert(context.Background(), grant("teacher", "notice", "list")))
	assert.False(t, mustEnforce(t, engine, "teacher", "notice", "list"))

	require.NoError(t, engine.Reload())
	assert.True(t, mustEnforce(t, engine, "teacher", "notice", "list"))
}

func TestReplaceAll(t *testing.T) {
	engine, store := newTestEngine(t, grant("teacher", "employee", "view"))

	err := engine.ReplaceAll(context.Background(), []policy.Rule{
		grant("accountant", "fees-collection", "add"),
		link("admin", "accountant"),
	})
	require.NoError(t, err)

	assert.False(t, mustEnforce(t, engine, "teacher", "employee", "view"))
	assert.True(t, mustEnforce(t, engine, "admin", "fees-collection", "add"))
	assert.Len(t, store.snapshot(), 2)
}

func TestReplaceAllRejectsInvalidRulesWithoutTouchingStore(t *testing.T) {
	engine, store := newTestEngine(t, grant("teacher", "employee", "view"))

	err := engine.ReplaceAll(context.Background(), []policy.Rule{
		grant("accountant", "payroll", "list"),
		policy.NewRule("p", "accountant", "payroll"),
	})

	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.True(t, store.contains(grant("teacher", "employee", "view")))
	assert.True(t, mustEnforce(t, engine, "teacher", "employee", "view"))
}

func TestReplaceAllStoreFailureKeepsModel(t *testing.T) {
	engine, store := newTestEngine(t, grant("teacher", "employee", "view"))
	store.failOps["replace"] = true

	err := engine.ReplaceAll(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, mustEnforce(t, engine, "teacher", "employee", "view"))
}

func TestRemoveRole(t *testing.T) {
	engine, store := newTestEngine(t,
		grant("teacher", "student", "view"),
		grant("accountant", "payroll", "list"),
		link("principal", "teacher"),
		link("teacher", "staff"),
	)

	removed, err := engine.RemoveRole(context.Background(), "teacher")
	require.NoError(t, err)
	assert.ElementsMatch(t, []policy.Rule{
		grant("teacher", "student", "view"),
		link("principal", "teacher"),
		link("teacher", "staff"),
	}, removed)

	assert.False(t, mustEnforce(t, engine, "principal", "student", "view"))
	assert.True(t, mustEnforce(t, engine, "accountant", "payroll", "list"))
	assert.Equal(t, []policy.Rule{grant("accountant", "payroll", "list")}, withoutIDs(store.snapshot()))
}

func TestRestoreRulesUndoesRemoveRole(t *testing.T) {
	engine, store := newTestEngine(t,
		grant("teacher", "student", "view"),
		grant("accountant", "payroll", "list"),
		link("principal", "teacher"),
	)
	ctx := context.Background()

	removed, err := engine.RemoveRole(ctx, "teacher")
	require.NoError(t, err)
	require.NoError(t, engine.RestoreRules(ctx, removed))

	assert.True(t, mustEnforce(t, engine, "principal", "student", "view"))
	assert.Len(t, store.snapshot(), 3)

	require.NoError(t, engine.RestoreRules(ctx, removed), "restoring twice keeps one copy")
	assert.Len(t, store.snapshot(), 3)
}

func TestRemoveRoleWithoutRulesLeavesStoreUntouched(t *testing.T) {
	engine, store := newTestEngine(t, grant("accountant", "payroll", "list"))
	store.failOps["replace"] = true

	removed, err := engine.RemoveRole(context.Background(), "janitor")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRenameRole(t *testing.T) {
	engine, _ := newTestEngine(t,
		grant("teacher", "student", "view"),
		link("principal", "teacher"),
	)

	require.NoError(t, engine.RenameRole(context.Background(), "teacher", "lecturer"))

	assert.True(t, mustEnforce(t, engine, "lecturer", "student", "view"))
	assert.False(t, mustEnforce(t, engine, "teacher", "student", "view"))
	assert.True(t, mustEnforce(t, engine, "principal", "student", "view"))
}

func TestRenameRoleDropsSelfLinks(t *testing.T) {
	engine, _ := newTestEngine(t, link("teacher", "lecturer"))

	require.NoError(t, engine.RenameRole(context.Background(), "teacher", "lecturer"))

	links, err := engine.GetRoleLinks()
	require.NoError(t, err)
	assert.Empty(t, links)
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentEnforceDuringMutation(t *testing.T) {
	engine, _ := newTestEngine(t, grant("teacher", "employee", "view"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				allowed, err := engine.Enforce("teacher", "employee", "view")
				assert.NoError(t, err)
				assert.True(t, allowed)
			}
		}()
	}

	for j := 0; j < 50; j++ {
		_, err := engine.AddPolicy("teacher", "notice", "view")
		require.NoError(t, err)
		_, err = engine.RemovePolicy("teacher", "notice", "view")
		require.NoError(t, err)
	}

	wg.Wait()
}

func withoutIDs(rules []policy.Rule) []policy.Rule {
	for i := range rules {
		rules[i].ID = 0
	}
	return rules
}
