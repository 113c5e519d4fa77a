package authz

import (
	"context"
	"institute-service/internal/domain/policy"
	"institute-service/internal/repository"
	"log"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/persist"
)

type Options struct {
	// StoreTimeout bounds each policy store call made by the enforcer.
	StoreTimeout time.Duration
	// Watcher, when set, is notified after every mutation and triggers a
	// reload when another instance publishes a change.
	Watcher persist.Watcher
}

// Engine owns the process-wide policy model. Enforce calls run concurrently
// under the enforcer's read lock; mutations are serialized by mu and reach the
// store before the in-memory model.
type Engine struct {
	enforcer *casbin.SyncedEnforcer
	store    repository.PolicyRepository
	watcher  persist.Watcher

	mu sync.Mutex
}

// NewEngine builds the model and loads every stored rule. A store failure
// fails construction so the process never serves an empty model.
func NewEngine(store repository.PolicyRepository, opts Options) (*Engine, error) {
	m, err := newModel()
	if err != nil {
		return nil, errFailedBuildModel(err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, NewAdapter(store, opts.StoreTimeout))
	if err != nil {
		return nil, errFailedLoadPolicies(err)
	}

	e := &Engine{
		enforcer: enforcer,
		store:    store,
		watcher:  opts.Watcher,
	}

	if opts.Watcher != nil {
		if err := enforcer.SetWatcher(opts.Watcher); err != nil {
			return nil, errFailedAttachWatcher(err)
		}
		// Updates are published by the engine after a real change only.
		enforcer.EnableAutoNotifyWatcher(false)
		if err := opts.Watcher.SetUpdateCallback(e.handleRemoteUpdate); err != nil {
			return nil, errFailedAttachWatcher(err)
		}
	}

	return e, nil
}

// Enforce reports whether subject may perform action on resource. Any empty
// argument is denied without consulting the model.
func (e *Engine) Enforce(subject, resource, action string) (bool, error) {
	if subject == "" || resource == "" || action == "" {
		return false, nil
	}

	allowed, err := e.enforcer.Enforce(subject, resource, action)
	if err != nil {
		return false, errFailedEnforce(err)
	}
	return allowed, nil
}

// AddPolicy reports false without touching the store when the grant already
// exists.
func (e *Engine) AddPolicy(role, resource, action string) (bool, error) {
	if role == "" || resource == "" || action == "" {
		return false, ErrInvalidPolicy
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.enforcer.HasPolicy(role, resource, action)
	if err != nil {
		return false, errFailedReadPolicies(err)
	}
	if exists {
		return false, nil
	}

	added, err := e.enforcer.AddPolicy(role, resource, action)
	if err != nil {
		return false, errFailedAddPolicy(err)
	}
	if added {
		e.notifyLocked()
	}
	return added, nil
}

func (e *Engine) RemovePolicy(role, resource, action string) (bool, error) {
	if role == "" || resource == "" || action == "" {
		return false, ErrInvalidPolicy
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.enforcer.HasPolicy(role, resource, action)
	if err != nil {
		return false, errFailedReadPolicies(err)
	}
	if !exists {
		return false, nil
	}

	removed, err := e.enforcer.RemovePolicy(role, resource, action)
	if err != nil {
		return false, errFailedRemovePolicy(err)
	}
	if removed {
		e.notifyLocked()
	}
	return removed, nil
}

// AddRoleLink makes child inherit every permission granted to parent. A link
// that would let parent inherit from child is rejected with ErrRoleLinkCycle.
// The check and the write happen under the mutation lock.
func (e *Engine) AddRoleLink(child, parent string) (bool, error) {
	if child == "" || parent == "" || child == parent {
		return false, ErrInvalidRoleLink
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.enforcer.HasGroupingPolicy(child, parent)
	if err != nil {
		return false, errFailedReadPolicies(err)
	}
	if exists {
		return false, nil
	}

	links, err := e.enforcer.GetGroupingPolicy()
	if err != nil {
		return false, errFailedReadPolicies(err)
	}
	if Inherits(toLinks(links), parent, child) {
		return false, ErrRoleLinkCycle
	}

	added, err := e.enforcer.AddGroupingPolicy(child, parent)
	if err != nil {
		return false, errFailedAddLink(err)
	}
	if added {
		e.notifyLocked()
	}
	return added, nil
}

func (e *Engine) RemoveRoleLink(child, parent string) (bool, error) {
	if child == "" || parent == "" || child == parent {
		return false, ErrInvalidRoleLink
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.enforcer.HasGroupingPolicy(child, parent)
	if err != nil {
		return false, errFailedReadPolicies(err)
	}
	if !exists {
		return false, nil
	}

	removed, err := e.enforcer.RemoveGroupingPolicy(child, parent)
	if err != nil {
		return false, errFailedRemoveLink(err)
	}
	if removed {
		e.notifyLocked()
	}
	return removed, nil
}

// GetAllPolicies returns the permission tuples that currently enforce as
// allowed. A raw tuple that no longer re-validates is left out.
func (e *Engine) GetAllPolicies() ([]policy.Grant, error) {
	grants, err := e.GetPolicy()
	if err != nil {
		return nil, err
	}

	active := make([]policy.Grant, 0, len(grants))
	for _, g := range grants {
		allowed, err := e.Enforce(g.Role, g.Resource, g.Action)
		if err != nil {
			return nil, err
		}
		if allowed {
			active = append(active, g)
		}
	}
	return active, nil
}

// GetPolicy returns every permission tuple in the model, unfiltered.
func (e *Engine) GetPolicy() ([]policy.Grant, error) {
	rules, err := e.enforcer.GetPolicy()
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}
	return toGrants(rules), nil
}

func (e *Engine) GetRoleLinks() ([]policy.Link, error) {
	rules, err := e.enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}

	return toLinks(rules), nil
}

// GetAllNamedRoles lists roles that appear as a parent in some link.
func (e *Engine) GetAllNamedRoles() ([]string, error) {
	roles, err := e.enforcer.GetAllNamedRoles(sectionRole)
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}
	return roles, nil
}

// PermissionsForRole returns direct and inherited grants for role.
func (e *Engine) PermissionsForRole(role string) ([]policy.Grant, error) {
	rules, err := e.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}
	return toGrants(rules), nil
}

// Reload rebuilds the model from the store and swaps it in atomically.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enforcer.LoadPolicy(); err != nil {
		return errFailedLoadPolicies(err)
	}
	return nil
}

// ReplaceAll rewrites the whole rule set in one store transaction, then
// reloads. Rules are validated first so a bad seed never reaches the store.
func (e *Engine) ReplaceAll(ctx context.Context, rules []policy.Rule) error {
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.replaceLocked(ctx, rules)
}

// RemoveRole drops every grant held by role and every link that mentions it.
// The dropped rules are returned so a caller can put them back with
// RestoreRules when a later step fails.
func (e *Engine) RemoveRole(ctx context.Context, role string) ([]policy.Rule, error) {
	if role == "" {
		return nil, ErrInvalidPolicy
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rules, err := e.snapshotLocked()
	if err != nil {
		return nil, err
	}

	var kept, removed []policy.Rule
	for _, r := range rules {
		if mentionsSubject(r, role) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if err := e.replaceLocked(ctx, kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// RestoreRules adds rules back on top of the current set in one store
// transaction. Rules already present are kept once.
func (e *Engine) RestoreRules(ctx context.Context, rules []policy.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.snapshotLocked()
	if err != nil {
		return err
	}

	return e.replaceLocked(ctx, append(current, rules...))
}

// RenameRole moves every grant and link from oldName to newName atomically.
func (e *Engine) RenameRole(ctx context.Context, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return ErrInvalidPolicy
	}
	if oldName == newName {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rules, err := e.snapshotLocked()
	if err != nil {
		return err
	}

	renamed := make([]policy.Rule, 0, len(rules))
	for _, r := range rules {
		r = renameSubject(r, oldName, newName)
		if r.PType == policy.TypeRoleLink && r.V[0] == r.V[1] {
			continue
		}
		renamed = append(renamed, r)
	}

	return e.replaceLocked(ctx, renamed)
}

func (e *Engine) Close() {
	if e.watcher != nil {
		e.watcher.Close()
	}
}

func (e *Engine) snapshotLocked() ([]policy.Rule, error) {
	grants, err := e.enforcer.GetPolicy()
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}
	links, err := e.enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, errFailedReadPolicies(err)
	}

	rules := toRules(policy.TypePermission, grants)
	return append(rules, toRules(policy.TypeRoleLink, links)...), nil
}

func (e *Engine) replaceLocked(ctx context.Context, rules []policy.Rule) error {
	if err := e.store.ReplaceAll(ctx, rules); err != nil {
		return errFailedReplace(err)
	}

	if err := e.enforcer.LoadPolicy(); err != nil {
		return errFailedLoadPolicies(err)
	}

	e.notifyLocked()
	return nil
}

// notifyLocked tells other instances to reload. The change is already durable
// and applied locally, so a publish failure only delays their reload until the
// next successful update or restart.
func (e *Engine) notifyLocked() {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Update(); err != nil {
		log.Printf("authz: %v", errFailedNotify(err))
	}
}

func (e *Engine) handleRemoteUpdate(source string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enforcer.LoadPolicy(); err != nil {
		log.Printf("authz: reload after update from %s failed: %v", source, err)
		return
	}
	log.Printf("authz: reloaded policies after update from %s", source)
}

// mentionsSubject reports whether a rule grants to or links the role.
func mentionsSubject(r policy.Rule, role string) bool {
	switch r.PType {
	case policy.TypePermission:
		return r.V[0] == role
	case policy.TypeRoleLink:
		return r.V[0] == role || r.V[1] == role
	}
	return false
}

func renameSubject(r policy.Rule, oldName, newName string) policy.Rule {
	switch r.PType {
	case policy.TypePermission:
		if r.V[0] == oldName {
			r.V[0] = newName
		}
	case policy.TypeRoleLink:
		if r.V[0] == oldName {
			r.V[0] = newName
		}
		if r.V[1] == oldName {
			r.V[1] = newName
		}
	}
	return r
}

func toGrants(rules [][]string) []policy.Grant {
	grants := make([]policy.Grant, 0, len(rules))
	for _, r := range rules {
		if len(r) < permissionFields {
			continue
		}
		grants = append(grants, policy.Grant{Role: r[0], Resource: r[1], Action: r[2]})
	}
	return grants
}

func toLinks(rules [][]string) []policy.Link {
	links := make([]policy.Link, 0, len(rules))
	for _, r := range rules {
		if len(r) < linkFields {
			continue
		}
		links = append(links, policy.Link{Child: r[0], Parent: r[1]})
	}
	return links
}

// Inherits reports whether child reaches ancestor through links. A role
// always reaches itself.
func Inherits(links []policy.Link, child, ancestor string) bool {
	parents := make(map[string][]string, len(links))
	for _, l := range links {
		parents[l.Child] = append(parents[l.Child], l.Parent)
	}

	seen := map[string]bool{child: true}
	queue := []string{child}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == ancestor {
			return true
		}
		for _, p := range parents[current] {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}
