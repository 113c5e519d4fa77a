package memory

import (
	"context"
	"testing"

	"institute-service/internal/domain/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grant(role, resource, action string) policy.Rule {
	return policy.Grant{Role: role, Resource: resource, Action: action}.Rule()
}

func TestPolicyRepositoryIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewPolicyRepository(grant("teacher", "employee", "view"))

	require.NoError(t, repo.Insert(ctx, grant("teacher", "employee", "view")))
	require.NoError(t, repo.InsertBatch(ctx, []policy.Rule{
		grant("teacher", "employee", "list"),
		grant("teacher", "employee", "list"),
	}))

	rules, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, int64(1), rules[0].ID)
	assert.Equal(t, int64(2), rules[1].ID)
}

func TestPolicyRepositoryRemoveFiltered(t *testing.T) {
	ctx := context.Background()
	repo := NewPolicyRepository(
		grant("teacher", "employee", "view"),
		grant("teacher", "notice", "view"),
		grant("student", "notice", "view"),
		policy.Link{Child: "principal", Parent: "teacher"}.Rule(),
	)

	require.NoError(t, repo.RemoveFiltered(ctx, policy.NewFilter(policy.TypePermission, 0, "teacher")))

	rules, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, grant("student", "notice", "view").V, rules[0].V)
	assert.Equal(t, policy.TypeRoleLink, rules[1].PType)
}

func TestPolicyRepositoryReplaceAllAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewPolicyRepository(grant("teacher", "employee", "view"))

	require.NoError(t, repo.ReplaceAll(ctx, []policy.Rule{grant("admin", "role", "add")}))
	rules, _ := repo.LoadAll(ctx)
	require.Len(t, rules, 1)
	assert.Equal(t, "admin", rules[0].V[0])

	require.NoError(t, repo.Remove(ctx, grant("missing", "x", "y")))
	require.NoError(t, repo.Clear(ctx))
	rules, _ = repo.LoadAll(ctx)
	assert.Empty(t, rules)
}
