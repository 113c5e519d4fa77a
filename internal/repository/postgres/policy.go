package postgres

import (
	"context"
	"fmt"
	"institute-service/internal/domain/policy"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ruleColumns is the only source of column names in generated SQL.
var ruleColumns = [policy.FieldCount]string{"v0", "v1", "v2", "v3", "v4", "v5", "v6"}

var copyColumns = []string{"ptype", "v0", "v1", "v2", "v3", "v4", "v5", "v6"}

const (
	selectRulesQuery = `
		SELECT id, ptype, v0, v1, v2, v3, v4, v5, v6
		FROM casbin_rule
		ORDER BY id
	`

	insertRuleQuery = `
		INSERT INTO casbin_rule (ptype, v0, v1, v2, v3, v4, v5, v6)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`

	deleteRuleQuery = `
		DELETE FROM casbin_rule
		WHERE ptype = $1 AND v0 = $2 AND v1 = $3 AND v2 = $4
		  AND v3 = $5 AND v4 = $6 AND v5 = $7 AND v6 = $8
	`

	clearRulesQuery = `DELETE FROM casbin_rule`
)

type PolicyRepository struct {
	db *DB
}

func NewPolicyRepository(db *DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) LoadAll(ctx context.Context) ([]policy.Rule, error) {
	rows, err := r.db.Pool.Query(ctx, selectRulesQuery)
	if err != nil {
		return nil, errFailedLoadPolicies(err)
	}
	defer rows.Close()

	var rules []policy.Rule
	for rows.Next() {
		var rule policy.Rule
		if err := rows.Scan(
			&rule.ID,
			&rule.PType,
			&rule.V[0],
			&rule.V[1],
			&rule.V[2],
			&rule.V[3],
			&rule.V[4],
			&rule.V[5],
			&rule.V[6],
		); err != nil {
			return nil, errFailedScanPolicy(err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, errIteratePolicies(err)
	}

	return rules, nil
}

// Insert is idempotent: an existing identical tuple is left untouched.
func (r *PolicyRepository) Insert(ctx context.Context, rule policy.Rule) error {
	if _, err := r.db.Pool.Exec(ctx, insertRuleQuery, ruleArgs(rule)...); err != nil {
		return errFailedInsertPolicy(err)
	}
	return nil
}

func (r *PolicyRepository) InsertBatch(ctx context.Context, rules []policy.Rule) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rule := range rules {
			batch.Queue(insertRuleQuery, ruleArgs(rule)...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errFailedInsertPolicy(err)
		}
		return nil
	})
}

// Remove deletes one exact tuple. Removing a missing tuple is not an error.
func (r *PolicyRepository) Remove(ctx context.Context, rule policy.Rule) error {
	if _, err := r.db.Pool.Exec(ctx, deleteRuleQuery, ruleArgs(rule)...); err != nil {
		return errFailedRemovePolicy(err)
	}
	return nil
}

func (r *PolicyRepository) RemoveBatch(ctx context.Context, rules []policy.Rule) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rule := range rules {
			batch.Queue(deleteRuleQuery, ruleArgs(rule)...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errFailedRemovePolicy(err)
		}
		return nil
	})
}

func (r *PolicyRepository) RemoveFiltered(ctx context.Context, filter policy.Filter) error {
	query, args := buildFilteredDelete(filter)
	if _, err := r.db.Pool.Exec(ctx, query, args...); err != nil {
		return errFailedRemoveFilteredPolicies(err)
	}
	return nil
}

func (r *PolicyRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, clearRulesQuery); err != nil {
		return errFailedClearPolicies(err)
	}
	return nil
}

// ReplaceAll swaps the whole rule set atomically. Duplicate input rules are
// collapsed before the bulk copy.
func (r *PolicyRepository) ReplaceAll(ctx context.Context, rules []policy.Rule) error {
	rows := dedupeRows(rules)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, clearRulesQuery); err != nil {
			return errFailedClearPolicies(err)
		}

		if len(rows) == 0 {
			return nil
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{policyTable}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
			return errFailedCopyPolicies(err)
		}
		return nil
	})
}

func (r *PolicyRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return errFailedStartTransaction(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errFailedCommitTransaction(err)
	}

	return nil
}

func ruleArgs(rule policy.Rule) []any {
	args := make([]any, 0, policy.FieldCount+1)
	args = append(args, rule.PType)
	for _, v := range rule.V {
		args = append(args, v)
	}
	return args
}

func dedupeRows(rules []policy.Rule) [][]any {
	seen := make(map[[policy.FieldCount + 1]string]bool, len(rules))
	rows := make([][]any, 0, len(rules))
	for _, rule := range rules {
		var key [policy.FieldCount + 1]string
		key[0] = rule.PType
		copy(key[1:], rule.V[:])
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, ruleArgs(rule))
	}
	return rows
}

// buildFilteredDelete renders a DELETE over the fixed column list. Only
// placeholder numbers vary; values are always bound parameters.
func buildFilteredDelete(filter policy.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM casbin_rule WHERE ptype = $1")

	args := []any{filter.PType}
	for i, c := range filter.Criteria {
		if !c.Set {
			continue
		}
		args = append(args, c.Value)
		fmt.Fprintf(&sb, " AND %s = $%d", ruleColumns[i], len(args))
	}

	return sb.String(), args
}
