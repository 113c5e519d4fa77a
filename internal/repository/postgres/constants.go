package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	policyTable = "casbin_rule"

	errRoleNotFound   = "role not found"
	errRoleNameExists = "role with this name already exists"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"
	errFailedApplySchemaFmt          = "failed to apply schema: %w"

	errFailedStartTransactionFmt  = "failed to start transaction: %w"
	errFailedCommitTransactionFmt = "failed to commit transaction: %w"

	errFailedLoadPoliciesFmt           = "failed to load policies: %w"
	errFailedScanPolicyFmt             = "failed to scan policy: %w"
	errIteratePoliciesFmt              = "error iterating policies: %w"
	errFailedInsertPolicyFmt           = "failed to insert policy: %w"
	errFailedRemovePolicyFmt           = "failed to remove policy: %w"
	errFailedRemoveFilteredPoliciesFmt = "failed to remove filtered policies: %w"
	errFailedClearPoliciesFmt          = "failed to clear policies: %w"
	errFailedCopyPoliciesFmt           = "failed to bulk insert policies: %w"

	errFailedCreateRoleFmt = "failed to create role: %w"
	errFailedGetRoleFmt    = "failed to get role: %w"
	errFailedListRolesFmt  = "failed to list roles: %w"
	errFailedScanRoleFmt   = "failed to scan role: %w"
	errIterateRolesFmt     = "error iterating roles: %w"
	errFailedUpdateRoleFmt = "failed to update role: %w"
	errFailedDeleteRoleFmt = "failed to delete role: %w"
	errFailedUpsertRoleFmt = "failed to upsert role: %w"
)

var (
	errFailedApplySchema            = func(err error) error { return fmt.Errorf(errFailedApplySchemaFmt, err) }
	errFailedClearPolicies          = func(err error) error { return fmt.Errorf(errFailedClearPoliciesFmt, err) }
	errFailedCommitTransaction      = func(err error) error { return fmt.Errorf(errFailedCommitTransactionFmt, err) }
	errFailedCopyPolicies           = func(err error) error { return fmt.Errorf(errFailedCopyPoliciesFmt, err) }
	errFailedCreateConnectionPool   = func(err error) error { return fmt.Errorf(errFailedCreateConnectionPoolFmt, err) }
	errFailedCreateRole             = func(err error) error { return fmt.Errorf(errFailedCreateRoleFmt, err) }
	errFailedDeleteRole             = func(err error) error { return fmt.Errorf(errFailedDeleteRoleFmt, err) }
	errFailedGetRole                = func(err error) error { return fmt.Errorf(errFailedGetRoleFmt, err) }
	errFailedInsertPolicy           = func(err error) error { return fmt.Errorf(errFailedInsertPolicyFmt, err) }
	errFailedListRoles              = func(err error) error { return fmt.Errorf(errFailedListRolesFmt, err) }
	errFailedLoadPolicies           = func(err error) error { return fmt.Errorf(errFailedLoadPoliciesFmt, err) }
	errFailedParseDatabaseConfig    = func(err error) error { return fmt.Errorf(errFailedParseDatabaseConfigFmt, err) }
	errFailedPingDatabase           = func(err error) error { return fmt.Errorf(errFailedPingDatabaseFmt, err) }
	errFailedRemoveFilteredPolicies = func(err error) error { return fmt.Errorf(errFailedRemoveFilteredPoliciesFmt, err) }
	errFailedRemovePolicy           = func(err error) error { return fmt.Errorf(errFailedRemovePolicyFmt, err) }
	errFailedScanPolicy             = func(err error) error { return fmt.Errorf(errFailedScanPolicyFmt, err) }
	errFailedScanRole               = func(err error) error { return fmt.Errorf(errFailedScanRoleFmt, err) }
	errFailedStartTransaction       = func(err error) error { return fmt.Errorf(errFailedStartTransactionFmt, err) }
	errFailedUpdateRole             = func(err error) error { return fmt.Errorf(errFailedUpdateRoleFmt, err) }
	errFailedUpsertRole             = func(err error) error { return fmt.Errorf(errFailedUpsertRoleFmt, err) }
	errIteratePolicies              = func(err error) error { return fmt.Errorf(errIteratePoliciesFmt, err) }
	errIterateRoles                 = func(err error) error { return fmt.Errorf(errIterateRolesFmt, err) }
)
