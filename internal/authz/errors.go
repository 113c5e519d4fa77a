package authz

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPolicy   = errors.New("invalid policy: role, resource and action are required")
	ErrInvalidRoleLink = errors.New("invalid role link: child and parent must be distinct non-empty roles")
	ErrInvalidRule     = errors.New("invalid policy rule")
	ErrRoleLinkCycle   = errors.New("role link would create an inheritance cycle")
)

const (
	errFailedBuildModelFmt    = "failed to build authorization model: %w"
	errFailedLoadPoliciesFmt  = "failed to load policies: %w"
	errFailedAttachWatcherFmt = "failed to attach policy watcher: %w"
	errFailedAddPolicyFmt     = "failed to add policy: %w"
	errFailedRemovePolicyFmt  = "failed to remove policy: %w"
	errFailedAddLinkFmt       = "failed to add role link: %w"
	errFailedRemoveLinkFmt    = "failed to remove role link: %w"
	errFailedReadPoliciesFmt  = "failed to read policies: %w"
	errFailedEnforceFmt       = "failed to evaluate policy: %w"
	errFailedReplaceFmt       = "failed to replace policies: %w"
	errFailedNotifyFmt        = "failed to notify policy watcher: %w"
	errFailedSubscribeFmt     = "failed to subscribe to %s: %w"
	errFailedPublishFmt       = "failed to publish policy update: %w"
	errUnknownPolicyTypeFmt   = "%w: unknown policy type %q"
	errRuleFieldCountFmt      = "%w: %s rule needs %d non-empty fields, got %v"
)

var (
	errFailedBuildModel    = func(err error) error { return fmt.Errorf(errFailedBuildModelFmt, err) }
	errFailedLoadPolicies  = func(err error) error { return fmt.Errorf(errFailedLoadPoliciesFmt, err) }
	errFailedAttachWatcher = func(err error) error { return fmt.Errorf(errFailedAttachWatcherFmt, err) }
	errFailedAddPolicy     = func(err error) error { return fmt.Errorf(errFailedAddPolicyFmt, err) }
	errFailedRemovePolicy  = func(err error) error { return fmt.Errorf(errFailedRemovePolicyFmt, err) }
	errFailedAddLink       = func(err error) error { return fmt.Errorf(errFailedAddLinkFmt, err) }
	errFailedRemoveLink    = func(err error) error { return fmt.Errorf(errFailedRemoveLinkFmt, err) }
	errFailedReadPolicies  = func(err error) error { return fmt.Errorf(errFailedReadPoliciesFmt, err) }
	errFailedEnforce       = func(err error) error { return fmt.Errorf(errFailedEnforceFmt, err) }
	errFailedReplace       = func(err error) error { return fmt.Errorf(errFailedReplaceFmt, err) }
	errFailedNotify        = func(err error) error { return fmt.Errorf(errFailedNotifyFmt, err) }
	errFailedPublish       = func(err error) error { return fmt.Errorf(errFailedPublishFmt, err) }
)
