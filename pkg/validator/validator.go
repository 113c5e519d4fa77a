package validator

import (
	"fmt"
	"regexp"
)

const (
	maxRoleNameLen    = 64
	maxResourceLen    = 64
	maxActionLen      = 64
	maxDescriptionLen = 255
	asciiControlStart = 32
	asciiDelete       = 127

	errRoleNameEmptyFmt        = "role name cannot be empty"
	errRoleNameMaxLengthFmt    = "role name must not exceed %d characters"
	errRoleNameInvalidFmt      = "role name must be lowercase letters, digits, '-' or '_'"
	errResourceEmptyFmt        = "resource cannot be empty"
	errResourceMaxLengthFmt    = "resource must not exceed %d characters"
	errResourceInvalidFmt      = "resource must be lowercase letters, digits, '-' or '_'"
	errActionEmptyFmt          = "action cannot be empty"
	errActionMaxLengthFmt      = "action must not exceed %d characters"
	errActionInvalidFmt        = "action must be lowercase letters, digits, '-', '_' or '/'"
	errDescriptionMaxLengthFmt = "description must not exceed %d characters"
	errDescriptionControlFmt   = "description cannot contain control characters"
)

var (
	slugRegex   = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
	actionRegex = regexp.MustCompile(`^[a-z0-9]+(?:[-_/][a-z0-9]+)*$`)
)

func RoleName(name string) error {
	if name == "" {
		return fmt.Errorf(errRoleNameEmptyFmt)
	}

	if len(name) > maxRoleNameLen {
		return fmt.Errorf(errRoleNameMaxLengthFmt, maxRoleNameLen)
	}

	if !slugRegex.MatchString(name) {
		return fmt.Errorf(errRoleNameInvalidFmt)
	}

	return nil
}

// Resource validates a module identifier such as "fees-group" or "staff_loan".
func Resource(resource string) error {
	if resource == "" {
		return fmt.Errorf(errResourceEmptyFmt)
	}

	if len(resource) > maxResourceLen {
		return fmt.Errorf(errResourceMaxLengthFmt, maxResourceLen)
	}

	if !slugRegex.MatchString(resource) {
		return fmt.Errorf(errResourceInvalidFmt)
	}

	return nil
}

// Action accepts canonical actions ("view") and unmapped sub-paths ("invoice/pdf").
func Action(action string) error {
	if action == "" {
		return fmt.Errorf(errActionEmptyFmt)
	}

	if len(action) > maxActionLen {
		return fmt.Errorf(errActionMaxLengthFmt, maxActionLen)
	}

	if !actionRegex.MatchString(action) {
		return fmt.Errorf(errActionInvalidFmt)
	}

	return nil
}

func Description(description string) error {
	if len(description) > maxDescriptionLen {
		return fmt.Errorf(errDescriptionMaxLengthFmt, maxDescriptionLen)
	}

	for _, char := range description {
		if char < asciiControlStart || char == asciiDelete {
			return fmt.Errorf(errDescriptionControlFmt)
		}
	}

	return nil
}
