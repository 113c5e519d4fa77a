package config

import (
	"errors"
	"fmt"
)

const (
	errRequiredEnvNotSetFmt = "required environment variable %s is not set"
)

type messageBuilders struct {
	requiredEnvNotSet  func(string) string
	requiredEnvMissing func(string) error
}

func newMessageBuilders() messageBuilders {
	return messageBuilders{
		requiredEnvNotSet: func(key string) string {
			return fmt.Sprintf(errRequiredEnvNotSetFmt, key)
		},
		requiredEnvMissing: func(key string) error {
			return errors.New(fmt.Sprintf(errRequiredEnvNotSetFmt, key))
		},
	}
}

var messages = newMessageBuilders()
