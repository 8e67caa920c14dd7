package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validatorInst *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// Validate checks cfg against its struct tags (required/oneof/gt/... on the
// fields declared in config.go) plus maidnode-specific cross-field rules
// not expressible as a single struct tag.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}
	return validateRouting(cfg.Routing)
}

func validateRouting(r RoutingConfig) error {
	for name, d := range r.OperationTimeouts {
		if d <= 0 {
			return fmt.Errorf("routing.operation_timeouts[%s]: must be positive, got %s", name, d)
		}
	}
	if _, err := r.WireMapping(); err != nil {
		return fmt.Errorf("routing wire mapping: %w", err)
	}
	return nil
}
