// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice

import (
	"storj.io/tracmeta/metadata"
)

// VersionValidator approves or rejects a definition change between two
// consecutive object versions. Implementations hold the domain rules the
// catalogue itself stays agnostic of, schema compatibility for example.
type VersionValidator interface {
	Validate(prior, next *metadata.ObjectDefinition) error
}

// ValidatorFunc adapts a plain function to the VersionValidator interface.
type ValidatorFunc func(prior, next *metadata.ObjectDefinition) error

// Validate implements VersionValidator.
func (fn ValidatorFunc) Validate(prior, next *metadata.ObjectDefinition) error {
	return fn(prior, next)
}
