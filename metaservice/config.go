// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice

import (
	"storj.io/tracmeta/metadata"
)

// DefaultMaxPayloadSize caps encoded definition payloads when the deployment
// does not configure its own limit.
const DefaultMaxPayloadSize = 16 << 20

// Config carries the deployment gates shared by the write and read paths.
type Config struct {
	// Tenants lists the tenant codes this deployment serves. Empty serves
	// every tenant present in the store.
	Tenants []string

	// MaxPayloadSize caps the encoded definition payload of a single write
	// in bytes. Zero applies DefaultMaxPayloadSize.
	MaxPayloadSize int
}

func (config Config) maxPayloadSize() int {
	if config.MaxPayloadSize <= 0 {
		return DefaultMaxPayloadSize
	}
	return config.MaxPayloadSize
}

// verifyTenant rejects tenants this deployment does not serve. Whether the
// tenant exists at all is decided by the store.
func (config Config) verifyTenant(tenant string) error {
	if tenant == "" {
		return metadata.ErrInputValidation.New("tenant missing")
	}
	if len(config.Tenants) == 0 {
		return nil
	}
	for _, enabled := range config.Tenants {
		if enabled == tenant {
			return nil
		}
	}
	return metadata.ErrInputValidation.New("tenant %q is not served by this deployment", tenant)
}
