// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package metaservice coordinates catalogue writes and reads above the store:
// caller identity, controlled attributes, version validation and batch
// assembly. The store itself stays agnostic of who writes and why.
package metaservice

import (
	"github.com/spacemonkeygo/monkit/v3"
)

var mon = monkit.Package()
