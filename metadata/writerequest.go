// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

// WriteRequest carries one catalogue write. One shape serves creates, updates
// and preallocation; the operation a request is submitted under decides which
// fields apply and how they are checked.
type WriteRequest struct {
	// ObjectType declares the type being written. It must agree with the
	// definition body and, on updates, with the type at rest.
	ObjectType ObjectType `json:"objectType"`

	// Prior addresses the tag the write builds on. Creates leave it nil;
	// updates address the version and tag they extend; preallocated saves
	// name the reserved identity with bare type and id, no version axes.
	Prior *TagSelector `json:"prior,omitempty"`

	// Definition carries the new definition body. Tag-only updates leave it
	// nil and keep the addressed version's definition.
	Definition *ObjectDefinition `json:"definition,omitempty"`

	// Updates applies attribute changes on top of the carried-over
	// attributes, in order, before the service stamps its own.
	Updates []TagUpdate `json:"updates,omitempty"`
}
