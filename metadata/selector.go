// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"time"

	"github.com/google/uuid"
)

// TagSelector addresses one tag of one object. Each axis carries exactly one
// criterion: a fixed version, the latest marker, or an as-of time that picks
// the newest version or tag created at or before that instant.
type TagSelector struct {
	ObjectType ObjectType `json:"objectType"`
	ObjectID   uuid.UUID  `json:"objectId"`

	ObjectVersion int        `json:"objectVersion,omitempty"`
	LatestObject  bool       `json:"latestObject,omitempty"`
	ObjectAsOf    *time.Time `json:"objectAsOf,omitempty"`

	TagVersion int        `json:"tagVersion,omitempty"`
	LatestTag  bool       `json:"latestTag,omitempty"`
	TagAsOf    *time.Time `json:"tagAsOf,omitempty"`
}

// LatestSelector addresses the latest tag of the latest version.
func LatestSelector(typ ObjectType, id uuid.UUID) TagSelector {
	return TagSelector{
		ObjectType:   typ,
		ObjectID:     id,
		LatestObject: true,
		LatestTag:    true,
	}
}

// VersionSelector addresses the latest tag of a fixed object version.
func VersionSelector(typ ObjectType, id uuid.UUID, version int) TagSelector {
	return TagSelector{
		ObjectType:    typ,
		ObjectID:      id,
		ObjectVersion: version,
		LatestTag:     true,
	}
}

// ExactSelector addresses a fixed object version and tag version.
func ExactSelector(typ ObjectType, id uuid.UUID, objectVersion, tagVersion int) TagSelector {
	return TagSelector{
		ObjectType:    typ,
		ObjectID:      id,
		ObjectVersion: objectVersion,
		TagVersion:    tagVersion,
	}
}

// Verify checks that the selector names a valid object and carries exactly
// one criterion on each axis.
func (sel TagSelector) Verify() error {
	if !sel.ObjectType.Valid() {
		return ErrInputValidation.New("selector object type invalid")
	}
	if sel.ObjectID == uuid.Nil {
		return ErrInputValidation.New("selector object id missing")
	}
	if err := verifyAxis("object", sel.ObjectVersion, sel.LatestObject, sel.ObjectAsOf); err != nil {
		return err
	}
	return verifyAxis("tag", sel.TagVersion, sel.LatestTag, sel.TagAsOf)
}

func verifyAxis(axis string, version int, latest bool, asOf *time.Time) error {
	if version < 0 {
		return ErrInputValidation.New("%s version must be positive, got %d", axis, version)
	}
	criteria := 0
	if version > 0 {
		criteria++
	}
	if latest {
		criteria++
	}
	if asOf != nil {
		if asOf.IsZero() {
			return ErrInputValidation.New("%s as-of time is zero", axis)
		}
		criteria++
	}
	switch criteria {
	case 0:
		return ErrInputValidation.New("%s criterion missing", axis)
	case 1:
		return nil
	default:
		return ErrInputValidation.New("%s axis carries %d criteria, want exactly one", axis, criteria)
	}
}
