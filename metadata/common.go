// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package metadata holds the domain model of the metadata catalogue: object
// identities, versioned definitions, tags with typed attributes, selectors,
// search expressions and the error taxonomy every layer speaks.
package metadata

import (
	"context"
	"errors"

	"github.com/zeebo/errs"
)

var (
	// Error is the default error for metadata.
	Error = errs.Class("metadata")

	// ErrMissingItem is used to indicate that a selector resolved to nothing.
	ErrMissingItem = errs.Class("missing item")
	// ErrDuplicateItem is used to indicate an identity or preallocation collision.
	ErrDuplicateItem = errs.Class("duplicate item")
	// ErrWrongItemType is used to indicate the type at rest disagrees with the type requested.
	ErrWrongItemType = errs.Class("wrong item type")
	// ErrVersionConflict is used to indicate a lost race for the next version or tag.
	ErrVersionConflict = errs.Class("version conflict")
	// ErrInputValidation is used to indicate a malformed request.
	ErrInputValidation = errs.Class("input validation")
	// ErrVersionValidation is used to indicate the definition validator rejected a version increment.
	ErrVersionValidation = errs.Class("version validation")
	// ErrTransientStorage is used to indicate a deadlock or serialisation failure.
	// It is retried internally and surfaces only after the retry cap.
	ErrTransientStorage = errs.Class("transient storage")
	// ErrPermanentStorage is used to indicate a storage fault that retrying won't fix.
	ErrPermanentStorage = errs.Class("permanent storage")
	// ErrDeadlineExceeded is used to indicate the per-request deadline expired.
	ErrDeadlineExceeded = errs.Class("deadline exceeded")
	// ErrInternal is used to indicate an invariant violation inside the service.
	ErrInternal = errs.Class("internal")

	// ErrDataCorruption is used to indicate stored data that disagrees with
	// its declared type. It surfaces to clients under CodeInternal.
	ErrDataCorruption = errs.Class("data corruption")
)

// Code identifies a failure kind on the wire.
type Code string

// Wire codes for the error taxonomy.
const (
	CodeOK                Code = "OK"
	CodeMissingItem       Code = "MISSING_ITEM"
	CodeDuplicateItem     Code = "DUPLICATE_ITEM"
	CodeWrongItemType     Code = "WRONG_ITEM_TYPE"
	CodeVersionConflict   Code = "VERSION_CONFLICT"
	CodeInputValidation   Code = "INPUT_VALIDATION"
	CodeVersionValidation Code = "VERSION_VALIDATION"
	CodeTransientStorage  Code = "TRANSIENT_STORAGE"
	CodePermanentStorage  Code = "PERMANENT_STORAGE"
	CodeDeadlineExceeded  Code = "DEADLINE_EXCEEDED"
	CodeInternal          Code = "INTERNAL"
)

// CodeOf maps an error onto its wire code. Unclassified errors report
// CodeInternal so that no storage detail leaks to clients.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case ErrMissingItem.Has(err):
		return CodeMissingItem
	case ErrDuplicateItem.Has(err):
		return CodeDuplicateItem
	case ErrWrongItemType.Has(err):
		return CodeWrongItemType
	case ErrVersionConflict.Has(err):
		return CodeVersionConflict
	case ErrInputValidation.Has(err):
		return CodeInputValidation
	case ErrVersionValidation.Has(err):
		return CodeVersionValidation
	case ErrDeadlineExceeded.Has(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeDeadlineExceeded
	case ErrTransientStorage.Has(err):
		return CodeTransientStorage
	case ErrPermanentStorage.Has(err):
		return CodePermanentStorage
	default:
		return CodeInternal
	}
}
