// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabasetest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/testcontext"
)

// EnsureTenant is for testing metabase.EnsureTenant.
type EnsureTenant struct {
	Opts     metabase.EnsureTenant
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step EnsureTenant) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.EnsureTenant(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// SaveNewObjects is for testing metabase.SaveNewObjects.
type SaveNewObjects struct {
	Opts     metabase.SaveNewObjects
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step SaveNewObjects) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.SaveNewObjects(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// SaveNewVersions is for testing metabase.SaveNewVersions.
type SaveNewVersions struct {
	Opts     metabase.SaveNewVersions
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step SaveNewVersions) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.SaveNewVersions(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// SaveNewTags is for testing metabase.SaveNewTags.
type SaveNewTags struct {
	Opts     metabase.SaveNewTags
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step SaveNewTags) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.SaveNewTags(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// PreallocateObjectIDs is for testing metabase.PreallocateObjectIDs.
type PreallocateObjectIDs struct {
	Opts     metabase.PreallocateObjectIDs
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step PreallocateObjectIDs) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.PreallocateObjectIDs(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// SavePreallocatedObjects is for testing metabase.SavePreallocatedObjects.
type SavePreallocatedObjects struct {
	Opts     metabase.SavePreallocatedObjects
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step SavePreallocatedObjects) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.SavePreallocatedObjects(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// SaveBatch is for testing metabase.SaveBatch.
type SaveBatch struct {
	Opts     metabase.SaveBatch
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step SaveBatch) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.SaveBatch(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)
}

// LoadTags is for testing metabase.LoadTags. A nil Result skips the
// comparison, an empty one asserts that nothing came back.
type LoadTags struct {
	Opts     metabase.LoadTags
	Result   []metadata.Tag
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step LoadTags) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) []metadata.Tag {
	result, err := db.LoadTags(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)

	if step.Result != nil {
		opts := append(TagDiffOptions(), DefaultTimeDiff())
		diff := cmp.Diff(step.Result, result, opts...)
		require.Zero(t, diff)
	}
	return result
}

// Search is for testing metabase.Search. A nil Result skips the comparison,
// an empty one asserts that nothing came back.
type Search struct {
	Opts     metabase.Search
	Result   []metadata.Tag
	ErrClass *errs.Class
	ErrText  string
}

// Check runs the test.
func (step Search) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) []metadata.Tag {
	result, err := db.Search(ctx, step.Opts)
	checkError(t, err, step.ErrClass, step.ErrText)

	if step.Result != nil {
		opts := append(TagDiffOptions(), DefaultTimeDiff())
		diff := cmp.Diff(step.Result, result, opts...)
		require.Zero(t, diff)
	}
	return result
}
