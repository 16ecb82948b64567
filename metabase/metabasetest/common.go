// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabasetest

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/shared/testcontext"
)

// DeleteAll deletes all data from the catalogue.
type DeleteAll struct{}

// Check runs the test.
func (step DeleteAll) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	err := db.TestingDeleteAll(ctx)
	require.NoError(t, err)
}

// Verify verifies whether the catalogue state matches the content.
type Verify metabase.RawState

// Check runs the test.
func (step Verify) Check(ctx *testcontext.Context, t testing.TB, db *metabase.DB) {
	state, err := db.TestingGetState(ctx)
	require.NoError(t, err)

	sortRawTenants(state.Tenants)
	sortRawTenants(step.Tenants)
	sortRawObjects(state.Objects)
	sortRawObjects(step.Objects)
	sortRawDefinitions(state.Definitions)
	sortRawDefinitions(step.Definitions)
	sortRawTags(state.Tags)
	sortRawTags(step.Tags)

	diff := cmp.Diff(metabase.RawState(step), *state,
		DefaultTimeDiff(),
		cmpopts.EquateEmpty())
	require.Zero(t, diff)
}

func sortRawTenants(tenants []metabase.RawTenant) {
	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].Code < tenants[j].Code
	})
}

func sortRawObjects(objects []metabase.RawObject) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ObjectPK < objects[j].ObjectPK
	})
}

func sortRawDefinitions(definitions []metabase.RawDefinition) {
	sort.Slice(definitions, func(i, j int) bool {
		if definitions[i].ObjectPK == definitions[j].ObjectPK {
			return definitions[i].Version < definitions[j].Version
		}
		return definitions[i].ObjectPK < definitions[j].ObjectPK
	})
}

func sortRawTags(tags []metabase.RawTag) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].VersionPK == tags[j].VersionPK {
			return tags[i].Version < tags[j].Version
		}
		return tags[i].VersionPK < tags[j].VersionPK
	})
}

func checkError(t require.TestingT, err error, errClass *errs.Class, errText string) {
	if errClass != nil {
		require.True(t, errClass.Has(err), "expected an error %v got %v", *errClass, err)
	}
	if errText != "" {
		require.EqualError(t, err, errClass.New(errText).Error())
	}
	if errClass == nil && errText == "" {
		require.NoError(t, err)
	}
}

// DefaultTimeDiff is the accepted difference between a timestamp taken in the
// test and the one stored by the engine.
func DefaultTimeDiff() cmp.Option {
	return cmpopts.EquateApproxTime(20 * time.Second)
}

// TagDiffOptions compare loaded tags against expected ones. Decimals compare
// by numeric value since equal decimals can differ in exponent.
func TagDiffOptions() []cmp.Option {
	return []cmp.Option{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.EquateEmpty(),
	}
}
