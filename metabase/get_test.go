// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metabase/metabasetest"
	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/testcontext"
)

func TestLoadTags(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		// saveHistory writes three versions at base, base+1m and base+2m; the
		// second version gets a second tag at base+3m.
		saveHistory := func(t *testing.T) (metadata.Tag, metadata.Tag, metadata.Tag, metadata.Tag) {
			v1 := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, map[string]metadata.Value{
				"rev": metadata.IntValue(1),
			})
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{v1}},
			}.Check(ctx, t, db)

			v2 := metabasetest.NextVersion(v1, base.Add(time.Minute))
			v2.Attrs["rev"] = metadata.IntValue(2)
			v3 := metabasetest.NextVersion(v2, base.Add(2*time.Minute))
			v3.Attrs["rev"] = metadata.IntValue(3)
			metabasetest.SaveNewVersions{
				Opts: metabase.SaveNewVersions{Tenant: metabasetest.TestTenant, Items: []metabase.NewVersion{
					{Tag: v2, PriorVersion: 1},
					{Tag: v3, PriorVersion: 2},
				}},
			}.Check(ctx, t, db)

			v2t2 := metabasetest.NextTag(v2, base.Add(3*time.Minute))
			v2t2.Attrs["note"] = metadata.StringValue("amended")
			metabasetest.SaveNewTags{
				Opts: metabase.SaveNewTags{Tenant: metabasetest.TestTenant, Items: []metabase.NewTag{
					{Tag: v2t2, PriorTagVersion: 1},
				}},
			}.Check(ctx, t, db)

			return v1, v2, v3, v2t2
		}

		t.Run("explicit and latest selectors", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			v1, v2, v3, v2t2 := saveHistory(t)
			id := v1.Header.ObjectID

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeData, id),
						metadata.ExactSelector(metadata.ObjectTypeData, id, 2, 1),
						metadata.VersionSelector(metadata.ObjectTypeData, id, 2),
						metadata.ExactSelector(metadata.ObjectTypeData, id, 1, 1),
					},
				},
				Result: []metadata.Tag{v3, v2, v2t2, v1},
			}.Check(ctx, t, db)
		})

		t.Run("as-of selectors", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			v1, v2, _, v2t2 := saveHistory(t)
			id := v1.Header.ObjectID

			atV2 := base.Add(time.Minute)
			betweenTags := base.Add(90 * time.Second)
			afterRetag := base.Add(time.Hour)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						// Newest version at the instant version 2 was written.
						{ObjectType: metadata.ObjectTypeData, ObjectID: id, ObjectAsOf: &atV2, LatestTag: true},
						// Tag as-of before the retag picks the original tag.
						{ObjectType: metadata.ObjectTypeData, ObjectID: id, ObjectVersion: 2, TagAsOf: &betweenTags},
						// Tag as-of after the retag picks the amended tag.
						{ObjectType: metadata.ObjectTypeData, ObjectID: id, ObjectVersion: 2, TagAsOf: &afterRetag},
					},
				},
				Result: []metadata.Tag{v2t2, v2, v2t2},
			}.Check(ctx, t, db)

			// As-of before the object existed resolves to nothing.
			beforeAll := base.Add(-time.Second)
			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						{ObjectType: metadata.ObjectTypeData, ObjectID: id, ObjectAsOf: &beforeAll, LatestTag: true},
					},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)
		})

		t.Run("order follows the request", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			now := base
			first := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), now, nil)
			second := metabasetest.NewTag(metadata.ObjectTypeFlow, metabasetest.RandObjectID(), now, nil)
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{first, second}},
			}.Check(ctx, t, db)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeFlow, second.Header.ObjectID),
						metadata.LatestSelector(metadata.ObjectTypeData, first.Header.ObjectID),
						metadata.LatestSelector(metadata.ObjectTypeFlow, second.Header.ObjectID),
					},
				},
				Result: []metadata.Tag{second, first, second},
			}.Check(ctx, t, db)
		})

		t.Run("duplicate selectors do not alias", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			now := base
			tag := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), now, map[string]metadata.Value{
				"region": metadata.StringValue("east"),
			})
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{tag}},
			}.Check(ctx, t, db)

			selector := metadata.LatestSelector(metadata.ObjectTypeData, tag.Header.ObjectID)
			loaded, err := db.LoadTags(ctx, metabase.LoadTags{
				Tenant:    metabasetest.TestTenant,
				Selectors: []metadata.TagSelector{selector, selector},
			})
			require.NoError(t, err)
			require.Len(t, loaded, 2)

			loaded[0].Attrs["region"] = metadata.StringValue("scribbled")
			require.Equal(t, metadata.StringValue("east"), loaded[1].Attrs["region"])
		})

		t.Run("missing object", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeData, metabasetest.RandObjectID()),
					},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)
		})

		t.Run("wrong type", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			tag := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, nil)
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{tag}},
			}.Check(ctx, t, db)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeModel, tag.Header.ObjectID),
					},
				},
				ErrClass: &metadata.ErrWrongItemType,
			}.Check(ctx, t, db)
		})

		t.Run("missing version and tag", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			tag := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, nil)
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{tag}},
			}.Check(ctx, t, db)
			id := tag.Header.ObjectID

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant:    metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{metadata.VersionSelector(metadata.ObjectTypeData, id, 7)},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant:    metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{metadata.ExactSelector(metadata.ObjectTypeData, id, 1, 7)},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)
		})

		t.Run("a failing selector fails the whole batch", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			tag := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, nil)
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{tag}},
			}.Check(ctx, t, db)

			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeData, tag.Header.ObjectID),
						metadata.LatestSelector(metadata.ObjectTypeData, metabasetest.RandObjectID()),
					},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)
		})

		t.Run("validates the batch", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			metabasetest.LoadTags{
				Opts:     metabase.LoadTags{Tenant: metabasetest.TestTenant},
				ErrClass: &metadata.ErrInputValidation,
			}.Check(ctx, t, db)

			selectors := make([]metadata.TagSelector, 501)
			for i := range selectors {
				selectors[i] = metadata.LatestSelector(metadata.ObjectTypeData, metabasetest.RandObjectID())
			}
			metabasetest.LoadTags{
				Opts:     metabase.LoadTags{Tenant: metabasetest.TestTenant, Selectors: selectors},
				ErrClass: &metadata.ErrInputValidation,
			}.Check(ctx, t, db)

			noCriterion := metadata.TagSelector{
				ObjectType: metadata.ObjectTypeData,
				ObjectID:   metabasetest.RandObjectID(),
				LatestTag:  true,
			}
			metabasetest.LoadTags{
				Opts:     metabase.LoadTags{Tenant: metabasetest.TestTenant, Selectors: []metadata.TagSelector{noCriterion}},
				ErrClass: &metadata.ErrInputValidation,
			}.Check(ctx, t, db)
		})

		t.Run("scratch rows never linger", func(t *testing.T) {
			defer metabasetest.DeleteAll{}.Check(ctx, t, db)
			ensureTestTenant(ctx, t, db)

			v1, _, _, _ := saveHistory(t)
			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeData, v1.Header.ObjectID),
					},
				},
			}.Check(ctx, t, db)

			// Resolution failures clean up after themselves too.
			metabasetest.LoadTags{
				Opts: metabase.LoadTags{
					Tenant: metabasetest.TestTenant,
					Selectors: []metadata.TagSelector{
						metadata.LatestSelector(metadata.ObjectTypeData, metabasetest.RandObjectID()),
					},
				},
				ErrClass: &metadata.ErrMissingItem,
			}.Check(ctx, t, db)

			state, err := db.TestingGetState(ctx)
			require.NoError(t, err)
			require.Zero(t, state.ScratchRows)
		})
	})
}

func TestAttributeRoundTrip(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		ensureTestTenant(ctx, t, db)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		zoned := time.Date(2026, 3, 14, 9, 30, 0, 123456000, time.FixedZone("UTC+5", 5*3600))

		attrs := map[string]metadata.Value{
			"active":   metadata.BoolValue(true),
			"rows":     metadata.IntValue(-42),
			"ratio":    metadata.FloatValue(0.375),
			"price":    metadata.DecimalValue(decimal.RequireFromString("10230.4500")),
			"label":    metadata.StringValue("Päivän kurssit"),
			"as_at":    metadata.DateValue(metadata.Date{Year: 2026, Month: time.February, Day: 28}),
			"loaded":   metadata.DatetimeValue(zoned),
			"segments": metabasetest.MustArray(metadata.StringValue("fx"), metadata.StringValue("rates"), metadata.StringValue("fx")),
			"weights":  metabasetest.MustArray(metadata.IntValue(3), metadata.IntValue(1), metadata.IntValue(2)),
		}

		tag := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, attrs)
		metabasetest.SaveNewObjects{
			Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{tag}},
		}.Check(ctx, t, db)

		loaded := metabasetest.LoadTags{
			Opts: metabase.LoadTags{
				Tenant:    metabasetest.TestTenant,
				Selectors: []metadata.TagSelector{metadata.LatestSelector(metadata.ObjectTypeData, tag.Header.ObjectID)},
			},
			Result: []metadata.Tag{tag},
		}.Check(ctx, t, db)

		// Datetime attributes keep their zone offset, not just the instant.
		_, offset := loaded[0].Attrs["loaded"].Datetime.Zone()
		require.Equal(t, 5*3600, offset)

		// Array element order survives storage.
		weights := loaded[0].Attrs["weights"].Items
		require.Equal(t, []metadata.Value{
			metadata.IntValue(3), metadata.IntValue(1), metadata.IntValue(2),
		}, weights)
	})
}
