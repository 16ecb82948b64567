// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metabase/metabasetest"
	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/testcontext"
)

func term(name string, typ metadata.AttrType, op metadata.SearchOperator, value metadata.Value) *metadata.SearchExpression {
	return metadata.Exp(metadata.SearchTerm{AttrName: name, AttrType: typ, Operator: op, Value: value})
}

func searchData(expr *metadata.SearchExpression) metabase.Search {
	return metabase.Search{
		Tenant: metabasetest.TestTenant,
		Params: metadata.SearchParameters{ObjectType: metadata.ObjectTypeData, Expression: expr},
	}
}

func TestSearchOperators(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		ensureTestTenant(ctx, t, db)

		base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
		loadBase := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

		alpha := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, map[string]metadata.Value{
			"name":    metadata.StringValue("alpha"),
			"size":    metadata.IntValue(10),
			"ratio":   metadata.FloatValue(0.5),
			"price":   metadata.DecimalValue(decimal.RequireFromString("10.50")),
			"active":  metadata.BoolValue(true),
			"created": metadata.DateValue(metadata.Date{Year: 2026, Month: time.January, Day: 15}),
			"loaded":  metadata.DatetimeValue(loadBase),
			"regions": metabasetest.MustArray(metadata.StringValue("east"), metadata.StringValue("west")),
			"scores":  metabasetest.MustArray(metadata.IntValue(5), metadata.IntValue(15)),
		})
		beta := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base.Add(time.Minute), map[string]metadata.Value{
			"name":    metadata.StringValue("beta"),
			"size":    metadata.IntValue(20),
			"ratio":   metadata.FloatValue(0.25),
			"price":   metadata.DecimalValue(decimal.RequireFromString("99.9")),
			"active":  metadata.BoolValue(false),
			"created": metadata.DateValue(metadata.Date{Year: 2026, Month: time.February, Day: 15}),
			"loaded":  metadata.DatetimeValue(loadBase.Add(time.Hour)),
			"regions": metabasetest.MustArray(metadata.StringValue("west")),
		})
		gamma := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base.Add(2*time.Minute), map[string]metadata.Value{
			"name":    metadata.StringValue("gamma"),
			"size":    metadata.IntValue(30),
			"created": metadata.DateValue(metadata.Date{Year: 2026, Month: time.March, Day: 15}),
			"extra":   metadata.StringValue("x"),
		})

		metabasetest.SaveNewObjects{
			Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{alpha, beta, gamma}},
		}.Check(ctx, t, db)

		// Results order newest object first, so gamma sorts before beta
		// before alpha.
		cases := []struct {
			name   string
			expr   *metadata.SearchExpression
			result []metadata.Tag
		}{
			{"eq string", term("name", metadata.AttrTypeString, metadata.SearchEQ, metadata.StringValue("beta")), []metadata.Tag{beta}},
			{"eq string is case sensitive", term("name", metadata.AttrTypeString, metadata.SearchEQ, metadata.StringValue("Beta")), []metadata.Tag{}},
			{"eq bool", term("active", metadata.AttrTypeBoolean, metadata.SearchEQ, metadata.BoolValue(true)), []metadata.Tag{alpha}},
			{"eq decimal ignores trailing zeros", term("price", metadata.AttrTypeDecimal, metadata.SearchEQ, metadata.DecimalValue(decimal.RequireFromString("10.5000"))), []metadata.Tag{alpha}},
			{"ne string", term("name", metadata.AttrTypeString, metadata.SearchNE, metadata.StringValue("alpha")), []metadata.Tag{gamma, beta}},
			{"lt int", term("size", metadata.AttrTypeInteger, metadata.SearchLT, metadata.IntValue(30)), []metadata.Tag{beta, alpha}},
			{"ge int", term("size", metadata.AttrTypeInteger, metadata.SearchGE, metadata.IntValue(20)), []metadata.Tag{gamma, beta}},
			{"gt float", term("ratio", metadata.AttrTypeFloat, metadata.SearchGT, metadata.FloatValue(0.4)), []metadata.Tag{alpha}},
			{"gt decimal compares numerically", term("price", metadata.AttrTypeDecimal, metadata.SearchGT, metadata.DecimalValue(decimal.RequireFromString("50"))), []metadata.Tag{beta}},
			{"lt date", term("created", metadata.AttrTypeDate, metadata.SearchLT, metadata.DateValue(metadata.Date{Year: 2026, Month: time.February, Day: 1})), []metadata.Tag{alpha}},
			{"ge datetime", term("loaded", metadata.AttrTypeDatetime, metadata.SearchGE, metadata.DatetimeValue(loadBase.Add(30*time.Minute))), []metadata.Tag{beta}},
			{"in string", term("name", metadata.AttrTypeString, metadata.SearchIN, metabasetest.MustArray(metadata.StringValue("alpha"), metadata.StringValue("gamma"))), []metadata.Tag{gamma, alpha}},
			{"in int", term("size", metadata.AttrTypeInteger, metadata.SearchIN, metabasetest.MustArray(metadata.IntValue(10), metadata.IntValue(30))), []metadata.Tag{gamma, alpha}},
			{"exists typed", term("price", metadata.AttrTypeDecimal, metadata.SearchExists, metadata.Value{}), []metadata.Tag{beta, alpha}},
			{"exists typed mismatch", term("extra", metadata.AttrTypeInteger, metadata.SearchExists, metadata.Value{}), []metadata.Tag{}},
			{"exists untyped", term("extra", metadata.AttrTypeUnspecified, metadata.SearchExists, metadata.Value{}), []metadata.Tag{gamma}},
			{"eq matches any array element", term("regions", metadata.AttrTypeString, metadata.SearchEQ, metadata.StringValue("west")), []metadata.Tag{beta, alpha}},
			// NE negates EQ, so gamma matches without a regions attribute.
			{"ne requires no element to match", term("regions", metadata.AttrTypeString, metadata.SearchNE, metadata.StringValue("east")), []metadata.Tag{gamma, beta}},
			{"ne is true when the attribute is missing", term("price", metadata.AttrTypeDecimal, metadata.SearchNE, metadata.DecimalValue(decimal.RequireFromString("10.50"))), []metadata.Tag{gamma, beta}},
			{"ne is true on a type mismatch", term("extra", metadata.AttrTypeInteger, metadata.SearchNE, metadata.IntValue(5)), []metadata.Tag{gamma, beta, alpha}},
			{"ordered ops never match arrays", term("scores", metadata.AttrTypeInteger, metadata.SearchLT, metadata.IntValue(100)), []metadata.Tag{}},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				metabasetest.Search{
					Opts:   searchData(tc.expr),
					Result: tc.result,
				}.Check(ctx, t, db)
			})
		}
	})
}

func TestSearchExpressions(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		ensureTestTenant(ctx, t, db)

		base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
		east := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base, map[string]metadata.Value{
			"region": metadata.StringValue("east"),
			"size":   metadata.IntValue(10),
		})
		west := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base.Add(time.Minute), map[string]metadata.Value{
			"region": metadata.StringValue("west"),
			"size":   metadata.IntValue(20),
		})
		north := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), base.Add(2*time.Minute), map[string]metadata.Value{
			"region": metadata.StringValue("north"),
			"size":   metadata.IntValue(30),
		})

		metabasetest.SaveNewObjects{
			Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{east, west, north}},
		}.Check(ctx, t, db)

		regionEQ := func(v string) *metadata.SearchExpression {
			return term("region", metadata.AttrTypeString, metadata.SearchEQ, metadata.StringValue(v))
		}
		sizeGE := func(v int64) *metadata.SearchExpression {
			return term("size", metadata.AttrTypeInteger, metadata.SearchGE, metadata.IntValue(v))
		}

		t.Run("and", func(t *testing.T) {
			metabasetest.Search{
				Opts:   searchData(metadata.And(regionEQ("west"), sizeGE(15))),
				Result: []metadata.Tag{west},
			}.Check(ctx, t, db)
		})

		t.Run("or", func(t *testing.T) {
			metabasetest.Search{
				Opts:   searchData(metadata.Or(regionEQ("east"), regionEQ("north"))),
				Result: []metadata.Tag{north, east},
			}.Check(ctx, t, db)
		})

		t.Run("not", func(t *testing.T) {
			metabasetest.Search{
				Opts:   searchData(metadata.Not(regionEQ("west"))),
				Result: []metadata.Tag{north, east},
			}.Check(ctx, t, db)
		})

		t.Run("nested", func(t *testing.T) {
			// (size >= 15 AND NOT region = north) OR region = east
			metabasetest.Search{
				Opts: searchData(metadata.Or(
					metadata.And(sizeGE(15), metadata.Not(regionEQ("north"))),
					regionEQ("east"),
				)),
				Result: []metadata.Tag{west, east},
			}.Check(ctx, t, db)
		})

		t.Run("no expression matches every object of the type", func(t *testing.T) {
			metabasetest.Search{
				Opts:   searchData(nil),
				Result: []metadata.Tag{north, west, east},
			}.Check(ctx, t, db)
		})

		t.Run("type scopes the search", func(t *testing.T) {
			model := metabasetest.NewTag(metadata.ObjectTypeModel, metabasetest.RandObjectID(), base.Add(3*time.Minute), map[string]metadata.Value{
				"region": metadata.StringValue("east"),
			})
			metabasetest.SaveNewObjects{
				Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{model}},
			}.Check(ctx, t, db)

			metabasetest.Search{
				Opts:   searchData(regionEQ("east")),
				Result: []metadata.Tag{east},
			}.Check(ctx, t, db)
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{ObjectType: metadata.ObjectTypeModel, Expression: regionEQ("east")},
				},
				Result: []metadata.Tag{model},
			}.Check(ctx, t, db)
		})

		t.Run("invalid expressions are rejected", func(t *testing.T) {
			missingType := metadata.Exp(metadata.SearchTerm{
				AttrName: "region",
				Operator: metadata.SearchEQ,
				Value:    metadata.StringValue("east"),
			})
			metabasetest.Search{
				Opts:     searchData(missingType),
				ErrClass: &metadata.ErrInputValidation,
			}.Check(ctx, t, db)

			ltBool := metadata.Exp(metadata.SearchTerm{
				AttrName: "active",
				AttrType: metadata.AttrTypeBoolean,
				Operator: metadata.SearchLT,
				Value:    metadata.BoolValue(false),
			})
			metabasetest.Search{
				Opts:     searchData(ltBool),
				ErrClass: &metadata.ErrInputValidation,
			}.Check(ctx, t, db)
		})
	})
}

func TestSearchScopes(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		ensureTestTenant(ctx, t, db)

		t1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)
		t3 := t1.Add(2 * time.Hour)

		statusEQ := func(v string) *metadata.SearchExpression {
			return term("status", metadata.AttrTypeString, metadata.SearchEQ, metadata.StringValue(v))
		}

		v1 := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), t1, map[string]metadata.Value{
			"status": metadata.StringValue("draft"),
		})
		metabasetest.SaveNewObjects{
			Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{v1}},
		}.Check(ctx, t, db)

		metabasetest.Search{Opts: searchData(statusEQ("draft")), Result: []metadata.Tag{v1}}.Check(ctx, t, db)

		v2 := metabasetest.NextVersion(v1, t2)
		v2.Attrs["status"] = metadata.StringValue("final")
		metabasetest.SaveNewVersions{
			Opts: metabase.SaveNewVersions{Tenant: metabasetest.TestTenant, Items: []metabase.NewVersion{
				{Tag: v2, PriorVersion: 1},
			}},
		}.Check(ctx, t, db)

		t.Run("default scope sees only the latest version", func(t *testing.T) {
			metabasetest.Search{Opts: searchData(statusEQ("draft")), Result: []metadata.Tag{}}.Check(ctx, t, db)
			metabasetest.Search{Opts: searchData(statusEQ("final")), Result: []metadata.Tag{v2}}.Check(ctx, t, db)
		})

		t.Run("prior versions widen the version axis", func(t *testing.T) {
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType:    metadata.ObjectTypeData,
						Expression:    statusEQ("draft"),
						PriorVersions: true,
					},
				},
				Result: []metadata.Tag{v1},
			}.Check(ctx, t, db)
		})

		// Replace the tag of version 2: final becomes amended.
		v2t2 := metabasetest.NextTag(v2, t3)
		v2t2.Attrs["status"] = metadata.StringValue("amended")
		metabasetest.SaveNewTags{
			Opts: metabase.SaveNewTags{Tenant: metabasetest.TestTenant, Items: []metabase.NewTag{
				{Tag: v2t2, PriorTagVersion: 1},
			}},
		}.Check(ctx, t, db)

		t.Run("a replaced tag drops out of the default scope", func(t *testing.T) {
			metabasetest.Search{Opts: searchData(statusEQ("final")), Result: []metadata.Tag{}}.Check(ctx, t, db)
			metabasetest.Search{Opts: searchData(statusEQ("amended")), Result: []metadata.Tag{v2t2}}.Check(ctx, t, db)
		})

		t.Run("prior tags resurface superseded tags", func(t *testing.T) {
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType: metadata.ObjectTypeData,
						Expression: statusEQ("final"),
						PriorTags:  true,
					},
				},
				Result: []metadata.Tag{v2},
			}.Check(ctx, t, db)
		})

		t.Run("the best matching tag wins per object", func(t *testing.T) {
			// Every tag of every version carries status, the newest pair is
			// version 2 tag 2.
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType: metadata.ObjectTypeData,
						Expression: metadata.Exp(metadata.SearchTerm{
							AttrName: "status",
							Operator: metadata.SearchExists,
						}),
						PriorVersions: true,
						PriorTags:     true,
					},
				},
				Result: []metadata.Tag{v2t2},
			}.Check(ctx, t, db)
		})

		t.Run("as-of travels back", func(t *testing.T) {
			beforeRetag := t2.Add(time.Minute)
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType: metadata.ObjectTypeData,
						Expression: statusEQ("final"),
						AsOf:       &beforeRetag,
					},
				},
				Result: []metadata.Tag{v2},
			}.Check(ctx, t, db)

			atV1 := t1.Add(time.Minute)
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType: metadata.ObjectTypeData,
						Expression: statusEQ("draft"),
						AsOf:       &atV1,
					},
				},
				Result: []metadata.Tag{v1},
			}.Check(ctx, t, db)

			beforeAll := t1.Add(-time.Minute)
			metabasetest.Search{
				Opts: metabase.Search{
					Tenant: metabasetest.TestTenant,
					Params: metadata.SearchParameters{
						ObjectType: metadata.ObjectTypeData,
						Expression: metadata.Exp(metadata.SearchTerm{
							AttrName: "status",
							Operator: metadata.SearchExists,
						}),
						AsOf: &beforeAll,
					},
				},
				Result: []metadata.Tag{},
			}.Check(ctx, t, db)
		})
	})
}

func TestSearchOrdering(t *testing.T) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		ensureTestTenant(ctx, t, db)

		older := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)

		newest := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), newer, nil)
		twinA := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), older, nil)
		twinB := metabasetest.NewTag(metadata.ObjectTypeData, metabasetest.RandObjectID(), older, nil)

		metabasetest.SaveNewObjects{
			Opts: metabase.SaveNewObjects{Tenant: metabasetest.TestTenant, Tags: []metadata.Tag{newest, twinA, twinB}},
		}.Check(ctx, t, db)

		// Ties on the object timestamp break on the object id bytes.
		first, second := twinA, twinB
		if bytes.Compare(twinB.Header.ObjectID[:], twinA.Header.ObjectID[:]) < 0 {
			first, second = twinB, twinA
		}

		metabasetest.Search{
			Opts:   searchData(nil),
			Result: []metadata.Tag{newest, first, second},
		}.Check(ctx, t, db)

		found, err := db.Search(ctx, searchData(nil))
		require.NoError(t, err)
		require.Len(t, found, 3)
		require.Equal(t, newest.Header.ObjectID, found[0].Header.ObjectID)
	})
}
