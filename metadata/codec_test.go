// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storj.io/tracmeta/metadata"
)

func TestUUIDHiLo(t *testing.T) {
	for _, tt := range []struct {
		id string
		hi int64
		lo int64
	}{
		{"00000000-0000-0000-0000-000000000000", 0, 0},
		{"00000000-0000-0001-0000-000000000001", 1, 1},
		{"ffffffff-ffff-ffff-ffff-ffffffffffff", -1, -1},
		{"80000000-0000-0000-8000-000000000000", math.MinInt64, math.MinInt64},
		{"01020304-0506-0708-090a-0b0c0d0e0f10", 0x0102030405060708, 0x090a0b0c0d0e0f10},
	} {
		id, err := uuid.Parse(tt.id)
		require.NoError(t, err)
		hi, lo := metadata.UUIDHiLo(id)
		require.Equal(t, tt.hi, hi, tt.id)
		require.Equal(t, tt.lo, lo, tt.id)
		require.Equal(t, id, metadata.UUIDFromHiLo(hi, lo), tt.id)
	}

	for i := 0; i < 100; i++ {
		id := uuid.New()
		hi, lo := metadata.UUIDHiLo(id)
		require.Equal(t, id, metadata.UUIDFromHiLo(hi, lo))
	}
}

func TestTimestampEncoding(t *testing.T) {
	zoned := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.FixedZone("", 2*60*60))

	encoded := metadata.EncodeTimestamp(zoned)
	require.Equal(t, "2026-03-14T15:09:26.535897+02:00", encoded)

	decoded, err := metadata.DecodeTimestamp(encoded)
	require.NoError(t, err)
	require.True(t, decoded.Equal(metadata.TruncateTimestamp(zoned)))
	_, offset := decoded.Zone()
	require.Equal(t, 2*60*60, offset)

	utc := time.Date(2026, 3, 14, 15, 9, 26, 535897000, time.UTC)
	require.Equal(t, "2026-03-14T15:09:26.535897Z", metadata.EncodeTimestamp(utc))

	_, err = metadata.DecodeTimestamp("2026-03-14 15:09:26")
	require.Error(t, err)
	require.True(t, metadata.ErrInputValidation.Has(err))
}

func TestTimestampSplitJoin(t *testing.T) {
	for _, tt := range []struct {
		name   string
		in     time.Time
		offset int32
	}{
		{"utc", time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.UTC), 0},
		{"east", time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.FixedZone("", 5*3600+1800)), 19800},
		{"west", time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.FixedZone("", -7*3600)), -25200},
	} {
		utc, offset := metadata.SplitTimestamp(tt.in)
		require.Equal(t, tt.offset, offset, tt.name)
		require.Equal(t, time.UTC, utc.Location(), tt.name)

		joined := metadata.JoinTimestamp(utc, offset)
		require.True(t, joined.Equal(tt.in), tt.name)
		_, joinedOffset := joined.Zone()
		require.Equal(t, int(tt.offset), joinedOffset, tt.name)
	}
}

func TestTimestampTruncation(t *testing.T) {
	in := time.Date(2026, 1, 2, 3, 4, 5, 999999999, time.UTC)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 999999000, time.UTC), metadata.TruncateTimestamp(in))
	require.Equal(t, metadata.TruncateTimestamp(in), metadata.TruncateTimestamp(metadata.TruncateTimestamp(in)))
}

func TestDate(t *testing.T) {
	date, err := metadata.ParseDate("2026-02-28")
	require.NoError(t, err)
	require.Equal(t, metadata.Date{Year: 2026, Month: time.February, Day: 28}, date)
	require.Equal(t, "2026-02-28", date.String())
	require.NoError(t, date.Validate())

	_, err = metadata.ParseDate("2026-02-30")
	require.Error(t, err)
	_, err = metadata.ParseDate("28/02/2026")
	require.Error(t, err)

	require.Error(t, metadata.Date{Year: 2026, Month: 13, Day: 1}.Validate())
	require.True(t, metadata.Date{}.IsZero())

	leap, err := metadata.ParseDate("2024-02-29")
	require.NoError(t, err)
	require.NoError(t, leap.Validate())
}

func TestEncodeDecimal(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{"1.50", "1.5"},
		{"1.500000", "1.5"},
		{"100", "100"},
		{"100.00", "100"},
		{"0.000", "0"},
		{"-12.3400", "-12.34"},
		{"0.0001", "0.0001"},
	} {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.want, metadata.EncodeDecimal(d), tt.in)

		back, err := metadata.DecodeDecimal(metadata.EncodeDecimal(d))
		require.NoError(t, err)
		require.True(t, back.Equal(d), tt.in)
	}

	_, err := metadata.DecodeDecimal("not a number")
	require.Error(t, err)
	require.True(t, metadata.ErrDataCorruption.Has(err))
}
