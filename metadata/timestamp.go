// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import "time"

// TimestampFormat is the wire form of catalogue timestamps: RFC 3339 with a
// fixed six-digit fraction. Storage keeps the UTC instant and the original
// zone offset in separate columns.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// TruncateTimestamp truncates a timestamp to microseconds, the storage
// resolution of the catalogue.
func TruncateTimestamp(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// EncodeTimestamp renders the wire form, preserving the zone offset.
func EncodeTimestamp(t time.Time) string {
	return TruncateTimestamp(t).Format(TimestampFormat)
}

// DecodeTimestamp parses the wire form. The zone offset carried by the input
// is preserved in the returned time.
func DecodeTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ErrInputValidation.New("invalid timestamp %q: %v", s, err)
	}
	return TruncateTimestamp(t), nil
}

// SplitTimestamp returns the two stored halves of a timestamp: the UTC
// instant truncated to microseconds and the zone offset in seconds east of
// UTC.
func SplitTimestamp(t time.Time) (utc time.Time, offsetSeconds int32) {
	truncated := TruncateTimestamp(t)
	_, offset := truncated.Zone()
	return truncated.UTC(), int32(offset)
}

// JoinTimestamp rebuilds the zoned timestamp from its stored halves.
func JoinTimestamp(utc time.Time, offsetSeconds int32) time.Time {
	if offsetSeconds == 0 {
		return utc.UTC()
	}
	return utc.In(time.FixedZone("", int(offsetSeconds)))
}
