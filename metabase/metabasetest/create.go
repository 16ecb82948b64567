// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabasetest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"storj.io/tracmeta/metadata"
)

// TestTenant is the tenant most test data lives under.
const TestTenant = "ACME_CORP"

// RandObjectID returns a random object id.
func RandObjectID() uuid.UUID {
	return uuid.New()
}

// MustArray builds an array value and panics on malformed input. Meant for
// test fixtures only.
func MustArray(items ...metadata.Value) metadata.Value {
	value, err := metadata.ArrayValue(items...)
	if err != nil {
		panic(err)
	}
	return value
}

// TestDefinition returns a minimal valid definition of the given type.
func TestDefinition(typ metadata.ObjectType) metadata.ObjectDefinition {
	def := metadata.ObjectDefinition{Type: typ}
	switch typ {
	case metadata.ObjectTypeData:
		def.Data = &metadata.DataDefinition{PartKeys: []string{"part_date"}}
	case metadata.ObjectTypeModel:
		def.Model = &metadata.ModelDefinition{Language: "python", EntryPoint: "acme.Model"}
	case metadata.ObjectTypeFlow:
		def.Flow = &metadata.FlowDefinition{Nodes: map[string]metadata.FlowNode{
			"input": {NodeType: "INPUT_NODE"},
		}}
	case metadata.ObjectTypeJob:
		def.Job = &metadata.JobDefinition{JobType: "RUN_MODEL"}
	case metadata.ObjectTypeFile:
		def.File = &metadata.FileDefinition{Name: "report", Extension: "csv", MimeType: "text/csv", Size: 1024}
	case metadata.ObjectTypeSchema:
		def.Schema = &metadata.SchemaDefinition{SchemaType: "TABLE", Fields: []metadata.FieldSchema{
			{Name: "trade_id", FieldType: metadata.AttrTypeString},
		}}
	case metadata.ObjectTypeStorage:
		def.Storage = &metadata.StorageDefinition{Items: map[string]metadata.StorageItem{
			"data": {StorageKey: "LOCAL", StoragePath: "data/part-0", Format: "parquet"},
		}}
	case metadata.ObjectTypeCustom:
		def.Custom = &metadata.CustomDefinition{SchemaType: "acme_schema", SchemaVersion: 1, Data: json.RawMessage(`{"k":"v"}`)}
	case metadata.ObjectTypeResult:
		def.Result = &metadata.ResultDefinition{StatusCode: "SUCCEEDED"}
	}
	return def
}

// NewTag builds a version-1 tag of the given type.
func NewTag(typ metadata.ObjectType, id uuid.UUID, now time.Time, attrs map[string]metadata.Value) metadata.Tag {
	return metadata.Tag{
		Header: metadata.TagHeader{
			ObjectType:      typ,
			ObjectID:        id,
			ObjectVersion:   1,
			ObjectTimestamp: now,
			TagVersion:      1,
			TagTimestamp:    now,
		},
		Definition: TestDefinition(typ),
		Attrs:      attrs,
	}
}

// NextVersion returns a copy of the tag advanced to the next object version.
// The new version starts its own tag chain at one.
func NextVersion(tag metadata.Tag, now time.Time) metadata.Tag {
	out := tag.Clone()
	out.Header.ObjectVersion++
	out.Header.ObjectTimestamp = now
	out.Header.TagVersion = 1
	out.Header.TagTimestamp = now
	return out
}

// NextTag returns a copy of the tag advanced to the next tag version.
func NextTag(tag metadata.Tag, now time.Time) metadata.Tag {
	out := tag.Clone()
	out.Header.TagVersion++
	out.Header.TagTimestamp = now
	return out
}
