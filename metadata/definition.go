// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"bytes"
	"encoding/json"
)

// ObjectDefinition is the immutable payload of one object version: a tagged
// variant whose body is chosen by Type. The catalogue persists it as an
// opaque serialised envelope and never expands the body into columns.
type ObjectDefinition struct {
	Type ObjectType `json:"type"`

	Data    *DataDefinition    `json:"data,omitempty"`
	Model   *ModelDefinition   `json:"model,omitempty"`
	Flow    *FlowDefinition    `json:"flow,omitempty"`
	Job     *JobDefinition     `json:"job,omitempty"`
	File    *FileDefinition    `json:"file,omitempty"`
	Schema  *SchemaDefinition  `json:"schema,omitempty"`
	Storage *StorageDefinition `json:"storage,omitempty"`
	Custom  *CustomDefinition  `json:"custom,omitempty"`
	Result  *ResultDefinition  `json:"result,omitempty"`
}

// DataDefinition describes a structured dataset: its schema (inline or by
// reference), the partitions it is split into and where it is stored.
type DataDefinition struct {
	SchemaID  *TagSelector      `json:"schemaId,omitempty"`
	Schema    *SchemaDefinition `json:"schema,omitempty"`
	PartKeys  []string          `json:"partKeys,omitempty"`
	StorageID *TagSelector      `json:"storageId,omitempty"`
}

// ModelDefinition describes an executable model imported from a code
// repository.
type ModelDefinition struct {
	Language   string                  `json:"language,omitempty"`
	Repository string                  `json:"repository,omitempty"`
	Path       string                  `json:"path,omitempty"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
	Version    string                  `json:"version,omitempty"`
	Parameters map[string]AttrType     `json:"parameters,omitempty"`
	Inputs     map[string]*TagSelector `json:"inputs,omitempty"`
	Outputs    map[string]*TagSelector `json:"outputs,omitempty"`
}

// FlowSocket names one input or output of one node inside a flow.
type FlowSocket struct {
	Node   string `json:"node"`
	Socket string `json:"socket,omitempty"`
}

// FlowNode is a single step of a flow.
type FlowNode struct {
	NodeType string   `json:"nodeType,omitempty"`
	Inputs   []string `json:"inputs,omitempty"`
	Outputs  []string `json:"outputs,omitempty"`
}

// FlowEdge connects an output socket to an input socket.
type FlowEdge struct {
	Source FlowSocket `json:"source"`
	Target FlowSocket `json:"target"`
}

// FlowDefinition is a directed graph of nodes wiring models and datasets
// together. References to other objects ride as selectors inside node
// definitions, never as foreign keys.
type FlowDefinition struct {
	Nodes map[string]FlowNode `json:"nodes,omitempty"`
	Edges []FlowEdge          `json:"edges,omitempty"`
}

// JobDefinition describes one execution request handed to the orchestrator.
type JobDefinition struct {
	JobType    string           `json:"jobType,omitempty"`
	Target     *TagSelector     `json:"target,omitempty"`
	Parameters map[string]Value `json:"parameters,omitempty"`
}

// FileDefinition describes an unstructured file tracked by the platform.
type FileDefinition struct {
	Name      string       `json:"name,omitempty"`
	Extension string       `json:"extension,omitempty"`
	MimeType  string       `json:"mimeType,omitempty"`
	Size      int64        `json:"size,omitempty"`
	DataItem  string       `json:"dataItem,omitempty"`
	StorageID *TagSelector `json:"storageId,omitempty"`
}

// FieldSchema is one column of a tabular schema.
type FieldSchema struct {
	Name        string   `json:"name"`
	FieldType   AttrType `json:"fieldType"`
	Label       string   `json:"label,omitempty"`
	Categorical bool     `json:"categorical,omitempty"`
	NotNull     bool     `json:"notNull,omitempty"`
}

// SchemaDefinition is a reusable tabular schema.
type SchemaDefinition struct {
	SchemaType string        `json:"schemaType,omitempty"`
	Fields     []FieldSchema `json:"fields,omitempty"`
}

// StorageItem locates one stored data item.
type StorageItem struct {
	StorageKey  string `json:"storageKey,omitempty"`
	StoragePath string `json:"storagePath,omitempty"`
	Format      string `json:"format,omitempty"`
}

// StorageDefinition maps logical data items onto physical storage.
type StorageDefinition struct {
	Items map[string]StorageItem `json:"items,omitempty"`
}

// CustomDefinition carries a client-defined payload the platform stores but
// never interprets.
type CustomDefinition struct {
	SchemaType    string          `json:"schemaType,omitempty"`
	SchemaVersion int             `json:"schemaVersion,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// ResultDefinition records the outcome of a job run.
type ResultDefinition struct {
	JobID         *TagSelector            `json:"jobId,omitempty"`
	StatusCode    string                  `json:"statusCode,omitempty"`
	StatusMessage string                  `json:"statusMessage,omitempty"`
	Outputs       map[string]*TagSelector `json:"outputs,omitempty"`
}

// bodyType returns the type the populated body member implies, or
// ObjectTypeUnspecified when no or multiple members are set.
func (def ObjectDefinition) bodyType() ObjectType {
	found := ObjectTypeUnspecified
	set := func(typ ObjectType, populated bool) {
		if !populated {
			return
		}
		if found != ObjectTypeUnspecified {
			found = ObjectTypeUnspecified - 1 // multiple bodies
			return
		}
		found = typ
	}
	set(ObjectTypeData, def.Data != nil)
	set(ObjectTypeModel, def.Model != nil)
	set(ObjectTypeFlow, def.Flow != nil)
	set(ObjectTypeJob, def.Job != nil)
	set(ObjectTypeFile, def.File != nil)
	set(ObjectTypeSchema, def.Schema != nil)
	set(ObjectTypeStorage, def.Storage != nil)
	set(ObjectTypeCustom, def.Custom != nil)
	set(ObjectTypeResult, def.Result != nil)
	return found
}

// Verify checks that exactly one body is set and that it agrees with Type.
func (def ObjectDefinition) Verify() error {
	if !def.Type.Valid() {
		return ErrInputValidation.New("object type invalid")
	}
	body := def.bodyType()
	switch {
	case body == ObjectTypeUnspecified:
		return ErrInputValidation.New("definition body missing")
	case body < ObjectTypeUnspecified:
		return ErrInputValidation.New("definition carries multiple bodies")
	case body != def.Type:
		return ErrInputValidation.New("definition body is %v, header says %v", body, def.Type)
	}
	return nil
}

// EncodeDefinition serialises a definition into its persisted envelope.
func EncodeDefinition(def ObjectDefinition) ([]byte, error) {
	if err := def.Verify(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(def)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return data, nil
}

// DecodeDefinition parses a persisted envelope. Damaged payloads surface as
// ErrDataCorruption.
func DecodeDefinition(data []byte) (ObjectDefinition, error) {
	var def ObjectDefinition
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&def); err != nil {
		return ObjectDefinition{}, ErrDataCorruption.New("invalid definition payload: %v", err)
	}
	if err := def.Verify(); err != nil {
		return ObjectDefinition{}, ErrDataCorruption.New("definition payload: %v", err)
	}
	return def, nil
}
