// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"regexp"
	"strings"
)

// ControlledPrefix marks attribute names reserved for the catalogue itself.
// Controlled attributes are written by the service on every save and cannot
// be targeted by client updates.
const ControlledPrefix = "trac_"

// Controlled attribute names.
const (
	AttrCreateTime     = ControlledPrefix + "create_time"
	AttrCreateUserID   = ControlledPrefix + "create_user_id"
	AttrCreateUserName = ControlledPrefix + "create_user_name"
	AttrUpdateTime     = ControlledPrefix + "update_time"
	AttrUpdateUserID   = ControlledPrefix + "update_user_id"
	AttrUpdateUserName = ControlledPrefix + "update_user_name"
)

// MaxAttrNameLen bounds attribute name length.
const MaxAttrNameLen = 256

// MaxAttrCount bounds how many attributes one tag may carry.
const MaxAttrCount = 1000

var attrNameRx = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IsControlledAttr reports whether the name is reserved for the service.
func IsControlledAttr(name string) bool {
	return strings.HasPrefix(name, ControlledPrefix)
}

// VerifyAttrName checks that the name is a well-formed identifier.
func VerifyAttrName(name string) error {
	switch {
	case name == "":
		return ErrInputValidation.New("attribute name missing")
	case len(name) > MaxAttrNameLen:
		return ErrInputValidation.New("attribute name exceeds %d bytes", MaxAttrNameLen)
	case !attrNameRx.MatchString(name):
		return ErrInputValidation.New("attribute name %q is not an identifier", name)
	}
	return nil
}

// TagOperation selects how a TagUpdate changes one attribute.
type TagOperation string

// Tag update operations.
const (
	CreateOrReplaceAttr TagOperation = "CREATE_OR_REPLACE_ATTR"
	CreateOrAppendAttr  TagOperation = "CREATE_OR_APPEND_ATTR"
	CreateAttr          TagOperation = "CREATE_ATTR"
	ReplaceAttr         TagOperation = "REPLACE_ATTR"
	AppendAttr          TagOperation = "APPEND_ATTR"
	DeleteAttr          TagOperation = "DELETE_ATTR"
	ClearAllAttr        TagOperation = "CLEAR_ALL_ATTR"
)

// Valid reports whether the operation is one of the defined update kinds.
func (op TagOperation) Valid() bool {
	switch op {
	case CreateOrReplaceAttr, CreateOrAppendAttr, CreateAttr,
		ReplaceAttr, AppendAttr, DeleteAttr, ClearAllAttr:
		return true
	}
	return false
}

// TagUpdate is a single instruction against one attribute of a tag.
// ClearAllAttr ignores name and value, DeleteAttr takes only a name, every
// other operation takes both.
type TagUpdate struct {
	Operation TagOperation `json:"operation"`
	AttrName  string       `json:"attrName,omitempty"`
	Value     Value        `json:"value,omitempty"`
}

// Verify checks the update shape without looking at any tag.
func (upd TagUpdate) Verify() error {
	if !upd.Operation.Valid() {
		return ErrInputValidation.New("tag operation %q invalid", string(upd.Operation))
	}
	switch upd.Operation {
	case ClearAllAttr:
		if upd.AttrName != "" {
			return ErrInputValidation.New("%s takes no attribute name", string(upd.Operation))
		}
		if upd.Value.Type != AttrTypeUnspecified {
			return ErrInputValidation.New("%s takes no value", string(upd.Operation))
		}
	case DeleteAttr:
		if err := VerifyAttrName(upd.AttrName); err != nil {
			return err
		}
		if upd.Value.Type != AttrTypeUnspecified {
			return ErrInputValidation.New("%s takes no value", string(upd.Operation))
		}
	default:
		if err := VerifyAttrName(upd.AttrName); err != nil {
			return err
		}
		if err := upd.Value.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// VerifyClientUpdates checks a batch of client-supplied updates: each must be
// well formed and none may target a controlled attribute.
func VerifyClientUpdates(updates []TagUpdate) error {
	for _, upd := range updates {
		if err := upd.Verify(); err != nil {
			return err
		}
		if upd.AttrName != "" && IsControlledAttr(upd.AttrName) {
			return ErrInputValidation.New("attribute %q is controlled and cannot be set by clients", upd.AttrName)
		}
	}
	return nil
}

// ApplyTagUpdates applies updates in order against a copy of the tag and
// returns the result. The input tag is never modified. Callers gate
// controlled attributes with VerifyClientUpdates first; the applier itself
// accepts them so the service can stamp its own attributes.
func ApplyTagUpdates(tag Tag, updates []TagUpdate) (Tag, error) {
	next := tag.Clone()
	if next.Attrs == nil {
		next.Attrs = map[string]Value{}
	}
	for _, upd := range updates {
		if err := upd.Verify(); err != nil {
			return Tag{}, err
		}
		if err := applyTagUpdate(next.Attrs, upd); err != nil {
			return Tag{}, err
		}
	}
	return next, nil
}

func applyTagUpdate(attrs map[string]Value, upd TagUpdate) error {
	switch upd.Operation {
	case CreateOrReplaceAttr:
		attrs[upd.AttrName] = upd.Value

	case CreateOrAppendAttr:
		existing, ok := attrs[upd.AttrName]
		if !ok {
			attrs[upd.AttrName] = upd.Value
			return nil
		}
		return appendAttr(attrs, upd.AttrName, existing, upd.Value)

	case CreateAttr:
		if _, ok := attrs[upd.AttrName]; ok {
			return ErrInputValidation.New("attribute %q already exists", upd.AttrName)
		}
		attrs[upd.AttrName] = upd.Value

	case ReplaceAttr:
		existing, ok := attrs[upd.AttrName]
		if !ok {
			return ErrInputValidation.New("attribute %q does not exist", upd.AttrName)
		}
		if existing.Type != upd.Value.Type {
			return ErrInputValidation.New("attribute %q is %v, replacement is %v", upd.AttrName, existing.Type, upd.Value.Type)
		}
		attrs[upd.AttrName] = upd.Value

	case AppendAttr:
		existing, ok := attrs[upd.AttrName]
		if !ok {
			return ErrInputValidation.New("attribute %q does not exist", upd.AttrName)
		}
		return appendAttr(attrs, upd.AttrName, existing, upd.Value)

	case DeleteAttr:
		if _, ok := attrs[upd.AttrName]; !ok {
			return ErrInputValidation.New("attribute %q does not exist", upd.AttrName)
		}
		delete(attrs, upd.AttrName)

	case ClearAllAttr:
		for name := range attrs {
			if !IsControlledAttr(name) {
				delete(attrs, name)
			}
		}
	}
	return nil
}

// appendAttr joins the elements of both values into a multi-valued
// attribute. A single-valued attribute becomes multi-valued.
func appendAttr(attrs map[string]Value, name string, existing, value Value) error {
	if existing.Type != value.Type {
		return ErrInputValidation.New("attribute %q holds %v elements, appended value is %v", name, existing.Type, value.Type)
	}
	joined, err := ArrayValue(append(existing.Elements(), value.Elements()...)...)
	if err != nil {
		return err
	}
	attrs[name] = joined
	return nil
}
