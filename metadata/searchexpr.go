// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"time"
)

// SearchOperator compares one attribute against a search value.
type SearchOperator string

// Search operators.
const (
	SearchEQ     SearchOperator = "EQ"
	SearchNE     SearchOperator = "NE"
	SearchLT     SearchOperator = "LT"
	SearchLE     SearchOperator = "LE"
	SearchGT     SearchOperator = "GT"
	SearchGE     SearchOperator = "GE"
	SearchIN     SearchOperator = "IN"
	SearchExists SearchOperator = "EXISTS"
)

// Valid reports whether the operator is one of the defined comparisons.
func (op SearchOperator) Valid() bool {
	switch op {
	case SearchEQ, SearchNE, SearchLT, SearchLE, SearchGT, SearchGE, SearchIN, SearchExists:
		return true
	}
	return false
}

// Ordered reports whether the operator needs an ordered attribute type.
func (op SearchOperator) Ordered() bool {
	switch op {
	case SearchLT, SearchLE, SearchGT, SearchGE:
		return true
	}
	return false
}

// LogicalOperator combines sub-expressions.
type LogicalOperator string

// Logical operators.
const (
	LogicalAND LogicalOperator = "AND"
	LogicalOR  LogicalOperator = "OR"
	LogicalNOT LogicalOperator = "NOT"
)

// Valid reports whether the operator is AND, OR or NOT.
func (op LogicalOperator) Valid() bool {
	switch op {
	case LogicalAND, LogicalOR, LogicalNOT:
		return true
	}
	return false
}

// SearchTerm is a single comparison of one attribute.
//
// EXISTS terms may leave AttrType unspecified and carry no value; every
// other operator requires a typed value. IN takes an array value, the rest
// take a single value of the declared type.
type SearchTerm struct {
	AttrName string         `json:"attrName"`
	AttrType AttrType       `json:"attrType,omitempty"`
	Operator SearchOperator `json:"operator"`
	Value    Value          `json:"value,omitempty"`
}

// LogicalExpression combines sub-expressions under AND, OR or NOT.
type LogicalExpression struct {
	Operator LogicalOperator     `json:"operator"`
	Items    []*SearchExpression `json:"items"`
}

// SearchExpression is one node of a search: either a term or a logical
// combination, never both.
type SearchExpression struct {
	Term    *SearchTerm        `json:"term,omitempty"`
	Logical *LogicalExpression `json:"logical,omitempty"`
}

// Exp wraps a term into an expression.
func Exp(term SearchTerm) *SearchExpression {
	return &SearchExpression{Term: &term}
}

// And combines expressions under AND.
func And(items ...*SearchExpression) *SearchExpression {
	return &SearchExpression{Logical: &LogicalExpression{Operator: LogicalAND, Items: items}}
}

// Or combines expressions under OR.
func Or(items ...*SearchExpression) *SearchExpression {
	return &SearchExpression{Logical: &LogicalExpression{Operator: LogicalOR, Items: items}}
}

// Not negates an expression.
func Not(item *SearchExpression) *SearchExpression {
	return &SearchExpression{Logical: &LogicalExpression{Operator: LogicalNOT, Items: []*SearchExpression{item}}}
}

// SearchParameters describes one search request. With no expression every
// object of the requested type matches. The temporal flags widen the set of
// tags considered: PriorVersions includes every object version, PriorTags
// every tag of included versions, and AsOf restricts both axes to rows
// created at or before the given instant.
type SearchParameters struct {
	ObjectType    ObjectType        `json:"objectType"`
	Expression    *SearchExpression `json:"expression,omitempty"`
	AsOf          *time.Time        `json:"asOf,omitempty"`
	PriorVersions bool              `json:"priorVersions,omitempty"`
	PriorTags     bool              `json:"priorTags,omitempty"`
}

// Verify checks the request shape and every expression node.
func (params SearchParameters) Verify() error {
	if !params.ObjectType.Valid() {
		return ErrInputValidation.New("search object type invalid")
	}
	if params.AsOf != nil && params.AsOf.IsZero() {
		return ErrInputValidation.New("search as-of time is zero")
	}
	if params.Expression != nil {
		return params.Expression.Verify()
	}
	return nil
}

// Verify checks that the node carries exactly one of term or logical and
// recursively validates it.
func (exp *SearchExpression) Verify() error {
	switch {
	case exp == nil:
		return ErrInputValidation.New("search expression missing")
	case exp.Term != nil && exp.Logical != nil:
		return ErrInputValidation.New("search expression carries both term and logical node")
	case exp.Term != nil:
		return exp.Term.Verify()
	case exp.Logical != nil:
		return exp.Logical.Verify()
	default:
		return ErrInputValidation.New("search expression is empty")
	}
}

// Verify checks operator arity and every sub-expression.
func (logical *LogicalExpression) Verify() error {
	if !logical.Operator.Valid() {
		return ErrInputValidation.New("logical operator %q invalid", string(logical.Operator))
	}
	if logical.Operator == LogicalNOT && len(logical.Items) != 1 {
		return ErrInputValidation.New("NOT takes exactly one sub-expression, got %d", len(logical.Items))
	}
	if len(logical.Items) == 0 {
		return ErrInputValidation.New("%s needs at least one sub-expression", string(logical.Operator))
	}
	for _, item := range logical.Items {
		if err := item.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks the term against the operator rules.
func (term *SearchTerm) Verify() error {
	if err := VerifyAttrName(term.AttrName); err != nil {
		return err
	}
	if !term.Operator.Valid() {
		return ErrInputValidation.New("search operator %q invalid", string(term.Operator))
	}

	if term.Operator == SearchExists {
		if term.AttrType != AttrTypeUnspecified && !term.AttrType.Valid() {
			return ErrInputValidation.New("search term type invalid")
		}
		if term.Value.Type != AttrTypeUnspecified {
			return ErrInputValidation.New("EXISTS takes no search value")
		}
		return nil
	}

	if !term.AttrType.Valid() {
		return ErrInputValidation.New("search term type missing for %s", string(term.Operator))
	}
	if err := term.Value.Verify(); err != nil {
		return err
	}
	if term.Value.Type != term.AttrType {
		return ErrInputValidation.New("search value is %v, term expects %v", term.Value.Type, term.AttrType)
	}

	switch term.Operator {
	case SearchEQ, SearchNE:
		if term.Value.Multi {
			return ErrInputValidation.New("%s takes a single search value", string(term.Operator))
		}
	case SearchLT, SearchLE, SearchGT, SearchGE:
		if !term.AttrType.Ordered() {
			return ErrInputValidation.New("%s requires an ordered type, got %v", string(term.Operator), term.AttrType)
		}
		if term.Value.Multi {
			return ErrInputValidation.New("%s takes a single search value", string(term.Operator))
		}
	case SearchIN:
		if !term.Value.Multi {
			return ErrInputValidation.New("IN takes an array of search values")
		}
		if term.AttrType == AttrTypeBoolean {
			return ErrInputValidation.New("IN does not apply to boolean attributes")
		}
	}
	return nil
}
