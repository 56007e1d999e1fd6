// Package ast defines the expression tree produced by the parser and the
// post-order analysis pass that annotates it.
package ast

import "github.com/pumped-fn/reaxpr/value"

// Kind tags which node variant a Node holds.
type Kind uint8

const (
	Program Kind = iota
	Literal
	Identifier
	This
	Locals
	ValueParameter
	Array
	Object
	Member
	Call
	Assignment
	Unary
	Binary
	Logical
	Conditional
)

// Property is one key/value pair of an Object node literal.
type Property struct {
	Key      *Node // Identifier or Literal
	Value    *Node
	Computed bool
}

// Node is a tagged AST record. Not every field is meaningful for
// every Kind; see the Kind-specific comments on each field.
type Node struct {
	Kind Kind

	// Program
	Body []*Node

	// Literal
	Value value.Value

	// Identifier / Member(non-computed property name)
	Name string

	// Array
	Elements []*Node

	// Object
	Properties []Property

	// Member
	Object   *Node
	Property *Node
	Computed bool

	// Call
	Callee    *Node
	Arguments []*Node
	Filter    string // non-empty for `x | name:args`

	// Assignment
	Left  *Node
	Right *Node

	// Unary / Binary / Logical
	Operator string
	Argument *Node // Unary
	L, R     *Node // Binary, Logical

	// Conditional
	Test       *Node
	Consequent *Node
	Alternate  *Node

	// set by Analyze
	Constant bool
	ToWatch  []*Node
}

// IsAssignable reports whether a node shape can be used as an lvalue
// (Identifier or Member); illegal lvalues are caught by the compiler, not
// the parser.
func (n *Node) IsAssignable() bool {
	return n.Kind == Identifier || n.Kind == Member
}
