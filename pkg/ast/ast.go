package ast

import "github.com/mjkstrm/wistful/pkg/token"

type NodeType string

const (
	NodeNumberExpression         NodeType = "NumberExpression"
	NodeNegativeNumberExpression NodeType = "NegativeNumberExpression"
	NodeLiteralExpression        NodeType = "LiteralExpression"
	NodeIdentifierExpression     NodeType = "IdentifierExpression"
	NodeBinaryExpression         NodeType = "BinaryExpression"
	NodeAssignmentExpression     NodeType = "AssignmentExpression"
	NodeConditionExpression      NodeType = "ConditionExpression"
	NodeIfExpression             NodeType = "IfExpression"
	NodeElseExpression           NodeType = "ElseExpression"
	NodeWhileExpression          NodeType = "WhileExpression"
	NodeEOF                      NodeType = "EOF"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Operands and literals

type NumberExpression struct {
	nodeImpl

	Value float64 `json:"value"`
}

func NewNumberExpression(value float64) *NumberExpression {
	return &NumberExpression{nodeImpl: newNodeImpl(NodeNumberExpression), Value: value}
}

// NegativeNumberExpression is unary minus; it binds tighter than any binary operator.
type NegativeNumberExpression struct {
	nodeImpl

	Operand Node `json:"operand"`
}

func NewNegativeNumberExpression(operand Node) *NegativeNumberExpression {
	return &NegativeNumberExpression{nodeImpl: newNodeImpl(NodeNegativeNumberExpression), Operand: operand}
}

// LiteralExpression carries string, boolean and reserved-word literals.
type LiteralExpression struct {
	nodeImpl

	Text    string        `json:"text"`
	Keyword token.Keyword `json:"keyword"`
}

func NewLiteralExpression(text string, keyword token.Keyword) *LiteralExpression {
	return &LiteralExpression{nodeImpl: newNodeImpl(NodeLiteralExpression), Text: text, Keyword: keyword}
}

type IdentifierExpression struct {
	nodeImpl

	Name string `json:"name"`
}

func NewIdentifierExpression(name string) *IdentifierExpression {
	return &IdentifierExpression{nodeImpl: newNodeImpl(NodeIdentifierExpression), Name: name}
}

// Operators

type BinaryExpression struct {
	nodeImpl

	Left     Node       `json:"left"`
	Operator token.Kind `json:"operator"`
	Right    Node       `json:"right"`
}

func NewBinaryExpression(operator token.Kind, left, right Node) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Left: left, Operator: operator, Right: right}
}

type AssignmentExpression struct {
	nodeImpl

	Identifier *IdentifierExpression `json:"identifier"`
	Operator   token.Kind            `json:"operator"`
	Expr       Node                  `json:"expr"`
}

func NewAssignmentExpression(identifier *IdentifierExpression, expr Node) *AssignmentExpression {
	return &AssignmentExpression{
		nodeImpl:   newNodeImpl(NodeAssignmentExpression),
		Identifier: identifier,
		Operator:   token.KindAssignment,
		Expr:       expr,
	}
}

// ConditionExpression is an equality test; it is the only comparison the language has.
type ConditionExpression struct {
	nodeImpl

	Left     Node       `json:"left"`
	Operator token.Kind `json:"operator"`
	Right    Node       `json:"right"`
}

func NewConditionExpression(left, right Node) *ConditionExpression {
	return &ConditionExpression{
		nodeImpl: newNodeImpl(NodeConditionExpression),
		Left:     left,
		Operator: token.KindEquals,
		Right:    right,
	}
}

// Control flow

type IfExpression struct {
	nodeImpl

	Condition  Node            `json:"condition"`
	ThenBranch []Node          `json:"thenBranch"`
	ElseBranch *ElseExpression `json:"elseBranch,omitempty"`
}

func NewIfExpression(condition Node, thenBranch []Node, elseBranch *ElseExpression) *IfExpression {
	return &IfExpression{
		nodeImpl:   newNodeImpl(NodeIfExpression),
		Condition:  condition,
		ThenBranch: thenBranch,
		ElseBranch: elseBranch,
	}
}

// ElseExpression is one link of the elif/else chain. A nil Condition marks the
// terminal else, which must be the last link.
type ElseExpression struct {
	nodeImpl

	Condition  Node            `json:"condition,omitempty"`
	ThenBranch []Node          `json:"thenBranch"`
	ElseBranch *ElseExpression `json:"elseBranch,omitempty"`
}

func NewElseExpression(condition Node, thenBranch []Node, elseBranch *ElseExpression) *ElseExpression {
	return &ElseExpression{
		nodeImpl:   newNodeImpl(NodeElseExpression),
		Condition:  condition,
		ThenBranch: thenBranch,
		ElseBranch: elseBranch,
	}
}

// IsTerminal reports whether this link is a plain else.
func (e *ElseExpression) IsTerminal() bool {
	return e.Condition == nil
}

type WhileExpression struct {
	nodeImpl

	Condition  Node   `json:"condition,omitempty"`
	ThenBranch []Node `json:"thenBranch"`
}

func NewWhileExpression(condition Node, thenBranch []Node) *WhileExpression {
	return &WhileExpression{nodeImpl: newNodeImpl(NodeWhileExpression), Condition: condition, ThenBranch: thenBranch}
}

// EOF marks the end of input. The parser stops at end of input without
// emitting this node, and evaluating one is an error.
type EOF struct {
	nodeImpl

	Text string `json:"text"`
}

func NewEOF(text string) *EOF {
	return &EOF{nodeImpl: newNodeImpl(NodeEOF), Text: text}
}
