// Package ast defines the Lua AST node vocabulary consumed by the
// evaluator. Nodes are a pure data source: nothing in this package
// parses source text, it only models the shape a lexer/parser would
// hand the interpreter.
package ast

// NodeType names a concrete node for decoding and diagnostics.
type NodeType string

const (
	NodeNilLiteral       NodeType = "NilLiteral"
	NodeBoolLiteral      NodeType = "BoolLiteral"
	NodeNumberLiteral    NodeType = "NumberLiteral"
	NodeStringLiteral    NodeType = "StringLiteral"
	NodeVarargsLiteral   NodeType = "VarargsLiteral"
	NodeVariable         NodeType = "Variable"
	NodeTableAccess      NodeType = "TableAccess"
	NodeFunctionCall     NodeType = "FunctionCall"
	NodeBinaryExpression NodeType = "BinaryExpression"
	NodeUnaryExpression  NodeType = "UnaryExpression"
	NodeFunctionDef      NodeType = "FunctionDefinition"
	NodeTableConstructor NodeType = "TableConstructor"

	NodeAssignment      NodeType = "Assignment"
	NodeLocalAssignment NodeType = "LocalAssignment"
	NodeReturnStat      NodeType = "ReturnStat"
	NodeBreakStat       NodeType = "BreakStat"
	NodeBlock           NodeType = "Block"
	NodeIfStat          NodeType = "IfStat"
	NodeWhileStat       NodeType = "WhileStat"
	NodeRepeatStat      NodeType = "RepeatStat"
	NodeNumericFor      NodeType = "NumericFor"
	NodeGenericFor      NodeType = "GenericFor"
)

// Node is the root interface every AST node satisfies.
type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	kind NodeType
}

func (n nodeImpl) NodeType() NodeType { return n.kind }
func (nodeImpl) isNode()              {}

func newNode(kind NodeType) nodeImpl { return nodeImpl{kind: kind} }

// Expression is any node that evaluates to a LuaArguments list.
type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Statement is any node executed for effect, possibly carrying a
// control signal.
type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Assignable is an expression that may appear on the left of an
// Assignment: a bare or prefixed Variable, or a TableAccess.
type Assignable interface {
	Expression
	assignableNode()
}

type assignableMarker struct{}

func (assignableMarker) assignableNode() {}

//-----------------------------------------------------------------------------
// Literals
//-----------------------------------------------------------------------------

type NilLiteral struct {
	nodeImpl
	expressionMarker
}

func NewNilLiteral() *NilLiteral {
	return &NilLiteral{nodeImpl: newNode(NodeNilLiteral)}
}

type BoolLiteral struct {
	nodeImpl
	expressionMarker
	Value bool
}

func NewBoolLiteral(v bool) *BoolLiteral {
	return &BoolLiteral{nodeImpl: newNode(NodeBoolLiteral), Value: v}
}

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	Value float64
}

func NewNumberLiteral(v float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNode(NodeNumberLiteral), Value: v}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	Value string
}

func NewStringLiteral(v string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNode(NodeStringLiteral), Value: v}
}

// VarargsLiteral is the `...` expression.
type VarargsLiteral struct {
	nodeImpl
	expressionMarker
}

func NewVarargsLiteral() *VarargsLiteral {
	return &VarargsLiteral{nodeImpl: newNode(NodeVarargsLiteral)}
}

//-----------------------------------------------------------------------------
// Variables and indexing
//-----------------------------------------------------------------------------

// Variable is a bare name lookup (Prefix == nil) or a dotted field
// access sugar (Prefix != nil).
type Variable struct {
	nodeImpl
	expressionMarker
	assignableMarker
	Prefix Expression // nil for a bare name
	Name   string
}

func NewVariable(prefix Expression, name string) *Variable {
	return &Variable{nodeImpl: newNode(NodeVariable), Prefix: prefix, Name: name}
}

// TableAccess is `expr[index]`.
type TableAccess struct {
	nodeImpl
	expressionMarker
	assignableMarker
	Expr  Expression
	Index Expression
}

func NewTableAccess(expr, index Expression) *TableAccess {
	return &TableAccess{nodeImpl: newNode(NodeTableAccess), Expr: expr, Index: index}
}

//-----------------------------------------------------------------------------
// Calls, operators, functions, tables
//-----------------------------------------------------------------------------

type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker
	Callee Expression
	Args   []Expression
}

func NewFunctionCall(callee Expression, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNode(NodeFunctionCall), Callee: callee, Args: args}
}

// BinaryOp enumerates Lua's binary operators.
type BinaryOp string

const (
	OpAdd            BinaryOp = "Addition"
	OpSub            BinaryOp = "Subtraction"
	OpMul            BinaryOp = "Multiplication"
	OpDiv            BinaryOp = "Division"
	OpMod            BinaryOp = "Modulo"
	OpPow            BinaryOp = "Power"
	OpConcat         BinaryOp = "Concat"
	OpEqual          BinaryOp = "Equal"
	OpDifferent      BinaryOp = "Different"
	OpLessThan       BinaryOp = "LessThan"
	OpLessOrEqual    BinaryOp = "LessOrEqual"
	OpGreaterThan    BinaryOp = "GreaterThan"
	OpGreaterOrEqual BinaryOp = "GreaterOrEqual"
	OpAnd            BinaryOp = "And"
	OpOr             BinaryOp = "Or"
)

type BinaryExpression struct {
	nodeImpl
	expressionMarker
	Operator BinaryOp
	Left     Expression
	Right    Expression
}

func NewBinaryExpression(op BinaryOp, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNode(NodeBinaryExpression), Operator: op, Left: left, Right: right}
}

// UnaryOp enumerates Lua's unary operators.
type UnaryOp string

const (
	OpNegate UnaryOp = "Negate" // logical `not`
	OpInvert UnaryOp = "Invert" // arithmetic negation `-x`
	OpLength UnaryOp = "Length" // `#x`
)

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	Operator UnaryOp
	Expr     Expression
}

func NewUnaryExpression(op UnaryOp, expr Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNode(NodeUnaryExpression), Operator: op, Expr: expr}
}

type FunctionDefinition struct {
	nodeImpl
	expressionMarker
	Params   []string
	IsVararg bool
	Body     *Block
}

func NewFunctionDefinition(params []string, isVararg bool, body *Block) *FunctionDefinition {
	return &FunctionDefinition{nodeImpl: newNode(NodeFunctionDef), Params: params, IsVararg: isVararg, Body: body}
}

// TableField is one entry of a TableConstructor. A nil Key marks a
// positional (array-style) field.
type TableField struct {
	Key   Expression // nil => positional
	Value Expression
}

type TableConstructor struct {
	nodeImpl
	expressionMarker
	Fields []TableField
}

func NewTableConstructor(fields []TableField) *TableConstructor {
	return &TableConstructor{nodeImpl: newNode(NodeTableConstructor), Fields: fields}
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type Assignment struct {
	nodeImpl
	statementMarker
	Targets []Assignable
	Values  []Expression
}

func NewAssignment(targets []Assignable, values []Expression) *Assignment {
	return &Assignment{nodeImpl: newNode(NodeAssignment), Targets: targets, Values: values}
}

type LocalAssignment struct {
	nodeImpl
	statementMarker
	Names  []string
	Values []Expression
}

func NewLocalAssignment(names []string, values []Expression) *LocalAssignment {
	return &LocalAssignment{nodeImpl: newNode(NodeLocalAssignment), Names: names, Values: values}
}

type ReturnStat struct {
	nodeImpl
	statementMarker
	Values []Expression
}

func NewReturnStat(values []Expression) *ReturnStat {
	return &ReturnStat{nodeImpl: newNode(NodeReturnStat), Values: values}
}

type BreakStat struct {
	nodeImpl
	statementMarker
}

func NewBreakStat() *BreakStat {
	return &BreakStat{nodeImpl: newNode(NodeBreakStat)}
}

type Block struct {
	nodeImpl
	statementMarker
	Stmts []Statement
}

func NewBlock(stmts []Statement) *Block {
	return &Block{nodeImpl: newNode(NodeBlock), Stmts: stmts}
}

// CondBlock pairs a condition with the block that runs when it holds,
// used for both `if` and `elseif` arms.
type CondBlock struct {
	Cond  Expression
	Block *Block
}

type IfStat struct {
	nodeImpl
	statementMarker
	Cond      Expression
	Then      *Block
	ElseIfs   []CondBlock
	ElseBlock *Block // nil when absent
}

func NewIfStat(cond Expression, then *Block, elseifs []CondBlock, elseBlock *Block) *IfStat {
	return &IfStat{nodeImpl: newNode(NodeIfStat), Cond: cond, Then: then, ElseIfs: elseifs, ElseBlock: elseBlock}
}

type WhileStat struct {
	nodeImpl
	statementMarker
	Cond  Expression
	Block *Block
}

func NewWhileStat(cond Expression, block *Block) *WhileStat {
	return &WhileStat{nodeImpl: newNode(NodeWhileStat), Cond: cond, Block: block}
}

type RepeatStat struct {
	nodeImpl
	statementMarker
	Block *Block
	Cond  Expression
}

func NewRepeatStat(block *Block, cond Expression) *RepeatStat {
	return &RepeatStat{nodeImpl: newNode(NodeRepeatStat), Block: block, Cond: cond}
}

type NumericFor struct {
	nodeImpl
	statementMarker
	Var   string
	Start Expression
	Limit Expression
	Step  Expression // nil => defaults to 1
	Block *Block
}

func NewNumericFor(v string, start, limit, step Expression, block *Block) *NumericFor {
	return &NumericFor{nodeImpl: newNode(NodeNumericFor), Var: v, Start: start, Limit: limit, Step: step, Block: block}
}

type GenericFor struct {
	nodeImpl
	statementMarker
	Vars  []string
	Exprs []Expression
	Block *Block
}

func NewGenericFor(vars []string, exprs []Expression, block *Block) *GenericFor {
	return &GenericFor{nodeImpl: newNode(NodeGenericFor), Vars: vars, Exprs: exprs, Block: block}
}
