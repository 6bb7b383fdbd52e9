// Package ast defines the program tree consumed by the evaluator.
//
// Expressions are kept flat: an Exp is an ordered list of terms, where a
// term is either a value-producing literal/name/sub-expression or an
// operator tagged with its associativity and precedence. Operator
// precedence is resolved at evaluation time (shunting yard), not at parse
// time.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/internal/token"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

// Term is one element of a flattened expression: either a value term or
// an operator term.
type Term interface {
	Node
	termNode()
}

// OperatorTerm is implemented by all operator terms (unary, infix and
// postfix). The evaluator's shunting yard only needs these two tags.
type OperatorTerm interface {
	Term
	Assoc() Associativity
	Precedence() int
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
	}
	return out.String()
}

type Block struct {
	Token      token.Token // the token.LBRACE token
	Statements []Statement
}

func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// Exp is a flat, ordered list of terms.
type Exp struct {
	Terms []Term
}

func (e *Exp) TokenLiteral() string {
	if len(e.Terms) > 0 {
		return e.Terms[0].TokenLiteral()
	}
	return ""
}

func (e *Exp) String() string {
	parts := make([]string, 0, len(e.Terms))
	for _, t := range e.Terms {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}

// Associativity of an operator term.
type Associativity int

const (
	AssocLeft Associativity = iota
	AssocRight
)

// Operator precedence levels, tagged onto operator terms by the parser.
const (
	PrecOr         = 1
	PrecAnd        = 2
	PrecEquality   = 3
	PrecComparison = 4
	PrecSum        = 5
	PrecProduct    = 6
	PrecUnary      = 7
	PrecPostfix    = 8
)

// ----------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------

type ReturnStatement struct {
	Token token.Token // the token.RETURN token
	Value *Exp
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	return "return " + rs.Value.String() + ";"
}

// AssignStep is one drilldown step of an assignment target: an array
// index or a structure field.
type AssignStep interface {
	Node
	assignStepNode()
}

type IndexStep struct {
	Token token.Token // the token.LBRACKET token
	Index *Exp
}

func (is *IndexStep) assignStepNode()      {}
func (is *IndexStep) TokenLiteral() string { return is.Token.Literal }
func (is *IndexStep) String() string       { return "[" + is.Index.String() + "]" }

type FieldStep struct {
	Token token.Token // the token.PERIOD token
	Field string
}

func (fs *FieldStep) assignStepNode()      {}
func (fs *FieldStep) TokenLiteral() string { return fs.Token.Literal }
func (fs *FieldStep) String() string       { return "." + fs.Field }

// Assignable is an assignment target: a base name plus zero or more
// drilldown steps, e.g. `a`, `a[5]`, `a[5].b`.
type Assignable struct {
	Token token.Token // the base token.IDENT token
	Name  string
	Steps []AssignStep
}

func (a *Assignable) TokenLiteral() string { return a.Token.Literal }
func (a *Assignable) String() string {
	var out bytes.Buffer
	out.WriteString(a.Name)
	for _, s := range a.Steps {
		out.WriteString(s.String())
	}
	return out.String()
}

type AssignStatement struct {
	Token  token.Token // the token.ASSIGN token
	Target *Assignable
	Value  *Exp
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Target.String() + " = " + as.Value.String() + ";"
}

type ExpStatement struct {
	Token token.Token // the first token of the expression
	Value *Exp
}

func (es *ExpStatement) statementNode()       {}
func (es *ExpStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpStatement) String() string       { return es.Value.String() + ";" }

type IfStatement struct {
	Token token.Token // the token.IF token
	Cond  *Exp
	Then  *Block
	Else  *Block // nil when there is no else branch
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Cond.String())
	out.WriteString(") ")
	out.WriteString(is.Then.String())
	if is.Else != nil {
		out.WriteString(" else ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token token.Token // the token.WHILE token
	Cond  *Exp
	Block *Block
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Cond.String() + ") " + ws.Block.String()
}

type ForStatement struct {
	Token   token.Token // the token.FOR token
	Init    Statement
	Cond    *Exp
	Advance Statement // an assignment or a bare expression statement
	Block   *Block
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	out.WriteString(fs.Init.String())
	out.WriteString(" ")
	out.WriteString(fs.Cond.String())
	out.WriteString("; ")
	out.WriteString(strings.TrimSuffix(fs.Advance.String(), ";"))
	out.WriteString(") ")
	out.WriteString(fs.Block.String())
	return out.String()
}

type ForInStatement struct {
	Token token.Token // the token.FOR token
	Name  string
	Array *Exp
	Block *Block
}

func (fs *ForInStatement) statementNode()       {}
func (fs *ForInStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStatement) String() string {
	return "for (" + fs.Name + " in " + fs.Array.String() + ") " + fs.Block.String()
}

// ----------------------------------------------------------------------
// Operator terms
// ----------------------------------------------------------------------

type UnaryOp int

const (
	UnaryNot UnaryOp = iota // !
	UnaryNeg                // -
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "!"
	}
	return "-"
}

type UnaryTerm struct {
	Token token.Token
	Op    UnaryOp
}

func (ut *UnaryTerm) termNode()            {}
func (ut *UnaryTerm) TokenLiteral() string { return ut.Token.Literal }
func (ut *UnaryTerm) String() string       { return ut.Op.String() }
func (ut *UnaryTerm) Assoc() Associativity { return AssocRight }
func (ut *UnaryTerm) Precedence() int      { return PrecUnary }

type InfixOp int

const (
	InfixMul InfixOp = iota
	InfixMod
	InfixDiv
	InfixPlus
	InfixMinus
	InfixLt
	InfixGt
	InfixLe
	InfixGe
	InfixEq
	InfixNe
	InfixAnd
	InfixOr
)

var infixNames = [...]string{"*", "%", "/", "+", "-", "<", ">", "<=", ">=", "==", "!=", "&&", "||"}

var infixPrecedences = [...]int{
	InfixMul:   PrecProduct,
	InfixMod:   PrecProduct,
	InfixDiv:   PrecProduct,
	InfixPlus:  PrecSum,
	InfixMinus: PrecSum,
	InfixLt:    PrecComparison,
	InfixGt:    PrecComparison,
	InfixLe:    PrecComparison,
	InfixGe:    PrecComparison,
	InfixEq:    PrecEquality,
	InfixNe:    PrecEquality,
	InfixAnd:   PrecAnd,
	InfixOr:    PrecOr,
}

func (op InfixOp) String() string { return infixNames[op] }

type InfixTerm struct {
	Token token.Token
	Op    InfixOp
}

func (it *InfixTerm) termNode()            {}
func (it *InfixTerm) TokenLiteral() string { return it.Token.Literal }
func (it *InfixTerm) String() string       { return it.Op.String() }
func (it *InfixTerm) Assoc() Associativity { return AssocLeft }
func (it *InfixTerm) Precedence() int      { return infixPrecedences[it.Op] }

// CallTerm is the postfix call operator: pops a callable base value.
type CallTerm struct {
	Token token.Token // the token.LPAREN token
	Args  []*Exp
}

func (ct *CallTerm) termNode()            {}
func (ct *CallTerm) TokenLiteral() string { return ct.Token.Literal }
func (ct *CallTerm) String() string {
	args := make([]string, 0, len(ct.Args))
	for _, a := range ct.Args {
		args = append(args, a.String())
	}
	return "(" + strings.Join(args, ", ") + ")"
}
func (ct *CallTerm) Assoc() Associativity { return AssocLeft }
func (ct *CallTerm) Precedence() int      { return PrecPostfix }

// SubscriptTerm is the postfix index operator: pops an indexable base value.
type SubscriptTerm struct {
	Token token.Token // the token.LBRACKET token
	Index *Exp
}

func (st *SubscriptTerm) termNode()            {}
func (st *SubscriptTerm) TokenLiteral() string { return st.Token.Literal }
func (st *SubscriptTerm) String() string       { return "[" + st.Index.String() + "]" }
func (st *SubscriptTerm) Assoc() Associativity { return AssocLeft }
func (st *SubscriptTerm) Precedence() int      { return PrecPostfix }

// DotTerm is the postfix field-access operator: pops a structure base value.
type DotTerm struct {
	Token token.Token // the token.PERIOD token
	Field string
}

func (dt *DotTerm) termNode()            {}
func (dt *DotTerm) TokenLiteral() string { return dt.Token.Literal }
func (dt *DotTerm) String() string       { return "." + dt.Field }
func (dt *DotTerm) Assoc() Associativity { return AssocLeft }
func (dt *DotTerm) Precedence() int      { return PrecPostfix }

// ----------------------------------------------------------------------
// Value terms
// ----------------------------------------------------------------------

type NumTerm struct {
	Token token.Token
	Value float64
}

func (nt *NumTerm) termNode()            {}
func (nt *NumTerm) TokenLiteral() string { return nt.Token.Literal }
func (nt *NumTerm) String() string       { return strconv.FormatFloat(nt.Value, 'f', -1, 64) }

type StringTerm struct {
	Token token.Token
	Value string
}

func (st *StringTerm) termNode()            {}
func (st *StringTerm) TokenLiteral() string { return st.Token.Literal }
func (st *StringTerm) String() string       { return `"` + st.Value + `"` }

type NullTerm struct {
	Token token.Token
}

func (nt *NullTerm) termNode()            {}
func (nt *NullTerm) TokenLiteral() string { return nt.Token.Literal }
func (nt *NullTerm) String() string       { return "null" }

type NameTerm struct {
	Token token.Token
	Name  string
}

func (nt *NameTerm) termNode()            {}
func (nt *NameTerm) TokenLiteral() string { return nt.Token.Literal }
func (nt *NameTerm) String() string       { return nt.Name }

// ParenTerm is a parenthesized sub-expression.
type ParenTerm struct {
	Token token.Token // the token.LPAREN token
	Exp   *Exp
}

func (pt *ParenTerm) termNode()            {}
func (pt *ParenTerm) TokenLiteral() string { return pt.Token.Literal }
func (pt *ParenTerm) String() string       { return "(" + pt.Exp.String() + ")" }

// FunctionTerm is a closure literal, e.g. `fn(a, b) { return a + b; }`.
type FunctionTerm struct {
	Token  token.Token // the token.FUNCTION token
	Params []string
	Body   *Block
}

func (ft *FunctionTerm) termNode()            {}
func (ft *FunctionTerm) TokenLiteral() string { return ft.Token.Literal }
func (ft *FunctionTerm) String() string {
	return "fn(" + strings.Join(ft.Params, ", ") + ") " + ft.Body.String()
}

type StructureField struct {
	Name  string
	Value *Exp
}

// StructureTerm is a structure literal, e.g. `{x: 1, y: 2}`. Field order
// is preserved for receiver binding but is otherwise irrelevant.
type StructureTerm struct {
	Token  token.Token // the token.LBRACE token
	Fields []StructureField
}

func (st *StructureTerm) termNode()            {}
func (st *StructureTerm) TokenLiteral() string { return st.Token.Literal }
func (st *StructureTerm) String() string {
	fields := make([]string, 0, len(st.Fields))
	for _, f := range st.Fields {
		fields = append(fields, f.Name+": "+f.Value.String())
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

// ArraySizeTerm is a sized array initializer `[n]`, producing n Nulls.
type ArraySizeTerm struct {
	Token token.Token // the token.LBRACKET token
	Size  *Exp
}

func (at *ArraySizeTerm) termNode()            {}
func (at *ArraySizeTerm) TokenLiteral() string { return at.Token.Literal }
func (at *ArraySizeTerm) String() string       { return "[" + at.Size.String() + "]" }

// ArrayRangeTerm is a range array initializer `[from:to]`, producing the
// numbers of the half-open interval [from, to).
type ArrayRangeTerm struct {
	Token token.Token // the token.LBRACKET token
	From  *Exp
	To    *Exp
}

func (at *ArrayRangeTerm) termNode()            {}
func (at *ArrayRangeTerm) TokenLiteral() string { return at.Token.Literal }
func (at *ArrayRangeTerm) String() string {
	return "[" + at.From.String() + ":" + at.To.String() + "]"
}
