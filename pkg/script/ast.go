package script

// Expr is an expression node.
type Expr interface{ exprNode() }

// Stmt is a statement node.
type Stmt interface{ stmtNode() }

type (
	Const struct{ Value Value }
	Name  struct{ ID string }

	FString struct {
		Parts []Expr // string constants or formatted fields
	}
	FormattedValue struct {
		Value Expr
		Spec  string
		Conv  byte
	}

	UnaryOp struct {
		Op      string
		Operand Expr
	}
	BinOp struct {
		Op          string
		Left, Right Expr
	}
	BoolOp struct {
		Op     string // "and" | "or"
		Values []Expr
	}
	Compare struct {
		Left        Expr
		Ops         []string
		Comparators []Expr
	}
	IfExp struct {
		Test, Body, Orelse Expr
	}
	Attribute struct {
		Value Expr
		Attr  string
	}
	Subscript struct {
		Value Expr
		Index Expr
	}
	Slice struct {
		Lower, Upper, Step Expr
	}
	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []Keyword
	}
	Keyword struct {
		Name  string
		Value Expr
	}
	ListExpr      struct{ Elts []Expr }
	TupleExpr     struct{ Elts []Expr }
	DictExpr      struct{ Keys, Values []Expr }
	Comprehension struct {
		Kind   string // "list" | "dict"
		Key    Expr   // dict only
		Elt    Expr
		Target Expr
		Iter   Expr
		Ifs    []Expr
	}
)

func (*Const) exprNode()          {}
func (*Name) exprNode()           {}
func (*FString) exprNode()        {}
func (*FormattedValue) exprNode() {}
func (*UnaryOp) exprNode()        {}
func (*BinOp) exprNode()          {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*IfExp) exprNode()          {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Slice) exprNode()          {}
func (*Call) exprNode()           {}
func (*ListExpr) exprNode()       {}
func (*TupleExpr) exprNode()      {}
func (*DictExpr) exprNode()       {}
func (*Comprehension) exprNode()  {}

type (
	ExprStmt struct{ Value Expr }
	Assign   struct {
		Targets []Expr
		Value   Expr
	}
	AugAssign struct {
		Target Expr
		Op     string
		Value  Expr
	}
	If struct {
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}
	For struct {
		Target Expr
		Iter   Expr
		Body   []Stmt
		Orelse []Stmt
	}
	While struct {
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}
	Delete struct{ Targets []Expr }
	Import struct {
		Module string
		Names  []ImportName // empty for "import module"
		Alias  string
	}
	ImportName struct {
		Name, Alias string
	}
	Pass     struct{}
	Break    struct{}
	Continue struct{}
)

func (*ExprStmt) stmtNode()  {}
func (*Assign) stmtNode()    {}
func (*AugAssign) stmtNode() {}
func (*If) stmtNode()        {}
func (*For) stmtNode()       {}
func (*While) stmtNode()     {}
func (*Delete) stmtNode()    {}
func (*Import) stmtNode()    {}
func (*Pass) stmtNode()      {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}

// Program is a parsed statement sequence.
type Program struct {
	Body []Stmt
}
