package config

// ConfigFileNames are the recognized assembly configuration file names, in
// lookup order.
var ConfigFileNames = []string{"calcore.yaml", "calcore.yml"}

// Built-in type names
const (
	NilTypeName   = "Nil"
	BoolTypeName  = "Bool"
	IntTypeName   = "Int"
	FloatTypeName = "Float"
	StrTypeName   = "Str"
	ListTypeName  = "List"
	TupleTypeName = "Tuple"
	FuncTypeName  = "Func"
)

// BuiltinTypeNames lists the prelude types in definition order.
var BuiltinTypeNames = []string{
	NilTypeName, BoolTypeName, IntTypeName, FloatTypeName,
	StrTypeName, ListTypeName, TupleTypeName, FuncTypeName,
}

// Operator identifiers
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
	OpPow = "**"
	OpEq  = "=="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpNeg = "-"
	OpNot = "not"
	OpLen = "#"
)

// Built-in function names
const (
	SqrtFuncName   = "sqrt"
	AbsFuncName    = "abs"
	FloorFuncName  = "floor"
	LenFuncName    = "len"
	StrFuncName    = "str"
	UpperFuncName  = "upper"
	LowerFuncName  = "lower"
	MinFuncName    = "min"
	MaxFuncName    = "max"
	DivmodFuncName = "divmod"
	RangeFuncName  = "range"
	TypeOfFuncName = "typeof"
	PowFuncName    = "pow"
	ConcatFuncName = "concat"
	FormatFuncName = "format"
)

// Prelude groups
const (
	GroupNumeric     = "numeric"
	GroupStrings     = "strings"
	GroupLogic       = "logic"
	GroupCollections = "collections"
)

var PreludeGroups = []string{GroupNumeric, GroupStrings, GroupLogic, GroupCollections}

// Str attribute names exposed through getattr
const (
	UpperAttrName  = "upper"
	LowerAttrName  = "lower"
	LengthAttrName = "length"
)
