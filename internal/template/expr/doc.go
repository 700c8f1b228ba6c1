// Package expr implements the expression language of template variables.
//
// A variable's expression is a small call language:
//
//	concat(snakeCase(NAME), "_id")
//	enum("int", "long")
//	CLASS = "Main"
//
// A quoted string is a Constant. An identifier that names a registered
// function is a FunctionCall, optionally followed by a parenthesised,
// comma-separated argument list. Any other identifier is a VariableRef to
// another template variable, optionally followed by "= expr" giving the
// value used when the variable is still empty.
//
// Template text is edited by hand and re-parsed on every keystroke, so
// Parse never fails: malformed input yields the longest tree that makes
// sense, with gaps filled by the empty constant.
package expr
