// Package builtin provides the standard function catalogue for template
// expressions.
//
// Register installs every function into an expression registry:
//
//	reg := expr.NewRegistry()
//	if err := builtin.Register(reg, builtin.WithLua(state)); err != nil {
//		return err
//	}
//	e := expr.Parse(`capitalize(NAME)`, reg)
//
// Text functions (concat, substringBefore, capitalize, decapitalize,
// lowercase, uppercase, snakeCase, camelCase, spaceSeparated,
// regularExpression) compute a quick result from quick argument values, so
// they follow typing without a committed syntax model.
//
// enum offers its arguments as candidates. date, time and uuid read the
// environment; selection and lineNumber read the session. luaScript runs a
// chunk in a sandboxed Lua state and is only available when a state is
// supplied with WithLua.
package builtin
