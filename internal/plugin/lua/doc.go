// Package lua runs template scripts on a sandboxed gopher-lua state.
//
// # State
//
// The State type manages one Lua runtime:
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	v, err := state.Eval(ctx, "string.upper(_1)", "main")
//	// v.Text == "MAIN"
//
// Eval accepts either a bare expression or a chunk with explicit return
// statements. Positional arguments are visible as the globals _1, _2, ...
//
// Scripts loaded with DoString may define global functions; Functions lists
// them and Call invokes them by name.
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. The loaders
// dofile, loadfile, load, loadstring and require are removed, so a script
// cannot reach the file system or load other code.
//
// # Limits
//
// Every call runs under a context. The execution timeout is applied on top
// of the caller's context; gopher-lua checks it between instructions, so
// runaway loops are interrupted.
//
// # Thread Safety
//
// gopher-lua states are single-threaded. State serializes access with a
// mutex, so it may be shared, but calls never run in parallel.
package lua
