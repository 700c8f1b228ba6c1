package lua

import lua "github.com/yuin/gopher-lua"

// removedGlobals are loaders that could escape the sandbox.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

// openSafeLibraries opens only safe Lua standard libraries.
//
// These are intentionally NOT opened:
//   - io (file system access)
//   - os (system calls, execute)
//   - debug (can bypass sandbox)
//   - package (can load arbitrary modules)
func openSafeLibraries(L *lua.LState) {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// installSandbox removes the loaders from the global table.
func installSandbox(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// globalNames returns the names of all string-keyed globals.
func globalNames(L *lua.LState) map[string]bool {
	names := make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			names[string(ks)] = true
		}
	})
	return names
}
