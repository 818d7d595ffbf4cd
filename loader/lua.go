package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// LuaSource reads content authored as Lua files. Each file is evaluated
// once in a fresh sandboxed VM and must return a single table, which is
// converted to the same JSON shape as the .json file it replaces. The VM
// is discarded after evaluation.
type LuaSource struct {
	Dir string
}

func (s LuaSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := filepath.Join(s.Dir, filepath.FromSlash(luaName(name)))
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("stat %s: %w", file, fs.ErrNotExist)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	openSafeLibs(L)
	sandbox(L)

	top := L.GetTop()
	if err := L.DoFile(file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, luaName(name), err)
	}
	if L.GetTop() == top {
		return nil, fmt.Errorf("%w: %s: file must return a table", ErrScript, luaName(name))
	}
	ret := L.Get(-1)
	if ret.Type() != lua.LTTable {
		return nil, fmt.Errorf("%w: %s: returned %s, want table", ErrScript, luaName(name), ret.Type())
	}

	data, err := json.Marshal(luaToGo(ret))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, luaName(name), err)
	}
	return data, nil
}

// openSafeLibs opens only the side-effect free subset of the Lua stdlib.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the file or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring", "require",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "print",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}

// luaToGo converts a Lua value into the generic shape encoding/json
// produces. Tables with only 1..n integer keys become arrays; other tables
// become objects. An empty table becomes nil so it decodes into either.
func luaToGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		n := v.MaxN()
		keys := 0
		v.ForEach(func(lua.LValue, lua.LValue) { keys++ })
		if keys == 0 {
			return nil
		}
		if n > 0 && n == keys {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, luaToGo(v.RawGetInt(i)))
			}
			return arr
		}
		obj := make(map[string]any, keys)
		v.ForEach(func(k, val lua.LValue) {
			obj[k.String()] = luaToGo(val)
		})
		return obj
	default:
		return nil
	}
}
