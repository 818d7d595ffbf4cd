package loader

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLua(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestLuaSource_ArrayFile(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "armor.lua", `
local function armor(id, name, def)
  return { id = id, name = name, defense = def }
end
return {
  armor("leather_vest", "Leather Vest", 3),
  armor("cloth_robe", "Cloth Robe", 1 + 1),
}`)

	b, err := LuaSource{Dir: dir}.Fetch(context.Background(), "armor.json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "leather_vest", got[0]["id"])
	assert.Equal(t, float64(2), got[1]["defense"])
}

func TestLuaSource_LocaleInSubdir(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "i18n/en.lua", `return { ["menu.title"] = "Menu" }`)

	b, err := LuaSource{Dir: dir}.Fetch(context.Background(), "i18n/en.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"menu.title":"Menu"}`, string(b))
}

func TestLuaSource_Errors(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "number.lua", `return 5`)
	writeLua(t, dir, "nothing.lua", `local x = 1`)
	writeLua(t, dir, "syntax.lua", `return {`)
	writeLua(t, dir, "escape.lua", `local os = require("os"); return {}`)
	writeLua(t, dir, "random.lua", `return { math.random() }`)
	src := LuaSource{Dir: dir}

	for _, name := range []string{"number.json", "nothing.json", "syntax.json", "escape.json", "random.json"} {
		_, err := src.Fetch(context.Background(), name)
		assert.True(t, errors.Is(err, ErrScript), "%s: %v", name, err)
	}

	_, err := src.Fetch(context.Background(), "absent.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLuaToGo_EmptyTable(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "shop.lua", `return { { id = "s", name = "S", items = {} } }`)

	b, err := LuaSource{Dir: dir}.Fetch(context.Background(), "shop.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s","name":"S","items":null}]`, string(b))
}
