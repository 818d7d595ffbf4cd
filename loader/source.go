package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// ErrScript marks a content script that could not be evaluated.
var ErrScript = errors.New("content script failed")

// Source fetches one content file by its canonical name (for example
// "status-effect.json" or "i18n/en.json") and returns JSON bytes.
// A missing file must yield an error matching fs.ErrNotExist.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FSSource reads content from any fs.FS.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(s.FS, name)
}

// DirSource reads content from a directory on disk.
func DirSource(dir string) FSSource {
	return FSSource{FS: os.DirFS(dir)}
}

// StaticSource serves content from memory. Tests use it to assemble
// corpora file by file.
type StaticSource map[string][]byte

func (s StaticSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

// luaName maps "event-map.json" to "event-map.lua".
func luaName(name string) string {
	ext := path.Ext(name)
	return name[:len(name)-len(ext)] + ".lua"
}
