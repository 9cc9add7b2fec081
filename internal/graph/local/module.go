package local

import (
	"path/filepath"
	"strings"
)

var assetExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".ttf":  true,
	".otf":  true,
	".mp3":  true,
	".mp4":  true,
}

// module implements graph.Module for files under a project root. The id is
// the root-relative path, which is stable across re-resolutions as long as
// the file does not move.
type module struct {
	path string // absolute
	id   string // root-relative, slash-separated
}

func newModule(root, path string) module {
	id := path
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		id = rel
	}
	return module{path: path, id: filepath.ToSlash(id)}
}

func (m module) ID() string   { return m.id }
func (m module) Name() string { return m.id }
func (m module) Path() string { return m.path }

func (m module) IsAsset() bool {
	return assetExts[strings.ToLower(filepath.Ext(m.path))]
}

func (m module) IsJSON() bool {
	return strings.EqualFold(filepath.Ext(m.path), ".json")
}
