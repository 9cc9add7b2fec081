// Package local is a file-system backed implementation of the build graph
// contract. It scans require/import specifiers with regular expressions,
// resolves them relative to a project root, and watches the tree for
// changes. It exists so the server runs end to end without an external
// bundler; the coordinator itself only ever sees the graph.Service
// interface.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hotpush/backend/internal/graph"
)

var (
	requireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	importRe  = regexp.MustCompile(`(?m)^\s*(?:import|export)\b[^;'"]*?from\s+['"]([^'"]+)['"]`)
	bareRe    = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
)

type parsedFile struct {
	modTime    time.Time
	specifiers []string
}

type Service struct {
	root string
	exts []string

	cache *lru.Cache[string, parsedFile]

	mu        sync.Mutex
	listeners map[int]graph.ChangeListener
	nextID    int

	watch *watcher
}

type Options struct {
	Root       string
	Extensions []string
	Ignore     []string // doublestar globs, matched against root-relative paths
	Debounce   time.Duration
	CacheSize  int
}

func NewService(opts Options) (*Service, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	size := opts.CacheSize
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[string, parsedFile](size)
	if err != nil {
		return nil, err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".js", ".jsx", ".ts", ".tsx", ".json"}
	}

	s := &Service{
		root:      root,
		exts:      exts,
		cache:     cache,
		listeners: make(map[int]graph.ChangeListener),
	}
	s.watch = newWatcher(root, opts.Ignore, opts.Debounce, s.dispatch)
	return s, nil
}

// Start begins watching the project root. It returns once the watcher is
// armed; events are dispatched until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	return s.watch.start(ctx)
}

func (s *Service) ResolveDependencies(ctx context.Context, opts graph.ResolveOptions) (*graph.Resolution, error) {
	entry, err := s.entryPath(opts.EntryFile)
	if err != nil {
		return nil, err
	}

	// Breadth-first from the entry; the traversal order is part of the
	// service contract.
	var order []graph.Module
	seen := map[string]bool{entry: true}
	queue := []string{entry}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := queue[0]
		queue = queue[1:]

		mod := newModule(s.root, path)
		order = append(order, mod)

		if mod.IsAsset() || mod.IsJSON() {
			continue
		}

		deps, err := s.directDependencies(path)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if !seen[dep.Path()] {
				seen[dep.Path()] = true
				queue = append(queue, dep.Path())
			}
		}
	}

	return &graph.Resolution{
		Dependencies: order,
		EntryFile:    opts.EntryFile,
		Platform:     opts.Platform,
	}, nil
}

func (s *Service) ResolveShallowDependencies(ctx context.Context, opts graph.ResolveOptions) ([]graph.Module, error) {
	path, err := s.entryPath(opts.EntryFile)
	if err != nil {
		return nil, err
	}
	return s.directDependencies(path)
}

func (s *Service) ModuleForPath(_ context.Context, path string) (graph.Module, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, &graph.NotFoundError{Description: fmt.Sprintf("File %s does not exist", path), Filename: path}
	}
	return newModule(s.root, abs), nil
}

func (s *Service) RenderBundle(_ context.Context, res *graph.Resolution, host string, port int) (*graph.Bundle, error) {
	bundle := &graph.Bundle{}

	for _, mod := range res.Dependencies {
		code, err := s.renderModule(mod, host, port)
		if err != nil {
			return nil, err
		}
		bundle.Modules = append(bundle.Modules, graph.BundleModule{ID: mod.ID(), Code: code})
		bundle.SourceURLs = append(bundle.SourceURLs,
			fmt.Sprintf("http://%s:%d/%s.bundle", host, port, mod.ID()))
		bundle.SourceMappingURLs = append(bundle.SourceMappingURLs,
			fmt.Sprintf("http://%s:%d/%s.map", host, port, mod.ID()))
	}

	return bundle, nil
}

func (s *Service) renderModule(mod graph.Module, host string, port int) (string, error) {
	if mod.IsAsset() {
		uri := fmt.Sprintf("http://%s:%d/assets/%s", host, port, mod.ID())
		return fmt.Sprintf("__d(%q, function(global, require, module, exports) { module.exports = {uri: %q}; });",
			mod.ID(), uri), nil
	}

	data, err := os.ReadFile(mod.Path())
	if err != nil {
		return "", &graph.NotFoundError{Description: fmt.Sprintf("File %s does not exist", mod.Path()), Filename: mod.Path()}
	}

	if mod.IsJSON() {
		if !json.Valid(data) {
			return "", &graph.TransformError{
				Description: "invalid JSON",
				Filename:    mod.Path(),
				LineNumber:  1,
			}
		}
		return fmt.Sprintf("__d(%q, function(global, require, module, exports) { module.exports = %s; });",
			mod.ID(), strings.TrimSpace(string(data))), nil
	}

	return fmt.Sprintf("__d(%q, function(global, require, module, exports) {\n%s\n});",
		mod.ID(), string(data)), nil
}

func (s *Service) RegisterChangeListener(fn graph.ChangeListener) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// dispatch fans one change event out to the registered listeners. The
// watcher calls it from a single goroutine, so listeners observe events
// one at a time.
func (s *Service) dispatch(ev graph.ChangeEvent) {
	s.cache.Remove(ev.Path)

	s.mu.Lock()
	fns := make([]graph.ChangeListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) entryPath(entry string) (string, error) {
	if entry == "" {
		return "", &graph.NotFoundError{Description: "no entry file given"}
	}
	abs := entry
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", &graph.NotFoundError{Description: fmt.Sprintf("Entry file %s does not exist", entry), Filename: entry}
	}
	return abs, nil
}

// directDependencies parses path (through the LRU cache) and resolves its
// import specifiers to modules, in source order.
func (s *Service) directDependencies(path string) ([]graph.Module, error) {
	specs, err := s.specifiers(path)
	if err != nil {
		return nil, err
	}

	var deps []graph.Module
	for _, spec := range specs {
		resolved, err := s.resolveSpecifier(path, spec)
		if err != nil {
			return nil, err
		}
		deps = append(deps, newModule(s.root, resolved))
	}
	return deps, nil
}

func (s *Service) specifiers(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &graph.NotFoundError{Description: fmt.Sprintf("File %s does not exist", path), Filename: path}
	}

	if cached, ok := s.cache.Get(path); ok && cached.modTime.Equal(info.ModTime()) {
		return cached.specifiers, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &graph.NotFoundError{Description: fmt.Sprintf("File %s does not exist", path), Filename: path}
	}

	var specs []string
	seen := make(map[string]bool)
	for _, re := range []*regexp.Regexp{importRe, bareRe, requireRe} {
		for _, m := range re.FindAllStringSubmatch(string(data), -1) {
			if spec := m[1]; !seen[spec] {
				seen[spec] = true
				specs = append(specs, spec)
			}
		}
	}

	s.cache.Add(path, parsedFile{modTime: info.ModTime(), specifiers: specs})
	return specs, nil
}

// resolveSpecifier maps one import specifier to an absolute file path.
// Relative specifiers resolve against the importing file's directory; bare
// specifiers walk node_modules directories up from it.
func (s *Service) resolveSpecifier(from, spec string) (string, error) {
	dir := filepath.Dir(from)

	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == ".." {
		if p, ok := s.tryFile(filepath.Join(dir, spec)); ok {
			return p, nil
		}
		return "", s.unresolvable(from, spec)
	}

	for d := dir; strings.HasPrefix(d, s.root); d = filepath.Dir(d) {
		if p, ok := s.tryPackage(filepath.Join(d, "node_modules", spec)); ok {
			return p, nil
		}
		if d == s.root {
			break
		}
	}

	return "", s.unresolvable(from, spec)
}

// tryFile attempts base itself, base with each known extension, and
// base/index with each extension.
func (s *Service) tryFile(base string) (string, bool) {
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return base, true
	}
	for _, ext := range s.exts {
		if p := base + ext; exists(p) {
			return p, true
		}
	}
	for _, ext := range s.exts {
		if p := filepath.Join(base, "index"+ext); exists(p) {
			return p, true
		}
	}
	return "", false
}

// tryPackage resolves a node_modules package directory: package.json main
// first, then the usual file fallbacks.
func (s *Service) tryPackage(pkgDir string) (string, bool) {
	if data, err := os.ReadFile(filepath.Join(pkgDir, "package.json")); err == nil {
		var pkg struct {
			Main string `json:"main"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Main != "" {
			if p, ok := s.tryFile(filepath.Join(pkgDir, pkg.Main)); ok {
				return p, true
			}
		}
	}
	return s.tryFile(pkgDir)
}

func (s *Service) unresolvable(from, spec string) error {
	return &graph.UnableToResolveError{
		Description: fmt.Sprintf("Unable to resolve module %q from %q", spec, from),
		Filename:    from,
		LineNumber:  0,
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
