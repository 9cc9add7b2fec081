package graph

import "context"

// Service defines the interface for a build graph provider. It performs
// module resolution, dependency enumeration and bundle rendering on behalf
// of the HMR coordinator, which consumes it purely through this contract.
//
// ResolveDependencies must return modules in breadth-first traversal order
// starting from the entry file. The coordinator relies on that ordering to
// decide the order in which hot updates are applied on the client; it is a
// contract of this interface, not an incidental detail.
type Service interface {
	// ResolveDependencies computes the full transitive dependency closure
	// of opts.EntryFile for opts.Platform.
	ResolveDependencies(ctx context.Context, opts ResolveOptions) (*Resolution, error)

	// ResolveShallowDependencies returns only the direct (non-recursive)
	// dependencies of opts.EntryFile. This is expected to be cheap: a
	// single-file parse, no traversal.
	ResolveShallowDependencies(ctx context.Context, opts ResolveOptions) ([]Module, error)

	// ModuleForPath returns the module handle for a single source file.
	ModuleForPath(ctx context.Context, path string) (Module, error)

	// RenderBundle produces executable code for exactly the modules in res.
	// host and port identify the server the generated source URLs should
	// point back at.
	RenderBundle(ctx context.Context, res *Resolution, host string, port int) (*Bundle, error)

	// RegisterChangeListener subscribes fn to file change notifications.
	// Notifications are delivered one at a time from a single goroutine.
	// The returned function removes the subscription.
	RegisterChangeListener(fn ChangeListener) (remove func())
}

// Module is an opaque handle to one resolved source file.
type Module interface {
	// ID returns a stable identifier for the module, unique within a
	// resolution and stable across re-resolutions of an unchanged graph.
	ID() string

	// Name returns the display name of the module.
	Name() string

	// Path returns the absolute path of the backing source file.
	Path() string

	// IsAsset reports whether the module is a binary asset (image, font).
	// Assets cannot have further JS dependencies.
	IsAsset() bool

	// IsJSON reports whether the module is a JSON document.
	IsJSON() bool
}

// ResolveOptions selects what to resolve and how. The coordinator always
// resolves in development mode with hot reloading enabled and minification
// off; the flags are carried explicitly so the service does not have to
// guess.
type ResolveOptions struct {
	EntryFile string
	Platform  string
	Dev       bool
	Hot       bool
	Minify    bool
}

// Resolution is a re-derivable resolution context: the ordered dependency
// closure plus enough identity to render bundles restricted to a subset of
// its modules without redoing resolution.
type Resolution struct {
	// Dependencies is the closure in breadth-first order, entry first.
	Dependencies []Module

	EntryFile string
	Platform  string
}

// Subset returns a copy of the resolution restricted to the given modules.
// This is a cheap, non-recursive re-derivation; the service can render the
// result without resolving anything.
func (r *Resolution) Subset(mods ...Module) *Resolution {
	c := *r
	c.Dependencies = mods
	return &c
}

// Bundle is a renderable code bundle for a set of modules.
type Bundle struct {
	Modules           []BundleModule
	SourceURLs        []string
	SourceMappingURLs []string
}

// BundleModule pairs a module id with its generated code.
type BundleModule struct {
	ID   string
	Code string
}

// Empty reports whether the bundle carries no module code at all.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.Modules) == 0
}

// ChangeType classifies a file change notification.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeModify ChangeType = "change"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is one file change notification from the service's watcher.
type ChangeEvent struct {
	Type ChangeType
	Path string
}

// ChangeListener receives file change notifications.
type ChangeListener func(ChangeEvent)
