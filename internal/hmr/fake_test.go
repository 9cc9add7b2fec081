package hmr

import (
	"context"
	"fmt"
	"sync"

	"github.com/hotpush/backend/internal/graph"
	"github.com/hotpush/backend/internal/session"
	"github.com/hotpush/backend/internal/ws"
)

type fakeModule struct {
	id    string
	path  string
	asset bool
	json  bool
}

func (m fakeModule) ID() string    { return m.id }
func (m fakeModule) Name() string  { return m.id }
func (m fakeModule) Path() string  { return m.path }
func (m fakeModule) IsAsset() bool { return m.asset }
func (m fakeModule) IsJSON() bool  { return m.json }

func mod(id string) fakeModule {
	return fakeModule{id: id, path: "/src/" + id}
}

// fakeService is a scriptable build graph service. Tests mutate its fields
// between events to simulate graph edits; hooks fire during service calls
// so disconnect races can be staged deterministically.
type fakeService struct {
	mu sync.Mutex

	resolution  *graph.Resolution
	shallow     map[string][]graph.Module
	modules     map[string]graph.Module
	shallowErrs map[string]error
	resolveErr  error
	renderErr   error
	emptyBundle bool

	resolveCalls int
	rendered     []*graph.Resolution
	renderedHost string
	renderedPort int

	onShallow func(path string)
	onRender  func()

	listeners map[int]graph.ChangeListener
	nextID    int
	removals  int
}

// newFixture builds a service whose graph is a.js -> x.js.
func newFixture() *fakeService {
	a, x := mod("a.js"), mod("x.js")
	return &fakeService{
		resolution: &graph.Resolution{
			Dependencies: []graph.Module{a, x},
			EntryFile:    a.path,
			Platform:     "ios",
		},
		shallow: map[string][]graph.Module{
			a.path: {x},
			x.path: {},
		},
		modules: map[string]graph.Module{
			a.path: a,
			x.path: x,
		},
		listeners: make(map[int]graph.ChangeListener),
	}
}

func (f *fakeService) ResolveDependencies(_ context.Context, _ graph.ResolveOptions) (*graph.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.resolution, nil
}

func (f *fakeService) ResolveShallowDependencies(_ context.Context, opts graph.ResolveOptions) ([]graph.Module, error) {
	if f.onShallow != nil {
		f.onShallow(opts.EntryFile)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.shallowErrs[opts.EntryFile]; err != nil {
		return nil, err
	}
	deps, ok := f.shallow[opts.EntryFile]
	if !ok {
		return nil, nil
	}
	return deps, nil
}

func (f *fakeService) ModuleForPath(_ context.Context, path string) (graph.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.modules[path]; ok {
		return m, nil
	}
	return nil, &graph.NotFoundError{Description: fmt.Sprintf("File %s does not exist", path), Filename: path}
}

func (f *fakeService) RenderBundle(_ context.Context, res *graph.Resolution, host string, port int) (*graph.Bundle, error) {
	if f.onRender != nil {
		f.onRender()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	f.rendered = append(f.rendered, res)
	f.renderedHost = host
	f.renderedPort = port
	if f.emptyBundle {
		return &graph.Bundle{}, nil
	}

	bundle := &graph.Bundle{}
	for _, m := range res.Dependencies {
		bundle.Modules = append(bundle.Modules, graph.BundleModule{ID: m.ID(), Code: "__d(" + m.ID() + ")"})
		bundle.SourceURLs = append(bundle.SourceURLs, fmt.Sprintf("http://%s:%d/%s.bundle", host, port, m.ID()))
		bundle.SourceMappingURLs = append(bundle.SourceMappingURLs, fmt.Sprintf("http://%s:%d/%s.map", host, port, m.ID()))
	}
	return bundle, nil
}

func (f *fakeService) RegisterChangeListener(fn graph.ChangeListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
		f.removals++
	}
}

func (f *fakeService) lastRendered() *graph.Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rendered) == 0 {
		return nil
	}
	return f.rendered[len(f.rendered)-1]
}

// fakeChannel records every frame sent to the client.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []ws.Message
	sendErr error
	closed  bool
}

func (c *fakeChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, v.(ws.Message))
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) frames() []ws.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ws.Message(nil), c.sent...)
}

func newTestCoordinator(svc graph.Service, host string, excluded []string) (*Coordinator, *session.Registry) {
	registry := session.NewRegistry()
	return NewCoordinator(svc, registry, host, 8081, excluded), registry
}

// connect installs a session for a fresh fake channel and returns both.
func connect(c *Coordinator, platform, entry string) *fakeChannel {
	ch := &fakeChannel{}
	c.Connect(context.Background(), ch, platform, entry)
	return ch
}
