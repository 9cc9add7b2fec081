package session

import (
	"context"

	"github.com/hotpush/backend/internal/graph"
)

// Snapshot is one consistent view of a client's dependency graph. All four
// derived structures are computed from the same resolution; a snapshot is
// replaced as a whole, never patched field by field.
type Snapshot struct {
	// Dependencies is the full closure in the service's breadth-first
	// order, entry first.
	Dependencies []graph.Module

	// ShallowDeps maps a file path to the ordered list of its direct
	// dependencies. Asset and JSON modules are present with an empty list.
	ShallowDeps map[string][]graph.Module

	// ModuleIndex maps module id to its handle, restricted to Dependencies.
	ModuleIndex map[string]graph.Module

	// InverseDeps maps a module id to the ids of the modules that directly
	// require it.
	InverseDeps map[string][]string

	// Resolution is the re-derivable context used to request renders
	// scoped to a subset of the closure.
	Resolution *graph.Resolution
}

// BuildSnapshot resolves the full dependency closure of entryFile for
// platform and derives the snapshot's indices from it. On any service
// error the partial snapshot is discarded and the error returned as-is.
func BuildSnapshot(ctx context.Context, svc graph.Service, platform, entryFile string) (*Snapshot, error) {
	res, err := svc.ResolveDependencies(ctx, graph.ResolveOptions{
		EntryFile: entryFile,
		Platform:  platform,
		Dev:       true,
		Hot:       true,
	})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Dependencies: res.Dependencies,
		ShallowDeps:  make(map[string][]graph.Module, len(res.Dependencies)),
		ModuleIndex:  make(map[string]graph.Module, len(res.Dependencies)),
		InverseDeps:  make(map[string][]string),
		Resolution:   res,
	}

	for _, mod := range res.Dependencies {
		snap.ModuleIndex[mod.ID()] = mod

		// Assets and JSON cannot require anything further; skip the
		// per-file call and record them with no dependencies.
		if mod.IsAsset() || mod.IsJSON() {
			snap.ShallowDeps[mod.Path()] = nil
			continue
		}

		deps, err := svc.ResolveShallowDependencies(ctx, graph.ResolveOptions{
			EntryFile: mod.Path(),
			Platform:  platform,
			Dev:       true,
			Hot:       true,
		})
		if err != nil {
			return nil, err
		}
		snap.ShallowDeps[mod.Path()] = deps
	}

	// Invert the graph: for every edge mod -> dep, record mod as a
	// dependent of dep.
	for _, mod := range res.Dependencies {
		for _, dep := range snap.ShallowDeps[mod.Path()] {
			snap.InverseDeps[dep.ID()] = append(snap.InverseDeps[dep.ID()], mod.ID())
		}
	}

	return snap, nil
}
