package hmr

import (
	"context"

	"github.com/hotpush/backend/internal/graph"
	"github.com/hotpush/backend/internal/session"
	"github.com/hotpush/backend/internal/ws"
)

// buildUpdate computes the update frame for a change to path, or nil when
// there is nothing to ship: the file is not part of the bundle, the bundle
// rendered empty, or the session was torn down mid-computation. Service
// errors are returned for the caller to translate.
func (c *Coordinator) buildUpdate(ctx context.Context, sess *session.Session, path string) (*ws.Message, error) {
	snap := sess.Snapshot()

	// Recompute just the changed file's direct dependencies. If they are
	// unchanged the graph shape is stable and a single-module render
	// suffices; otherwise the whole snapshot has to be rebuilt.
	shallow, err := c.svc.ResolveShallowDependencies(ctx, graph.ResolveOptions{
		EntryFile: path,
		Platform:  sess.Platform,
		Dev:       true,
		Hot:       true,
	})
	if err != nil {
		return nil, err
	}
	if !c.registry.IsLive(sess) {
		return nil, nil
	}

	var resolution *graph.Resolution

	if sameModules(snap.ShallowDeps[path], shallow) {
		mod, err := c.svc.ModuleForPath(ctx, path)
		if err != nil {
			return nil, err
		}
		if !c.registry.IsLive(sess) {
			return nil, nil
		}
		resolution = snap.Resolution.Subset(mod)
	} else {
		fresh, err := session.BuildSnapshot(ctx, c.svc, sess.Platform, sess.EntryFile)
		if err != nil {
			return nil, err
		}
		if !c.registry.IsLive(sess) {
			return nil, nil
		}

		mod, err := c.svc.ModuleForPath(ctx, path)
		if err != nil {
			return nil, err
		}
		if !c.registry.IsLive(sess) {
			return nil, nil
		}

		// The changed module first, then every module the old snapshot
		// had never seen, in resolution order. The resolution order is
		// breadth-first from the entry, so new modules precede the
		// modules that discovered them; reversing makes the changed
		// module land last on the client, after all of its new
		// dependencies have been defined.
		toUpdate := []graph.Module{mod}
		for _, m := range fresh.Dependencies {
			if _, known := snap.ModuleIndex[m.ID()]; !known {
				toUpdate = append(toUpdate, m)
			}
		}
		reverse(toUpdate)

		sess.SetSnapshot(fresh)
		snap = fresh
		resolution = fresh.Resolution.Subset(toUpdate...)
	}

	// The file may have dropped out of the bundle entirely; nothing to
	// report in that case.
	if _, ok := snap.ShallowDeps[path]; !ok {
		return nil, nil
	}

	bundle, err := c.svc.RenderBundle(ctx, resolution, c.renderHost(), c.port)
	if err != nil {
		return nil, err
	}
	if !c.registry.IsLive(sess) {
		return nil, nil
	}

	msg, ok := ws.EncodeUpdate(bundle, snap.InverseDeps)
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

// sameModules reports whether two dependency lists carry the same module
// identities in the same order.
func sameModules(a, b []graph.Module) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}

func reverse(mods []graph.Module) {
	for i, j := 0, len(mods)-1; i < j; i, j = i+1, j-1 {
		mods[i], mods[j] = mods[j], mods[i]
	}
}
