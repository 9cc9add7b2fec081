// Package hmr coordinates hot module replacement for one connected
// development client: it keeps a cached dependency snapshot for the
// client's bundle, reacts to file change notifications from the build
// graph service, and pushes minimal ordered code updates over the wire.
package hmr

import (
	"context"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/hotpush/backend/internal/graph"
	"github.com/hotpush/backend/internal/session"
	"github.com/hotpush/backend/internal/ws"
)

type Coordinator struct {
	svc      graph.Service
	registry *session.Registry

	// Bound address of the HTTP server, used to build source URLs in
	// rendered bundles.
	host string
	port int

	// Path fragments that must never trigger a push. Matched by substring.
	excluded []string

	mu             sync.Mutex
	removeListener func()
}

func NewCoordinator(svc graph.Service, registry *session.Registry, host string, port int, excluded []string) *Coordinator {
	return &Coordinator{
		svc:      svc,
		registry: registry,
		host:     host,
		port:     port,
		excluded: excluded,
	}
}

// Connect builds the initial dependency snapshot for the client's bundle,
// installs the session, and arms the file change listener. A client that
// connects while another session is live supersedes it; the old channel is
// left open but no longer receives pushes.
//
// If the initial snapshot cannot be built the error is reported on the
// channel and the channel closed; no session is installed.
func (c *Coordinator) Connect(ctx context.Context, ch session.Channel, platform, entryFile string) {
	snap, err := session.BuildSnapshot(ctx, c.svc, platform, entryFile)
	if err != nil {
		log.Printf("hmr: initial snapshot for %s failed: %v", entryFile, err)
		if sendErr := ch.Send(c.translateError(err)); sendErr != nil {
			log.Printf("hmr: reporting connect failure: %v", sendErr)
		}
		ch.Close()
		return
	}

	sess := session.New(ch, platform, entryFile, snap)
	c.registry.Install(sess)

	c.mu.Lock()
	if c.removeListener != nil {
		c.removeListener()
	}
	c.removeListener = c.svc.RegisterChangeListener(c.handleFileChange)
	c.mu.Unlock()

	log.Printf("hmr: session ready, %d modules tracked for %s", len(snap.Dependencies), entryFile)
}

// Disconnect tears down the session owning ch. A channel that is not the
// live session's (already superseded, already cleared) is ignored.
func (c *Coordinator) Disconnect(ch session.Channel) {
	sess := c.registry.Live()
	if sess != nil && sess.Channel == ch {
		c.disconnect(sess)
	}
}

func (c *Coordinator) disconnect(sess *session.Session) {
	if !c.registry.Clear(sess) {
		return
	}

	c.mu.Lock()
	if c.removeListener != nil {
		c.removeListener()
		c.removeListener = nil
	}
	c.mu.Unlock()

	sess.Channel.Close()
	log.Printf("hmr: session for %s closed", sess.EntryFile)
}

// translateError maps an update computation failure onto the wire error
// taxonomy. Service errors pass through typed; everything else is logged
// here and reported opaquely.
func (c *Coordinator) translateError(err error) ws.Message {
	if kind, desc, file, line, ok := graph.Classify(err); ok {
		return ws.EncodeError(kind, desc, file, line)
	}
	log.Printf("hmr: internal error during update: %v", err)
	return ws.EncodeError(graph.KindInternal, "An unexpected error occurred while computing the update.", "", 0)
}

// renderHost resolves the host rendered source URLs should point at. The
// bound address is used verbatim unless it is empty or the unspecified
// address, in which case clients are directed at loopback.
func (c *Coordinator) renderHost() string {
	if c.host == "" {
		return "localhost"
	}
	if ip := net.ParseIP(strings.Trim(c.host, "[]")); ip != nil && ip.IsUnspecified() {
		return "localhost"
	}
	return c.host
}

func (c *Coordinator) isExcluded(path string) bool {
	for _, frag := range c.excluded {
		if frag != "" && strings.Contains(path, frag) {
			return true
		}
	}
	return false
}
