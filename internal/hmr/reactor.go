package hmr

import (
	"context"

	"github.com/hotpush/backend/internal/graph"
	"github.com/hotpush/backend/internal/ws"
)

// handleFileChange is the listener registered with the build graph service.
// For every relevant event it emits update-start, at most one update or
// error frame, then update-done, in that order on the session's channel.
//
// The service delivers notifications one at a time, but a disconnect can
// race with the computation, so liveness is re-checked after every
// suspension point; once the session is gone all remaining emissions for
// the event are suppressed.
func (c *Coordinator) handleFileChange(ev graph.ChangeEvent) {
	sess := c.registry.Live()
	if sess == nil {
		return
	}
	if c.isExcluded(ev.Path) {
		return
	}

	ctx := context.Background()

	if err := sess.Channel.Send(ws.UpdateStart()); err != nil {
		c.disconnect(sess)
		return
	}

	// Deletions are acknowledged with the start/done pair only; there is
	// no module payload to compute for a file that no longer exists.
	if ev.Type != graph.ChangeDelete {
		frame, err := c.buildUpdate(ctx, sess, ev.Path)
		if err != nil {
			msg := c.translateError(err)
			frame = &msg
		}
		if !c.registry.IsLive(sess) {
			return
		}
		if frame != nil {
			if err := sess.Channel.Send(*frame); err != nil {
				c.disconnect(sess)
				return
			}
		}
	}

	if !c.registry.IsLive(sess) {
		return
	}
	if err := sess.Channel.Send(ws.UpdateDone()); err != nil {
		c.disconnect(sess)
	}
}
