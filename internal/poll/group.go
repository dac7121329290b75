// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"context"
	"sort"
	"sync"
)

// Key identifies a poll by job stage and entity id.
func Key(stage, id string) string {
	return stage + ":" + id
}

// Group deduplicates polls by key. A second Join for a key that is already
// being polled waits for the running poll instead of starting another. The
// poll keeps running while at least one caller is waiting for it; it is
// cancelled and forgotten when the last waiter leaves, or on Cancel.
//
// Progress published by the poll fans out to the callers waiting at that
// moment. A caller that leaves stops receiving it.
type Group struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done    chan struct{}
	cancel  context.CancelFunc
	waiters map[*waiter]struct{}
	val     any
	err     error
}

type waiter struct {
	onTick func(any)
}

// Do runs fn for key, or joins the run already in progress. shared reports
// whether the result came from a run started by another caller. fn receives
// a context that carries ctx's values but is cancelled only by the group,
// and a publish func that hands progress to the onTick of every current
// waiter. onTick may be nil.
func (g *Group) Do(ctx context.Context, key string, fn func(ctx context.Context, publish func(any)) (any, error), onTick func(any)) (v any, shared bool, err error) {
	w := &waiter{onTick: onTick}

	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	c, shared := g.calls[key]
	if !shared {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call{done: make(chan struct{}), cancel: cancel, waiters: make(map[*waiter]struct{})}
		g.calls[key] = c
		go g.run(runCtx, key, c, fn)
	}
	c.waiters[w] = struct{}{}
	g.mu.Unlock()

	select {
	case <-c.done:
		return c.val, shared, c.err
	case <-ctx.Done():
		g.leave(key, c, w)
		return nil, shared, ctx.Err()
	}
}

// leave drops w from c. The last waiter out cancels the run and frees the
// key, so the next Do starts a fresh poll.
func (g *Group) leave(key string, c *call, w *waiter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(c.waiters, w)
	if len(c.waiters) > 0 {
		return
	}
	c.cancel()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
}

func (g *Group) run(ctx context.Context, key string, c *call, fn func(ctx context.Context, publish func(any)) (any, error)) {
	defer c.cancel()
	c.val, c.err = fn(ctx, func(v any) { g.publish(c, v) })

	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	g.mu.Unlock()
	close(c.done)
}

// publish calls the onTick of every waiter still on c. Callbacks run
// outside the lock.
func (g *Group) publish(c *call, v any) {
	g.mu.Lock()
	ticks := make([]func(any), 0, len(c.waiters))
	for w := range c.waiters {
		if w.onTick != nil {
			ticks = append(ticks, w.onTick)
		}
	}
	g.mu.Unlock()

	for _, tick := range ticks {
		tick(v)
	}
}

// Active reports whether a poll for key is running.
func (g *Group) Active(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}

// Keys returns the keys of all running polls, sorted.
func (g *Group) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.calls))
	for k := range g.calls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Cancel stops the poll for key, if any. Its waiters receive the poll's
// cancellation error.
func (g *Group) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.calls[key]; ok {
		c.cancel()
	}
}

// CancelAll stops every running poll.
func (g *Group) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		c.cancel()
	}
}

// Join is the typed form of Group.Do. fn publishes progress through tick;
// onTick, when non-nil, receives it for as long as this caller waits.
func Join[T any](ctx context.Context, g *Group, key string, fn func(ctx context.Context, tick func(T)) (T, error), onTick func(T)) (T, bool, error) {
	var sub func(any)
	if onTick != nil {
		sub = func(v any) {
			if t, ok := v.(T); ok {
				onTick(t)
			}
		}
	}
	v, shared, err := g.Do(ctx, key, func(ctx context.Context, publish func(any)) (any, error) {
		return fn(ctx, func(t T) { publish(t) })
	}, sub)
	t, _ := v.(T)
	return t, shared, err
}
