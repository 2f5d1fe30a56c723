// Package livelist keeps a server-backed list fresh by polling and applies
// optimistic local mutations on top of it.
//
// The controller holds the last authoritative list plus a queue of pending
// operations. The displayed list is always recomputed as
// server list + pending operations, so a poll that lands while an operation
// is in flight never erases what the user just did.
package livelist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campusconnect/internal/clock"
	"campusconnect/internal/poller"
)

var (
	ErrDisposed   = errors.New("live list disposed")
	ErrUnknownKey = errors.New("live list entry not found")
)

const DefaultMaxUnconfirmedCycles = 3

type Status int

const (
	StatusConfirmed Status = iota
	StatusPending
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return "confirmed"
	}
}

type State int

const (
	StateIdle State = iota
	StateFetching
	StateReconciling
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	case StateDisposed:
		return "disposed"
	default:
		return "idle"
	}
}

type Entry[T any] struct {
	Value  T
	Key    string
	Status Status
}

type Options[T any] struct {
	Key func(T) string
	// Less orders the list. Nil keeps the order the server returned.
	Less  func(a, b T) bool
	Fetch func(ctx context.Context) ([]T, error)
	// Interval of zero disables polling.
	Interval time.Duration
	// MaxUnconfirmedCycles is how many polls may start after a successful
	// action without reflecting it before the action is given up on.
	MaxUnconfirmedCycles int
	// Fatal reports poll errors that should stop polling for good.
	Fatal  func(error) bool
	Clock  clock.Clock
	Logger zerolog.Logger
	// OnChange receives every new version of the list. It must not call
	// Dispose.
	OnChange func([]Entry[T])
}

type opKind int

const (
	opAppend opKind = iota
	opPatch
)

type pendingOp[T any] struct {
	kind opKind
	key  string

	// append
	value  T
	match  func(T) bool
	acked  bool
	ackKey string
	failed bool

	// patch
	patch     func(T) T
	confirmed func(T) bool

	settled  bool
	startSeq uint64
	cycles   int
}

func (op *pendingOp[T]) displayKey() string {
	if op.acked {
		return op.ackKey
	}
	return op.key
}

type Controller[T any] struct {
	opts Options[T]
	log  zerolog.Logger

	fetchMu sync.Mutex

	mu       sync.Mutex
	state    State
	server   []T
	ops      []*pendingOp[T]
	view     []Entry[T]
	version  uint64
	fetchSeq uint64
	task     *poller.Task

	emitMu      sync.Mutex
	lastEmitted uint64
}

func New[T any](opts Options[T]) *Controller[T] {
	if opts.MaxUnconfirmedCycles <= 0 {
		opts.MaxUnconfirmedCycles = DefaultMaxUnconfirmedCycles
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Controller[T]{
		opts: opts,
		log:  opts.Logger.With().Str("component", "livelist").Logger(),
	}
}

// Mount performs the initial fetch and starts polling. The initial fetch
// error is returned to the caller; polling still starts unless the error is
// fatal.
func (c *Controller[T]) Mount(ctx context.Context) error {
	err := c.fetch(ctx)
	if errors.Is(err, ErrDisposed) {
		return err
	}
	if err != nil && c.isFatal(err) {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisposed {
		return ErrDisposed
	}
	if c.task == nil && c.opts.Interval > 0 {
		c.task = poller.Start(c.opts.Clock, c.opts.Interval, c.poll, c.log)
	}
	return err
}

// Refresh fetches immediately and surfaces any error. It waits for an
// in-flight poll to finish first.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.fetch(ctx)
}

func (c *Controller[T]) poll(ctx context.Context) {
	err := c.fetch(ctx)
	switch {
	case err == nil, errors.Is(err, ErrDisposed):
	case c.isFatal(err):
		c.log.Info().Err(err).Msg("polling stopped")
		c.stopPolling()
	default:
		c.log.Debug().Err(err).Msg("poll failed, retrying next tick")
	}
}

func (c *Controller[T]) isFatal(err error) bool {
	return c.opts.Fatal != nil && c.opts.Fatal(err)
}

func (c *Controller[T]) stopPolling() {
	c.mu.Lock()
	task := c.task
	c.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}

func (c *Controller[T]) fetch(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.fetchSeq++
	seq := c.fetchSeq
	c.state = StateFetching
	c.mu.Unlock()

	items, err := c.opts.Fetch(ctx)

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}
	c.state = StateReconciling
	c.reconcile(seq, items)
	c.state = StateIdle
	view, version := c.rebuild()
	c.mu.Unlock()

	c.emit(view, version)
	return nil
}

// Append shows value immediately as pending, then runs call. On failure the
// entry is removed and the error returned. On success the entry stays until
// a fetched item matches it or the returned value's key, or until the cycle
// bound passes, after which it is flagged failed.
func (c *Controller[T]) Append(ctx context.Context, value T, match func(T) bool, call func(ctx context.Context) (T, error)) error {
	op := &pendingOp[T]{kind: opAppend, key: c.opts.Key(value), value: value, match: match}
	if err := c.enqueue(op); err != nil {
		return err
	}

	ack, err := call(ctx)

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.removeOp(op)
		view, version := c.rebuild()
		c.mu.Unlock()
		c.emit(view, version)
		return err
	}
	op.settled = true
	op.startSeq = c.fetchSeq
	var zero T
	if key := c.opts.Key(ack); key != op.key && key != c.opts.Key(zero) {
		op.acked = true
		op.ackKey = key
		op.value = ack
	}
	view, version := c.rebuild()
	c.mu.Unlock()
	c.emit(view, version)
	return nil
}

// Patch applies patch to the entry with key immediately, then runs call.
// patch is reapplied to every fresh server copy of the entry until confirmed
// reports, for a fetch started after call returned, that the server has
// caught up. patch must be idempotent.
func (c *Controller[T]) Patch(ctx context.Context, key string, patch func(T) T, confirmed func(T) bool, call func(ctx context.Context) error) error {
	return c.PatchMany(ctx, []string{key}, patch, confirmed, call)
}

// PatchMany is Patch over several entries backed by a single call. Keys not
// in the list are skipped; if none remain ErrUnknownKey is returned.
func (c *Controller[T]) PatchMany(ctx context.Context, keys []string, patch func(T) T, confirmed func(T) bool, call func(ctx context.Context) error) error {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	var ops []*pendingOp[T]
	for _, key := range keys {
		if c.serverIndex(key) < 0 {
			continue
		}
		ops = append(ops, &pendingOp[T]{kind: opPatch, key: key, patch: patch, confirmed: confirmed})
	}
	if len(ops) == 0 {
		c.mu.Unlock()
		return ErrUnknownKey
	}
	c.ops = append(c.ops, ops...)
	view, version := c.rebuild()
	c.mu.Unlock()
	c.emit(view, version)

	err := call(ctx)

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return err
	}
	for _, op := range ops {
		if err != nil {
			c.removeOp(op)
			continue
		}
		op.settled = true
		op.startSeq = c.fetchSeq
	}
	view, version = c.rebuild()
	c.mu.Unlock()
	c.emit(view, version)
	return err
}

func (c *Controller[T]) enqueue(op *pendingOp[T]) error {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.ops = append(c.ops, op)
	view, version := c.rebuild()
	c.mu.Unlock()
	c.emit(view, version)
	return nil
}

// Dismiss removes a failed entry. It reports whether one was removed.
func (c *Controller[T]) Dismiss(key string) bool {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return false
	}
	for _, op := range c.ops {
		if op.kind == opAppend && op.failed && op.displayKey() == key {
			c.removeOp(op)
			view, version := c.rebuild()
			c.mu.Unlock()
			c.emit(view, version)
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// Dispose stops polling and turns every later result into a no-op. After
// Dispose returns OnChange is never called again.
func (c *Controller[T]) Dispose() {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return
	}
	c.state = StateDisposed
	task := c.task
	c.task = nil
	c.mu.Unlock()

	if task != nil {
		task.Stop()
	}
	// wait out an emit that passed its disposed check
	c.emitMu.Lock()
	c.emitMu.Unlock()
}

func (c *Controller[T]) Snapshot() []Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry[T], len(c.view))
	copy(out, c.view)
	return out
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) emit(view []Entry[T], version uint64) {
	if c.opts.OnChange == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	disposed := c.state == StateDisposed
	c.mu.Unlock()
	if disposed || version <= c.lastEmitted {
		return
	}
	c.lastEmitted = version
	c.opts.OnChange(view)
}

// reconcile installs a fresh server list and settles pending operations
// against it. Called with mu held.
func (c *Controller[T]) reconcile(seq uint64, items []T) {
	c.server = c.normalize(items)

	remove := make([]bool, len(c.ops))
	dropEarlier := func(i int) {
		for j := 0; j < i; j++ {
			if c.ops[j].kind == opPatch && c.ops[j].key == c.ops[i].key {
				remove[j] = true
			}
		}
	}
	claimed := make(map[string]bool)

	for i, op := range c.ops {
		if remove[i] {
			continue
		}
		switch op.kind {
		case opAppend:
			if c.confirmAppend(op, claimed) {
				remove[i] = true
				continue
			}
			if op.failed || !op.settled || seq <= op.startSeq {
				continue
			}
			op.cycles++
			if op.cycles < c.opts.MaxUnconfirmedCycles {
				continue
			}
			if op.acked {
				remove[i] = true
				c.log.Debug().Str("key", op.ackKey).Msg("acknowledged entry never listed, dropping")
			} else {
				op.failed = true
				c.log.Warn().Str("key", op.key).Int("cycles", op.cycles).Msg("entry not confirmed, marking failed")
			}
		case opPatch:
			pos := c.serverIndex(op.key)
			if pos < 0 {
				remove[i] = true
				dropEarlier(i)
				continue
			}
			// only a fetch started after the call returned can confirm it
			if !op.settled || seq <= op.startSeq {
				continue
			}
			if op.confirmed(c.server[pos]) {
				remove[i] = true
				dropEarlier(i)
				continue
			}
			op.cycles++
			if op.cycles >= c.opts.MaxUnconfirmedCycles {
				remove[i] = true
				dropEarlier(i)
				c.log.Warn().Str("key", op.key).Int("cycles", op.cycles).Msg("update not confirmed, reverting to server state")
			}
		}
	}

	kept := c.ops[:0]
	for i, op := range c.ops {
		if !remove[i] {
			kept = append(kept, op)
		}
	}
	for i := len(kept); i < len(c.ops); i++ {
		c.ops[i] = nil
	}
	c.ops = kept
}

func (c *Controller[T]) confirmAppend(op *pendingOp[T], claimed map[string]bool) bool {
	for _, item := range c.server {
		key := c.opts.Key(item)
		if claimed[key] {
			continue
		}
		if (op.acked && key == op.ackKey) || (op.match != nil && op.match(item)) {
			claimed[key] = true
			return true
		}
	}
	return false
}

// normalize drops duplicate keys, keeping the first, and applies Less.
func (c *Controller[T]) normalize(items []T) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := c.opts.Key(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	if c.opts.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.opts.Less(out[i], out[j]) })
	}
	return out
}

func (c *Controller[T]) serverIndex(key string) int {
	for i, item := range c.server {
		if c.opts.Key(item) == key {
			return i
		}
	}
	return -1
}

func (c *Controller[T]) removeOp(target *pendingOp[T]) {
	for i, op := range c.ops {
		if op == target {
			c.ops = append(c.ops[:i], c.ops[i+1:]...)
			return
		}
	}
}

// rebuild recomputes the displayed list. Called with mu held.
func (c *Controller[T]) rebuild() ([]Entry[T], uint64) {
	entries := make([]Entry[T], 0, len(c.server)+len(c.ops))
	seen := make(map[string]bool, len(c.server)+len(c.ops))

	for _, item := range c.server {
		key := c.opts.Key(item)
		entry := Entry[T]{Value: item, Key: key, Status: StatusConfirmed}
		for _, op := range c.ops {
			if op.kind == opPatch && op.key == key {
				entry.Value = op.patch(entry.Value)
				entry.Status = StatusPending
			}
		}
		seen[key] = true
		entries = append(entries, entry)
	}

	for _, op := range c.ops {
		if op.kind != opAppend {
			continue
		}
		key := op.displayKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		status := StatusPending
		switch {
		case op.failed:
			status = StatusFailed
		case op.acked:
			status = StatusConfirmed
		}
		entries = append(entries, Entry[T]{Value: op.value, Key: key, Status: status})
	}

	if c.opts.Less != nil {
		sort.SliceStable(entries, func(i, j int) bool { return c.opts.Less(entries[i].Value, entries[j].Value) })
	}

	c.view = entries
	c.version++
	out := make([]Entry[T], len(entries))
	copy(out, entries)
	return out, c.version
}
