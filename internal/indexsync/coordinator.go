package indexsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/ratelimit"
	"github.com/mybookshelf/catalog/internal/search"
	"github.com/mybookshelf/catalog/internal/store"
)

// Source is the part of the store documents are derived from.
type Source interface {
	Ebooks() store.Repository[domain.Ebook]
	Authors() store.Repository[domain.Author]
	Series() store.Repository[domain.Series]
}

// Index is the part of the search index the coordinator writes to.
type Index interface {
	IndexDocument(doc *search.Document) error
	IndexDocuments(docs []*search.Document) error
	DeleteDocument(id string) error
	Rebuild() error
}

// Options configures a Coordinator. Zero values take defaults.
type Options struct {
	Workers        int           // Default 2
	InitialBackoff time.Duration // Default 100ms
	MaxBackoff     time.Duration // Default 30s
	MaxAttempts    int           // 0 retries until shutdown
	IndexRate      float64       // Index writes per second per document kind, 0 is unlimited
	IndexBurst     int           // Default 1
	PollInterval   time.Duration // Fallback wakeup when a signal is missed, default 5s
}

func (o *Options) defaults() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 100 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = o.InitialBackoff
	}
	if o.MaxAttempts < 0 {
		o.MaxAttempts = 0
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
}

// Coordinator applies committed catalog changes to the search index.
// It implements store.ChangeNotifier.
type Coordinator struct {
	source  Source
	index   Index
	journal *Journal
	limiter *ratelimit.KeyedRateLimiter
	metrics *metrics.Sync
	logger  *slog.Logger
	opts    Options

	mu         sync.Mutex
	q          *queue
	applied    map[key]int64 // Last version written, kept while the document has pending work
	idle       chan struct{} // Closed while nothing is pending or in flight
	idleClosed bool
	started    bool

	seq       atomic.Uint64
	rebuildMu sync.RWMutex // Held for writing while the index is rebuilt

	// Worker management
	ctx    context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel context.CancelFunc
	wg     sync.WaitGroup
	notify chan struct{} // Signal that new tasks are available
}

var _ store.ChangeNotifier = (*Coordinator)(nil)

// New creates a coordinator. journal may be nil, in which case pending work
// does not survive a restart.
func New(source Source, index Index, journal *Journal, opts Options, m *metrics.Sync, logger *slog.Logger) *Coordinator {
	opts.defaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if m == nil {
		m = metrics.Discard().Sync
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	c := &Coordinator{
		source:     source,
		index:      index,
		journal:    journal,
		limiter:    ratelimit.New(opts.IndexRate, opts.IndexBurst),
		metrics:    m,
		logger:     logger,
		opts:       opts,
		q:          newQueue(),
		applied:    make(map[key]int64),
		idle:       idle,
		idleClosed: true,
		ctx:        ctx,
		cancel:     cancel,
		notify:     make(chan struct{}, 1),
	}
	c.seq.Store(uint64(time.Now().UnixNano()))
	return c
}

// Start replays the journal and starts the worker pool.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if c.journal != nil {
		tasks, err := c.journal.Pending()
		if err != nil {
			return fmt.Errorf("replay sync journal: %w", err)
		}
		for _, t := range tasks {
			c.observeSeq(t.Seq)
		}
		if len(tasks) > 0 {
			c.logger.Info("replaying pending index tasks", slog.Int("count", len(tasks)))
			c.enqueue(tasks, false)
			c.metrics.Replayed.Add(float64(len(tasks)))
		}
	}

	c.logger.Info("starting index sync workers", slog.Int("workers", c.opts.Workers))
	for i := range c.opts.Workers {
		c.wg.Add(1)
		go c.worker(i)
	}
	return nil
}

// Stop shuts down the workers. Tasks not yet applied stay in the journal.
func (c *Coordinator) Stop() {
	c.logger.Info("stopping index sync")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("index sync stopped")
}

// Notify journals and enqueues the changes of a committed transaction.
// Changes to kinds without search documents are ignored.
func (c *Coordinator) Notify(changes []store.Change) {
	tasks := make([]*Task, 0, len(changes))
	for _, ch := range changes {
		if !search.Indexed(ch.Kind) {
			continue
		}
		t := taskFromChange(ch)
		t.Seq = c.seq.Add(1)
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return
	}
	c.enqueue(tasks, true)
}

func (c *Coordinator) observeSeq(seq uint64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

func (c *Coordinator) enqueue(tasks []*Task, journal bool) {
	if journal && c.journal != nil {
		if err := c.journal.Put(tasks); err != nil {
			// The tasks still run; only restart durability is lost.
			c.logger.Error("failed to journal index tasks", slog.Int("count", len(tasks)), slog.Any("error", err))
		}
	}

	c.mu.Lock()
	for _, t := range tasks {
		c.metrics.Enqueued.WithLabelValues(string(t.Kind), string(t.Op)).Inc()
		if c.q.push(t) {
			c.metrics.Coalesced.WithLabelValues(string(t.Kind)).Inc()
		}
	}
	c.updateLocked()
	c.mu.Unlock()

	c.signal()
}

// signal wakes a worker.
func (c *Coordinator) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
		// Already notified
	}
}

// updateLocked refreshes gauges and the idle channel. c.mu must be held.
func (c *Coordinator) updateLocked() {
	c.metrics.QueueDepth.Set(float64(c.q.depth()))
	c.metrics.Inflight.Set(float64(len(c.q.inflight)))

	switch idle := c.q.idle(); {
	case idle && !c.idleClosed:
		close(c.idle)
		c.idleClosed = true
	case !idle && c.idleClosed:
		c.idle = make(chan struct{})
		c.idleClosed = false
	}
}

// Pending returns the number of tasks queued or in flight.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.depth() + len(c.q.inflight)
}

// WaitIdle blocks until no task is queued or in flight, or ctx ends.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.q.idle() {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return domainerrors.Timeout(ctx.Err(), "wait for index sync")
		}
	}
}

func (c *Coordinator) worker(id int) {
	defer c.wg.Done()

	c.logger.Debug("index sync worker started", slog.Int("worker_id", id))

	for {
		for c.ctx.Err() == nil && c.processNext() {
		}

		select {
		case <-c.ctx.Done():
			c.logger.Debug("index sync worker stopping", slog.Int("worker_id", id))
			return
		case <-c.notify:
		case <-time.After(c.opts.PollInterval):
			// Periodic check for tasks (in case a signal was missed)
		}
	}
}

// processNext applies the next available task. It reports false when
// nothing could be taken.
func (c *Coordinator) processNext() bool {
	c.mu.Lock()
	t, ok := c.q.pop()
	more := c.q.depth() > 0
	c.updateLocked()
	c.mu.Unlock()

	if !ok {
		return false
	}
	if more {
		c.signal()
	}

	c.run(t)

	c.mu.Lock()
	k := t.key()
	c.q.done(k)
	if !c.q.hasPending(k) {
		delete(c.applied, k)
	}
	c.updateLocked()
	c.mu.Unlock()
	return true
}

// run applies t, retrying with exponential backoff until it succeeds, the
// attempt budget runs out, newer work for the same document arrives or the
// coordinator stops.
func (c *Coordinator) run(t *Task) {
	k := t.key()
	kind := string(t.Kind)

	c.mu.Lock()
	last, seen := c.applied[k]
	c.mu.Unlock()
	if seen && t.Op == store.OpUpsert && t.Version > 0 && t.Version < last {
		c.logger.Debug("dropping stale index task", "kind", kind, "id", t.ID, "version", t.Version, "applied", last)
		c.ack(t)
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialBackoff
	b.MaxInterval = c.opts.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; ; attempt++ {
		op, version, err := c.apply(c.ctx, t)
		if err == nil {
			c.mu.Lock()
			if op == store.OpDelete {
				delete(c.applied, k)
			} else {
				c.applied[k] = version
			}
			c.mu.Unlock()

			c.ack(t)
			c.metrics.Applied.WithLabelValues(kind, string(op)).Inc()
			c.metrics.Lag.WithLabelValues(kind).Observe(time.Since(t.At).Seconds())
			return
		}
		if c.ctx.Err() != nil {
			return
		}

		code := domainerrors.CodeOf(err)
		c.metrics.Failures.WithLabelValues(kind, string(code)).Inc()

		if c.opts.MaxAttempts > 0 && attempt >= c.opts.MaxAttempts {
			c.logger.Error("giving up on index task",
				"kind", kind, "id", t.ID, "attempts", attempt, "code", code, "error", err)
			return
		}

		delay := b.NextBackOff()
		c.logger.Warn("index task failed, retrying",
			"kind", kind, "id", t.ID, "attempt", attempt, "delay", delay, "code", code, "error", err)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
		}
		c.metrics.Retries.WithLabelValues(kind).Inc()

		c.mu.Lock()
		newer := c.q.hasPending(k)
		c.mu.Unlock()
		if newer {
			// The pending task reads the same current state.
			return
		}
	}
}

func (c *Coordinator) ack(t *Task) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Ack(t); err != nil {
		c.logger.Warn("failed to clear journal entry", "kind", t.Kind, "id", t.ID, "error", err)
	}
}

// apply writes the document for t as the store holds it now, or removes it
// when the entity no longer exists. It returns the effective operation and
// the version written.
func (c *Coordinator) apply(ctx context.Context, t *Task) (store.Op, int64, error) {
	if err := c.limiter.Wait(ctx, string(t.Kind)); err != nil {
		return "", 0, domainerrors.Timeout(err, "wait for index rate limit")
	}

	c.rebuildMu.RLock()
	defer c.rebuildMu.RUnlock()

	doc, err := c.document(ctx, t.Kind, t.ID)
	if domainerrors.CodeOf(err) == domainerrors.CodeNotFound {
		if err := c.index.DeleteDocument(t.ID); err != nil {
			return "", 0, domainerrors.IndexSyncFailure(err, "delete document "+t.ID)
		}
		return store.OpDelete, t.Version, nil
	}
	if err != nil {
		return "", 0, err
	}

	if err := c.index.IndexDocument(doc); err != nil {
		return "", 0, domainerrors.IndexSyncFailure(err, "index document "+t.ID)
	}
	return store.OpUpsert, doc.Version, nil
}

// document derives the search document of one entity from the store.
func (c *Coordinator) document(ctx context.Context, kind domain.Kind, id string) (*search.Document, error) {
	switch kind {
	case domain.KindEbook:
		e, err := c.source.Ebooks().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return search.EbookDocument(e), nil
	case domain.KindAuthor:
		a, err := c.source.Authors().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return search.AuthorDocument(a), nil
	case domain.KindSeries:
		s, err := c.source.Series().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return search.SeriesDocument(s), nil
	}
	return nil, domainerrors.Internalf("kind %s has no search document", kind)
}

// Rebuild drops the index and derives every document from the store again.
// Workers pause while it runs; tasks queued meanwhile are applied afterwards.
func (c *Coordinator) Rebuild(ctx context.Context) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	start := time.Now()
	c.logger.Info("starting full reindex")

	if err := c.index.Rebuild(); err != nil {
		return domainerrors.IndexSyncFailure(err, "rebuild index")
	}

	ebooks, err := reindex(ctx, c.index, c.source.Ebooks(), search.EbookDocument)
	if err != nil {
		return fmt.Errorf("index ebooks: %w", err)
	}
	c.logger.Info("indexed ebooks", "count", ebooks)

	authors, err := reindex(ctx, c.index, c.source.Authors(), search.AuthorDocument)
	if err != nil {
		return fmt.Errorf("index authors: %w", err)
	}
	c.logger.Info("indexed authors", "count", authors)

	series, err := reindex(ctx, c.index, c.source.Series(), search.SeriesDocument)
	if err != nil {
		return fmt.Errorf("index series: %w", err)
	}
	c.logger.Info("indexed series", "count", series)

	c.mu.Lock()
	clear(c.applied)
	c.mu.Unlock()

	c.metrics.Rebuilds.Inc()
	c.logger.Info("full reindex complete", "documents", ebooks+authors+series, "duration", time.Since(start))
	return nil
}

// reindex pages through repo and indexes one document per entity.
func reindex[T any](ctx context.Context, index Index, repo store.Repository[T], toDoc func(*T) *search.Document) (int, error) {
	params := store.ListParams{Sort: store.SortTitle, Limit: store.MaxLimit}
	count := 0
	for {
		page, err := repo.List(ctx, params)
		if err != nil {
			return count, err
		}

		docs := make([]*search.Document, 0, len(page.Items))
		for _, v := range page.Items {
			docs = append(docs, toDoc(v))
		}
		if len(docs) > 0 {
			if err := index.IndexDocuments(docs); err != nil {
				return count, domainerrors.IndexSyncFailure(err, "index documents")
			}
		}
		count += len(docs)

		if !page.HasMore() || len(page.Items) == 0 {
			return count, nil
		}
		params.Offset += len(page.Items)
	}
}
