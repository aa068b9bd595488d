package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/store"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

// Stream names, also used as cursor keys.
const (
	StreamCustomers  = "customers"
	StreamSystems    = "systems"
	StreamRequesters = "requesters"
	StreamAgents     = "agents"
)

// Streams lists every stream in run order. Customers go first so that systems
// and contacts can resolve their owner.
var Streams = []string{StreamCustomers, StreamSystems, StreamRequesters, StreamAgents}

var ErrUnknownStream = errors.New("unknown stream")

// StreamReport is the outcome of one stream within a full run.
type StreamReport struct {
	Stream string        `json:"stream"`
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Counts *StreamResult `json:"counts,omitempty"`
}

// Report is returned by RunFullSync. OK is false as soon as one stream failed.
type Report struct {
	OK         bool           `json:"ok"`
	PerStream  []StreamReport `json:"perStream"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Orchestrator reconciles the SoR into the local store. Runs are serialised:
// a second caller waits for the running sync to finish.
type Orchestrator struct {
	source     migmodel.SourceClient
	store      store.Store
	cursors    store.CursorStore
	logger     *zap.Logger
	assetTypes []string
	now        func() time.Time
	newID      func() string

	mu sync.Mutex
}

type Option func(*Orchestrator)

// WithCursorStore keeps cursors outside the main store (e.g. redis).
func WithCursorStore(c store.CursorStore) Option {
	return func(o *Orchestrator) { o.cursors = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithAssetTypes sets the asset type names whose assets become systems.
func WithAssetTypes(names []string) Option {
	return func(o *Orchestrator) { o.assetTypes = names }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

func NewOrchestrator(src migmodel.SourceClient, st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     src,
		store:      st,
		cursors:    st,
		logger:     zap.NewNop(),
		assetTypes: DefaultAssetTypes,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunFullSync runs every stream in order. A failing stream is recorded in the
// report and the run continues with the next one.
func (o *Orchestrator) RunFullSync(ctx context.Context) Report {
	o.mu.Lock()
	defer o.mu.Unlock()

	rep := Report{OK: true, StartedAt: o.now()}
	for _, name := range Streams {
		res, err := o.runGuarded(ctx, name)
		sr := StreamReport{Stream: name, OK: err == nil}
		if err != nil {
			sr.Error = err.Error()
			rep.OK = false
			o.logger.Error("stream failed", zap.String("stream", name), zap.Error(err))
		} else {
			sr.Counts = &res
		}
		rep.PerStream = append(rep.PerStream, sr)
	}
	rep.FinishedAt = o.now()
	o.logger.Info("full sync finished", zap.Bool("ok", rep.OK), zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)))
	return rep
}

// RunStream runs a single stream by name.
func (o *Orchestrator) RunStream(ctx context.Context, name string) (StreamResult, error) {
	if !KnownStream(name) {
		return StreamResult{}, fmt.Errorf("%w: %q", ErrUnknownStream, name)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runGuarded(ctx, name)
}

func KnownStream(name string) bool {
	for _, s := range Streams {
		if s == name {
			return true
		}
	}
	return false
}

// runGuarded turns a panic inside a stream into an error.
func (o *Orchestrator) runGuarded(ctx context.Context, name string) (res StreamResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream %s panicked: %v", name, r)
		}
	}()
	if prev, cerr := o.cursors.GetCursor(ctx, name); cerr != nil {
		o.logger.Warn("read cursor", zap.String("stream", name), zap.Error(cerr))
	} else if prev != nil {
		// the mark is informational; every run lists the full SoR set
		o.logger.Debug("previous cursor", zap.String("stream", name), zap.Time("mark", *prev))
	}

	switch name {
	case StreamCustomers:
		res, err = o.syncCustomers(ctx)
	case StreamSystems:
		res, err = o.syncSystems(ctx)
	case StreamRequesters:
		res, err = o.syncRequesters(ctx)
	case StreamAgents:
		res, err = o.syncAgents(ctx)
	default:
		return StreamResult{}, fmt.Errorf("%w: %q", ErrUnknownStream, name)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// finishStream advances the cursor after the stream's transaction committed.
func (o *Orchestrator) finishStream(ctx context.Context, name string, res StreamResult, mark time.Time) (StreamResult, error) {
	if !mark.IsZero() {
		if err := o.cursors.SetCursor(ctx, name, mark); err != nil {
			return res, fmt.Errorf("set cursor: %w", err)
		}
		res.Cursor = &mark
	}
	o.logger.Info("stream reconciled",
		zap.String("stream", name),
		zap.Int("fetched", res.Fetched),
		zap.Int("eligible", res.Eligible),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("deleted", res.Deleted),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
