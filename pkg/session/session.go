// Package session runs a set of record lifecycle events through index
// operations into one update context and commits the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/hashicorp-forge/contentsearch/pkg/operations"
	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

// EventType is a record lifecycle change.
type EventType string

const (
	EventAdd    EventType = "add"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one lifecycle change. Deletes may carry only an ObjectID.
type Event struct {
	Type     EventType
	Record   *record.Record
	ObjectID string
}

// Result summarizes a Run.
type Result struct {
	Added     int // Documents added.
	Updated   int // Documents updated.
	Deleted   int // Deletions requested.
	Skipped   int // Events whose record was out of scope.
	Committed int // Operations sent by the commit.

	// RecordErrors holds the failures of individual events, or nil.
	RecordErrors error
}

// CommitRecorder stores the outcome of a commit.
type CommitRecorder interface {
	RecordCommit(ctx context.Context, key string, size int, err error) error
}

const (
	// DefaultMaxCommitAttempts bounds commit retries.
	DefaultMaxCommitAttempts = 3
	// DefaultCommitTimeout bounds a commit including retries.
	DefaultCommitTimeout = 2 * time.Minute

	spanName = "contentsearch.commit"
)

// Session drives one update context.
type Session struct {
	ops *operations.Operations
	uc  updatecontext.Context

	recorder    CommitRecorder
	recorderKey string

	maxCommitAttempts int
	commitTimeout     time.Duration
	retryInterval     time.Duration
	workers           int
	logger            hclog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPropertyStore records every commit under key.
func WithPropertyStore(recorder CommitRecorder, key string) Option {
	return func(s *Session) {
		s.recorder = recorder
		s.recorderKey = key
	}
}

// WithMaxCommitAttempts sets how many times a failed commit is tried.
func WithMaxCommitAttempts(n int) Option {
	return func(s *Session) {
		s.maxCommitAttempts = n
	}
}

// WithCommitTimeout bounds the commit including retries.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.commitTimeout = d
	}
}

// WithRetryInterval sets the initial backoff between commit attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Session) {
		s.retryInterval = d
	}
}

// WithWorkers sets how many events are built concurrently. The default of
// one applies events serially.
func WithWorkers(n int) Option {
	return func(s *Session) {
		s.workers = n
	}
}

// New creates a Session applying ops to uc.
func New(ops *operations.Operations, uc updatecontext.Context, opts ...Option) *Session {
	s := &Session{
		ops:               ops,
		uc:                uc,
		maxCommitAttempts: DefaultMaxCommitAttempts,
		commitTimeout:     DefaultCommitTimeout,
		retryInterval:     500 * time.Millisecond,
		logger:            hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxCommitAttempts < 1 {
		s.maxCommitAttempts = 1
	}
	return s
}

// Run applies events in order. A failing event is recorded in
// Result.RecordErrors and the run continues. When the update context stages
// operations they are then committed; a commit failure is returned and the
// staged operations are kept.
//
// With more than one worker, documents are built concurrently and handed to
// the update context in event order.
func (s *Session) Run(ctx context.Context, events []Event) (*Result, error) {
	result := &Result{}
	var (
		errs   *multierror.Error
		failed int
	)
	fail := func(i int, ev Event, err error) {
		s.logger.Warn("event failed",
			"index", i,
			"type", ev.Type,
			"object_id", eventID(ev),
			"error", err)
		failed++
		errs = multierror.Append(errs, fmt.Errorf("event %d (%s %s): %w", i, ev.Type, eventID(ev), err))
	}

	if s.workers > 1 && len(events) > 1 {
		if err := s.runParallel(ctx, events, result, fail); err != nil {
			return result, err
		}
	} else {
		for i, ev := range events {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			out, err := s.apply(ctx, ev, s.uc)
			result.add(ev.Type, out)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				fail(i, ev, err)
			}
		}
	}
	result.RecordErrors = errs.ErrorOrNil()

	size, err := s.commit(ctx, result)
	if err != nil {
		return result, err
	}
	result.Committed = size

	s.logger.Info("session complete",
		"added", result.Added,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"committed", result.Committed,
		"record_errors", failed)

	return result, nil
}

func (s *Session) runParallel(ctx context.Context, events []Event, result *Result, fail func(int, Event, error)) error {
	type staged struct {
		rec recorder
		out operations.Outcome
		err error
	}
	stages := make([]staged, len(events))
	indexes := make([]int, len(events))
	for i := range indexes {
		indexes[i] = i
	}

	err := parallelProcess(ctx, indexes, func(ctx context.Context, i int) error {
		st := &stages[i]
		st.out, st.err = s.apply(ctx, events[i], &st.rec)
		return nil
	}, s.workers)
	if err != nil {
		return err
	}

	for i, st := range stages {
		if st.err != nil {
			fail(i, events[i], st.err)
			continue
		}
		if err := st.rec.replay(ctx, s.uc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fail(i, events[i], err)
			continue
		}
		result.add(events[i].Type, st.out)
	}
	return nil
}

func (s *Session) apply(ctx context.Context, ev Event, uc updatecontext.Context) (operations.Outcome, error) {
	switch ev.Type {
	case EventAdd:
		if ev.Record == nil {
			return operations.Outcome{}, errors.New("add event has no record")
		}
		return s.ops.Add(ctx, ev.Record, uc)
	case EventUpdate:
		if ev.Record == nil {
			return operations.Outcome{}, errors.New("update event has no record")
		}
		return s.ops.Update(ctx, ev.Record, uc)
	case EventDelete:
		key := operations.ObjectIDKey(ev.ObjectID)
		if ev.Record != nil {
			key = operations.RecordKey(ev.Record)
		}
		return s.ops.Delete(ctx, key, uc)
	default:
		return operations.Outcome{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func (r *Result) add(t EventType, out operations.Outcome) {
	switch t {
	case EventAdd:
		r.Added += out.Documents
	case EventUpdate:
		r.Updated += out.Documents
	}
	r.Deleted += out.Deletions
	if out.Skipped {
		r.Skipped++
	}
}

// commit commits staged operations with retries and returns how many were
// sent. Immediate contexts have already sent everything.
func (s *Session) commit(ctx context.Context, result *Result) (int, error) {
	committer, ok := s.uc.(updatecontext.Committer)
	if !ok {
		size := result.Added + result.Updated + result.Deleted
		s.record(ctx, size, nil)
		return size, nil
	}

	size := committer.Pending()
	if size == 0 {
		return 0, nil
	}

	if s.commitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commitTimeout)
		defer cancel()
	}

	span, ctx := tracer.StartSpanFromContext(ctx, spanName,
		tracer.ResourceName(s.recorderKey),
		tracer.Tag("batch.size", size),
	)

	attempts := 0
	op := func() error {
		attempts++
		err := committer.Commit(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, search.ErrInvalidDocument) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("commit failed",
			"attempt", attempts,
			"max_attempts", s.maxCommitAttempts,
			"pending", committer.Pending(),
			"error", err)
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxCommitAttempts-1)), ctx)

	err := backoff.Retry(op, b)
	span.SetTag("commit.attempts", attempts)
	span.Finish(tracer.WithError(err))

	s.record(ctx, size, err)
	if err != nil {
		return 0, fmt.Errorf("failed to commit %d operations after %d attempts: %w", size, attempts, err)
	}
	return size, nil
}

func (s *Session) record(ctx context.Context, size int, commitErr error) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordCommit(context.WithoutCancel(ctx), s.recorderKey, size, commitErr); err != nil {
		s.logger.Error("failed to record commit", "key", s.recorderKey, "error", err)
	}
}

func eventID(ev Event) string {
	if ev.Record != nil {
		return ev.Record.Path
	}
	return ev.ObjectID
}
