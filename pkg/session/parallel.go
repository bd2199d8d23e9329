package session

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

// parallelProcess calls fn for every item using at most maxWorkers
// goroutines and returns the combined errors.
func parallelProcess[T any](ctx context.Context, items []T, fn func(context.Context, T) error, maxWorkers int) error {
	if len(items) == 0 {
		return nil
	}

	workers := maxWorkers
	if len(items) < workers {
		workers = len(items)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
	)

	ch := make(chan T, len(items))

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-ch:
					if !ok {
						return
					}
					if err := fn(ctx, item); err != nil {
						mu.Lock()
						errs = multierror.Append(errs, err)
						mu.Unlock()
					}
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			close(ch)
			wg.Wait()
			return ctx.Err()
		case ch <- item:
		}
	}
	close(ch)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errs.ErrorOrNil()
}

type stagedKind int

const (
	stagedAdd stagedKind = iota
	stagedUpdate
	stagedDelete
)

type stagedOp struct {
	kind     stagedKind
	doc      document.Document
	criteria search.Criteria
	objectID string
}

// recorder is an update context that remembers operations so they can be
// replayed, in order, into the session's context.
type recorder struct {
	ops []stagedOp
}

var _ updatecontext.Context = (*recorder)(nil)

func (r *recorder) AddDocument(_ context.Context, doc document.Document) error {
	r.ops = append(r.ops, stagedOp{kind: stagedAdd, doc: doc})
	return nil
}

func (r *recorder) UpdateDocument(_ context.Context, doc document.Document, criteria search.Criteria) error {
	r.ops = append(r.ops, stagedOp{kind: stagedUpdate, doc: doc, criteria: criteria})
	return nil
}

func (r *recorder) DeleteDocument(_ context.Context, objectID string) error {
	r.ops = append(r.ops, stagedOp{kind: stagedDelete, objectID: objectID})
	return nil
}

func (r *recorder) replay(ctx context.Context, uc updatecontext.Context) error {
	for _, op := range r.ops {
		var err error
		switch op.kind {
		case stagedAdd:
			err = uc.AddDocument(ctx, op.doc)
		case stagedUpdate:
			err = uc.UpdateDocument(ctx, op.doc, op.criteria)
		case stagedDelete:
			err = uc.DeleteDocument(ctx, op.objectID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
