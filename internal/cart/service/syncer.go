package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart/domain"
	"github.com/fjod/storefront/internal/logger"
)

// Remote is the server-side copy of the cart kept in step with local edits.
type Remote interface {
	AddItem(ctx context.Context, productID string, quantity int) error
	RemoveQuantity(ctx context.Context, productID string, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
}

// FailureFunc is told about a remote call that failed after its local
// mutation was rolled back.
type FailureFunc func(ctx context.Context, op, productID string, err error)

// Syncer applies mutations locally first and confirms them with Remote in the
// background. A rejected remote call is undone with the opposite mutation.
type Syncer struct {
	remote    Remote
	timeout   time.Duration
	onFailure FailureFunc
	wg        sync.WaitGroup
}

// NewSyncer with a nil remote only mutates locally.
func NewSyncer(remote Remote, timeout time.Duration, onFailure FailureFunc) *Syncer {
	if onFailure == nil {
		onFailure = func(ctx context.Context, op, productID string, err error) {
			logger.Printf(ctx, "cart sync %s %s failed: %v", op, productID, err)
		}
	}
	return &Syncer{remote: remote, timeout: timeout, onFailure: onFailure}
}

func (s *Syncer) AddItem(ctx context.Context, store *CartStore, line domain.CartLine, delta int) error {
	if err := store.AddItem(ctx, line, delta); err != nil {
		return err
	}
	s.reconcile(ctx, "add", line.ProductID,
		func(ctx context.Context) error { return s.remote.AddItem(ctx, line.ProductID, delta) },
		func(ctx context.Context) error {
			_, err := store.SubtractItem(ctx, line.ProductID, delta)
			return err
		})
	return nil
}

func (s *Syncer) SubtractItem(ctx context.Context, store *CartStore, productID string, delta int) (int, error) {
	before, ok := store.Line(productID)
	if !ok {
		return 0, nil
	}
	removed, err := store.SubtractItem(ctx, productID, delta)
	if err != nil || removed == 0 {
		return removed, err
	}
	s.reconcile(ctx, "subtract", productID,
		func(ctx context.Context) error { return s.remote.RemoveQuantity(ctx, productID, delta) },
		func(ctx context.Context) error { return store.AddItem(ctx, before, removed) })
	return removed, nil
}

func (s *Syncer) RemoveItem(ctx context.Context, store *CartStore, productID string) (domain.CartLine, bool, error) {
	line, ok, err := store.RemoveItem(ctx, productID)
	if err != nil || !ok {
		return line, ok, err
	}
	s.reconcile(ctx, "remove", productID,
		func(ctx context.Context) error { return s.remote.RemoveItem(ctx, productID) },
		func(ctx context.Context) error { return store.AddItem(ctx, line, line.Quantity) })
	return line, true, nil
}

// Wait blocks until every pending remote call has settled.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) reconcile(ctx context.Context, op, productID string, call, undo func(context.Context) error) {
	if s.remote == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		err := call(ctx)
		if err == nil {
			return
		}
		if undoErr := undo(context.WithoutCancel(ctx)); undoErr != nil {
			logger.Printf(ctx, "cart sync rollback of %s %s failed: %v", op, productID, undoErr)
		}
		s.onFailure(ctx, op, productID, err)
	}()
}
