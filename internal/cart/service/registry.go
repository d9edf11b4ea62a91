package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart/cache"
	"github.com/fjod/storefront/internal/cart/repository"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load; it does not follow any single caller.
const loadTimeout = 5 * time.Second

// Registry hands out one CartStore per owner, opening stores on first write.
type Registry struct {
	repo  repository.CartRepository
	cache cache.CartCache
	opts  []Option

	mu     sync.RWMutex
	stores map[string]*CartStore
	sfg    singleflight.Group
	adopts singleflight.Group
}

func NewRegistry(repo repository.CartRepository, c cache.CartCache, opts ...Option) *Registry {
	return &Registry{
		repo:   repo,
		cache:  c,
		opts:   opts,
		stores: make(map[string]*CartStore),
	}
}

func (r *Registry) lookup(ownerID string) (*CartStore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[ownerID]
	return store, ok
}

// Open returns the live store of ownerID, registering it on first use.
func (r *Registry) Open(ctx context.Context, ownerID string) (*CartStore, error) {
	if store, ok := r.lookup(ownerID); ok {
		return store, nil
	}

	// concurrent first requests for one owner share a single load
	v, err, _ := r.sfg.Do(ownerID, func() (interface{}, error) {
		if existing, ok := r.lookup(ownerID); ok {
			return existing, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		opened, err := Open(loadCtx, ownerID, r.repo, r.cache, r.opts...)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.stores[ownerID] = opened
		r.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CartStore), nil
}

// View returns the live store of ownerID when there is one, and otherwise a
// store loaded from storage that is not registered. Views are for reading;
// writes must go through Open.
func (r *Registry) View(ctx context.Context, ownerID string) (*CartStore, error) {
	if store, ok := r.lookup(ownerID); ok {
		return store, nil
	}
	return Open(ctx, ownerID, r.repo, r.cache, r.opts...)
}

// Adopt moves the lines of the guest cart into the cart of ownerID and
// empties the guest cart. It returns the owner's store. Adopting an empty or
// unknown guest cart only opens the owner's store.
func (r *Registry) Adopt(ctx context.Context, guestID, ownerID string) (*CartStore, error) {
	target, err := r.Open(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	_, err, _ = r.adopts.Do(guestID, func() (interface{}, error) {
		mergeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		guest, err := r.View(mergeCtx, guestID)
		if err != nil {
			return nil, err
		}
		snap := guest.Snapshot()
		if snap.IsEmpty() {
			return nil, nil
		}
		if err := target.Merge(mergeCtx, snap.Lines); err != nil {
			return nil, fmt.Errorf("merge guest cart into %s: %w", ownerID, err)
		}
		if err := guest.Clear(mergeCtx); err != nil {
			return nil, fmt.Errorf("clear guest cart %s: %w", guestID, err)
		}

		r.mu.Lock()
		delete(r.stores, guestID)
		r.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Len is the number of open stores.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}
