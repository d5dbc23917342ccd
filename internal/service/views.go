package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"giftlist-api/internal/cache"
	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"

	"github.com/sirupsen/logrus"
)

const viewKeyPrefix = "list-view:"

// ListViews builds the public view of a list and caches it per slug. Every
// mutation of a list invalidates its view before the change is published,
// so a client refetching on an event never reads a pre-change snapshot.
//
// A load that started before an invalidation does not store its result:
// each slug carries a generation, bumped on Invalidate, and the snapshot is
// only cached if the generation is unchanged.
type ListViews struct {
	store repository.Store
	cache cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger

	locks       keyedMutex
	generations sync.Map // slug -> *atomic.Uint64
}

// NewListViews creates the view builder. A non-positive ttl disables caching.
func NewListViews(store repository.Store, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *ListViews {
	return &ListViews{
		store: store,
		cache: c,
		ttl:   ttl,
		log:   log.WithField("component", "list-views"),
	}
}

// Get returns the public view of the list with the given slug as JSON.
func (v *ListViews) Get(ctx context.Context, slug string) (json.RawMessage, error) {
	if v.ttl <= 0 {
		return v.load(ctx, slug)
	}

	key := viewKeyPrefix + slug
	data, err := v.cache.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		v.log.WithError(err).WithField("slug", slug).Warn("List view cache read failed")
	}

	gen := v.generation(slug)
	started := gen.Load()

	data, err = v.load(ctx, slug)
	if err != nil {
		return nil, err
	}

	unlock := v.locks.Lock(slug)
	if gen.Load() == started {
		if err := v.cache.Set(ctx, key, data, v.ttl); err != nil {
			v.log.WithError(err).WithField("slug", slug).Warn("List view cache write failed")
		}
	}
	unlock()

	return data, nil
}

// Invalidate drops the cached view of slug. Failures are logged; the entry
// expires on its own.
func (v *ListViews) Invalidate(ctx context.Context, slug string) {
	unlock := v.locks.Lock(slug)
	defer unlock()

	v.generation(slug).Add(1)
	if err := v.cache.Delete(ctx, viewKeyPrefix+slug); err != nil {
		v.log.WithError(err).WithField("slug", slug).Warn("Failed to invalidate list view")
	}
}

func (v *ListViews) generation(slug string) *atomic.Uint64 {
	g, _ := v.generations.LoadOrStore(slug, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

func (v *ListViews) load(ctx context.Context, slug string) ([]byte, error) {
	view, err := v.Build(ctx, slug)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list view: %w", err)
	}
	return data, nil
}

// Build assembles the view from the store, bypassing the cache.
func (v *ListViews) Build(ctx context.Context, slug string) (*model.ListView, error) {
	list, err := v.store.GetListBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	owner, err := v.store.GetUserByID(ctx, list.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load list owner: %w", err)
	}

	categories, err := v.store.ListCategoriesByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	items, err := v.store.ListItemsByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]model.Item, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	view := &model.ListView{
		GiftList:   *list,
		OwnerName:  owner.Name,
		Categories: make([]model.CategoryView, 0, len(categories)),
	}
	for _, c := range categories {
		catItems := byCategory[c.ID]
		if catItems == nil {
			catItems = []model.Item{}
		}
		view.Categories = append(view.Categories, model.CategoryView{Category: c, Items: catItems})
	}
	return view, nil
}
