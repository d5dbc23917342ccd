package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"giftlist-api/internal/cache"
	"giftlist-api/internal/config"
	"giftlist-api/internal/hub"
	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"
	"giftlist-api/pkg/logger"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type published struct {
	Slug   string
	Event  hub.Event
	Origin string
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, slug string, evt hub.Event, origin string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Slug: slug, Event: evt, Origin: origin})
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// mockPublisher is a testify mock of hub.Publisher.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, slug string, evt hub.Event, origin string) {
	m.Called(ctx, slug, evt, origin)
}

type testEnv struct {
	store      *repository.SQLStore
	cache      *cache.MemoryCache
	views      *ListViews
	items      *ItemService
	categories *CategoryService
	lists      *ListService
	auth       *AuthService
}

func newTestEnv(t *testing.T, pub hub.Publisher) *testEnv {
	t.Helper()
	log := logger.Discard()

	store, err := repository.Open(context.Background(), config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c := cache.NewMemoryCache(time.Hour)
	t.Cleanup(func() { c.Close() })

	views := NewListViews(store, c, time.Minute, log)
	tokens := NewTokenService(c, time.Hour, log)

	return &testEnv{
		store:      store,
		cache:      c,
		views:      views,
		items:      NewItemService(store, views, pub, log),
		categories: NewCategoryService(store, views, pub, log),
		lists:      NewListService(store, views, pub, log),
		auth:       NewAuthService(store, tokens, bcrypt.MinCost, log),
	}
}

type owner struct {
	user     *model.User
	list     *model.GiftList
	category *model.Category
}

// newOwner registers a user with one list and one category.
func (e *testEnv) newOwner(t *testing.T, email, slug string) owner {
	t.Helper()
	ctx := context.Background()

	user, err := e.auth.Register(ctx, RegisterInput{Email: email, Password: "s3cret-pass", Name: "Ana"})
	require.NoError(t, err)

	list, err := e.lists.Create(ctx, user.ID, ListInput{Slug: slug, Title: "Chá da Ana"})
	require.NoError(t, err)

	category, err := e.categories.Create(ctx, user.ID, CategoryInput{Name: "Cozinha", ListID: list.ID}, "")
	require.NoError(t, err)

	return owner{user: user, list: list, category: category}
}

func (e *testEnv) newItem(t *testing.T, o owner, name string) *model.Item {
	t.Helper()

	item, err := e.items.Create(context.Background(), o.user.ID, ItemInput{Name: name, CategoryID: o.category.ID}, "")
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }
