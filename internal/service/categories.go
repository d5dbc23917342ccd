package service

import (
	"context"
	"errors"
	"strings"

	"giftlist-api/internal/hub"
	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"
	"giftlist-api/pkg/uid"

	"github.com/sirupsen/logrus"
)

// CategoryService runs category mutations.
type CategoryService struct {
	store     repository.Store
	views     *ListViews
	publisher hub.Publisher
	locks     keyedMutex
	log       logrus.FieldLogger
}

// NewCategoryService creates a category service.
func NewCategoryService(store repository.Store, views *ListViews, publisher hub.Publisher, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		store:     store,
		views:     views,
		publisher: publisher,
		log:       log.WithField("component", "categories"),
	}
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name   string `json:"name"`
	ListID string `json:"listId"`
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput("name is required")
	}
	if len(name) > maxNameLength {
		return "", invalidInput("name must have at most %d characters", maxNameLength)
	}
	return name, nil
}

// Create appends a category to one of the actor's lists.
func (s *CategoryService) Create(ctx context.Context, actorID string, in CategoryInput, origin string) (*model.Category, error) {
	name, err := categoryName(in.Name)
	if err != nil {
		return nil, err
	}

	list, err := s.store.GetList(ctx, strings.TrimSpace(in.ListID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidInput("list %q does not exist", in.ListID)
	}
	if err != nil {
		return nil, err
	}
	if list.UserID != actorID {
		return nil, ErrForbidden
	}

	category := &model.Category{ID: uid.New(), Name: name, ListID: list.ID}

	unlock := s.locks.Lock(category.ID)
	defer unlock()

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.commit(ctx, list.Slug, hub.Event{Kind: hub.KindCategoryCreated, Data: category}, origin)
	return category, nil
}

// Rename changes a category's name.
func (s *CategoryService) Rename(ctx context.Context, actorID, id, name, origin string) (*model.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	scope, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	category := scope.Category
	category.Name = name
	if err := s.store.UpdateCategory(ctx, &category); err != nil {
		return nil, err
	}

	s.commit(ctx, scope.ListSlug, hub.Event{Kind: hub.KindCategoryUpdated, Data: &category}, origin)
	return &category, nil
}

// Delete removes a category together with its items.
func (s *CategoryService) Delete(ctx context.Context, actorID, id, origin string) (*model.CategoryRef, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	scope, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return nil, err
	}

	ref := &model.CategoryRef{ID: id}
	s.commit(ctx, scope.ListSlug, hub.Event{Kind: hub.KindCategoryDeleted, Data: ref}, origin)
	return ref, nil
}

func (s *CategoryService) owned(ctx context.Context, actorID, id string) (*model.CategoryScope, error) {
	scope, err := s.store.GetCategoryScope(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return scope, nil
}

func (s *CategoryService) commit(ctx context.Context, slug string, evt hub.Event, origin string) {
	s.views.Invalidate(ctx, slug)
	s.publisher.Publish(ctx, slug, evt, origin)
}
