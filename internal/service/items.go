package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"giftlist-api/internal/hub"
	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"
	"giftlist-api/internal/reservation"
	"giftlist-api/pkg/uid"

	"github.com/sirupsen/logrus"
)

const maxNameLength = 200

// ItemService runs item mutations. Each mutation holds the item's lock from
// the conditional write until its event is queued, so subscribers see the
// events of one item in commit order.
type ItemService struct {
	store     repository.Store
	views     *ListViews
	publisher hub.Publisher
	locks     keyedMutex
	log       logrus.FieldLogger
}

// NewItemService creates an item service.
func NewItemService(store repository.Store, views *ListViews, publisher hub.Publisher, log logrus.FieldLogger) *ItemService {
	return &ItemService{
		store:     store,
		views:     views,
		publisher: publisher,
		log:       log.WithField("component", "items"),
	}
}

// ItemInput holds the owner-editable fields of an item.
type ItemInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	LinkURL     *string  `json:"linkUrl"`
	ImageURL    *string  `json:"imageUrl"`
	CategoryID  string   `json:"categoryId"`
}

func (in ItemInput) details() (model.ItemDetails, error) {
	d := model.ItemDetails{
		Name:        strings.TrimSpace(in.Name),
		Description: optional(in.Description),
		Price:       in.Price,
		LinkURL:     optional(in.LinkURL),
		ImageURL:    optional(in.ImageURL),
		CategoryID:  strings.TrimSpace(in.CategoryID),
	}
	switch {
	case d.Name == "":
		return d, invalidInput("name is required")
	case len(d.Name) > maxNameLength:
		return d, invalidInput("name must have at most %d characters", maxNameLength)
	case d.Price != nil && *d.Price < 0:
		return d, invalidInput("price must not be negative")
	case d.CategoryID == "":
		return d, invalidInput("categoryId is required")
	}
	return d, nil
}

// ReserveInput is a guest's reservation request.
type ReserveInput struct {
	PurchaserName  string `json:"purchaserName"`
	PurchaserEmail string `json:"purchaserEmail"`
}

// Create adds an AVAILABLE item to one of the actor's categories.
func (s *ItemService) Create(ctx context.Context, actorID string, in ItemInput, origin string) (*model.Item, error) {
	d, err := in.details()
	if err != nil {
		return nil, err
	}

	category, err := s.ownedCategory(ctx, actorID, d.CategoryID)
	if err != nil {
		return nil, err
	}

	item := &model.Item{ID: uid.New()}
	applyDetails(item, d)

	unlock := s.locks.Lock(item.ID)
	defer unlock()

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.commit(ctx, category.ListSlug, hub.Event{Kind: hub.KindItemCreated, Data: item}, origin)
	return item, nil
}

// Update edits an AVAILABLE item. Moving it to a category of another list
// removes it from the old list's room and adds it to the new one.
func (s *ItemService) Update(ctx context.Context, actorID, id string, in ItemInput, origin string) (*model.Item, error) {
	d, err := in.details()
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	scope, err := s.ownedItem(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := reservation.CheckEditable(scope.Item); err != nil {
		return nil, err
	}

	targetSlug := scope.ListSlug
	if d.CategoryID != scope.Item.CategoryID {
		target, err := s.ownedCategory(ctx, actorID, d.CategoryID)
		if err != nil {
			return nil, err
		}
		targetSlug = target.ListSlug
	}

	next := scope.Item
	applyDetails(&next, d)

	ok, err := s.store.UpdateItemDetails(ctx, &next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reservation.ErrNotEditable
	}

	if targetSlug != scope.ListSlug {
		s.commit(ctx, scope.ListSlug, hub.Event{
			Kind: hub.KindItemDeleted,
			Data: model.ItemRef{ID: next.ID, CategoryID: scope.Item.CategoryID},
		}, origin)
		s.commit(ctx, targetSlug, hub.Event{Kind: hub.KindItemCreated, Data: &next}, origin)
	} else {
		s.commit(ctx, scope.ListSlug, hub.Event{Kind: hub.KindItemUpdated, Data: &next}, origin)
	}
	return &next, nil
}

// Delete removes an item in any status.
func (s *ItemService) Delete(ctx context.Context, actorID, id, origin string) (*model.ItemRef, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	scope, err := s.ownedItem(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	ref := &model.ItemRef{ID: id, CategoryID: scope.Item.CategoryID}
	s.commit(ctx, scope.ListSlug, hub.Event{Kind: hub.KindItemDeleted, Data: ref}, origin)
	return ref, nil
}

// Reserve reserves an AVAILABLE item for a guest. Of any number of
// concurrent reservations of one item exactly one succeeds; the others get
// reservation.ErrConflict.
func (s *ItemService) Reserve(ctx context.Context, id string, in ReserveInput, origin string) (*model.Item, error) {
	if email := strings.TrimSpace(in.PurchaserEmail); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalidInput("purchaserEmail is not valid")
		}
	}

	return s.transition(ctx, id, model.StatusAvailable, origin, nil, func(item model.Item) (model.Item, error) {
		return reservation.Reserve(item, in.PurchaserName, in.PurchaserEmail)
	})
}

// Confirm marks a RESERVED item as PURCHASED.
func (s *ItemService) Confirm(ctx context.Context, actorID, id, origin string) (*model.Item, error) {
	return s.transition(ctx, id, model.StatusReserved, origin, &actorID, reservation.Confirm)
}

// Cancel returns a RESERVED item to AVAILABLE and clears its purchaser.
func (s *ItemService) Cancel(ctx context.Context, actorID, id, origin string) (*model.Item, error) {
	return s.transition(ctx, id, model.StatusReserved, origin, &actorID, reservation.Cancel)
}

// transition applies a state machine step and persists it conditionally on
// the status it was validated against. A nil actorID skips the ownership
// check.
func (s *ItemService) transition(
	ctx context.Context,
	id string,
	expected model.ItemStatus,
	origin string,
	actorID *string,
	apply func(model.Item) (model.Item, error),
) (*model.Item, error) {
	if !uid.Valid(id) {
		return nil, repository.ErrNotFound
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	scope, err := s.store.GetItemScope(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != nil && scope.OwnerID != *actorID {
		return nil, ErrForbidden
	}

	next, err := apply(scope.Item)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.TransitionItem(ctx, &next, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another writer changed the status after it was read.
		return nil, reservation.FailedTransition(expected)
	}

	s.log.WithFields(logrus.Fields{
		"item_id":  id,
		"slug":     scope.ListSlug,
		"from":     scope.Item.Status,
		"to":       next.Status,
		"revision": next.Revision,
	}).Info("Item status changed")

	s.commit(ctx, scope.ListSlug, hub.Event{Kind: hub.KindItemUpdated, Data: &next}, origin)
	return &next, nil
}

func (s *ItemService) ownedItem(ctx context.Context, actorID, id string) (*model.ItemScope, error) {
	scope, err := s.store.GetItemScope(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return scope, nil
}

func (s *ItemService) ownedCategory(ctx context.Context, actorID, id string) (*model.CategoryScope, error) {
	scope, err := s.store.GetCategoryScope(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidInput("category %q does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	if scope.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return scope, nil
}

// commit runs after a successful write: the cached view goes first, then
// the event.
func (s *ItemService) commit(ctx context.Context, slug string, evt hub.Event, origin string) {
	s.views.Invalidate(ctx, slug)
	s.publisher.Publish(ctx, slug, evt, origin)
}

func applyDetails(item *model.Item, d model.ItemDetails) {
	item.Name = d.Name
	item.Description = d.Description
	item.Price = d.Price
	item.LinkURL = d.LinkURL
	item.ImageURL = d.ImageURL
	item.CategoryID = d.CategoryID
}

// optional trims p and maps blank values to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
