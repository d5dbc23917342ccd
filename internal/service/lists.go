package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"giftlist-api/internal/hub"
	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"
	"giftlist-api/pkg/uid"

	"github.com/sirupsen/logrus"
)

const maxTitleLength = 200

// reservedSlugs are path segments of owner routes under /api/v1/lists.
var reservedSlugs = map[string]struct{}{
	"mine": {},
	"id":   {},
}

// ListService manages gift lists and serves their public view.
type ListService struct {
	store     repository.Store
	views     *ListViews
	publisher hub.Publisher
	locks     keyedMutex
	log       logrus.FieldLogger
}

// NewListService creates a list service.
func NewListService(store repository.Store, views *ListViews, publisher hub.Publisher, log logrus.FieldLogger) *ListService {
	return &ListService{
		store:     store,
		views:     views,
		publisher: publisher,
		log:       log.WithField("component", "lists"),
	}
}

// ListInput holds the owner-editable fields of a list. Slug is only read
// on creation.
type ListInput struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   *string `json:"eventDate"` // RFC 3339 or YYYY-MM-DD
}

func (in ListInput) details() (model.GiftListDetails, error) {
	d := model.GiftListDetails{
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description),
	}
	if d.Title == "" {
		return d, invalidInput("title is required")
	}
	if len(d.Title) > maxTitleLength {
		return d, invalidInput("title must have at most %d characters", maxTitleLength)
	}

	if raw := optional(in.EventDate); raw != nil {
		t, err := parseEventDate(*raw)
		if err != nil {
			return d, invalidInput("eventDate must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
		}
		d.EventDate = &t
	}
	return d, nil
}

func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

// Create adds a list owned by the actor. The slug is immutable afterwards.
func (s *ListService) Create(ctx context.Context, actorID string, in ListInput) (*model.GiftList, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !model.ValidSlug(slug) {
		return nil, invalidInput("slug must be 3-64 lowercase letters, digits or single dashes")
	}
	if _, ok := reservedSlugs[slug]; ok {
		return nil, invalidInput("slug %q is reserved", slug)
	}
	d, err := in.details()
	if err != nil {
		return nil, err
	}

	list := &model.GiftList{
		ID:          uid.New(),
		Slug:        slug,
		Title:       d.Title,
		Description: d.Description,
		EventDate:   d.EventDate,
		UserID:      actorID,
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"slug": slug, "user_id": actorID}).Info("List created")
	return list, nil
}

// Mine returns the actor's lists.
func (s *ListService) Mine(ctx context.Context, actorID string) ([]model.GiftList, error) {
	return s.store.ListByOwner(ctx, actorID)
}

// GetForOwner returns the full view of one of the actor's lists, read from
// the store.
func (s *ListService) GetForOwner(ctx context.Context, actorID, id string) (*model.ListView, error) {
	list, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return s.views.Build(ctx, list.Slug)
}

// GetBySlug returns the public view of a list.
func (s *ListService) GetBySlug(ctx context.Context, slug string) (json.RawMessage, error) {
	if !model.ValidSlug(slug) {
		return nil, repository.ErrNotFound
	}
	return s.views.Get(ctx, slug)
}

// Update edits title, description and event date.
func (s *ListService) Update(ctx context.Context, actorID, id string, in ListInput, origin string) (*model.GiftList, error) {
	d, err := in.details()
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	list, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	list.Title = d.Title
	list.Description = d.Description
	list.EventDate = d.EventDate
	if err := s.store.UpdateListDetails(ctx, list); err != nil {
		return nil, err
	}

	s.views.Invalidate(ctx, list.Slug)
	s.publisher.Publish(ctx, list.Slug, hub.Event{Kind: hub.KindListUpdated, Data: list}, origin)
	return list, nil
}

// Delete removes a list with all its categories and items.
func (s *ListService) Delete(ctx context.Context, actorID, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	list, err := s.owned(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteList(ctx, id); err != nil {
		return err
	}

	s.views.Invalidate(ctx, list.Slug)
	s.log.WithFields(logrus.Fields{"slug": list.Slug, "user_id": actorID}).Info("List deleted")
	return nil
}

func (s *ListService) owned(ctx context.Context, actorID, id string) (*model.GiftList, error) {
	list, err := s.store.GetList(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.UserID != actorID {
		return nil, ErrForbidden
	}
	return list, nil
}
