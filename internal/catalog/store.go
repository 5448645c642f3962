package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/enum"
	"github.com/homebake/api/internal/storage"
)

// Key is the fixed persistence key the catalog is stored under.
const Key = "menuItems"

// Store is the only reader and writer of the persisted catalog. Mutations are
// serialized and persist the whole catalog before returning.
type Store struct {
	kv    storage.KV
	log   logrus.FieldLogger
	seed  []MenuItem
	now   func() time.Time
	newID func() string

	mu sync.Mutex

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithSeed replaces the default items written on first Load.
func WithSeed(items []MenuItem) Option {
	return func(s *Store) { s.seed = cloneItems(items) }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides time.Now for created_at and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid-based id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a Store persisting into kv.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		log:   logrus.StandardLogger(),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
		subs:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == nil {
		s.seed = DefaultSeed(s.now())
	}
	return s
}

// Load returns the full catalog, active and inactive, in insertion order. The
// seed set is persisted and returned when nothing has been stored yet.
func (s *Store) Load(ctx context.Context) ([]MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]MenuItem, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		items := cloneItems(s.seed)
		if err := s.put(ctx, items); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		s.log.WithField("items", len(items)).Info("catalog seeded")
		return cloneItems(items), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var items []MenuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return cloneItems(items), nil
}

// Save replaces the persisted catalog wholesale.
func (s *Store) Save(ctx context.Context, items []MenuItem) error {
	s.mu.Lock()
	err := s.put(ctx, cloneItems(items))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Change{Type: enum.CatalogReplaced, At: s.now()})
	return nil
}

func (s *Store) put(ctx context.Context, items []MenuItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.kv.Put(ctx, Key, raw); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Get returns one item by id, active or not.
func (s *Store) Get(ctx context.Context, id string) (MenuItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return MenuItem{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return MenuItem{}, apperr.NotFound("menu item", id)
}

// Add validates c, assigns a fresh id and timestamps, and appends the item.
func (s *Store) Add(ctx context.Context, c Candidate) (MenuItem, error) {
	if c.BasePrice == nil {
		return MenuItem{}, apperr.Validation("base_price", "is required")
	}
	now := s.now().UTC()
	item := MenuItem{
		Name:            strings.TrimSpace(c.Name),
		Description:     strings.TrimSpace(c.Description),
		Category:        c.Category,
		Image:           c.Image,
		BasePrice:       *c.BasePrice,
		PreparationTime: c.PreparationTime,
		IsEggless:       c.IsEggless,
		IsVegan:         c.IsVegan,
		Rating:          DefaultRating,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if item.Image == "" {
		item.Image = PlaceholderImage
	}
	if c.Rating != nil {
		item.Rating = *c.Rating
	}
	if c.IsActive != nil {
		item.IsActive = *c.IsActive
	}
	if err := validate(item, true); err != nil {
		return MenuItem{}, err
	}

	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return MenuItem{}, err
	}
	item.ID = s.newID()
	items = append(items, item)
	err = s.put(ctx, items)
	s.mu.Unlock()
	if err != nil {
		return MenuItem{}, err
	}

	s.notify(Change{Type: enum.CatalogItemCreated, ItemID: item.ID, At: now})
	return item, nil
}

// Update merges the non-nil fields of p into the item with the given id.
func (s *Store) Update(ctx context.Context, id string, p Patch) (MenuItem, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return MenuItem{}, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		s.mu.Unlock()
		return MenuItem{}, apperr.NotFound("menu item", id)
	}

	item := items[idx]
	p.applyTo(&item)
	item.UpdatedAt = s.now().UTC()
	// a stored category outside the fixed set is only checked when the patch
	// sets it, so such items can still be toggled or repriced
	if err := validate(item, p.Category != nil); err != nil {
		s.mu.Unlock()
		return MenuItem{}, err
	}
	items[idx] = item
	err = s.put(ctx, items)
	s.mu.Unlock()
	if err != nil {
		return MenuItem{}, err
	}

	s.notify(Change{Type: enum.CatalogItemUpdated, ItemID: id, At: item.UpdatedAt})
	return item, nil
}

// Remove deletes the item permanently.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		s.mu.Unlock()
		return apperr.NotFound("menu item", id)
	}
	items = append(items[:idx], items[idx+1:]...)
	err = s.put(ctx, items)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Change{Type: enum.CatalogItemDeleted, ItemID: id, At: s.now().UTC()})
	return nil
}

// Subscribe registers fn to be called after every successful mutation. The
// returned func removes the subscription. fn runs on the mutating goroutine
// and must not call back into the Store.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (p Patch) applyTo(item *MenuItem) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		item.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Image != nil {
		item.Image = *p.Image
		if item.Image == "" {
			item.Image = PlaceholderImage
		}
	}
	if p.BasePrice != nil {
		item.BasePrice = *p.BasePrice
	}
	if p.PreparationTime != nil {
		item.PreparationTime = *p.PreparationTime
	}
	if p.IsEggless != nil {
		item.IsEggless = *p.IsEggless
	}
	if p.IsVegan != nil {
		item.IsVegan = *p.IsVegan
	}
	if p.Rating != nil {
		item.Rating = *p.Rating
	}
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}
}

// validate checks item's fields. checkCategory is false when an update
// leaves a previously stored category untouched.
func validate(item MenuItem, checkCategory bool) error {
	switch {
	case item.Name == "":
		return apperr.Validation("name", "is required")
	case item.Description == "":
		return apperr.Validation("description", "is required")
	case checkCategory && item.Category == "":
		return apperr.Validation("category", "is required")
	case checkCategory && !enum.IsCategory(item.Category):
		return apperr.Validation("category", fmt.Sprintf("unknown category %q", item.Category))
	case item.BasePrice.IsNegative():
		return apperr.Validation("base_price", "must be >= 0")
	case item.Rating < 0 || item.Rating > 5:
		return apperr.Validation("rating", "must be between 0 and 5")
	}
	return nil
}

func indexOf(items []MenuItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
