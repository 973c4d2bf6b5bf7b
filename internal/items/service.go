package items

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rewearhq/rewear/internal/clock"
	"github.com/rewearhq/rewear/internal/verification"
)

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidListing   = errors.New("title, description and category are required")
	ErrListingBlocked   = errors.New("listing blocked by verification")
	ErrOverrideRequired = errors.New("listing requires verification override")
)

type Repository interface {
	CreateItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Item, error)
	// MarkItemUnavailable is idempotent; marking an already unavailable
	// item is a no-op.
	MarkItemUnavailable(ctx context.Context, id string) error
}

type Service struct {
	repo  Repository
	gate  verification.Gate
	clock clock.Clock
}

func NewService(repo Repository, gate verification.Gate, clk clock.Clock) *Service {
	return &Service{repo: repo, gate: gate, clock: clk}
}

type CreateInput struct {
	OwnerID     string
	Title       string
	Description string
	Category    string
	Images      []string
	Results     []verification.Result
	Override    bool
}

// Create runs the verification gate over the supplied per-image results and,
// when the gate clears (or the uploader explicitly overrides a soft
// failure), persists the listing as available. The returned decision is
// populated on every path so callers can show the uploader why a listing was
// refused.
func (s *Service) Create(ctx context.Context, in CreateInput) (Item, verification.Decision, error) {
	if in.Title == "" || in.Description == "" || in.Category == "" {
		return Item{}, verification.Decision{}, ErrInvalidListing
	}

	decision := s.gate.Evaluate(in.Results)
	if decision.Blocked {
		// Hard gate: no override path exists.
		return Item{}, decision, ErrListingBlocked
	}
	if decision.RequiresOverride && !in.Override {
		return Item{}, decision, ErrOverrideRequired
	}

	item := Item{
		ID:           uuid.New().String(),
		OwnerID:      in.OwnerID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Images:       in.Images,
		Availability: Available,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return Item{}, decision, err
	}
	return item, decision, nil
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Item, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// IsAvailable reports whether the item can be the target of a new swap
// request. It does not reserve anything: multiple pending requests may
// coexist and only acceptance locks the item.
func (s *Service) IsAvailable(ctx context.Context, id string) (bool, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	return item.Availability == Available, nil
}

// MarkUnavailable is the terminal availability transition. Only an accepted
// swap should reach for this; repeated calls are harmless.
func (s *Service) MarkUnavailable(ctx context.Context, id string) error {
	return s.repo.MarkItemUnavailable(ctx, id)
}
