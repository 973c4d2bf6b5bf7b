package swaps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewearhq/rewear/internal/clock"
	"github.com/rewearhq/rewear/internal/items"
	"github.com/rewearhq/rewear/internal/wallet"
)

var (
	ErrSwapNotFound          = errors.New("swap request not found")
	ErrInvalidKind           = errors.New("kind must be swap or points")
	ErrInvalidPoints         = errors.New("points offered must not be negative")
	ErrOwnItem               = errors.New("cannot request your own item")
	ErrItemUnavailable       = errors.New("item not available")
	ErrItemNoLongerAvailable = errors.New("item no longer available")
	ErrAlreadyProcessed      = errors.New("swap request already processed")
	ErrNotAuthorized         = errors.New("not authorized")
)

// Repository is the storage contract for swap rows. WithTx runs fn inside a
// single database transaction; ItemStore and PointsLedger calls made with
// fn's context join the same transaction, which is what makes Accept an
// all-or-nothing transition across three entities.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateSwap(ctx context.Context, swap Swap) error
	GetSwap(ctx context.Context, id string) (Swap, error)
	// GetSwapForUpdate locks the swap row for the rest of the transaction
	// so two transitions on the same request serialize.
	GetSwapForUpdate(ctx context.Context, id string) (Swap, error)
	MarkProcessed(ctx context.Context, id string, status Status, completedAt time.Time) error
	ListByRequester(ctx context.Context, requesterID string) ([]Swap, error)
	ListPendingForOwner(ctx context.Context, ownerID string) ([]Swap, error)
	ListHistoryForUser(ctx context.Context, userID string) ([]Swap, error)
}

// ItemStore is the slice of item storage the swap ledger needs.
type ItemStore interface {
	GetItem(ctx context.Context, id string) (items.Item, error)
	// GetItemForUpdate locks the item row; Accept re-checks availability
	// under this lock, which is what closes the double-accept race.
	GetItemForUpdate(ctx context.Context, id string) (items.Item, error)
	MarkItemUnavailable(ctx context.Context, id string) error
}

// PointsLedger moves points between accounts. Transfer must be atomic with
// the surrounding transaction: joined through the context, it either commits
// with the rest of Accept or not at all.
type PointsLedger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Transfer(ctx context.Context, fromID, toID string, amount int64, reference string) error
}

// UserDirectory resolves display names for read-side projections.
type UserDirectory interface {
	GetUserName(ctx context.Context, id string) (string, error)
}

type Service struct {
	repo   Repository
	items  ItemStore
	ledger PointsLedger
	users  UserDirectory
	clock  clock.Clock
}

func NewService(repo Repository, itemStore ItemStore, ledger PointsLedger, users UserDirectory, clk clock.Clock) *Service {
	return &Service{
		repo:   repo,
		items:  itemStore,
		ledger: ledger,
		users:  users,
		clock:  clk,
	}
}

type CreateInput struct {
	RequesterID   string
	ItemID        string
	Kind          Kind
	PointsOffered int64
}

// Create records a pending swap request. The balance and availability checks
// here are advisory: nothing is reserved, and Accept re-validates both under
// locks. Multiple pending requests may coexist for one item.
func (s *Service) Create(ctx context.Context, in CreateInput) (Swap, error) {
	if in.Kind != KindDirectSwap && in.Kind != KindPointsOffer {
		return Swap{}, ErrInvalidKind
	}
	if in.PointsOffered < 0 {
		return Swap{}, ErrInvalidPoints
	}
	if in.Kind != KindPointsOffer {
		in.PointsOffered = 0
	}

	item, err := s.items.GetItem(ctx, in.ItemID)
	if err != nil {
		return Swap{}, err
	}
	if item.Availability != items.Available {
		return Swap{}, ErrItemUnavailable
	}
	if item.OwnerID == in.RequesterID {
		return Swap{}, ErrOwnItem
	}

	if in.Kind == KindPointsOffer {
		balance, err := s.ledger.Balance(ctx, in.RequesterID)
		if err != nil {
			return Swap{}, err
		}
		if in.PointsOffered > balance {
			return Swap{}, wallet.ErrInsufficientPoints
		}
	}

	swap := Swap{
		ID:            uuid.New().String(),
		RequesterID:   in.RequesterID,
		ItemID:        in.ItemID,
		Kind:          in.Kind,
		PointsOffered: in.PointsOffered,
		Status:        StatusPending,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.CreateSwap(ctx, swap); err != nil {
		return Swap{}, err
	}
	return swap, nil
}

// Accept commits the terminal "accepted" transition as one atomic unit:
// status flip, item availability, and the points transfer for points offers.
// A failure anywhere aborts the whole transaction and the request stays
// pending. Only the item's current owner may accept.
func (s *Service) Accept(ctx context.Context, actorID, swapID string) (Swap, error) {
	var result Swap

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		swap, err := s.repo.GetSwapForUpdate(txCtx, swapID)
		if err != nil {
			return err
		}

		item, err := s.items.GetItemForUpdate(txCtx, swap.ItemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actorID {
			return ErrNotAuthorized
		}
		if swap.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		if item.Availability != items.Available {
			// A concurrent accept for another request already took the
			// item. This request stays pending for an explicit reject.
			return ErrItemNoLongerAvailable
		}

		if swap.Kind == KindPointsOffer && swap.PointsOffered > 0 {
			ref := fmt.Sprintf("swap:%s", swap.ID)
			if err := s.ledger.Transfer(txCtx, swap.RequesterID, item.OwnerID, swap.PointsOffered, ref); err != nil {
				return err
			}
		}

		if err := s.items.MarkItemUnavailable(txCtx, item.ID); err != nil {
			return err
		}

		now := s.clock.Now()
		swap.Status = StatusAccepted
		swap.CompletedAt = &now
		if err := s.repo.MarkProcessed(txCtx, swap.ID, StatusAccepted, now); err != nil {
			return err
		}

		result = swap
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	return result, nil
}

// Reject moves a pending request to its rejected terminal state. No balance
// or availability changes. Only the item's current owner may reject.
func (s *Service) Reject(ctx context.Context, actorID, swapID string) (Swap, error) {
	var result Swap

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		swap, err := s.repo.GetSwapForUpdate(txCtx, swapID)
		if err != nil {
			return err
		}

		item, err := s.items.GetItem(txCtx, swap.ItemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actorID {
			return ErrNotAuthorized
		}
		if swap.Status != StatusPending {
			return ErrAlreadyProcessed
		}

		now := s.clock.Now()
		swap.Status = StatusRejected
		swap.CompletedAt = &now
		if err := s.repo.MarkProcessed(txCtx, swap.ID, StatusRejected, now); err != nil {
			return err
		}

		result = swap
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	return result, nil
}

// MyRequests lists the user's own swap requests, newest first.
func (s *Service) MyRequests(ctx context.Context, requesterID string) ([]View, error) {
	swaps, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, swaps)
}

// Incoming lists pending requests against the user's items.
func (s *Service) Incoming(ctx context.Context, ownerID string) ([]View, error) {
	swaps, err := s.repo.ListPendingForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, swaps)
}

// History lists terminal requests the user was involved in on either side,
// most recently completed first.
func (s *Service) History(ctx context.Context, userID string) ([]View, error) {
	swaps, err := s.repo.ListHistoryForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, swaps)
}

// decorate joins swap rows with item and user details. A dangling item
// reference becomes the explicit "no longer available" variant instead of a
// propagated absence.
func (s *Service) decorate(ctx context.Context, swaps []Swap) ([]View, error) {
	views := make([]View, 0, len(swaps))
	for _, swap := range swaps {
		view := View{
			Swap:          swap,
			ItemTitle:     MissingItemTitle,
			ItemImages:    []string{},
			RequesterName: s.userName(ctx, swap.RequesterID),
			OwnerName:     UnknownUserName,
		}

		item, err := s.items.GetItem(ctx, swap.ItemID)
		switch {
		case errors.Is(err, items.ErrItemNotFound):
			// Keep the fallback variant.
		case err != nil:
			return nil, err
		default:
			view.ItemTitle = item.Title
			if item.Images != nil {
				view.ItemImages = item.Images
			}
			view.OwnerName = s.userName(ctx, item.OwnerID)
		}

		views = append(views, view)
	}
	return views, nil
}

func (s *Service) userName(ctx context.Context, id string) string {
	name, err := s.users.GetUserName(ctx, id)
	if err != nil || name == "" {
		return UnknownUserName
	}
	return name
}
