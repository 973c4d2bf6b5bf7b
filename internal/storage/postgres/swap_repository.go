package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rewearhq/rewear/internal/swaps"
)

type SwapRepository struct {
	pool *pgxpool.Pool
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{pool: pool}
}

func (r *SwapRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SwapRepository) CreateSwap(ctx context.Context, swap swaps.Swap) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO swaps (id, requester_id, item_id, kind, points_offered, status, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		swap.ID, swap.RequesterID, swap.ItemID, string(swap.Kind),
		swap.PointsOffered, string(swap.Status), swap.CreatedAt, swap.CompletedAt,
	)
	return err
}

const swapColumns = `id, requester_id, item_id, kind, points_offered, status, created_at, completed_at`

func (r *SwapRepository) GetSwap(ctx context.Context, id string) (swaps.Swap, error) {
	return r.getSwap(ctx, id, `SELECT `+swapColumns+` FROM swaps WHERE id = $1`)
}

func (r *SwapRepository) GetSwapForUpdate(ctx context.Context, id string) (swaps.Swap, error) {
	return r.getSwap(ctx, id, `SELECT `+swapColumns+` FROM swaps WHERE id = $1 FOR UPDATE`)
}

func (r *SwapRepository) getSwap(ctx context.Context, id, query string) (swaps.Swap, error) {
	var swap swaps.Swap
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&swap.ID, &swap.RequesterID, &swap.ItemID, &swap.Kind,
		&swap.PointsOffered, &swap.Status, &swap.CreatedAt, &swap.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return swaps.Swap{}, swaps.ErrSwapNotFound
	}
	if err != nil {
		return swaps.Swap{}, err
	}
	return swap, nil
}

func (r *SwapRepository) MarkProcessed(ctx context.Context, id string, status swaps.Status, completedAt time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE swaps SET status = $1, completed_at = $2 WHERE id = $3`,
		string(status), completedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return swaps.ErrSwapNotFound
	}
	return nil
}

func (r *SwapRepository) ListByRequester(ctx context.Context, requesterID string) ([]swaps.Swap, error) {
	return r.list(ctx,
		`SELECT `+swapColumns+` FROM swaps WHERE requester_id = $1 ORDER BY created_at DESC`,
		requesterID,
	)
}

// ListPendingForOwner resolves ownership through the items table so requests
// follow the item, not a denormalized owner column.
func (r *SwapRepository) ListPendingForOwner(ctx context.Context, ownerID string) ([]swaps.Swap, error) {
	return r.list(ctx,
		`SELECT s.id, s.requester_id, s.item_id, s.kind, s.points_offered, s.status, s.created_at, s.completed_at
		 FROM swaps s
		 JOIN items i ON i.id = s.item_id
		 WHERE i.owner_id = $1 AND s.status = 'pending'
		 ORDER BY s.created_at DESC`,
		ownerID,
	)
}

func (r *SwapRepository) ListHistoryForUser(ctx context.Context, userID string) ([]swaps.Swap, error) {
	return r.list(ctx,
		`SELECT s.id, s.requester_id, s.item_id, s.kind, s.points_offered, s.status, s.created_at, s.completed_at
		 FROM swaps s
		 LEFT JOIN items i ON i.id = s.item_id
		 WHERE s.status <> 'pending' AND (s.requester_id = $1 OR i.owner_id = $1)
		 ORDER BY s.completed_at DESC`,
		userID,
	)
}

func (r *SwapRepository) list(ctx context.Context, query string, args ...any) ([]swaps.Swap, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []swaps.Swap
	for rows.Next() {
		var swap swaps.Swap
		if err := rows.Scan(
			&swap.ID, &swap.RequesterID, &swap.ItemID, &swap.Kind,
			&swap.PointsOffered, &swap.Status, &swap.CreatedAt, &swap.CompletedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, swap)
	}
	return out, rows.Err()
}
