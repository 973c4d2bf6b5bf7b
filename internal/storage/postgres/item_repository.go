package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rewearhq/rewear/internal/items"
)

// ItemRepository backs both the listing service and the swap ledger's view of
// items (including the FOR UPDATE read Accept relies on).
type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ItemRepository) CreateItem(ctx context.Context, item items.Item) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO items (id, owner_id, title, description, category, images, availability, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.OwnerID, item.Title, item.Description, item.Category,
		item.Images, string(item.Availability), item.CreatedAt,
	)
	return err
}

const itemColumns = `id, owner_id, title, description, category, images, availability, created_at`

func (r *ItemRepository) GetItem(ctx context.Context, id string) (items.Item, error) {
	return r.getItem(ctx, id, `SELECT `+itemColumns+` FROM items WHERE id = $1`)
}

func (r *ItemRepository) GetItemForUpdate(ctx context.Context, id string) (items.Item, error) {
	return r.getItem(ctx, id, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`)
}

func (r *ItemRepository) getItem(ctx context.Context, id, query string) (items.Item, error) {
	var item items.Item
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description,
		&item.Category, &item.Images, &item.Availability, &item.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return items.Item{}, items.ErrItemNotFound
	}
	if err != nil {
		return items.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]items.Item, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// MarkItemUnavailable is idempotent: repeating it on an already unavailable
// item changes nothing.
func (r *ItemRepository) MarkItemUnavailable(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE items SET availability = $1 WHERE id = $2`,
		string(items.Unavailable), id,
	)
	if isInvalidUUID(err) {
		return items.ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return items.ErrItemNotFound
	}
	return nil
}

func scanItems(rows pgx.Rows) ([]items.Item, error) {
	var out []items.Item
	for rows.Next() {
		var item items.Item
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description,
			&item.Category, &item.Images, &item.Availability, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
