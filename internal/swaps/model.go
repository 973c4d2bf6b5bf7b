package swaps

import "time"

type Kind string

const (
	// KindDirectSwap proposes a straight exchange of goods.
	KindDirectSwap Kind = "swap"
	// KindPointsOffer spends points from the requester's balance instead.
	KindPointsOffer Kind = "points"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Swap is one request against a listed item. Requests are never deleted;
// terminal ones are kept for history.
type Swap struct {
	ID            string     `json:"id"`
	RequesterID   string     `json:"requester_id"`
	ItemID        string     `json:"item_id"`
	Kind          Kind       `json:"kind"`
	PointsOffered int64      `json:"points_offered"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Fallbacks shown when a view crosses a dangling item reference. The item
// may have been removed out of band; the swap row survives it, so the
// projection represents the gap explicitly instead of carrying a null.
const (
	MissingItemTitle = "Item no longer available"
	UnknownUserName  = "Unknown"
)

// View is a read-side projection of a swap decorated with item and user
// details for display.
type View struct {
	Swap
	ItemTitle     string   `json:"item_title"`
	ItemImages    []string `json:"item_images"`
	RequesterName string   `json:"requester_name"`
	OwnerName     string   `json:"owner_name"`
}
