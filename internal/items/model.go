package items

import "time"

type Availability string

const (
	// Available items can be the target of new swap requests.
	Available Availability = "available"
	// Reserved is carved out for a future soft-hold at request time;
	// nothing transitions into it today.
	Reserved Availability = "reserved"
	// Unavailable is terminal: set once when a swap is accepted, never
	// reverted.
	Unavailable Availability = "unavailable"
)

// Item is a listed good. Listings survive the gate (or an explicit override
// of a soft failure) before they exist at all.
type Item struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Images       []string     `json:"images"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"created_at"`
}
