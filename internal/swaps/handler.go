package swaps

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rewearhq/rewear/internal/items"
	"github.com/rewearhq/rewear/internal/wallet"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type CreateRequest struct {
	ItemID        string `json:"item_id"`
	Kind          string `json:"kind"`
	PointsOffered int64  `json:"points_offered"`
}

// Create places a swap request against someone else's item.
func (h *Handler) Create(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateRequest)
	if err := c.Bind(req); err != nil || req.ItemID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	swap, err := h.svc.Create(c.Request().Context(), CreateInput{
		RequesterID:   requesterID,
		ItemID:        req.ItemID,
		Kind:          Kind(req.Kind),
		PointsOffered: req.PointsOffered,
	})
	switch {
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidPoints):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, items.ErrItemNotFound), errors.Is(err, ErrItemUnavailable):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not available"})
	case errors.Is(err, ErrOwnItem):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot request your own item"})
	case errors.Is(err, wallet.ErrInsufficientPoints):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient points"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create swap request"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":      swap.ID,
		"message": "swap request created",
	})
}

// Accept lets the item owner accept a pending request.
func (h *Handler) Accept(c echo.Context) error {
	return h.transition(c, h.svc.Accept, "swap accepted")
}

// Reject lets the item owner reject a pending request.
func (h *Handler) Reject(c echo.Context) error {
	return h.transition(c, h.svc.Reject, "swap rejected")
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, actorID, swapID string) (Swap, error), message string) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	swapID := c.Param("id")
	if swapID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing swap id"})
	}

	swap, err := fn(c.Request().Context(), actorID, swapID)
	switch {
	case errors.Is(err, ErrSwapNotFound), errors.Is(err, items.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "swap request not found"})
	case errors.Is(err, ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	case errors.Is(err, ErrAlreadyProcessed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "swap request already processed"})
	case errors.Is(err, ErrItemNoLongerAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "item no longer available"})
	case errors.Is(err, wallet.ErrInsufficientPoints):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "requester has insufficient points"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process swap request"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": message,
		"swap":    swap,
	})
}

// MyRequests returns the swaps the caller has requested.
func (h *Handler) MyRequests(c echo.Context) error {
	return h.listViews(c, h.svc.MyRequests)
}

// MyItems returns pending requests against the caller's items.
func (h *Handler) MyItems(c echo.Context) error {
	return h.listViews(c, h.svc.Incoming)
}

// History returns terminal swaps involving the caller on either side.
func (h *Handler) History(c echo.Context) error {
	return h.listViews(c, h.svc.History)
}

func (h *Handler) listViews(c echo.Context, fn func(ctx context.Context, userID string) ([]View, error)) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	views, err := fn(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch swap requests"})
	}
	if views == nil {
		views = []View{}
	}
	return c.JSON(http.StatusOK, views)
}
