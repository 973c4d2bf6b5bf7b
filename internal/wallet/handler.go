package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance returns the authenticated user's points balance.
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.svc.Balance(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch balance"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id": userID,
		"balance": balance,
	})
}

// Transactions returns the authenticated user's ledger entries.
func (h *Handler) Transactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	transactions, err := h.svc.Transactions(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch transactions"})
	}
	if transactions == nil {
		transactions = []Transaction{}
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": transactions})
}

// AdminTransactions returns the most recent ledger entries across all
// wallets. Routed behind the admin guard.
func (h *Handler) AdminTransactions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	transactions, err := h.svc.AllTransactions(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch transactions"})
	}
	if transactions == nil {
		transactions = []Transaction{}
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": transactions})
}

type GrantRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// AdminGrant credits points to a user out of band. Routed behind the admin
// guard; this is the only way points enter the system.
func (h *Handler) AdminGrant(c echo.Context) error {
	targetID := c.Param("id")
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	req := new(GrantRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Reference == "" {
		req.Reference = "admin:grant"
	}

	err := h.svc.Grant(c.Request().Context(), targetID, req.Amount, req.Reference)
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	case errors.Is(err, ErrWalletNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to grant points"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "points granted"})
}
