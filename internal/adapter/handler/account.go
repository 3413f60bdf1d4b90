package handler

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/middleware"
	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/storage"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

type AccountHandler struct {
	Repo     *storage.AccountRepository
	Resolver *auth.Resolver
}

// ListOwn returns the caller's accounts. Requires read-own-accounts.
func (h *AccountHandler) ListOwn(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	if err := p.RequireScope(auth.ScopeReadOwnAccounts); err != nil {
		return writeError(c, err)
	}

	accounts, err := h.Repo.ListByUser(c.Context(), p.User.ID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list accounts"})
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

// Lookup finds a destination account by id or by phone so callers can
// discover where to send before submitting a transfer. Read-only, no
// locking, and intentionally returns only a summary.
func (h *AccountHandler) Lookup(c *fiber.Ctx) error {
	var (
		acc *domain.Account
		err error
	)

	switch {
	case c.Query("account_id") != "":
		id, perr := strconv.ParseInt(c.Query("account_id"), 10, 64)
		if perr != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account id"})
		}
		acc, err = h.Repo.GetByID(c.Context(), id)
	case c.Query("phone") != "":
		acc, err = h.Repo.LookupByPhone(c.Context(), c.Query("phone"))
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "account_id or phone is required"})
	}

	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Lookup failed"})
	}
	if acc == nil {
		return writeError(c, domain.ErrInvalidAccountRef)
	}

	return c.JSON(accountSummary(acc))
}

type AppLookupRequest struct {
	AppID     int64  `json:"app_id"`
	AppSecret string `json:"app_secret"`
	AccountID int64  `json:"account_id"`
	Phone     string `json:"phone"`
}

// AppLookup is the machine-to-machine lookup path: a trusted app
// authenticates with its id + secret and never gets a user principal.
func (h *AccountHandler) AppLookup(c *fiber.Ctx) error {
	var req AppLookupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if _, err := h.Resolver.ResolveTrustedApp(c.Context(), req.AppID, req.AppSecret); err != nil {
		return writeError(c, err)
	}

	var (
		acc *domain.Account
		err error
	)
	switch {
	case req.AccountID != 0:
		acc, err = h.Repo.GetByID(c.Context(), req.AccountID)
	case req.Phone != "":
		acc, err = h.Repo.LookupByPhone(c.Context(), req.Phone)
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "account_id or phone is required"})
	}

	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Lookup failed"})
	}
	if acc == nil {
		return writeError(c, domain.ErrInvalidAccountRef)
	}
	return c.JSON(accountSummary(acc))
}

// accountSummary is what lookups expose: enough to address a transfer,
// nothing about balances.
func accountSummary(acc *domain.Account) fiber.Map {
	return fiber.Map{
		"account_id": acc.ID,
		"user_id":    acc.UserID,
		"type":       acc.Type,
	}
}
