package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
)

type AuthHandler struct {
	Resolver *auth.Resolver
	Issuer   *auth.TokenIssuer
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ImpersonationRequest struct {
	AppID     int64  `json:"app_id"`
	AppSecret string `json:"app_secret"`
	UserID    int64  `json:"user_id"`
}

// Login exchanges phone + password for a full-access session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Phone == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Phone and password are required"})
	}

	token, err := h.Resolver.Login(c.Context(), req.Phone, req.Password)
	if err != nil {
		slog.Warn("Login rejected", "phone", req.Phone)
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

// IssueImpersonationToken authenticates a trusted app by id + secret and
// mints a short-lived token scoped to transfer + read-own-accounts on
// behalf of the named user. Transfers made with it carry the app's id
// into the ledger.
func (h *AuthHandler) IssueImpersonationToken(c *fiber.Ctx) error {
	var req ImpersonationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	app, err := h.Resolver.ResolveTrustedApp(c.Context(), req.AppID, req.AppSecret)
	if err != nil {
		slog.Warn("Trusted app authentication failed", "app_id", req.AppID)
		return writeError(c, err)
	}

	token, err := h.Issuer.IssueImpersonation(app.ID, req.UserID)
	if err != nil {
		slog.Error("Failed to issue impersonation token", "app_id", app.ID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}

	slog.Info("Impersonation token issued", "app_id", app.ID, "user_id", req.UserID)
	return c.JSON(fiber.Map{"token": token})
}
