package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/sumgram/sumgram-backend/internal/api/middleware"
	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/services"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// SubmitPhone starts the login flow: requests a confirmation code for
// the submitted phone number and stores the pending login in the
// browser session. On failure nothing is stored.
func SubmitPhone(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.PhoneNumber) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "phone_number is required",
			})
		}

		pending, err := svc.Auth.BeginLogin(c.Context(), strings.TrimSpace(req.PhoneNumber))
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}
		sess.Set(middleware.KeyTempSession, pending.TempSession)
		sess.Set(middleware.KeyPhoneNumber, pending.PhoneNumber)
		sess.Set(middleware.KeyPhoneCodeHash, pending.PhoneCodeHash)
		if err := sess.Save(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to persist session",
			})
		}

		return c.JSON(fiber.Map{"status": "code_sent"})
	}
}

// SubmitCode finishes the login flow with the confirmation code. A
// missing or partial pending login redirects the client back to phone
// entry; a failed sign-in keeps the pending login so the user may retry.
func SubmitCode(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Code) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "code is required",
			})
		}

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}

		pending := auth.PendingLogin{
			TempSession:   middleware.GetString(sess, middleware.KeyTempSession),
			PhoneNumber:   middleware.GetString(sess, middleware.KeyPhoneNumber),
			PhoneCodeHash: middleware.GetString(sess, middleware.KeyPhoneCodeHash),
		}

		sessionToken, err := svc.Auth.CompleteLogin(c.Context(), pending, strings.TrimSpace(req.Code))
		if err != nil {
			if errors.Is(err, auth.ErrLoginNotStarted) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "login_not_started",
				})
			}
			if errors.Is(err, telegram.ErrPasswordRequired) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "two-factor password required, which is not supported",
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		sess.Set(middleware.KeySessionStr, sessionToken)
		sess.Delete(middleware.KeyTempSession)
		sess.Delete(middleware.KeyPhoneNumber)
		sess.Delete(middleware.KeyPhoneCodeHash)
		if err := sess.Save(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to persist session",
			})
		}

		return c.JSON(fiber.Map{"status": "authenticated"})
	}
}

// AuthStatus reports which stage of the login flow the browser session
// is in.
func AuthStatus(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}

		stage := "anonymous"
		switch {
		case middleware.GetString(sess, middleware.KeySessionStr) != "":
			stage = "authenticated"
		case middleware.GetString(sess, middleware.KeyTempSession) != "" &&
			middleware.GetString(sess, middleware.KeyPhoneNumber) != "" &&
			middleware.GetString(sess, middleware.KeyPhoneCodeHash) != "":
			stage = "code_requested"
		}
		return c.JSON(fiber.Map{"stage": stage})
	}
}

// Logout clears every browser session field and returns the flow to the
// anonymous state, regardless of where it was.
func Logout(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}
		if err := sess.Destroy(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to clear session",
			})
		}
		svc.Log.Info("user logged out")
		return c.JSON(fiber.Map{"status": "logged_out"})
	}
}

// Index reports whether the browser session resolves to an authorized
// account, so the frontend can route to login or dashboard.
func Index(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}

		token := middleware.GetString(sess, middleware.KeySessionStr)
		authorized := svc.Resolver.WithUser(c.Context(), token, func(ctx context.Context, conn telegram.Conn) error {
			return nil
		}) == nil
		return c.JSON(fiber.Map{"authenticated": authorized})
	}
}
