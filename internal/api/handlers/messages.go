package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/sumgram/sumgram-backend/internal/api/middleware"
	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/dialogs"
	"github.com/sumgram/sumgram-backend/internal/messages"
	"github.com/sumgram/sumgram-backend/internal/services"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

const messageDateFormat = "2006-01-02 15:04:05"

type messageRecord struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Date string `json:"date"`
}

// GetSourceMessages returns the last messages of one source, addressed
// by the signed source id convention.
func GetSourceMessages(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sourceID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid source id",
			})
		}

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}
		token := middleware.GetString(sess, middleware.KeySessionStr)

		var (
			records    []messageRecord
			sourceName string
			resolved   bool
		)
		err = svc.Resolver.WithUser(c.Context(), token, func(ctx context.Context, conn telegram.Conn) error {
			entity := svc.Messages.ResolveSource(ctx, conn, sourceID)
			if entity == nil {
				return nil
			}
			resolved = true
			sourceName = entityName(entity)
			for _, m := range svc.Messages.FetchMessages(ctx, conn, entity, messages.ModeLast10, nil, nil) {
				records = append(records, messageRecord{
					ID:   m.ID,
					Text: m.Text,
					Date: m.Date.Format(messageDateFormat),
				})
			}
			return nil
		})
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "not_authenticated",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if !resolved {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "source not found",
			})
		}
		if records == nil {
			records = []messageRecord{}
		}

		return c.JSON(fiber.Map{
			"source":   sourceName,
			"messages": records,
		})
	}
}

func entityName(e telegram.Entity) string {
	switch v := e.(type) {
	case *telegram.Channel:
		if v.Username != "" {
			return "@" + v.Username
		}
		return v.Title
	case *telegram.Chat:
		return v.Title
	case *telegram.User:
		return dialogs.DisplayName(v.FirstName, v.LastName)
	default:
		return ""
	}
}
