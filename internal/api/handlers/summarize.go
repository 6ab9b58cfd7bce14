package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/sumgram/sumgram-backend/internal/api/middleware"
	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/messages"
	"github.com/sumgram/sumgram-backend/internal/services"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

const dateFormat = "2006-01-02"

// SummarizeSource fetches a source's messages under the requested
// retrieval policy and returns an AI-generated summary.
func SummarizeSource(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Source      string `json:"source"`
			SummaryType string `json:"summary_type"`
			PeriodStart string `json:"period_start"`
			PeriodEnd   string `json:"period_end"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		sourceID, err := strconv.ParseInt(req.Source, 10, 64)
		if err != nil || sourceID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid source id",
			})
		}

		var periodStart, periodEnd *time.Time
		if req.SummaryType == messages.ModePeriod {
			start, errStart := time.Parse(dateFormat, req.PeriodStart)
			end, errEnd := time.Parse(dateFormat, req.PeriodEnd)
			if errStart != nil || errEnd != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "period_start and period_end must be YYYY-MM-DD dates",
				})
			}
			periodStart, periodEnd = &start, &end
		}

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}
		token := middleware.GetString(sess, middleware.KeySessionStr)

		var (
			texts    []string
			resolved bool
		)
		err = svc.Resolver.WithUser(c.Context(), token, func(ctx context.Context, conn telegram.Conn) error {
			entity := svc.Messages.ResolveSource(ctx, conn, sourceID)
			if entity == nil {
				return nil
			}
			resolved = true
			for _, m := range svc.Messages.FetchMessages(ctx, conn, entity, req.SummaryType, periodStart, periodEnd) {
				texts = append(texts, m.Text)
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
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "could not resolve source",
			})
		}

		// The Telegram connection is released before the provider calls
		// start; summarization needs no live connection.
		summary := svc.Summarize.Summarize(c.Context(), texts)

		return c.JSON(fiber.Map{"summary": summary})
	}
}
