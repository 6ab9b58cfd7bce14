package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/sumgram/sumgram-backend/internal/api/middleware"
	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/dialogs"
	"github.com/sumgram/sumgram-backend/internal/services"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// GetDashboard lists the account's dialogs split into channels, groups
// and private chats, plus the account's dialog filters. The computed
// listings are mirrored into the browser session for later reuse.
func GetDashboard(svc *services.Services, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sortBy := c.Query("sort_by", dialogs.SortByParticipants)

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}
		token := middleware.GetString(sess, middleware.KeySessionStr)

		var (
			channels, groups, privateChats []dialogs.Entry
			folders                        []dialogs.FilterGroup
		)
		err = svc.Resolver.WithUser(c.Context(), token, func(ctx context.Context, conn telegram.Conn) error {
			channels, groups, privateChats = svc.Dialogs.ListDialogs(ctx, conn)
			folders, _ = svc.Filters.ListFilters(ctx, conn)
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

		dialogs.SortEntries(channels, sortBy)
		dialogs.SortEntries(groups, sortBy)
		dialogs.SortEntries(privateChats, sortBy)

		mirrorListings(svc, sess, channels, groups, privateChats)

		return c.JSON(fiber.Map{
			"channels":      channels,
			"groups":        groups,
			"private_chats": privateChats,
			"folders":       folders,
			"sort_by":       sortBy,
		})
	}
}

// CachedDashboard serves the session-mirrored listings without touching
// Telegram. The mirror is a convenience cache, not a source of truth.
func CachedDashboard(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "session unavailable",
			})
		}

		return c.JSON(fiber.Map{
			"channels":      unmirrorListing(sess, middleware.KeyChannels),
			"groups":        unmirrorListing(sess, middleware.KeyGroups),
			"private_chats": unmirrorListing(sess, middleware.KeyPrivateChats),
		})
	}
}

// mirrorListings writes the listings into the session store, best
// effort: a failed mirror only costs the next cached read.
func mirrorListings(svc *services.Services, sess *session.Session, channels, groups, privateChats []dialogs.Entry) {
	set := func(key string, entries []dialogs.Entry) bool {
		data, err := json.Marshal(entries)
		if err != nil {
			return false
		}
		sess.Set(key, string(data))
		return true
	}
	if !set(middleware.KeyChannels, channels) ||
		!set(middleware.KeyGroups, groups) ||
		!set(middleware.KeyPrivateChats, privateChats) {
		return
	}
	if err := sess.Save(); err != nil {
		svc.Log.WithError(err).Warn("failed to mirror dialog listings into session")
	}
}

func unmirrorListing(sess *session.Session, key string) []dialogs.Entry {
	entries := []dialogs.Entry{}
	raw := middleware.GetString(sess, key)
	if raw == "" {
		return entries
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []dialogs.Entry{}
	}
	return entries
}
