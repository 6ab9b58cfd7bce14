package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/sumgram/sumgram-backend/internal/config"
)

// Browser session keys. The whole set is cleared together on logout.
const (
	// Durable Telegram session token.
	KeySessionStr = "session_str"

	// Transient two-step login state.
	KeyTempSession   = "temp_session"
	KeyPhoneNumber   = "phone_number"
	KeyPhoneCodeHash = "phone_code_hash"

	// Best-effort dashboard mirror, JSON-encoded. Convenience cache
	// only, no freshness guarantee.
	KeyChannels     = "channels"
	KeyGroups       = "groups"
	KeyPrivateChats = "private_chats"
)

// NewSessionStore builds the cookie-bound browser session store.
func NewSessionStore(cfg config.SessionConfig, storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     time.Duration(cfg.ExpirationHours) * time.Hour,
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// GetString reads a string value from the session, or "" when absent.
func GetString(sess *session.Session, key string) string {
	if v, ok := sess.Get(key).(string); ok {
		return v
	}
	return ""
}
