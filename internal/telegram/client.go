package telegram

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/config"
)

// Conn is the per-request view of one live, connected Telegram client.
// A Conn is only valid inside the WithConn callback that produced it.
type Conn interface {
	// Authorized reports whether the underlying session is signed in.
	Authorized(ctx context.Context) (bool, error)

	// SendCode requests a login confirmation code for phone and returns
	// the platform's phone-code hash correlating the request.
	SendCode(ctx context.Context, phone string) (string, error)

	// SignIn completes the phone login with the received code.
	SignIn(ctx context.Context, phone, code, codeHash string) error

	// SessionToken exports the connection's restorable state as an
	// opaque token.
	SessionToken(ctx context.Context) (string, error)

	// Dialogs lists the account's conversations with unread metadata.
	Dialogs(ctx context.Context) ([]Dialog, error)

	// DialogFilters lists the account's dialog filters in platform order.
	DialogFilters(ctx context.Context) ([]Filter, error)

	// ResolvePeer resolves an included-peer reference to a full entity.
	ResolvePeer(ctx context.Context, p Peer) (Entity, error)

	// LookupUser finds an individual user the account has a dialog with.
	LookupUser(ctx context.Context, id int64) (Entity, error)

	// LookupChannel finds a channel or group the account has a dialog
	// with.
	LookupChannel(ctx context.Context, id int64) (Entity, error)

	// History fetches one page of messages, newest-first.
	History(ctx context.Context, target Entity, req HistoryRequest) ([]Message, error)
}

// Runner scopes a Telegram connection to a single callback: the
// connection is established before fn runs and torn down when fn
// returns, on every exit path. Per-request code must never hold a Conn
// beyond its callback.
type Runner interface {
	WithConn(ctx context.Context, sessionToken string, fn func(ctx context.Context, conn Conn) error) error
}

// ErrSessionNotReady is returned by SessionToken before the connection
// has persisted any restorable state.
var ErrSessionNotReady = session.ErrNotFound

// Factory builds connection-scoped Telegram clients. An empty session
// token yields a fresh anonymous session; a token restores the saved
// state it encodes. The factory itself never authenticates.
type Factory struct {
	cfg config.TelegramConfig
	log *logrus.Logger
}

func NewFactory(cfg config.TelegramConfig, log *logrus.Logger) *Factory {
	return &Factory{cfg: cfg, log: log}
}

// WithConn implements Runner. A malformed token is logged and treated as
// absent: the resulting anonymous session fails the authorization check
// downstream exactly like an expired one.
func (f *Factory) WithConn(ctx context.Context, sessionToken string, fn func(ctx context.Context, conn Conn) error) error {
	storage := newTokenStorage()
	if sessionToken != "" {
		data, err := base64.StdEncoding.DecodeString(sessionToken)
		if err != nil {
			f.log.WithError(err).Warn("malformed session token, starting with a fresh session")
		} else {
			storage.seed(data)
		}
	}

	client := telegram.NewClient(f.cfg.APIID, f.cfg.APIHash, telegram.Options{
		SessionStorage: storage,
	})

	return client.Run(ctx, func(ctx context.Context) error {
		return fn(ctx, &gotdConn{
			client:  client,
			api:     client.API(),
			storage: storage,
			log:     f.log,
		})
	})
}

// NewSessionStorage returns a gotd session storage seeded from an
// opaque token, for callers that own their client lifecycle (the
// listener). An empty token yields empty storage.
func NewSessionStorage(token string) (session.Storage, error) {
	storage := newTokenStorage()
	if token != "" {
		data, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, err
		}
		storage.seed(data)
	}
	return storage, nil
}

// tokenStorage keeps the gotd session blob in memory so it can be
// exported as an opaque token after the connection has saved its state.
type tokenStorage struct {
	mu   sync.Mutex
	data []byte
}

func newTokenStorage() *tokenStorage {
	return &tokenStorage{}
}

func (s *tokenStorage) seed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

// LoadSession implements session.Storage.
func (s *tokenStorage) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, session.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// StoreSession implements session.Storage.
func (s *tokenStorage) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

// Token returns the current session state as an opaque token.
func (s *tokenStorage) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return "", session.ErrNotFound
	}
	return base64.StdEncoding.EncodeToString(s.data), nil
}
