package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// ErrLoginNotStarted is returned when a confirmation code arrives
// without a complete pending login; the caller redirects to phone entry.
var ErrLoginNotStarted = errors.New("login not started")

// ErrNotAuthenticated covers every way a session token can fail to
// produce an authorized client: no token, invalid token, revoked
// session, connection failure. Callers must not distinguish them.
var ErrNotAuthenticated = errors.New("not authenticated")

// PendingLogin is the transient state between phone submission and code
// confirmation. All three fields are non-empty for a valid pending
// login.
type PendingLogin struct {
	TempSession   string
	PhoneNumber   string
	PhoneCodeHash string
}

// Complete reports whether the pending login can be used to finish
// sign-in.
func (p PendingLogin) Complete() bool {
	return p.TempSession != "" && p.PhoneNumber != "" && p.PhoneCodeHash != ""
}

// Flow drives the two-step phone login against the platform.
type Flow struct {
	tg  telegram.Runner
	log *logrus.Logger
}

func NewFlow(tg telegram.Runner, log *logrus.Logger) *Flow {
	return &Flow{tg: tg, log: log}
}

// BeginLogin opens an anonymous connection, requests a confirmation code
// for phone and captures everything needed to finish sign-in later. On
// any failure no pending login is produced.
func (f *Flow) BeginLogin(ctx context.Context, phone string) (*PendingLogin, error) {
	var pending *PendingLogin
	err := f.tg.WithConn(ctx, "", func(ctx context.Context, conn telegram.Conn) error {
		codeHash, err := conn.SendCode(ctx, phone)
		if err != nil {
			return err
		}
		token, err := conn.SessionToken(ctx)
		if err != nil {
			return err
		}
		pending = &PendingLogin{
			TempSession:   token,
			PhoneNumber:   phone,
			PhoneCodeHash: codeHash,
		}
		return nil
	})
	if err != nil {
		f.log.WithError(err).WithField("phone", phone).Error("failed to send confirmation code")
		return nil, err
	}
	return pending, nil
}

// CompleteLogin restores the temp session and submits phone, code and
// phone-code hash. On success it returns the durable session token; on
// failure the pending login stays valid so the user can retry.
func (f *Flow) CompleteLogin(ctx context.Context, pending PendingLogin, code string) (string, error) {
	if !pending.Complete() {
		return "", ErrLoginNotStarted
	}

	var sessionToken string
	err := f.tg.WithConn(ctx, pending.TempSession, func(ctx context.Context, conn telegram.Conn) error {
		if err := conn.SignIn(ctx, pending.PhoneNumber, code, pending.PhoneCodeHash); err != nil {
			return err
		}
		token, err := conn.SessionToken(ctx)
		if err != nil {
			return err
		}
		sessionToken = token
		return nil
	})
	if err != nil {
		f.log.WithError(err).Error("failed to complete sign-in")
		return "", err
	}
	f.log.Info("user signed in")
	return sessionToken, nil
}

// Resolver turns a stored session token into an authorized connection
// scope, or ErrNotAuthenticated.
type Resolver struct {
	tg  telegram.Runner
	log *logrus.Logger
}

func NewResolver(tg telegram.Runner, log *logrus.Logger) *Resolver {
	return &Resolver{tg: tg, log: log}
}

// WithUser runs fn with an authorized connection restored from
// sessionToken. Every failure mode short of fn's own error collapses to
// ErrNotAuthenticated.
func (r *Resolver) WithUser(ctx context.Context, sessionToken string, fn func(ctx context.Context, conn telegram.Conn) error) error {
	if sessionToken == "" {
		return ErrNotAuthenticated
	}

	var ran bool
	err := r.tg.WithConn(ctx, sessionToken, func(ctx context.Context, conn telegram.Conn) error {
		ok, err := conn.Authorized(ctx)
		if err != nil {
			return err
		}
		if !ok {
			r.log.Warn("session token no longer authorized")
			return ErrNotAuthenticated
		}
		ran = true
		return fn(ctx, conn)
	})
	if err != nil && !ran {
		if !errors.Is(err, ErrNotAuthenticated) {
			r.log.WithError(err).Error("failed to restore session")
		}
		return ErrNotAuthenticated
	}
	return err
}
