package listener

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// Listener is the process-wide, long-lived listening client: one
// always-connected session reacting to new messages, started once at
// startup and run until shutdown. It is constructed on its own session
// token and never via the per-request factory.
type Listener struct {
	cfg   config.TelegramConfig
	token string
	hub   *Hub
	log   *logrus.Logger
}

func New(cfg config.TelegramConfig, sessionToken string, log *logrus.Logger) *Listener {
	return &Listener{
		cfg:   cfg,
		token: sessionToken,
		hub:   NewHub(),
		log:   log,
	}
}

// Hub returns the event hub consumers subscribe to.
func (l *Listener) Hub() *Hub {
	return l.hub
}

// Run connects and blocks until ctx is cancelled or the connection
// drops. The session token must belong to an already-authorized account.
func (l *Listener) Run(ctx context.Context) error {
	storage, err := telegram.NewSessionStorage(l.token)
	if err != nil {
		return err
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		l.publish(u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		l.publish(u.Message)
		return nil
	})

	client := tgclient.NewClient(l.cfg.APIID, l.cfg.APIHash, tgclient.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
	})

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return err
		}
		if !status.Authorized {
			return errors.New("listener session is not authorized")
		}
		l.log.Info("listener connected, waiting for messages")
		<-ctx.Done()
		return ctx.Err()
	})
}

func (l *Listener) publish(mc tg.MessageClass) {
	msg, ok := mc.(*tg.Message)
	if !ok || msg.Message == "" {
		return
	}

	var chatID int64
	switch p := msg.PeerID.(type) {
	case *tg.PeerUser:
		chatID = p.UserID
	case *tg.PeerChat:
		chatID = p.ChatID
	case *tg.PeerChannel:
		chatID = p.ChannelID
	}

	ev := Event{
		ID:     uuid.New().String(),
		ChatID: chatID,
		Text:   msg.Message,
		Date:   time.Unix(int64(msg.Date), 0),
	}
	l.log.WithField("chat_id", chatID).Debug("new message")
	l.hub.Publish(ev)
}
