// Command listener runs the standalone listening client: one long-lived
// authenticated connection that logs every incoming message. Provision
// its session token with cmd/sessiontool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/listener"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.Listener.SessionToken == "" {
		log.Fatal("listener session token is required (SUMGRAM_LISTENER_SESSION)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := listener.New(cfg.Telegram, cfg.Listener.SessionToken, log)

	go func() {
		_, events := l.Hub().Subscribe()
		for ev := range events {
			log.WithFields(logrus.Fields{
				"chat_id": ev.ChatID,
				"date":    ev.Date,
			}).Info(ev.Text)
		}
	}()

	if err := l.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("listener stopped")
	}
}
