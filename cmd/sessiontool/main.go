// Command sessiontool performs a terminal phone login and prints the
// durable session token, for provisioning the listener.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

func main() {
	phone := flag.String("phone", "", "phone number in international format")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	number := strings.TrimSpace(*phone)
	if number == "" {
		fmt.Print("Phone number: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read phone number:", err)
			os.Exit(1)
		}
		number = strings.TrimSpace(line)
	}

	ctx := context.Background()
	flow := auth.NewFlow(telegram.NewFactory(cfg.Telegram, log), log)

	pending, err := flow.BeginLogin(ctx, number)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to request confirmation code:", err)
		os.Exit(1)
	}

	fmt.Print("Confirmation code: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read code:", err)
		os.Exit(1)
	}

	token, err := flow.CompleteLogin(ctx, *pending, strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign-in failed:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
