package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/raine/telegram-classifieds-bot/config"
	"github.com/raine/telegram-classifieds-bot/internal/notify"
)

// watch-listings prints every listing the bot commits, as published on NATS.
func main() {
	var url, subject string
	var asJSON bool

	flag.StringVar(&url, "url", "", "NATS server URL (defaults to NATS_URL)")
	flag.StringVar(&subject, "subject", "", "Subject to subscribe to (defaults to NATS_SUBJECT)")
	flag.BoolVar(&asJSON, "json", false, "Print raw JSON events")
	flag.Parse()

	// Load env file from user config directory (same as main bot)
	config.LoadEnvFile()

	if url == "" {
		url = os.Getenv("NATS_URL")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	if subject == "" {
		subject = os.Getenv("NATS_SUBJECT")
	}
	if subject == "" {
		subject = notify.DefaultSubject
	}

	conn, err := nats.Connect(url, nats.Name("watch-listings"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()

	_, err = conn.Subscribe(subject, func(msg *nats.Msg) {
		if asJSON {
			fmt.Println(string(msg.Data))
			return
		}
		var ev notify.ListingEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping malformed event: %v\n", err)
			return
		}
		printEvent(ev)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error subscribing to %s: %v\n", subject, err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s on %s (Ctrl+C to stop)\n", subject, url)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

func printEvent(ev notify.ListingEvent) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("#%d  %s  %s\n", ev.Sequence, ev.Kind, ev.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Title:   %s\n", ev.Title)
	fmt.Printf("  Price:   %s\n", ev.Price)
	fmt.Printf("  Contact: %s\n", ev.Contact)
	fmt.Printf("  User:    %d\n", ev.UserID)
	for i, p := range ev.Photos {
		fmt.Printf("  Photo %d: %s\n", i+1, p.BlobPath)
	}
}
