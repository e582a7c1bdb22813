package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

// DefaultSubject is the NATS subject committed listings are published on.
const DefaultSubject = "classifieds.listings.created"

// ListingEvent is the JSON payload published for every committed listing.
type ListingEvent struct {
	Sequence  int          `json:"sequence"`
	Kind      string       `json:"kind"`
	Title     string       `json:"title"`
	Price     string       `json:"price"`
	Contact   string       `json:"contact"`
	Photos    []EventPhoto `json:"photos"`
	UserID    int64        `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// EventPhoto is a photo reference inside a ListingEvent.
type EventPhoto struct {
	BlobPath   string `json:"blob_path"`
	ExternalID string `json:"external_id"`
}

// NewListingEvent converts a committed listing to its event payload.
func NewListingEvent(l listing.Listing) ListingEvent {
	photos := make([]EventPhoto, len(l.Photos))
	for i, p := range l.Photos {
		photos[i] = EventPhoto{BlobPath: p.BlobPath, ExternalID: p.ExternalID}
	}
	return ListingEvent{
		Sequence:  l.Sequence,
		Kind:      l.Kind.String(),
		Title:     l.Title,
		Price:     l.Price,
		Contact:   l.Contact,
		Photos:    photos,
		UserID:    l.UserID,
		CreatedAt: l.CreatedAt,
	}
}

// NATSPublisher publishes committed listings to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("telegram-classifieds-bot"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// ListingCommitted publishes l as a ListingEvent.
func (p *NATSPublisher) ListingCommitted(ctx context.Context, l listing.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewListingEvent(l))
	if err != nil {
		return fmt.Errorf("failed to marshal listing event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish listing event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain nats connection")
		p.conn.Close()
	}
}
