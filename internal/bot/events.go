package bot

import (
	"context"
	"fmt"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

// EventKind classifies an inbound event from the messaging gateway.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventButtonText
	EventFreeText
	EventPhoto
)

// String returns a human-readable name for the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventButtonText:
		return "button"
	case EventFreeText:
		return "text"
	case EventPhoto:
		return "photo"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// InboundEvent is a transport-agnostic user input.
type InboundEvent struct {
	// ID identifies the delivery. Events repeating an ID the user's session
	// has already processed are dropped. Zero disables the check.
	ID     int64
	UserID int64
	Kind   EventKind
	// Payload is the message text, or for photos the gateway's handle of the
	// highest-resolution variant.
	Payload string
}

// Keyboard is a set of suggested reply rows. A nil Keyboard leaves whatever
// keyboard the user currently sees untouched; an empty one removes it.
type Keyboard [][]string

// Gateway delivers messages to users and resolves photo handles.
type Gateway interface {
	SendText(ctx context.Context, userID int64, text string, keyboard Keyboard) error
	// SendPhotoGroup sends photos as one grouped message, with caption on the
	// first photo.
	SendPhotoGroup(ctx context.Context, userID int64, photos []listing.PhotoRef, caption string) error
	FetchPhoto(ctx context.Context, handle string) ([]byte, error)
}

// BlobStore persists photo bytes and returns an opaque locator.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Notifier is told about every committed listing.
type Notifier interface {
	ListingCommitted(ctx context.Context, l listing.Listing) error
}

type nopNotifier struct{}

func (nopNotifier) ListingCommitted(context.Context, listing.Listing) error { return nil }
