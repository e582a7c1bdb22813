package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxPhotos is the maximum number of photos a listing can carry.
const MaxPhotos = 5

// Kind is the listing type chosen at the start of the flow.
type Kind int

const (
	KindBuy Kind = iota + 1
	KindSell
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindBuy:
		return "Buy"
	case KindSell:
		return "Sell"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// PhotoRef pairs a blob storage locator with the messaging gateway's handle
// for redisplaying the same image. Both fields are opaque here.
type PhotoRef struct {
	BlobPath   string
	ExternalID string
}

// Listing is a committed classified ad. Once returned by a Store it must be
// treated as immutable.
type Listing struct {
	Sequence  int
	Kind      Kind
	Title     string
	Price     string
	Contact   string
	Photos    []PhotoRef
	UserID    int64
	CreatedAt time.Time
}

var (
	ErrUnknownKind   = errors.New("unknown listing kind")
	ErrMissingField  = errors.New("missing listing field")
	ErrTooManyPhotos = fmt.Errorf("listing has more than %d photos", MaxPhotos)
	ErrBuyWithPhotos = errors.New("buy listings cannot carry photos")
)

// Validate checks the invariants every committed listing must satisfy.
func (l Listing) Validate() error {
	if l.Kind != KindBuy && l.Kind != KindSell {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(l.Kind))
	}
	fields := []struct{ name, value string }{
		{"title", l.Title},
		{"price", l.Price},
		{"contact", l.Contact},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if len(l.Photos) > MaxPhotos {
		return ErrTooManyPhotos
	}
	if l.Kind == KindBuy && len(l.Photos) > 0 {
		return ErrBuyWithPhotos
	}
	return nil
}

// clone returns a copy that shares no mutable state with l.
func (l Listing) clone() Listing {
	if l.Photos != nil {
		photos := make([]PhotoRef, len(l.Photos))
		copy(photos, l.Photos)
		l.Photos = photos
	}
	return l
}

// Store is the append-only registry of committed listings.
type Store interface {
	// Append assigns the next sequence number and stores the listing as one
	// indivisible step. The stored listing is returned.
	Append(ctx context.Context, l Listing) (Listing, error)
	// List returns all listings in commit order.
	List(ctx context.Context) ([]Listing, error)
	Close() error
}
