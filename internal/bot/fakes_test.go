package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

type sentText struct {
	UserID   int64
	Text     string
	Keyboard Keyboard
}

type sentGroup struct {
	UserID  int64
	Photos  []listing.PhotoRef
	Caption string
}

// fakeGateway records everything sent through it. Photo handles resolve to
// "bytes-of-<handle>" unless fetchErr is set.
type fakeGateway struct {
	mu       sync.Mutex
	texts    []sentText
	groups   []sentGroup
	fetchErr error
	groupErr error
}

func (g *fakeGateway) SendText(ctx context.Context, userID int64, text string, keyboard Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentText{UserID: userID, Text: text, Keyboard: keyboard})
	return nil
}

func (g *fakeGateway) SendPhotoGroup(ctx context.Context, userID int64, photos []listing.PhotoRef, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groupErr != nil {
		return g.groupErr
	}
	g.groups = append(g.groups, sentGroup{UserID: userID, Photos: photos, Caption: caption})
	return nil
}

func (g *fakeGateway) FetchPhoto(ctx context.Context, handle string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return []byte("bytes-of-" + handle), nil
}

func (g *fakeGateway) textsTo(userID int64) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, m := range g.texts {
		if m.UserID == userID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (g *fakeGateway) lastText(userID int64) sentText {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.texts) - 1; i >= 0; i-- {
		if g.texts[i].UserID == userID {
			return g.texts[i]
		}
	}
	return sentText{}
}

func (g *fakeGateway) sentGroups() []sentGroup {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentGroup(nil), g.groups...)
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = nil
	g.groups = nil
}

// fakeBlobStore keeps blobs in a map and returns "blobs/<key>" as locator.
type fakeBlobStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	putErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	s.blobs[key] = data
	return "blobs/" + key, nil
}

func (s *fakeBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// recordingNotifier collects committed listings, then fails like an
// unreachable broker would.
type recordingNotifier struct {
	mu       sync.Mutex
	listings []listing.Listing
}

func (n *recordingNotifier) ListingCommitted(ctx context.Context, l listing.Listing) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listings = append(n.listings, l)
	return errors.New("broker unavailable")
}

// failingStore fails every call, or panics when panicOnList is set.
type failingStore struct {
	panicOnList bool
}

func (s *failingStore) Append(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	return listing.Listing{}, fmt.Errorf("disk full")
}

func (s *failingStore) List(ctx context.Context) ([]listing.Listing, error) {
	if s.panicOnList {
		panic("store exploded")
	}
	return nil, fmt.Errorf("disk full")
}

func (s *failingStore) Close() error { return nil }
