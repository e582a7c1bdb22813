package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			s, err := NewSQLiteStore(DefaultSQLiteDSN)
			require.NoError(t, err)
			return s
		},
	}
}

func sellListing(title string, photos int) Listing {
	l := Listing{
		Kind:    KindSell,
		Title:   title,
		Price:   "100 ₽",
		Contact: "@seller",
		UserID:  1,
	}
	for i := 0; i < photos; i++ {
		l.Photos = append(l.Photos, PhotoRef{
			BlobPath:   fmt.Sprintf("photos/ad_x/photo_%d.jpg", i),
			ExternalID: fmt.Sprintf("file-%d", i),
		})
	}
	return l
}

func TestStore_AppendAssignsSequence(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			defer s.Close()
			ctx := context.Background()

			first, err := s.Append(ctx, sellListing("Bike", 2))
			require.NoError(t, err)
			second, err := s.Append(ctx, Listing{Kind: KindBuy, Title: "Sofa", Price: "5000 ₽", Contact: "+7900"})
			require.NoError(t, err)

			assert.Equal(t, 1, first.Sequence)
			assert.Equal(t, 2, second.Sequence)
			assert.False(t, first.CreatedAt.IsZero())

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Bike", all[0].Title)
			assert.Equal(t, KindSell, all[0].Kind)
			assert.Equal(t, []PhotoRef{
				{BlobPath: "photos/ad_x/photo_0.jpg", ExternalID: "file-0"},
				{BlobPath: "photos/ad_x/photo_1.jpg", ExternalID: "file-1"},
			}, all[0].Photos)
			assert.Equal(t, "Sofa", all[1].Title)
			assert.Empty(t, all[1].Photos)
		})
	}
}

func TestStore_RejectsInvalidListings(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		wantErr error
	}{
		{"unknown kind", Listing{Title: "a", Price: "1 ₽", Contact: "c"}, ErrUnknownKind},
		{"missing title", Listing{Kind: KindBuy, Price: "1 ₽", Contact: "c"}, ErrMissingField},
		{"blank contact", Listing{Kind: KindBuy, Title: "a", Price: "1 ₽", Contact: "  "}, ErrMissingField},
		{"too many photos", sellListing("a", MaxPhotos+1), ErrTooManyPhotos},
		{"buy with photos", Listing{Kind: KindBuy, Title: "a", Price: "1 ₽", Contact: "c", Photos: []PhotoRef{{}}}, ErrBuyWithPhotos},
	}

	for name, newStore := range storeFactories(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				s := newStore()
				defer s.Close()

				_, err := s.Append(context.Background(), tt.listing)
				assert.ErrorIs(t, err, tt.wantErr)

				all, err := s.List(context.Background())
				require.NoError(t, err)
				assert.Empty(t, all)
			})
		}
	}
}

func TestStore_ListingsAreImmutable(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			defer s.Close()
			ctx := context.Background()

			l := sellListing("Lamp", 1)
			_, err := s.Append(ctx, l)
			require.NoError(t, err)

			// Mutating the caller's copy must not leak into the store
			l.Photos[0].ExternalID = "changed"

			all, err := s.List(ctx)
			require.NoError(t, err)
			all[0].Photos[0].BlobPath = "changed"

			again, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, "file-0", again[0].Photos[0].ExternalID)
			assert.Equal(t, "photos/ad_x/photo_0.jpg", again[0].Photos[0].BlobPath)
		})
	}
}

func TestStore_ConcurrentAppendsGetUniqueSequences(t *testing.T) {
	const n = 50

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			defer s.Close()
			ctx := context.Background()

			var wg sync.WaitGroup
			seqs := make(chan int, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					l, err := s.Append(ctx, sellListing(fmt.Sprintf("item %d", i), i%(MaxPhotos+1)))
					if assert.NoError(t, err) {
						seqs <- l.Sequence
					}
				}(i)
			}
			wg.Wait()
			close(seqs)

			seen := make(map[int]bool)
			for seq := range seqs {
				assert.False(t, seen[seq], "duplicate sequence %d", seq)
				seen[seq] = true
			}
			assert.Len(t, seen, n)
			for i := 1; i <= n; i++ {
				assert.True(t, seen[i], "missing sequence %d", i)
			}

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, n)
			for i, l := range all {
				assert.Equal(t, i+1, l.Sequence)
			}
		})
	}
}
