package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

// BrowseHandler shows every committed listing to the requesting user. It
// never reads or changes the requester's draft.
type BrowseHandler struct {
	gateway Gateway
	store   listing.Store
}

// Show sends one message per listing in commit order. Listings with photos
// go out as a photo group captioned with the summary; if that fails the
// summary is sent as plain text instead.
func (h *BrowseHandler) Show(ctx context.Context, session *UserSession) {
	listings, err := h.store.List(ctx)
	if err != nil {
		session.replyWithError(ctx, fmt.Errorf("failed to list listings: %w", err))
		return
	}

	if len(listings) == 0 {
		session.reply(ctx, MsgNoListings)
		return
	}

	for _, l := range listings {
		summary := formatListingSummary(l)

		if len(l.Photos) > 0 {
			err := h.gateway.SendPhotoGroup(ctx, session.userId, l.Photos, summary)
			if err == nil {
				continue
			}
			log.Warn().Err(err).
				Int64("userId", session.userId).
				Int("sequence", l.Sequence).
				Msg("failed to send photo group, falling back to text")
		}

		if err := h.gateway.SendText(ctx, session.userId, summary, nil); err != nil {
			log.Error().Err(err).
				Int64("userId", session.userId).
				Int("sequence", l.Sequence).
				Msg("failed to send listing")
		}
	}
}

func formatListingSummary(l listing.Listing) string {
	return fmt.Sprintf(listingSummaryFmt,
		l.Sequence,
		kindLabel(l.Kind),
		l.Title,
		priceLabel(l.Kind),
		l.Price,
		l.Contact,
	)
}
