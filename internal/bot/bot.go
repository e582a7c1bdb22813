package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
	"github.com/raine/telegram-classifieds-bot/internal/metrics"
)

// DefaultCurrency is used when Options.Currency is empty.
const DefaultCurrency = "₽"

// Options configures a Bot. Gateway, Store and Blobs are required.
type Options struct {
	Gateway  Gateway
	Store    listing.Store
	Blobs    BlobStore
	Notifier Notifier         // optional
	Metrics  *metrics.Metrics // optional

	Currency string
	// SessionTimeout discards drafts idle for this long. Zero disables it.
	SessionTimeout time.Duration
}

// Bot routes inbound events to per-user session workers.
type Bot struct {
	gateway Gateway
	state   BotState
	metrics *metrics.Metrics

	// Handlers
	adFlow *AdFlowHandler
	browse *BrowseHandler
}

// NewBot creates a new Bot instance.
func NewBot(opts Options) *Bot {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}

	bot := &Bot{
		gateway: opts.Gateway,
		metrics: opts.Metrics,
	}
	bot.state = bot.NewBotState()
	bot.adFlow = &AdFlowHandler{
		gateway:  opts.Gateway,
		store:    opts.Store,
		blobs:    opts.Blobs,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		currency: opts.Currency,
		timeout:  opts.SessionTimeout,
	}
	bot.browse = &BrowseHandler{
		gateway: opts.Gateway,
		store:   opts.Store,
	}
	return bot
}

// HandleEvent queues an event on its user's session worker and returns
// without waiting. If the user's inbox is full the event is dropped so one
// slow user never holds up the others.
func (b *Bot) HandleEvent(ctx context.Context, ev InboundEvent) {
	b.dispatchEvent(ctx, ev, false)
}

// handleEventSync is like HandleEvent but waits for processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleEventSync(ctx context.Context, ev InboundEvent) {
	b.dispatchEvent(ctx, ev, true)
}

func (b *Bot) dispatchEvent(ctx context.Context, ev InboundEvent, sync bool) {
	if ev.UserID == 0 {
		return
	}

	log.Info().
		Int64("userId", ev.UserID).
		Int64("eventId", ev.ID).
		Str("kind", ev.Kind.String()).
		Msg("got event")
	b.metrics.EventReceived(ev.Kind.String())

	session := b.state.getUserSession(ev.UserID)
	msg := SessionMessage{
		Type:  "event",
		Ctx:   ctx,
		Event: ev,
	}

	if sync {
		session.SendSync(msg)
		return
	}
	if !session.TrySend(msg) {
		log.Warn().Int64("userId", ev.UserID).Int64("eventId", ev.ID).Msg("session inbox full, dropping event")
		b.metrics.EventDropped()
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "event":
		if session.seenEvent(msg.Event.ID) {
			log.Info().Int64("userId", session.userId).Int64("eventId", msg.Event.ID).Msg("dropping duplicate event")
			b.metrics.EventDropped()
			return
		}
		b.handleEvent(ctx, session, msg.Event)
	case "draft_expired":
		b.adFlow.HandleExpired(ctx, session, msg.ExpirySeq)
	}
}

func (b *Bot) handleEvent(ctx context.Context, session *UserSession, ev InboundEvent) {
	switch ev.Kind {
	case EventCommand:
		b.handleCommand(ctx, session, ev)
	case EventPhoto:
		if session.flow == nil {
			session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgChooseAction)
			return
		}
		b.adFlow.HandleInput(ctx, session, ev)
	default:
		b.handleText(ctx, session, ev)
	}
}

func (b *Bot) handleCommand(ctx context.Context, session *UserSession, ev InboundEvent) {
	command, _ := parseCommand(ev.Payload)
	switch command {
	case "/start":
		b.adFlow.Discard(session)
		session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgWelcome)
	case "/cancel":
		b.adFlow.Cancel(ctx, session)
	default:
		session.reply(ctx, MsgUnknownCommand)
	}
}

// handleText handles button presses and free text. The main menu entries
// work from any state; everything else belongs to the ad flow.
func (b *Bot) handleText(ctx context.Context, session *UserSession, ev InboundEvent) {
	switch {
	case isCreateAd(ev.Payload):
		b.adFlow.Start(ctx, session)
	case isViewAds(ev.Payload):
		b.browse.Show(ctx, session)
	case session.flow != nil:
		b.adFlow.HandleInput(ctx, session, ev)
	case isCancel(ev.Payload):
		// Nothing to cancel.
	default:
		session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgChooseAction)
	}
}

// Shutdown stops all session workers.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}
