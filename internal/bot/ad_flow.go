package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-classifieds-bot/internal/blobstore"
	"github.com/raine/telegram-classifieds-bot/internal/listing"
	"github.com/raine/telegram-classifieds-bot/internal/metrics"
)

// Step represents the current step of the ad creation flow.
type Step int

const (
	StepChoosingType Step = iota + 1
	StepEnteringName
	StepEnteringPrice
	StepEnteringContact
	StepSendingPhotos
)

// String returns a human-readable name for the Step.
func (s Step) String() string {
	switch s {
	case StepChoosingType:
		return "ChoosingType"
	case StepEnteringName:
		return "EnteringName"
	case StepEnteringPrice:
		return "EnteringPrice"
	case StepEnteringContact:
		return "EnteringContact"
	case StepSendingPhotos:
		return "SendingPhotos"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Draft is the listing being assembled, one field per step.
type Draft struct {
	ID      uuid.UUID
	Kind    listing.Kind
	Title   string
	Price   string
	Contact string
	Photos  []listing.PhotoRef
}

// AdFlow is a user's in-progress ad creation.
type AdFlow struct {
	Step  Step
	Draft Draft

	expirationTimer *time.Timer
	// expirySeq identifies expirationTimer in draft_expired messages.
	expirySeq uint64
}

type inputClass int

const (
	inputText inputClass = iota + 1
	inputPhoto
	inputFinish
	inputCancel
)

func classifyInput(ev InboundEvent) inputClass {
	if ev.Kind == EventPhoto {
		return inputPhoto
	}
	switch {
	case isCancel(ev.Payload):
		return inputCancel
	case isFinish(ev.Payload):
		return inputFinish
	default:
		return inputText
	}
}

type transitionKey struct {
	step  Step
	input inputClass
}

type stepHandler func(h *AdFlowHandler, ctx context.Context, session *UserSession, ev InboundEvent)

// transitions lists every accepted (step, input) pair. Anything else
// re-prompts the current step without touching the draft.
var transitions = map[transitionKey]stepHandler{
	{StepChoosingType, inputText}:    (*AdFlowHandler).handleType,
	{StepEnteringName, inputText}:    (*AdFlowHandler).handleName,
	{StepEnteringPrice, inputText}:   (*AdFlowHandler).handlePrice,
	{StepEnteringContact, inputText}: (*AdFlowHandler).handleContact,
	{StepSendingPhotos, inputPhoto}:  (*AdFlowHandler).handlePhoto,
	{StepSendingPhotos, inputFinish}: (*AdFlowHandler).handleFinish,

	{StepChoosingType, inputCancel}:    (*AdFlowHandler).handleCancel,
	{StepEnteringName, inputCancel}:    (*AdFlowHandler).handleCancel,
	{StepEnteringPrice, inputCancel}:   (*AdFlowHandler).handleCancel,
	{StepEnteringContact, inputCancel}: (*AdFlowHandler).handleCancel,
	{StepSendingPhotos, inputCancel}:   (*AdFlowHandler).handleCancel,
}

// AdFlowHandler drives the ad creation state machine. All methods are called
// from the session worker, so session state is accessed without locking.
type AdFlowHandler struct {
	gateway  Gateway
	store    listing.Store
	blobs    BlobStore
	notifier Notifier
	metrics  *metrics.Metrics
	currency string
	timeout  time.Duration
}

// Start begins a fresh draft, discarding any draft the user already had.
func (h *AdFlowHandler) Start(ctx context.Context, session *UserSession) {
	h.discard(session, metrics.OutcomeReplaced)

	session.flow = &AdFlow{
		Step:  StepChoosingType,
		Draft: Draft{ID: uuid.New()},
	}
	h.metrics.DraftStarted()
	h.startExpirationTimer(session)

	log.Info().Int64("userId", session.userId).Str("draftId", session.flow.Draft.ID.String()).Msg("started ad draft")
	session.replyWithKeyboard(ctx, typeKeyboard, MsgChooseType)
}

// HandleInput routes an event to the transition for the current step.
func (h *AdFlowHandler) HandleInput(ctx context.Context, session *UserSession, ev InboundEvent) {
	if session.flow == nil {
		return
	}

	input := classifyInput(ev)
	handler, ok := transitions[transitionKey{session.flow.Step, input}]
	if !ok {
		h.reprompt(ctx, session, input)
		return
	}

	h.startExpirationTimer(session)
	handler(h, ctx, session, ev)
}

// Cancel discards the user's draft. Without a draft it does nothing.
func (h *AdFlowHandler) Cancel(ctx context.Context, session *UserSession) {
	if session.flow == nil {
		return
	}
	h.handleCancel(ctx, session, InboundEvent{})
}

// Discard drops the user's draft silently, e.g. when /start resets the
// conversation.
func (h *AdFlowHandler) Discard(session *UserSession) {
	h.discard(session, metrics.OutcomeReplaced)
}

func (h *AdFlowHandler) discard(session *UserSession, outcome metrics.Outcome) {
	if session.flow == nil {
		return
	}
	log.Info().
		Int64("userId", session.userId).
		Str("draftId", session.flow.Draft.ID.String()).
		Str("step", session.flow.Step.String()).
		Msg("discarded ad draft")
	h.metrics.DraftEnded(outcome, session.flow.Draft.Kind.String())
	session.reset()
}

func (h *AdFlowHandler) reprompt(ctx context.Context, session *UserSession, input inputClass) {
	switch session.flow.Step {
	case StepChoosingType:
		session.replyWithKeyboard(ctx, typeKeyboard, MsgUseButtons)
	case StepSendingPhotos:
		session.replyWithKeyboard(ctx, photosKeyboard, MsgSendPhotoOrFinish)
	default:
		if input == inputPhoto {
			session.reply(ctx, MsgTextExpected)
			return
		}
		session.reply(ctx, h.promptFor(session.flow.Step))
	}
}

func (h *AdFlowHandler) promptFor(step Step) string {
	switch step {
	case StepEnteringName:
		return MsgEnterName
	case StepEnteringPrice:
		return MsgEnterPrice
	case StepEnteringContact:
		return MsgEnterContact
	default:
		return MsgChooseType
	}
}

func (h *AdFlowHandler) handleType(ctx context.Context, session *UserSession, ev InboundEvent) {
	kind, ok := matchKind(ev.Payload)
	if !ok {
		log.Debug().Int64("userId", session.userId).Err(fmt.Errorf("%q: %w", ev.Payload, listing.ErrUnknownKind)).Msg("type not recognized")
		session.replyWithKeyboard(ctx, typeKeyboard, MsgUseButtons)
		return
	}
	session.flow.Draft.Kind = kind
	session.flow.Step = StepEnteringName
	session.replyWithKeyboard(ctx, cancelKeyboard, MsgEnterName)
}

func (h *AdFlowHandler) handleName(ctx context.Context, session *UserSession, ev InboundEvent) {
	title, err := nonEmptyText(ev.Payload)
	if err != nil {
		session.reply(ctx, MsgEmptyText)
		return
	}
	session.flow.Draft.Title = title
	session.flow.Step = StepEnteringPrice
	session.reply(ctx, MsgEnterPrice)
}

func (h *AdFlowHandler) handlePrice(ctx context.Context, session *UserSession, ev InboundEvent) {
	amount, err := parsePrice(ev.Payload)
	if err != nil {
		log.Debug().Int64("userId", session.userId).Err(err).Msg("price rejected")
		session.reply(ctx, MsgInvalidPrice)
		return
	}
	session.flow.Draft.Price = formatPrice(amount, h.currency)
	session.flow.Step = StepEnteringContact
	session.reply(ctx, MsgEnterContact)
}

func (h *AdFlowHandler) handleContact(ctx context.Context, session *UserSession, ev InboundEvent) {
	contact, err := nonEmptyText(ev.Payload)
	if err != nil {
		session.reply(ctx, MsgEmptyText)
		return
	}
	session.flow.Draft.Contact = contact

	if session.flow.Draft.Kind == listing.KindBuy {
		session.flow.Draft.Photos = nil
		h.commit(ctx, session)
		return
	}

	session.flow.Step = StepSendingPhotos
	session.replyWithKeyboard(ctx, photosKeyboard, MsgSendPhotos)
}

func (h *AdFlowHandler) handlePhoto(ctx context.Context, session *UserSession, ev InboundEvent) {
	draft := &session.flow.Draft
	if len(draft.Photos) >= listing.MaxPhotos {
		log.Info().Int64("userId", session.userId).Err(ErrPhotoLimit).Msg("photo rejected")
		h.metrics.PhotoRejected()
		session.reply(ctx, MsgPhotoLimitReached)
		return
	}

	ref, err := h.storePhoto(ctx, draft, ev.Payload)
	if err != nil {
		log.Error().Stack().Err(err).Int64("userId", session.userId).Msg("failed to store photo")
		h.metrics.PhotoFailed()
		session.reply(ctx, MsgPhotoSaveFailed)
		return
	}

	draft.Photos = append(draft.Photos, ref)
	h.metrics.PhotoStored()

	count := len(draft.Photos)
	remaining := listing.MaxPhotos - count
	if remaining == 0 {
		session.reply(ctx, MsgLastPhotoAdded, count)
		return
	}
	session.reply(ctx, MsgPhotoAdded, count, pluralizePhotos(remaining))
}

func (h *AdFlowHandler) storePhoto(ctx context.Context, draft *Draft, handle string) (listing.PhotoRef, error) {
	data, err := h.gateway.FetchPhoto(ctx, handle)
	if err != nil {
		return listing.PhotoRef{}, fmt.Errorf("failed to fetch photo: %w", err)
	}
	key := blobstore.PhotoKey(draft.ID.String(), len(draft.Photos))
	blobPath, err := h.blobs.Put(ctx, key, data)
	if err != nil {
		return listing.PhotoRef{}, fmt.Errorf("failed to put photo %s: %w", key, err)
	}
	return listing.PhotoRef{BlobPath: blobPath, ExternalID: handle}, nil
}

func (h *AdFlowHandler) handleFinish(ctx context.Context, session *UserSession, ev InboundEvent) {
	h.commit(ctx, session)
}

func (h *AdFlowHandler) handleCancel(ctx context.Context, session *UserSession, ev InboundEvent) {
	h.discard(session, metrics.OutcomeCancelled)
	session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgCancelled)
}

// commit turns the draft into a listing. On failure the draft is kept so the
// user can retry finishing it.
func (h *AdFlowHandler) commit(ctx context.Context, session *UserSession) {
	draft := session.flow.Draft
	committed, err := h.store.Append(ctx, listing.Listing{
		Kind:    draft.Kind,
		Title:   draft.Title,
		Price:   draft.Price,
		Contact: draft.Contact,
		Photos:  draft.Photos,
		UserID:  session.userId,
	})
	if err != nil {
		session.replyWithError(ctx, fmt.Errorf("failed to commit draft %s: %w", draft.ID, err))
		return
	}

	log.Info().
		Int64("userId", session.userId).
		Int("sequence", committed.Sequence).
		Str("kind", committed.Kind.String()).
		Int("photos", len(committed.Photos)).
		Msg("listing committed")

	h.metrics.DraftEnded(metrics.OutcomeCommitted, committed.Kind.String())
	session.reset()

	if err := h.notifier.ListingCommitted(ctx, committed); err != nil {
		log.Warn().Err(err).Int("sequence", committed.Sequence).Msg("failed to publish listing event")
	}

	session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgListingCreated)
}

// startExpirationTimer starts or resets the draft expiration timer. When the
// timer fires, it dispatches a draft_expired message through the session
// worker.
func (h *AdFlowHandler) startExpirationTimer(session *UserSession) {
	if h.timeout <= 0 || session.flow == nil {
		return
	}
	if session.flow.expirationTimer != nil {
		session.flow.expirationTimer.Stop()
	}

	// The callback only sees its own sequence number, never the timer or
	// the flow, which belong to the worker.
	session.expirySeq++
	seq := session.expirySeq
	session.flow.expirySeq = seq
	session.flow.expirationTimer = time.AfterFunc(h.timeout, func() {
		session.Send(SessionMessage{
			Type:      "draft_expired",
			Ctx:       context.Background(),
			ExpirySeq: seq,
		})
	})
}

// HandleExpired discards the draft if seq belongs to its current expiration
// timer. Stale timers are ignored.
func (h *AdFlowHandler) HandleExpired(ctx context.Context, session *UserSession, seq uint64) {
	if session.flow == nil || seq == 0 || session.flow.expirySeq != seq {
		return
	}
	h.discard(session, metrics.OutcomeExpired)
	session.replyWithKeyboard(ctx, mainMenuKeyboard, MsgDraftExpired)
}
