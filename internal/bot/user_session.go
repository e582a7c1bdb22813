package bot

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// recentEventIDs is how many delivery IDs a session remembers for dropping
// redelivered events.
const recentEventIDs = 32

// SessionMessage represents a message to be processed by the session worker.
type SessionMessage struct {
	Type string
	Ctx  context.Context
	Done chan struct{} // Closed when processing is complete (for synchronous dispatch)

	// Event is set for "event" messages.
	Event InboundEvent

	// ExpirySeq is set for "draft_expired" messages and is used to check
	// the timer is still current.
	ExpirySeq uint64
}

// MessageHandler is the interface for processing session messages.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// UserSession represents a user's conversation with the bot.
//
// Each session has a dedicated worker goroutine that processes messages
// sequentially. Handlers are called only from the worker and access session
// state without locks.
type UserSession struct {
	userId  int64
	gateway Gateway

	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler

	// flow is the ad being created, nil when the user is idle.
	flow *AdFlow

	// recent holds the delivery IDs processed last.
	recent *lru.Cache[int64, struct{}]

	// expirySeq numbers expiration timers across all of the session's drafts.
	expirySeq uint64
}

func newUserSession(userId int64, gateway Gateway, inboxSize int) *UserSession {
	recent, err := lru.New[int64, struct{}](recentEventIDs)
	if err != nil {
		panic(fmt.Sprintf("session event cache init: %v", err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UserSession{
		userId:  userId,
		gateway: gateway,
		inbox:   make(chan SessionMessage, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		recent:  recent,
	}
}

// Flow returns the session's current ad flow, or nil. Only safe to call
// from the worker or after a synchronous dispatch has returned.
func (s *UserSession) Flow() *AdFlow {
	return s.flow
}

func (s *UserSession) reset() {
	if s.flow != nil && s.flow.expirationTimer != nil {
		s.flow.expirationTimer.Stop()
	}
	s.flow = nil
}

// seenEvent records id and reports whether it was already processed. Zero
// IDs are never considered seen.
func (s *UserSession) seenEvent(id int64) bool {
	if id == 0 {
		return false
	}
	if s.recent.Contains(id) {
		return true
	}
	s.recent.Add(id, struct{}{})
	return false
}

func (s *UserSession) send(ctx context.Context, keyboard Keyboard, text string) {
	if err := s.gateway.SendText(ctx, s.userId, text, keyboard); err != nil {
		log.Error().Stack().
			Int64("userId", s.userId).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
		return
	}
	log.Debug().Int64("userId", s.userId).Str("text", text).Msg("sent message")
}

func (s *UserSession) reply(ctx context.Context, text string, a ...any) {
	s.send(ctx, nil, formatReplyText(text, a...))
}

func (s *UserSession) replyWithKeyboard(ctx context.Context, keyboard Keyboard, text string, a ...any) {
	s.send(ctx, keyboard, formatReplyText(text, a...))
}

func (s *UserSession) replyWithError(ctx context.Context, err error) {
	log.Error().Stack().Err(err).Int64("userId", s.userId).Send()
	s.send(ctx, nil, MsgUnexpectedErr)
}

// --- Worker methods ---

// StartWorker starts the session's message processing worker goroutine.
// Must be called after setting the handler.
func (s *UserSession) StartWorker() {
	s.wg.Add(1)
	go s.runWorker()
}

// SetHandler sets the message handler for this session.
func (s *UserSession) SetHandler(handler MessageHandler) {
	s.handler = handler
}

// runWorker is the main worker loop that processes messages sequentially.
func (s *UserSession) runWorker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain any remaining messages and signal completion
			for {
				select {
				case msg := <-s.inbox:
					if msg.Done != nil {
						close(msg.Done)
					}
				default:
					return
				}
			}
		case msg := <-s.inbox:
			s.processMessage(msg)
		}
	}
}

// processMessage handles a single message from the inbox. A panic in the
// handler is logged, the user gets an apology and the worker keeps running.
func (s *UserSession) processMessage(msg SessionMessage) {
	ctx := msg.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Str("type", msg.Type).
				Str("event", msg.Event.Kind.String()).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
			s.send(ctx, nil, MsgUnexpectedErr)
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if s.handler == nil {
		log.Error().Int64("userId", s.userId).Msg("session handler not set")
		return
	}

	s.handler.HandleSessionMessage(ctx, s, msg)
}

// Send queues a message for processing by the worker, blocking while the
// inbox is full.
func (s *UserSession) Send(msg SessionMessage) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// TrySend queues a message without blocking. It returns false if the inbox
// is full or the session is stopped.
func (s *UserSession) TrySend(msg SessionMessage) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.inbox <- msg:
		return true
	default:
		return false
	}
}

// SendSync queues a message and waits for it to be processed.
func (s *UserSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop stops the worker and waits for it to finish.
func (s *UserSession) Stop() {
	s.cancel()
	s.wg.Wait()
	s.reset()
}
