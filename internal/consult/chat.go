package consult

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

type ChatState string

const (
	ChatIdle             ChatState = "idle"
	ChatActive           ChatState = "active"
	ChatSummarizing      ChatState = "summarizing"
	ChatAwaitingFeedback ChatState = "awaiting_feedback"
	ChatClosed           ChatState = "closed"
)

// Greeting opens every fresh session. It is shown but never sent as
// history.
const Greeting = "Namaste! I am Maya, your astrology guide. Ask me anything about your chart, " +
	"and I will bring in Guruji for the deeper readings."

// Readiness gates sending until the user's context is prepared.
type Readiness interface {
	Ready() bool
}

type Message struct {
	Role      client.Role
	Assistant client.Persona
	Content   Content
	Amount    *float64
	Metrics   map[string]any
	Timestamp time.Time
	// Greeting marks the synthetic opening message.
	Greeting bool
	// Failed marks a stand-in for a reply that could not be fetched.
	Failed bool
}

// Premium reports whether the reply carried a charge.
func (m Message) Premium() bool {
	return m.Amount != nil && *m.Amount > 0
}

// ChatSession drives one consultation from greeting to feedback.
type ChatSession struct {
	api       ChatAPI
	session   *identity.Session
	wallet    *Wallet
	readiness Readiness
	idleAfter time.Duration
	onIdle    func()

	mu        sync.Mutex
	state     ChatState
	sessionID string
	messages  []Message
	sending   bool
	summary   string
	idleTimer *time.Timer
	idleGen   uint64
	detached  bool
	observers []func([]Message)
}

func NewChatSession(api ChatAPI, session *identity.Session, wallet *Wallet, readiness Readiness, idleAfter time.Duration, onIdle func()) *ChatSession {
	return &ChatSession{
		api:       api,
		session:   session,
		wallet:    wallet,
		readiness: readiness,
		idleAfter: idleAfter,
		onIdle:    onIdle,
		state:     ChatIdle,
	}
}

// Start opens a new session with a fresh time-ordered id and the greeting.
func (c *ChatSession) Start() error {
	c.mu.Lock()
	if c.state != ChatIdle {
		c.mu.Unlock()
		return ErrInvalidState
	}

	id, err := uuid.NewV7()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.sessionID = id.String()
	c.state = ChatActive
	c.detached = false
	c.summary = ""
	c.messages = []Message{{
		Role:      client.RoleAssistant,
		Assistant: client.PersonaMaya,
		Content:   PlainHTML(Greeting),
		Timestamp: time.Now(),
		Greeting:  true,
	}}
	notify := c.changedLocked()
	c.mu.Unlock()

	notify()
	return nil
}

// Send posts text and appends the reply. Only one send may be in flight;
// a second attempt returns ErrBusy without being queued.
func (c *ChatSession) Send(ctx context.Context, text string) (*Message, error) {
	c.mu.Lock()
	if c.state != ChatActive {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}
	if c.readiness != nil && !c.readiness.Ready() {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	if c.sending {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if err := requireField("message", text, "Please type a message"); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.sending = true
	sessionID := c.sessionID
	history := c.turnsLocked()
	c.messages = append(c.messages, Message{
		Role:      client.RoleUser,
		Content:   PlainHTML(text),
		Timestamp: time.Now(),
	})
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	resp, err := c.api.Chat(ctx, client.ChatRequest{
		Mobile:    c.session.Mobile(),
		Message:   text,
		History:   history,
		SessionID: sessionID,
	})

	var reply Message
	if err != nil {
		log.Debug().Err(err).Str("sessionId", sessionID).Msg("chat send failed")
		reply = Message{
			Role:      client.RoleAssistant,
			Assistant: client.PersonaMaya,
			Content:   PlainHTML(client.UserMessage(err)),
			Timestamp: time.Now(),
			Failed:    true,
		}
	} else {
		c.wallet.apply(resp.WalletBalance)
		reply = Message{
			Role:      client.RoleAssistant,
			Assistant: resp.Assistant,
			Content:   ParseContent(resp.Answer),
			Amount:    resp.Amount,
			Metrics:   resp.Metrics,
			Timestamp: time.Now(),
		}
	}

	c.mu.Lock()
	c.sending = false
	// A session replaced while the call was out keeps its own messages.
	if c.sessionID != sessionID {
		c.mu.Unlock()
		return &reply, err
	}
	c.messages = append(c.messages, reply)
	notify = c.changedLocked()
	c.mu.Unlock()
	notify()

	return &reply, err
}

// End asks the server to summarize the session. On failure the session
// stays active and the error is returned; logging out remains possible.
func (c *ChatSession) End(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != ChatActive {
		c.mu.Unlock()
		return "", ErrInvalidState
	}
	if c.sending {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.state = ChatSummarizing
	c.stopIdleLocked()
	sessionID := c.sessionID
	history := c.turnsLocked()
	c.mu.Unlock()

	resp, err := c.api.EndChat(ctx, c.session.Mobile(), history, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("end chat failed")
		if c.state == ChatSummarizing {
			c.state = ChatActive
			c.armIdleLocked()
		}
		return "", err
	}

	c.state = ChatAwaitingFeedback
	c.summary = resp.Summary
	return resp.Summary, nil
}

// SubmitFeedback rates the ended session and closes it.
func (c *ChatSession) SubmitFeedback(ctx context.Context, rating int, comment string) error {
	if err := client.ValidateRating(rating); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != ChatAwaitingFeedback {
		c.mu.Unlock()
		return ErrInvalidState
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	err := c.api.SubmitFeedback(ctx, client.FeedbackRequest{
		Mobile:    c.session.Mobile(),
		SessionID: sessionID,
		Rating:    rating,
		Feedback:  comment,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state = ChatClosed
	c.mu.Unlock()
	return nil
}

// Resume adopts the most recent open stored session wholesale, unless the
// user has already started talking in this one. Ended sessions are never
// adopted since the server rejects further messages to them. It reports
// whether it did.
func (c *ChatSession) Resume(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state != ChatActive || len(c.messages) > 1 {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	sessions, err := c.api.History(ctx, c.session.Mobile())
	if err != nil {
		return false, err
	}
	var latest *client.StoredSession
	for i := range sessions {
		s := &sessions[i]
		if !s.Open() {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	if latest == nil {
		return false, nil
	}

	messages := make([]Message, 0, len(latest.Messages))
	for _, m := range latest.Messages {
		messages = append(messages, Message{
			Role:      m.Role,
			Assistant: m.Assistant,
			Content:   ParseContent(m.Content),
			Amount:    m.Amount,
			Timestamp: m.Timestamp,
		})
	}

	c.mu.Lock()
	// The user may have sent while history was loading.
	if c.state != ChatActive || len(c.messages) > 1 {
		c.mu.Unlock()
		return false, nil
	}
	c.sessionID = latest.SessionID
	c.messages = messages
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	log.Debug().Str("sessionId", latest.SessionID).Int("messages", len(messages)).Msg("resumed session")
	return true, nil
}

// Close detaches the session from its view. The inactivity timer stops; a
// send still in flight is left to finish on its own.
func (c *ChatSession) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopIdleLocked()
	c.detached = true
	c.observers = nil
}

// NewChat returns a closed session to idle so Start can mint a new one.
func (c *ChatSession) NewChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ChatClosed {
		return ErrInvalidState
	}
	c.state = ChatIdle
	c.sessionID = ""
	c.messages = nil
	c.summary = ""
	return nil
}

func (c *ChatSession) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ChatSession) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *ChatSession) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *ChatSession) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Sending reports whether a send is in flight.
func (c *ChatSession) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// CanSend reports whether the input should be enabled.
func (c *ChatSession) CanSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == ChatActive && !c.sending && (c.readiness == nil || c.readiness.Ready())
}

// OnMessages registers an observer of the message list.
func (c *ChatSession) OnMessages(fn func([]Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// turnsLocked converts the list to history, leaving out the greeting.
func (c *ChatSession) turnsLocked() []client.Turn {
	turns := make([]client.Turn, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Greeting {
			continue
		}
		turns = append(turns, client.Turn{
			Role:      m.Role,
			Assistant: m.Assistant,
			Content:   m.Content.Text(),
		})
	}
	return turns
}

// changedLocked re-arms the inactivity timer and returns the observer
// notification to run once the lock is released.
func (c *ChatSession) changedLocked() func() {
	c.armIdleLocked()

	observers := slices.Clone(c.observers)
	snapshot := append([]Message(nil), c.messages...)
	return func() {
		for _, fn := range observers {
			fn(snapshot)
		}
	}
}

func (c *ChatSession) armIdleLocked() {
	c.stopIdleLocked()
	if c.detached || c.state != ChatActive || len(c.messages) < 2 || c.idleAfter <= 0 {
		return
	}

	gen := c.idleGen
	c.idleTimer = time.AfterFunc(c.idleAfter, func() { c.fireIdle(gen) })
}

func (c *ChatSession) stopIdleLocked() {
	c.idleGen++
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

func (c *ChatSession) fireIdle(gen uint64) {
	c.mu.Lock()
	stale := gen != c.idleGen || c.state != ChatActive
	c.mu.Unlock()

	if stale || c.onIdle == nil {
		return
	}
	c.onIdle()
}
