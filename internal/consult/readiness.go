package consult

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

// ReadinessPoller watches the server while it prepares the user's context.
// A failed preparation counts as ready: chat degrades open rather than
// blocking the user.
type ReadinessPoller struct {
	api      StatusAPI
	session  *identity.Session
	wallet   *Wallet
	interval time.Duration

	mu        sync.RWMutex
	status    client.Status
	profile   *client.UserProfile
	observers []func(client.Status)
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewReadinessPoller(api StatusAPI, session *identity.Session, wallet *Wallet, interval time.Duration) *ReadinessPoller {
	return &ReadinessPoller{
		api:      api,
		session:  session,
		wallet:   wallet,
		interval: interval,
		status:   client.StatusChecking,
	}
}

// Start queries the status immediately and keeps polling until a terminal
// status is seen, Stop is called or ctx ends. It does nothing while a
// previous run is still polling; a finished or stopped poller starts over.
func (p *ReadinessPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		select {
		case <-p.done:
			p.cancel()
		default:
			p.mu.Unlock()
			return
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.set(client.StatusChecking)
	go p.run(ctx, done)
}

// Stop cancels polling and waits for the loop to exit.
func (p *ReadinessPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	p.mu.Lock()
	if p.done == done {
		p.cancel = nil
		p.done = nil
	}
	p.mu.Unlock()
}

// Done is closed when polling ends. It is nil before Start and after Stop.
func (p *ReadinessPoller) Done() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.done
}

func (p *ReadinessPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	if p.poll(ctx) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.poll(ctx) {
				return
			}
		}
	}
}

// poll reports whether polling should stop.
func (p *ReadinessPoller) poll(ctx context.Context) bool {
	resp, err := p.api.UserStatus(ctx, p.session.Mobile())
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		log.Debug().Err(err).Msg("status poll failed")
		return false
	}

	p.wallet.apply(resp.WalletBalance)
	if resp.UserProfile != nil {
		p.mu.Lock()
		p.profile = resp.UserProfile
		p.mu.Unlock()
	}

	status := resp.Status
	if status == "" || status == "new" {
		status = client.StatusProcessing
	}
	p.set(status)

	if status == client.StatusFailed {
		log.Warn().Msg("context preparation failed, continuing without it")
	}
	return status.Terminal()
}

func (p *ReadinessPoller) set(s client.Status) {
	p.mu.Lock()
	changed := p.status != s
	p.status = s
	observers := slices.Clone(p.observers)
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range observers {
		fn(s)
	}
}

func (p *ReadinessPoller) Status() client.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Ready reports whether chat input may be enabled.
func (p *ReadinessPoller) Ready() bool {
	return p.Status().Terminal()
}

// UserProfile is the profile from the last status response, if any.
func (p *ReadinessPoller) UserProfile() *client.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profile
}

func (p *ReadinessPoller) OnChange(fn func(client.Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}
