package projector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"thelocals/lifecycle"
	"thelocals/models"
)

// Projector owns the local projection of one booking. It is fed by a
// one-shot fetch plus a change-feed subscription, validates every status
// the feed reports against the lifecycle table, and exposes derived
// ProjectedView snapshots to presentation layers.
//
// One projector instance owns one booking id exclusively; use Registry to
// enforce single instantiation per id within a process.
type Projector struct {
	bookingID string
	deps      Deps
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	booking      *models.Booking
	otpCode      string
	otpRequested bool
	conn         ConnectionState
	closed       bool
	unsub        Unsubscribe
	watchers     map[int]chan models.ProjectedView
	nextWatch    int
}

// New builds a projector for the given booking. Deps.OTP may be nil for
// consumers that never display the code (the provider apps type it in
// instead); the lazy OTP hook is then skipped entirely.
func New(bookingID string, deps Deps, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Projector{
		bookingID: bookingID,
		deps:      deps,
		logger:    logger.With(zap.String("bookingId", bookingID)),
		ctx:       ctx,
		cancel:    cancel,
		conn:      ConnLost,
		watchers:  make(map[int]chan models.ProjectedView),
	}
}

// Start performs the initial fetch and opens the feed subscription.
// A failed fetch leaves the projector in the unavailable state; callers
// surface a retry affordance and call Retry. A fetch that resolves after
// Close is discarded without touching state.
func (p *Projector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.booking != nil {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	b, err := p.deps.Fetcher.FetchBooking(ctx, p.bookingID)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		p.mu.Unlock()
		p.logger.Warn("initial booking fetch failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.booking = b
	p.maybeRequestOTPLocked()
	p.notifyLocked()
	p.mu.Unlock()

	return p.subscribe()
}

// Retry re-attempts activation after a failed Start.
func (p *Projector) Retry(ctx context.Context) error {
	return p.Start(ctx)
}

func (p *Projector) subscribe() error {
	unsub, err := p.deps.Feed.Subscribe(p.ctx, p.bookingID, p.applyDelta, p.setConn)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if unsub != nil {
			unsub()
		}
		return ErrClosed
	}
	if err != nil {
		// Known state stays visible; the UI just sees a stale link.
		p.conn = ConnLost
		p.logger.Warn("feed subscription failed", zap.Error(err))
		return nil
	}
	p.unsub = unsub
	p.conn = ConnLive
	return nil
}

// applyDelta merges one feed delivery into local state. The merge runs
// atomically under the projector mutex: non-status fields merge
// unconditionally, the status field only lands when it is forward-reachable
// from the held status. Identical statuses are accepted as no-ops so a
// full resend after reconnect never reads as an error.
func (p *Projector) applyDelta(d models.BookingDelta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.booking == nil {
		return
	}
	if d.ID != "" && d.ID != p.bookingID {
		return
	}
	b := p.booking

	if d.ProviderID != nil && b.ProviderID == "" {
		b.ProviderID = *d.ProviderID
	}
	if d.PaymentStatus != nil {
		b.PaymentStatus = *d.PaymentStatus
	}
	if d.ReviewSubmitted != nil {
		b.ReviewSubmitted = *d.ReviewSubmitted
	}
	if d.FinalCost != nil {
		b.FinalCost = *d.FinalCost
	}
	if d.CancelReason != nil {
		b.CancelReason = *d.CancelReason
	}
	if d.AcceptedAt != nil {
		b.AcceptedAt = d.AcceptedAt
	}
	if d.StartedAt != nil {
		b.StartedAt = d.StartedAt
	}
	if d.CompletedAt != nil {
		b.CompletedAt = d.CompletedAt
	}
	if d.UpdatedAt != nil {
		b.UpdatedAt = *d.UpdatedAt
	}

	if d.Status != nil {
		next, err := lifecycle.ParseStatus(*d.Status)
		switch {
		case err != nil:
			p.logger.Debug("dropping unrecognized status from feed", zap.String("status", *d.Status))
		case next == b.Status:
			// Duplicate delivery or reconnect resend; nothing to do.
		case lifecycle.Reachable(b.Status, next):
			b.Status = next
			if d.UpdatedAt == nil {
				b.UpdatedAt = time.Now()
			}
		default:
			// Stale or out-of-order delivery. The status field is
			// discarded, everything merged above stands.
			p.logger.Debug("dropping unreachable status from feed",
				zap.String("held", string(b.Status)), zap.String("reported", string(next)))
		}
	}

	p.maybeRequestOTPLocked()
	p.notifyLocked()
}

// maybeRequestOTPLocked fires the lazy OTP fetch the first time the
// booking is seen at CONFIRMED or later. The attempted flag guarantees at
// most one fire per projector regardless of how often the feed repeats
// the CONFIRMED delivery.
func (p *Projector) maybeRequestOTPLocked() {
	if p.otpRequested || p.deps.OTP == nil || p.booking == nil {
		return
	}
	if p.booking.Status == lifecycle.StatusCancelled || lifecycle.StepIndex(p.booking.Status) < 1 {
		return
	}
	p.otpRequested = true
	go p.fetchOTP()
}

func (p *Projector) fetchOTP() {
	code, err := p.deps.OTP.FetchOTP(p.ctx, p.bookingID)
	if err != nil {
		if p.ctx.Err() == nil {
			p.logger.Warn("otp fetch failed", zap.Error(err))
		}
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.otpCode = code
	p.notifyLocked()
}

func (p *Projector) setConn(s ConnectionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.conn == s {
		return
	}
	p.conn = s
	// State is never cleared on feed loss; watchers are poked so the UI
	// can re-read ConnState and show a staleness indicator.
	p.notifyLocked()
}

// View returns the current derived snapshot. ok is false until the
// initial fetch has landed.
func (p *Projector) View() (models.ProjectedView, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.booking == nil {
		return models.ProjectedView{}, false
	}
	return DeriveView(p.booking, p.otpCode, p.booking.ReviewSubmitted), true
}

// ConnState reports the change-feed link health.
func (p *Projector) ConnState() ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

// Watch registers a watcher channel that receives the latest view after
// every state change. The channel holds only the freshest snapshot;
// intermediate snapshots a slow consumer missed are dropped, not queued.
// The returned func unregisters the watcher.
func (p *Projector) Watch() (<-chan models.ProjectedView, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan models.ProjectedView, 1)
	id := p.nextWatch
	p.nextWatch++
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	p.watchers[id] = ch
	if p.booking != nil {
		ch <- DeriveView(p.booking, p.otpCode, p.booking.ReviewSubmitted)
	}
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if w, ok := p.watchers[id]; ok {
			delete(p.watchers, id)
			close(w)
		}
	}
}

func (p *Projector) notifyLocked() {
	if p.booking == nil {
		return
	}
	v := DeriveView(p.booking, p.otpCode, p.booking.ReviewSubmitted)
	for _, ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Cancel validates cancellability locally before any network call, then
// delegates to the action collaborator. The local state is only updated
// after the collaborator succeeds; the feed delivery later confirms it.
func (p *Projector) Cancel(ctx context.Context, reason string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.booking == nil {
		p.mu.Unlock()
		return ErrNotReady
	}
	if !lifecycle.IsCancellable(p.booking.Status) {
		p.mu.Unlock()
		return ErrNotCancellable
	}
	p.mu.Unlock()

	if err := p.deps.Actions.CancelBooking(ctx, p.bookingID, reason); err != nil {
		return err
	}
	s := string(lifecycle.StatusCancelled)
	p.applyDelta(models.BookingDelta{ID: p.bookingID, Status: &s, CancelReason: &reason})
	return nil
}

// Pay submits payment for a completed booking.
func (p *Projector) Pay(ctx context.Context, amount float64, method string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.booking == nil {
		p.mu.Unlock()
		return ErrNotReady
	}
	if !lifecycle.IsPaymentDue(p.booking.Status, p.booking.PaymentStatus) {
		p.mu.Unlock()
		return ErrPaymentNotDue
	}
	p.mu.Unlock()

	if err := p.deps.Actions.SubmitPayment(ctx, p.bookingID, amount, method); err != nil {
		return err
	}
	paid := lifecycle.PaymentPaid
	p.applyDelta(models.BookingDelta{ID: p.bookingID, PaymentStatus: &paid})
	return nil
}

// Review submits the post-payment rating.
func (p *Projector) Review(ctx context.Context, rating int, text string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.booking == nil {
		p.mu.Unlock()
		return ErrNotReady
	}
	if !lifecycle.IsReviewDue(p.booking.Status, p.booking.PaymentStatus, p.booking.ReviewSubmitted) {
		p.mu.Unlock()
		return ErrReviewNotDue
	}
	p.mu.Unlock()

	if err := p.deps.Actions.SubmitReview(ctx, p.bookingID, rating, text); err != nil {
		return err
	}
	done := true
	p.applyDelta(models.BookingDelta{ID: p.bookingID, ReviewSubmitted: &done})
	return nil
}

// Close tears the projector down: the subscription is released, pending
// hook work is cancelled, and any fetch still in flight is discarded when
// it resolves. Safe to call at any time, more than once.
func (p *Projector) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	unsub := p.unsub
	p.unsub = nil
	for id, ch := range p.watchers {
		delete(p.watchers, id)
		close(ch)
	}
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
