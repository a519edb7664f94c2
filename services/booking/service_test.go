package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	bookingRepo "thelocals/database/repository/booking"
	"thelocals/lifecycle"
	"thelocals/models"
)

// memRepo mirrors the conditional-update semantics of the Mongo repo so
// service tests exercise the same precondition failures.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	reviews  map[string]*models.Review
}

func newMemRepo() *memRepo {
	return &memRepo{
		bookings: make(map[string]*models.Booking),
		reviews:  make(map[string]*models.Review),
	}
}

func (r *memRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) AssignProvider(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != lifecycle.StatusPending || b.ProviderID != "" {
		return nil, bookingRepo.ErrPreconditionFailed
	}
	now := time.Now()
	b.Status = lifecycle.StatusConfirmed
	b.ProviderID = providerID
	b.AcceptedAt = &now
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, bookingID string, to lifecycle.Status) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if !lifecycle.ValidTransition(b.Status, to) {
		return nil, bookingRepo.ErrPreconditionFailed
	}
	now := time.Now()
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case lifecycle.StatusInProgress:
		b.StartedAt = &now
	case lifecycle.StatusCompleted:
		b.CompletedAt = &now
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if !lifecycle.IsCancellable(b.Status) {
		return nil, bookingRepo.ErrPreconditionFailed
	}
	b.Status = lifecycle.StatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) CancelIfUnassigned(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != lifecycle.StatusPending || b.ProviderID != "" {
		return nil, nil
	}
	b.Status = lifecycle.StatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) SetPayment(ctx context.Context, bookingID string, status lifecycle.PaymentStatus, finalCost float64) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != lifecycle.StatusCompleted {
		return nil, bookingRepo.ErrPreconditionFailed
	}
	b.PaymentStatus = status
	b.FinalCost = finalCost
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) SetReviewSubmitted(ctx context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != lifecycle.StatusCompleted || b.PaymentStatus != lifecycle.PaymentPaid || b.ReviewSubmitted {
		return nil, bookingRepo.ErrPreconditionFailed
	}
	b.ReviewSubmitted = true
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) SaveReview(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reviews[review.BookingID]; exists {
		return bookingRepo.ErrPreconditionFailed
	}
	r.reviews[review.BookingID] = review
	return nil
}

func (r *memRepo) ListActiveByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ClientID == clientID && !lifecycle.IsTerminal(b.Status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID != providerID {
			continue
		}
		if activeOnly && lifecycle.IsTerminal(b.Status) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

type fakeMatching struct {
	providers []models.Provider
	err       error
	calls     int
}

func (f *fakeMatching) MatchNearbyProviders(ctx context.Context, category string, near models.Coordinates) ([]models.Provider, error) {
	f.calls++
	return f.providers, f.err
}

type fakeNotifier struct {
	mu         sync.Mutex
	broadcasts int
	updates    []string // recipient ids in call order
}

func (f *fakeNotifier) BroadcastRequest(ctx context.Context, providers []models.Provider, b *models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts++
}

func (f *fakeNotifier) NotifyBookingUpdate(ctx context.Context, recipientID string, b *models.Booking, title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recipientID)
}

func (f *fakeNotifier) RegisterToken(ctx context.Context, accountID, token string) error {
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	statuses []lifecycle.Status
}

func (f *fakePublisher) PublishBookingChange(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, b.Status)
	return nil
}

type fakeExpiry struct {
	scheduled []string
	err       error
}

func (f *fakeExpiry) ScheduleRequestExpiry(bookingID string) error {
	f.scheduled = append(f.scheduled, bookingID)
	return f.err
}

type fakeOTPStore struct {
	code       string
	generated  int
	verifyFail bool
}

func (f *fakeOTPStore) FetchOrGenerate(ctx context.Context, bookingID string) (string, error) {
	f.generated++
	return f.code, nil
}

func (f *fakeOTPStore) Verify(ctx context.Context, bookingID, code string) error {
	if f.verifyFail || code != f.code {
		return errors.New("mismatch")
	}
	return nil
}

type fakePayments struct {
	calls int
	err   error
}

func (f *fakePayments) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Invoice{
		InvoiceID: "inv-1",
		BookingID: req.BookingID,
		ClientID:  req.ClientID,
		Amount:    req.Amount,
		Method:    req.Method,
		Status:    "paid",
	}, nil
}

type serviceFixture struct {
	svc       *DefaultBookingService
	repo      *memRepo
	matching  *fakeMatching
	notifier  *fakeNotifier
	publisher *fakePublisher
	expiry    *fakeExpiry
	otp       *fakeOTPStore
	payments  *fakePayments
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      newMemRepo(),
		matching:  &fakeMatching{providers: []models.Provider{{ID: "prov-1", FCMToken: "t"}}},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		expiry:    &fakeExpiry{},
		otp:       &fakeOTPStore{code: "4312"},
		payments:  &fakePayments{},
	}
	f.svc = &DefaultBookingService{
		Repo:        f.repo,
		MatchingSvc: f.matching,
		Payments:    f.payments,
		Notifier:    f.notifier,
		FeedPub:     f.publisher,
		Expiry:      f.expiry,
		OTP:         f.otp,
		Logger:      zap.NewNop(),
	}
	return f
}

func (f *serviceFixture) createBooking(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateRequest(context.Background(), CreateRequestInput{
		ClientID:        "client-1",
		ServiceCategory: "plumbing",
		EstimatedCost:   120,
		Location:        models.Coordinates{Lat: 1.29, Lng: 36.82},
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	return b
}

func (f *serviceFixture) advanceTo(t *testing.T, bookingID string, target lifecycle.Status) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		status lifecycle.Status
		act    func() error
	}{
		{lifecycle.StatusConfirmed, func() error {
			_, err := f.svc.AcceptRequest(ctx, bookingID, "prov-1")
			return err
		}},
		{lifecycle.StatusEnRoute, func() error {
			_, err := f.svc.MarkEnRoute(ctx, bookingID, "prov-1")
			return err
		}},
		{lifecycle.StatusInProgress, func() error {
			_, err := f.svc.StartService(ctx, bookingID, "prov-1", f.otp.code)
			return err
		}},
		{lifecycle.StatusCompleted, func() error {
			_, err := f.svc.CompleteService(ctx, bookingID, "prov-1", 150)
			return err
		}},
	}
	for _, step := range steps {
		if err := step.act(); err != nil {
			t.Fatalf("advancing to %s: step %s failed: %v", target, step.status, err)
		}
		if step.status == target {
			return
		}
	}
}

func TestCreateRequestBroadcastsAndSchedulesExpiry(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)

	if b.Status != lifecycle.StatusPending {
		t.Fatalf("new request status = %s, want PENDING", b.Status)
	}
	if f.matching.calls != 1 {
		t.Errorf("matching calls = %d, want 1", f.matching.calls)
	}
	if f.notifier.broadcasts != 1 {
		t.Errorf("broadcasts = %d, want 1", f.notifier.broadcasts)
	}
	if len(f.expiry.scheduled) != 1 || f.expiry.scheduled[0] != b.ID {
		t.Errorf("expiry scheduled = %v, want [%s]", f.expiry.scheduled, b.ID)
	}
	if len(f.publisher.statuses) != 1 || f.publisher.statuses[0] != lifecycle.StatusPending {
		t.Errorf("published statuses = %v, want [PENDING]", f.publisher.statuses)
	}
}

func TestCreateRequestSurvivesMatchingFailure(t *testing.T) {
	f := newServiceFixture()
	f.matching.err = errors.New("geo index down")

	b := f.createBooking(t)
	if f.notifier.broadcasts != 0 {
		t.Errorf("broadcasts = %d, want 0 on matching failure", f.notifier.broadcasts)
	}
	if len(f.expiry.scheduled) != 1 {
		t.Errorf("expiry must still be scheduled, got %v", f.expiry.scheduled)
	}
	if b.Status != lifecycle.StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
}

func TestAcceptRequestFirstWriteWins(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()

	won, err := f.svc.AcceptRequest(ctx, b.ID, "prov-1")
	if err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	if won.Status != lifecycle.StatusConfirmed || won.ProviderID != "prov-1" {
		t.Fatalf("accepted booking = %s/%s, want CONFIRMED/prov-1", won.Status, won.ProviderID)
	}
	if won.AcceptedAt == nil {
		t.Error("AcceptedAt not stamped on accept")
	}

	if _, err := f.svc.AcceptRequest(ctx, b.ID, "prov-2"); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("second accept err = %v, want ErrAlreadyAssigned", err)
	}

	got, _ := f.repo.GetByID(ctx, b.ID)
	if got.ProviderID != "prov-1" {
		t.Errorf("provider after losing accept = %s, want prov-1", got.ProviderID)
	}
}

func TestProviderActionsRequireAssignment(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()
	f.advanceTo(t, b.ID, lifecycle.StatusConfirmed)

	if _, err := f.svc.MarkEnRoute(ctx, b.ID, "prov-2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("MarkEnRoute by stranger err = %v, want ErrNotOwner", err)
	}
	if _, err := f.svc.CompleteService(ctx, b.ID, "prov-2", 100); !errors.Is(err, ErrNotOwner) {
		t.Errorf("CompleteService by stranger err = %v, want ErrNotOwner", err)
	}
}

func TestStartServiceRequiresValidOTP(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()
	f.advanceTo(t, b.ID, lifecycle.StatusEnRoute)

	if _, err := f.svc.StartService(ctx, b.ID, "prov-1", "0000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong code err = %v, want ErrInvalidOTP", err)
	}
	got, _ := f.repo.GetByID(ctx, b.ID)
	if got.Status != lifecycle.StatusEnRoute {
		t.Fatalf("status after rejected code = %s, want EN_ROUTE", got.Status)
	}

	started, err := f.svc.StartService(ctx, b.ID, "prov-1", f.otp.code)
	if err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	if started.Status != lifecycle.StatusInProgress || started.StartedAt == nil {
		t.Errorf("started booking = %s (startedAt %v), want IN_PROGRESS with timestamp", started.Status, started.StartedAt)
	}
}

func TestStartServiceSkipsStatusJump(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	f.advanceTo(t, b.ID, lifecycle.StatusConfirmed)

	// EN_ROUTE was never reported; IN_PROGRESS is not a legal hop yet.
	if _, err := f.svc.StartService(context.Background(), b.ID, "prov-1", f.otp.code); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("start from CONFIRMED err = %v, want ErrWrongStatus", err)
	}
}

func TestCompleteServiceRecordsFinalCost(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	f.advanceTo(t, b.ID, lifecycle.StatusCompleted)

	got, _ := f.repo.GetByID(context.Background(), b.ID)
	if got.Status != lifecycle.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if got.FinalCost != 150 {
		t.Errorf("final cost = %v, want 150", got.FinalCost)
	}
	if got.PaymentStatus != lifecycle.PaymentUnpaid {
		t.Errorf("payment status = %s, want UNPAID", got.PaymentStatus)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
}

func TestCancelBookingOwnershipAndWindow(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()

	if _, err := f.svc.CancelBooking(ctx, b.ID, "intruder", "nope"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("cancel by stranger err = %v, want ErrNotOwner", err)
	}

	f.advanceTo(t, b.ID, lifecycle.StatusInProgress)
	if _, err := f.svc.CancelBooking(ctx, b.ID, "client-1", "late"); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("cancel in progress err = %v, want ErrNotCancellable", err)
	}
}

func TestCancelBookingNotifiesAssignedProvider(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()
	f.advanceTo(t, b.ID, lifecycle.StatusConfirmed)

	cancelled, err := f.svc.CancelBooking(ctx, b.ID, "client-1", "changed plans")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != lifecycle.StatusCancelled || cancelled.CancelReason != "changed plans" {
		t.Fatalf("cancelled = %s/%q, want CANCELLED/changed plans", cancelled.Status, cancelled.CancelReason)
	}

	f.notifier.mu.Lock()
	last := f.notifier.updates[len(f.notifier.updates)-1]
	f.notifier.mu.Unlock()
	if last != "prov-1" {
		t.Errorf("last notified = %s, want the assigned provider", last)
	}
}

func TestGetOTPGatedOnProviderAssignment(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()

	if _, err := f.svc.GetOTP(ctx, b.ID, "client-1"); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("OTP while PENDING err = %v, want ErrWrongStatus", err)
	}

	f.advanceTo(t, b.ID, lifecycle.StatusConfirmed)
	code, err := f.svc.GetOTP(ctx, b.ID, "client-1")
	if err != nil {
		t.Fatalf("OTP after confirm failed: %v", err)
	}
	if code != f.otp.code {
		t.Errorf("code = %q, want %q", code, f.otp.code)
	}
	if _, err := f.svc.GetOTP(ctx, b.ID, "someone-else"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("OTP for stranger err = %v, want ErrNotOwner", err)
	}
}

func TestPayBookingGating(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()

	if _, err := f.svc.PayBooking(ctx, b.ID, "client-1", 150, "card"); !errors.Is(err, ErrPaymentNotDue) {
		t.Fatalf("pay while PENDING err = %v, want ErrPaymentNotDue", err)
	}
	if f.payments.calls != 0 {
		t.Fatalf("gateway reached before payment was due")
	}

	f.advanceTo(t, b.ID, lifecycle.StatusCompleted)

	if _, err := f.svc.PayBooking(ctx, b.ID, "client-1", 100, "card"); err == nil {
		t.Fatal("underpayment accepted")
	}

	inv, err := f.svc.PayBooking(ctx, b.ID, "client-1", 150, "card")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if inv.Amount != 150 {
		t.Errorf("invoice amount = %v, want 150", inv.Amount)
	}

	got, _ := f.repo.GetByID(ctx, b.ID)
	if got.PaymentStatus != lifecycle.PaymentPaid {
		t.Errorf("payment status = %s, want PAID", got.PaymentStatus)
	}

	if _, err := f.svc.PayBooking(ctx, b.ID, "client-1", 150, "card"); !errors.Is(err, ErrPaymentNotDue) {
		t.Errorf("second pay err = %v, want ErrPaymentNotDue", err)
	}
}

func TestSubmitReviewGating(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()
	f.advanceTo(t, b.ID, lifecycle.StatusCompleted)

	if err := f.svc.SubmitReview(ctx, b.ID, "client-1", 5, "great"); !errors.Is(err, ErrReviewNotDue) {
		t.Fatalf("review before payment err = %v, want ErrReviewNotDue", err)
	}

	if _, err := f.svc.PayBooking(ctx, b.ID, "client-1", 150, "card"); err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if err := f.svc.SubmitReview(ctx, b.ID, "client-1", 0, ""); err == nil {
		t.Fatal("out-of-range rating accepted")
	}
	if err := f.svc.SubmitReview(ctx, b.ID, "client-1", 5, "great"); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if err := f.svc.SubmitReview(ctx, b.ID, "client-1", 4, "again"); !errors.Is(err, ErrReviewNotDue) {
		t.Errorf("second review err = %v, want ErrReviewNotDue", err)
	}
}

func TestExpireRequestOnlyTouchesUnassigned(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	stale := f.createBooking(t)
	if err := f.svc.ExpireRequest(ctx, stale.ID); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, stale.ID)
	if got.Status != lifecycle.StatusCancelled || got.CancelReason == "" {
		t.Fatalf("expired booking = %s/%q, want CANCELLED with reason", got.Status, got.CancelReason)
	}

	taken := f.createBooking(t)
	f.advanceTo(t, taken.ID, lifecycle.StatusConfirmed)
	if err := f.svc.ExpireRequest(ctx, taken.ID); err != nil {
		t.Fatalf("expire of accepted booking errored: %v", err)
	}
	got, _ = f.repo.GetByID(ctx, taken.ID)
	if got.Status != lifecycle.StatusConfirmed {
		t.Errorf("accepted booking after expiry = %s, want CONFIRMED untouched", got.Status)
	}

	if err := f.svc.ExpireRequest(ctx, "missing"); err != nil {
		t.Errorf("expire of missing booking errored: %v", err)
	}
}

func TestEveryMutationPublishesToFeed(t *testing.T) {
	f := newServiceFixture()
	b := f.createBooking(t)
	ctx := context.Background()
	f.advanceTo(t, b.ID, lifecycle.StatusCompleted)
	if _, err := f.svc.PayBooking(ctx, b.ID, "client-1", 150, "cash"); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if err := f.svc.SubmitReview(ctx, b.ID, "client-1", 5, ""); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	want := []lifecycle.Status{
		lifecycle.StatusPending,
		lifecycle.StatusConfirmed,
		lifecycle.StatusEnRoute,
		lifecycle.StatusInProgress,
		lifecycle.StatusCompleted,
		lifecycle.StatusCompleted, // payment
		lifecycle.StatusCompleted, // review
	}
	f.publisher.mu.Lock()
	got := append([]lifecycle.Status(nil), f.publisher.statuses...)
	f.publisher.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("published %d changes (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("publish[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
