package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/gateway"
	"mentor-booking/internal/notifier"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory stand-in for PostgreSQL. Transactions are
// serialized by txMu, which is coarser than row locks but gives the same
// isolation for the code under test. A failing fn rolls the maps back.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	profiles      map[uuid.UUID]entity.Profile
	meetings      map[uuid.UUID]entity.Meeting
	slots         map[uuid.UUID]entity.Slot
	bookings      map[uuid.UUID]entity.Booking
	payments      map[uuid.UUID]entity.Payment
	notifications map[uuid.UUID]entity.Notification
	unbooked      map[string]entity.UnbookedPayment

	// paymentCreateErr, when set, fails every payment insert
	paymentCreateErr error
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      map[uuid.UUID]entity.Profile{},
		meetings:      map[uuid.UUID]entity.Meeting{},
		slots:         map[uuid.UUID]entity.Slot{},
		bookings:      map[uuid.UUID]entity.Booking{},
		payments:      map[uuid.UUID]entity.Payment{},
		notifications: map[uuid.UUID]entity.Notification{},
		unbooked:      map[string]entity.UnbookedPayment{},
	}
}

type snapshot struct {
	slots    map[uuid.UUID]entity.Slot
	bookings map[uuid.UUID]entity.Booking
	payments map[uuid.UUID]entity.Payment
}

func copyMap[T any](m map[uuid.UUID]T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		slots:    copyMap(s.slots),
		bookings: copyMap(s.bookings),
		payments: copyMap(s.payments),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = snap.slots
	s.bookings = snap.bookings
	s.payments = snap.payments
}

func (s *memStore) repository() *repository.Repository {
	return s.repositoryWith(&memTx{store: s})
}

func (s *memStore) repositoryWith(tx repository.Transactor) *repository.Repository {
	return &repository.Repository{
		Profile:      memProfiles{s},
		Meeting:      memMeetings{s},
		Slot:         memSlots{s},
		Booking:      memBookings{s},
		Payment:      memPayments{s},
		Notification: memNotifications{s},

		UnbookedPayment: memUnbookedPayments{s},

		Tx: tx,
	}
}

// memTx opens a top-level transaction; inside fn, WithTx acts as a savepoint.
type memTx struct{ store *memStore }

func (t *memTx) WithTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	return t.store.runScoped(fn)
}

type memSavepoint struct{ store *memStore }

func (t *memSavepoint) WithTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	return t.store.runScoped(fn)
}

// failingTx fails every transaction before fn runs.
type failingTx struct{ err error }

func (t failingTx) WithTx(context.Context, func(tx *repository.Repository) error) error {
	return t.err
}

func (s *memStore) runScoped(fn func(tx *repository.Repository) error) error {
	snap := s.snapshot()
	if err := fn(s.repositoryWith(&memSavepoint{store: s})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: constraint}
	return fmt.Errorf("%w (%s): %w", repository.ErrUniqueViolation, constraint, pgErr)
}

// ---- seeding and inspection helpers ----

func (s *memStore) addProfile(role entity.Role) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := entity.Profile{BaseNoDelete: entity.NewBaseNoDelete(time.Now()), Role: role}
	p.Email = p.ID.String() + "@example.com"
	s.profiles[p.ID] = p
	return p.ID
}

func (s *memStore) addMeeting(mentorID uuid.UUID, free bool, price float64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := entity.Meeting{
		BaseNoDelete:    entity.NewBaseNoDelete(time.Now()),
		MentorID:        mentorID,
		Title:           "Career chat",
		IsFree:          free,
		Price:           price,
		Currency:        "USD",
		DurationMinutes: 45,
	}
	s.meetings[m.ID] = m
	return m.ID
}

func (s *memStore) addSlot(meetingID uuid.UUID, capacity int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now().Add(48 * time.Hour)
	sl := entity.Slot{
		BaseNoDelete:   entity.NewBaseNoDelete(time.Now()),
		MeetingID:      meetingID,
		StartTime:      start,
		EndTime:        start.Add(45 * time.Minute),
		SpotsAvailable: capacity,
		IsAvailable:    true,
	}
	s.slots[sl.ID] = sl
	return sl.ID
}

func (s *memStore) slot(id uuid.UUID) entity.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id]
}

func (s *memStore) booking(id uuid.UUID) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

// holdingSlot counts bookings that still consume a unit of the slot.
func (s *memStore) holdingSlot(slotID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.SlotID == slotID && b.Status != entity.BookingStatusCancelled {
			n++
		}
	}
	return n
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) unbookedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unbooked)
}

func (s *memStore) setPaymentCreateErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentCreateErr = err
}

// ---- repositories ----

type memProfiles struct{ s *memStore }

func (r memProfiles) FindByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type memMeetings struct{ s *memStore }

func (r memMeetings) FindByID(_ context.Context, id uuid.UUID) (*entity.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

type memSlots struct{ s *memStore }

func (r memSlots) FindByID(_ context.Context, id uuid.UUID) (*entity.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	return &sl, nil
}

func (r memSlots) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	return r.FindByID(ctx, id)
}

func (r memSlots) FindByMeetingID(_ context.Context, meetingID uuid.UUID) ([]*entity.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Slot
	for _, sl := range r.s.slots {
		if sl.MeetingID == meetingID {
			sl := sl
			out = append(out, &sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r memSlots) Create(_ context.Context, sl *entity.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.slots[sl.ID] = *sl
	return nil
}

func (r memSlots) ClaimSpot(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok || !sl.IsAvailable || sl.SpotsTaken >= sl.SpotsAvailable {
		return false, nil
	}
	sl.SpotsTaken++
	r.s.slots[id] = sl
	return true, nil
}

func (r memSlots) ReleaseSpot(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok || sl.SpotsTaken <= 0 {
		return false, nil
	}
	sl.SpotsTaken--
	r.s.slots[id] = sl
	return true, nil
}

func (r memSlots) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return fmt.Errorf("slot %s not found", id)
	}
	sl.IsAvailable = available
	r.s.slots[id] = sl
	return nil
}

type memUnbookedPayments struct{ s *memStore }

func (r memUnbookedPayments) Record(_ context.Context, p *entity.UnbookedPayment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.unbooked[p.TransactionRef]; ok {
		return false, nil
	}
	r.s.unbooked[p.TransactionRef] = *p
	return true, nil
}

func (r memUnbookedPayments) FindUnresolved(_ context.Context, limit int) ([]*entity.UnbookedPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.UnbookedPayment
	for _, p := range r.s.unbooked {
		if p.ResolvedAt == nil {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bookings {
		if existing.SlotID == b.SlotID && existing.MenteeID == b.MenteeID &&
			existing.Status.IsActive() && b.Status.IsActive() {
			return uniqueViolation(repository.ConstraintActiveBooking)
		}
		if b.ExternalRef != nil && existing.ExternalRef != nil && *existing.ExternalRef == *b.ExternalRef {
			return uniqueViolation(repository.ConstraintExternalRef)
		}
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookings) find(match func(entity.Booking) bool) *entity.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if match(b) {
			return &b
		}
	}
	return nil
}

func (r memBookings) FindByExternalRef(_ context.Context, ref string) (*entity.Booking, error) {
	return r.find(func(b entity.Booking) bool {
		return b.ExternalRef != nil && *b.ExternalRef == ref
	}), nil
}

func (r memBookings) FindActiveBySlotAndMentee(_ context.Context, slotID, menteeID uuid.UUID) (*entity.Booking, error) {
	return r.find(func(b entity.Booking) bool {
		return b.SlotID == slotID && b.MenteeID == menteeID && b.Status.IsActive()
	}), nil
}

func (r memBookings) participant(userID uuid.UUID, status *entity.BookingStatus) []*entity.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if !b.HasParticipant(userID) {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memBookings) FindByParticipant(_ context.Context, userID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	all := r.participant(userID, status)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r memBookings) CountByParticipant(_ context.Context, userID uuid.UUID, status *entity.BookingStatus) (int64, error) {
	return int64(len(r.participant(userID, status))), nil
}

func (r memBookings) FindPaidWithoutPayment(_ context.Context, limit int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if b.ExternalRef == nil || len(out) >= limit {
			continue
		}
		if b.Status != entity.BookingStatusConfirmed && b.Status != entity.BookingStatusCompleted {
			continue
		}
		paid := false
		for _, p := range r.s.payments {
			if p.BookingID == b.ID {
				paid = true
				break
			}
		}
		if !paid {
			b := b
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r memBookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.BookingStatus, reason *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if reason != nil {
		b.CancellationReason = reason
	}
	b.UpdatedAt = time.Now()
	r.s.bookings[id] = b
	return true, nil
}

func (r memBookings) MarkConfirmed(_ context.Context, id uuid.UUID, externalRef *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending {
		return false, nil
	}
	b.Status = entity.BookingStatusConfirmed
	if externalRef != nil {
		b.ExternalRef = externalRef
	}
	r.s.bookings[id] = b
	return true, nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(_ context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.paymentCreateErr != nil {
		return r.s.paymentCreateErr
	}
	for _, existing := range r.s.payments {
		if existing.TransactionRef == p.TransactionRef {
			return uniqueViolation(repository.ConstraintTransactionRef)
		}
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) FindByTransactionRef(_ context.Context, ref string) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.TransactionRef == ref {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPayments) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPayments) MarkRefunded(_ context.Context, ref string) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Payment
	for id, p := range r.s.payments {
		matches := p.TransactionRef == ref || (p.PaymentIntentRef != nil && *p.PaymentIntentRef == ref)
		if !matches || p.Status == entity.PaymentStatusRefunded {
			continue
		}
		p.Status = entity.PaymentStatusRefunded
		r.s.payments[id] = p
		p := p
		out = append(out, &p)
	}
	return out, nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r memNotifications) FindByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, x := range r.s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	r.s.notifications[id] = n
	return true, nil
}

func (r memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

// ---- collaborators ----

type captureNotifier struct {
	mu   sync.Mutex
	msgs []notifier.Message
}

func (n *captureNotifier) Notify(msg notifier.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *captureNotifier) sent() []notifier.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifier.Message(nil), n.msgs...)
}

type fakeGateway struct {
	checkout  gateway.CheckoutParams
	session   *gateway.CheckoutSession
	err       error
	event     *gateway.Event
	parseErr  error
	lastSig   string
	checkouts int
}

func (g *fakeGateway) CreateCheckout(_ context.Context, p gateway.CheckoutParams) (*gateway.CheckoutSession, error) {
	g.checkouts++
	g.checkout = p
	if g.err != nil {
		return nil, g.err
	}
	if g.session != nil {
		return g.session, nil
	}
	return &gateway.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*gateway.Event, error) {
	g.lastSig = signature
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}
