package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/payment"
	"github.com/thenamerahulkr/cems/internal/repository"
)

// store is an in-memory stand-in for the database. It mirrors the DAO rules:
// a seat is taken together with the registration under one lock.
type store struct {
	mu            sync.Mutex
	nextID        uint
	users         map[uint]domain.User
	events        map[uint]domain.Event
	registrations map[uint]domain.Registration
	seats         map[uint]map[uint]bool
	notifications []domain.Notification
	// ticketErr fails every ticket write, rolling back the write it belongs to.
	ticketErr error
}

func newStore() *store {
	return &store{
		users:         map[uint]domain.User{},
		events:        map[uint]domain.Event{},
		registrations: map[uint]domain.Registration{},
		seats:         map[uint]map[uint]bool{},
	}
}

func (s *store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *store) addUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	s.users[u.ID] = u
	return u
}

func (s *store) addEvent(e domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	if e.Date.IsZero() {
		e.Date = time.Now().Add(72 * time.Hour)
	}
	s.events[e.ID] = e
	s.seats[e.ID] = map[uint]bool{}
	return s.eventLocked(e.ID)
}

func (s *store) eventLocked(id uint) domain.Event {
	e := s.events[id]
	e.Participants = []uint{}
	for userID := range s.seats[id] {
		e.Participants = append(e.Participants, userID)
	}
	sort.Slice(e.Participants, func(i, j int) bool { return e.Participants[i] < e.Participants[j] })
	return e
}

func (s *store) updateEvent(id uint, update func(e *domain.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	update(&e)
	s.events[id] = e
}

func (s *store) updateRegistration(id uint, update func(r *domain.Registration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.registrations[id]
	update(&r)
	s.registrations[id] = r
}

func (s *store) failTickets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticketErr = err
}

func (s *store) participants(eventID uint) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventLocked(eventID).Participants
}

func (s *store) registration(eventID, userID uint) (domain.Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.registrations {
		if r.EventID == eventID && r.UserID == userID {
			return r, true
		}
	}
	return domain.Registration{}, false
}

// seatFreeLocked reports why a new seat cannot be taken on eventID, if at all.
func (s *store) seatFreeLocked(eventID uint) error {
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	if len(s.seats[eventID]) >= e.Capacity {
		return repository.ErrEventFull
	}
	return nil
}

type fakeEvents struct{ *store }

func (f fakeEvents) Create(_ context.Context, e domain.Event) (domain.Event, error) {
	return f.addEvent(e), nil
}

func (f fakeEvents) FindByID(_ context.Context, id uint) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return f.eventLocked(id), nil
}

func (f fakeEvents) Find(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for id, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Title+" "+e.Description), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, f.eventLocked(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f fakeEvents) FindApprovedBetween(_ context.Context, from, to time.Time) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for id, e := range f.events {
		if e.IsApproved() && !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, f.eventLocked(id))
		}
	}
	return out, nil
}

func (f fakeEvents) Update(_ context.Context, id uint, u domain.EventUpdate) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Capacity != nil {
		if *u.Capacity < len(f.seats[id]) {
			return domain.Event{}, repository.ErrCapacityBelowRegistered
		}
		e.Capacity = *u.Capacity
	}
	if u.IsPaid != nil {
		e.IsPaid = *u.IsPaid
	}
	if u.Price != nil {
		e.Price = *u.Price
	}
	f.events[id] = e
	return f.eventLocked(id), nil
}

func (f fakeEvents) UpdateStatus(_ context.Context, id uint, status domain.EventStatus) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	e.Status = status
	f.events[id] = e
	return f.eventLocked(id), nil
}

func (f fakeEvents) UpdateBanner(_ context.Context, id uint, url string) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	e.BannerURL = url
	f.events[id] = e
	return f.eventLocked(id), nil
}

func (f fakeEvents) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(f.events, id)
	delete(f.seats, id)
	return nil
}

func (f fakeEvents) Count(_ context.Context, status domain.EventStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.events {
		if status == "" || e.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeRegistrations struct{ *store }

func (f fakeRegistrations) FindByID(_ context.Context, id uint) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	return r, nil
}

func (f fakeRegistrations) FindByEventAndUser(_ context.Context, eventID, userID uint) (domain.Registration, error) {
	r, ok := f.registration(eventID, userID)
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	return r, nil
}

func (f fakeRegistrations) FindByUser(_ context.Context, userID uint) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Registration
	for _, r := range f.registrations {
		if r.UserID != userID {
			continue
		}
		if _, ok := f.events[r.EventID]; ok {
			e := f.eventLocked(r.EventID)
			r.Event = &e
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeRegistrations) FindByEvent(_ context.Context, eventID uint) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Registration
	for _, r := range f.registrations {
		if r.EventID == eventID {
			summary := f.users[r.UserID].Summary()
			r.User = &summary
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeRegistrations) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.registrations)), nil
}

func (f fakeRegistrations) CreateWithSeat(_ context.Context, reg domain.Registration, mint domain.TicketFunc) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.registrations {
		if r.EventID == reg.EventID && r.UserID == reg.UserID {
			return domain.Registration{}, repository.ErrRegistrationExists
		}
	}
	if err := f.seatFreeLocked(reg.EventID); err != nil {
		return domain.Registration{}, err
	}
	reg.ID = f.nextID + 1
	reg, err := f.mintLocked(reg, mint)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.ID = f.id()
	f.seats[reg.EventID][reg.UserID] = true
	f.registrations[reg.ID] = reg
	return reg, nil
}

// mintLocked attaches a ticket to reg the way the DAO does inside its
// transaction. Nothing is stored when it fails.
func (f fakeRegistrations) mintLocked(reg domain.Registration, mint domain.TicketFunc) (domain.Registration, error) {
	if mint == nil {
		return reg, nil
	}
	ticket, err := mint(reg)
	if err != nil {
		return domain.Registration{}, err
	}
	if f.ticketErr != nil {
		return domain.Registration{}, f.ticketErr
	}
	reg.QRCode, reg.QRToken = ticket.DataURL, ticket.Token
	return reg, nil
}

func (f fakeRegistrations) FindByPaymentID(_ context.Context, paymentID string) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.registrations {
		if paymentID != "" && r.PaymentID == paymentID {
			return r, nil
		}
	}
	return domain.Registration{}, repository.ErrRegistrationNotFound
}

func (f fakeRegistrations) UpsertPending(_ context.Context, eventID, userID uint, orderID string, amount float64) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.registrations {
		if r.EventID == eventID && r.UserID == userID {
			if r.IsCompleted() {
				return domain.Registration{}, repository.ErrRegistrationCompleted
			}
			r.OrderID, r.Amount, r.PaymentStatus, r.PaymentID = orderID, amount, domain.PaymentPending, ""
			f.registrations[id] = r
			return r, nil
		}
	}
	reg := domain.Registration{ID: f.id(), EventID: eventID, UserID: userID, OrderID: orderID, Amount: amount, PaymentStatus: domain.PaymentPending}
	f.registrations[reg.ID] = reg
	return reg, nil
}

func (f fakeRegistrations) CompletePayment(_ context.Context, id uint, paymentID string, mint domain.TicketFunc) (domain.Registration, error) {
	return f.complete(id, mint, func(r *domain.Registration) {
		r.PaymentID = paymentID
	})
}

func (f fakeRegistrations) CompleteFree(_ context.Context, id uint, mint domain.TicketFunc) (domain.Registration, error) {
	return f.complete(id, mint, func(r *domain.Registration) {
		r.PaymentID, r.OrderID, r.Amount = "", "", 0
	})
}

func (f fakeRegistrations) complete(id uint, mint domain.TicketFunc, update func(r *domain.Registration)) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if r.IsCompleted() {
		return domain.Registration{}, repository.ErrRegistrationCompleted
	}
	if !f.seats[r.EventID][r.UserID] {
		if err := f.seatFreeLocked(r.EventID); err != nil {
			return domain.Registration{}, err
		}
	}
	update(&r)
	r.PaymentStatus = domain.PaymentCompleted
	r, err := f.mintLocked(r, mint)
	if err != nil {
		return domain.Registration{}, err
	}
	f.seats[r.EventID][r.UserID] = true
	f.registrations[id] = r
	return r, nil
}

func (f fakeRegistrations) MarkFailed(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.registrations[id]; ok && !r.IsCompleted() {
		r.PaymentStatus = domain.PaymentFailed
		f.registrations[id] = r
	}
	return nil
}

func (f fakeRegistrations) MarkRefunded(_ context.Context, id uint) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if r.PaymentStatus != domain.PaymentCompleted && r.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, repository.ErrRegistrationNotCompleted
	}
	r.PaymentStatus = domain.PaymentRefunded
	f.registrations[id] = r
	delete(f.seats[r.EventID], r.UserID)
	return r, nil
}

func (f fakeRegistrations) Delete(_ context.Context, eventID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.registrations {
		if r.EventID == eventID && r.UserID == userID {
			delete(f.registrations, id)
			delete(f.seats[eventID], userID)
			return nil
		}
	}
	return repository.ErrRegistrationNotFound
}

func (f fakeRegistrations) SaveTicket(_ context.Context, id uint, ticket domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticketErr != nil {
		return f.ticketErr
	}
	r := f.registrations[id]
	r.QRCode, r.QRToken = ticket.DataURL, ticket.Token
	f.registrations[id] = r
	return nil
}

func (f fakeRegistrations) MarkVerified(_ context.Context, eventID, userID uint, at time.Time) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.registrations {
		if r.EventID == eventID && r.UserID == userID {
			if r.Verified {
				return r, repository.ErrAlreadyVerified
			}
			r.Verified, r.VerifiedAt = true, &at
			f.registrations[id] = r
			return r, nil
		}
	}
	return domain.Registration{}, repository.ErrRegistrationNotFound
}

type fakeUsers struct{ *store }

func (f fakeUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			f.mu.Unlock()
			return domain.User{}, repository.ErrUserEmailExists
		}
	}
	f.mu.Unlock()
	return f.addUser(u), nil
}

func (f fakeUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (f fakeUsers) find(role domain.Role, status domain.UserStatus) []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		if (role == "" || u.Role == role) && (status == "" || u.Status == status) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeUsers) FindAll(context.Context) ([]domain.User, error) {
	return f.find("", ""), nil
}

func (f fakeUsers) FindByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	return f.find(role, ""), nil
}

func (f fakeUsers) FindByRoleAndStatus(_ context.Context, role domain.Role, status domain.UserStatus) ([]domain.User, error) {
	return f.find(role, status), nil
}

func (f fakeUsers) Count(_ context.Context, role domain.Role, status domain.UserStatus) (int64, error) {
	return int64(len(f.find(role, status))), nil
}

func (f fakeUsers) UpdateStatus(_ context.Context, id uint, role domain.Role, status domain.UserStatus) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Role != role {
		return domain.User{}, repository.ErrUserNotFound
	}
	u.Status = status
	f.users[id] = u
	return u, nil
}

func (f fakeUsers) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type sentNotification struct {
	userID  uint
	message string
	typ     domain.NotificationType
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, message string, typ domain.NotificationType, userIDs ...uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range userIDs {
		n.sent = append(n.sent, sentNotification{userID: id, message: message, typ: typ})
	}
}

func (n *recordingNotifier) to(userID uint) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.userID == userID {
			out = append(out, s)
		}
	}
	return out
}

type queuedMail struct {
	kind    domain.MailKind
	to      string
	subject string
	payload map[string]interface{}
}

type recordingMail struct {
	mu   sync.Mutex
	sent []queuedMail
}

func (m *recordingMail) Enqueue(_ context.Context, kind domain.MailKind, to domain.User, subject string, payload map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, queuedMail{kind: kind, to: to.Email, subject: subject, payload: payload})
}

func (m *recordingMail) kinds() []domain.MailKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MailKind, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.kind
	}
	return out
}

type fakeOutbox struct {
	mu   sync.Mutex
	keys map[string]domain.OutboxMessage
	err  error
}

func (o *fakeOutbox) Create(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return domain.OutboxMessage{}, o.err
	}
	if o.keys == nil {
		o.keys = map[string]domain.OutboxMessage{}
	}
	if _, ok := o.keys[msg.Key]; ok {
		return domain.OutboxMessage{}, repository.ErrOutboxKeyExists
	}
	o.keys[msg.Key] = msg
	return msg, nil
}

type fakeGateway struct {
	secret  string
	orders  int
	refunds []string
	err     error

	notes    map[string]map[string]string
	amounts  map[string]int64
	captured map[string]string // payment id -> order id
}

// pay records a captured payment against orderID and returns the signature
// the checkout would post back.
func (g *fakeGateway) pay(orderID, paymentID string) string {
	if g.captured == nil {
		g.captured = map[string]string{}
	}
	g.captured[paymentID] = orderID
	return payment.Signature(g.secret, orderID, paymentID)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]string) (payment.Order, error) {
	if g.err != nil {
		return payment.Order{}, g.err
	}
	g.orders++
	order := payment.Order{ID: "order_" + string(rune('A'+g.orders-1)), Amount: amount, Currency: currency, Receipt: receipt}
	if g.notes == nil {
		g.notes, g.amounts = map[string]map[string]string{}, map[string]int64{}
	}
	g.notes[order.ID], g.amounts[order.ID] = notes, amount
	return order, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, amount int64) (payment.Refund, error) {
	if g.err != nil {
		return payment.Refund{}, g.err
	}
	g.refunds = append(g.refunds, paymentID)
	return payment.Refund{ID: "rfnd_1", Amount: amount, Status: "processed"}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (map[string]interface{}, error) {
	if g.err != nil {
		return nil, g.err
	}
	orderID, ok := g.captured[paymentID]
	if !ok {
		return map[string]interface{}{"id": paymentID, "status": "captured"}, nil
	}
	notes := map[string]interface{}{}
	for k, v := range g.notes[orderID] {
		notes[k] = v
	}
	return map[string]interface{}{
		"id":       paymentID,
		"order_id": orderID,
		"amount":   float64(g.amounts[orderID]),
		"status":   "captured",
		"notes":    notes,
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(g.secret, orderID, paymentID, signature)
}

var errBoom = errors.New("boom")
