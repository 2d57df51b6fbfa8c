// Package memory implements domain.AtomicExecutor and domain.Repositories
// in memory for tests and local development. It supports the Atomic pattern
// with staged writes that commit only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// DataStore is the in-memory store. All access is guarded by a mutex; Atomic
// holds the write lock for the duration of the callback, so transactions are
// fully serialized.
type DataStore struct {
	mu    sync.RWMutex
	state *state
}

// NewDataStore creates a new in-memory DataStore.
func NewDataStore() *DataStore {
	return &DataStore{state: newState()}
}

// Atomic executes the callback against a transactional overlay and commits
// staged changes only if the callback succeeds.
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	tx := &txStore{
		base:   ds.state,
		staged: newState(),
	}
	tx.staged.copyCounters(ds.state)

	if err := fn(tx); err != nil {
		return err
	}

	ds.state.apply(tx.staged)
	return nil
}

func (ds *DataStore) Users() domain.UserRepository          { return &userRepository{ds: ds} }
func (ds *DataStore) Properties() domain.PropertyRepository { return &propertyRepository{ds: ds} }
func (ds *DataStore) Rooms() domain.RoomRepository          { return &roomRepository{ds: ds} }
func (ds *DataStore) Bookings() domain.BookingRepository    { return &bookingRepository{ds: ds} }
func (ds *DataStore) Payments() domain.PaymentRepository    { return &paymentRepository{ds: ds} }
func (ds *DataStore) Outbox() domain.OutboxRepository       { return &outboxRepository{ds: ds} }

// state holds committed (or staged) records. Query and insert helpers assume
// the caller holds the appropriate lock.
type state struct {
	users      map[domain.UserID]*domain.User
	properties map[domain.PropertyID]*domain.Property
	rooms      map[domain.RoomID]*domain.Room
	bookings   map[domain.BookingID]*domain.Booking
	payments   map[domain.PaymentID]*domain.Payment
	outbox     []*domain.OutboxEntry

	nextUserID     int64
	nextPropertyID int64
	nextRoomID     int64
	nextBookingID  int64
	nextPaymentID  int64
}

func newState() *state {
	return &state{
		users:          make(map[domain.UserID]*domain.User),
		properties:     make(map[domain.PropertyID]*domain.Property),
		rooms:          make(map[domain.RoomID]*domain.Room),
		bookings:       make(map[domain.BookingID]*domain.Booking),
		payments:       make(map[domain.PaymentID]*domain.Payment),
		nextUserID:     1,
		nextPropertyID: 1,
		nextRoomID:     1,
		nextBookingID:  1,
		nextPaymentID:  1,
	}
}

func (s *state) copyCounters(from *state) {
	s.nextUserID = from.nextUserID
	s.nextPropertyID = from.nextPropertyID
	s.nextRoomID = from.nextRoomID
	s.nextBookingID = from.nextBookingID
	s.nextPaymentID = from.nextPaymentID
}

// apply merges staged records and counters into the committed state.
func (s *state) apply(staged *state) {
	for id, u := range staged.users {
		s.users[id] = u
	}
	for id, p := range staged.properties {
		s.properties[id] = p
	}
	for id, r := range staged.rooms {
		s.rooms[id] = r
	}
	for id, b := range staged.bookings {
		s.bookings[id] = b
	}
	for id, p := range staged.payments {
		s.payments[id] = p
	}
	s.outbox = append(s.outbox, staged.outbox...)
	s.copyCounters(staged)
}

// merged builds a combined view of committed plus staged records so queries
// inside a transaction observe their own writes.
func (tx *txStore) merged() *state {
	m := newState()
	for id, u := range tx.base.users {
		m.users[id] = u
	}
	for id, p := range tx.base.properties {
		m.properties[id] = p
	}
	for id, r := range tx.base.rooms {
		m.rooms[id] = r
	}
	for id, b := range tx.base.bookings {
		m.bookings[id] = b
	}
	for id, p := range tx.base.payments {
		m.payments[id] = p
	}
	m.outbox = append(m.outbox, tx.base.outbox...)
	m.apply(tx.staged)
	return m
}

// txStore is the transactional overlay handed to Atomic callbacks.
// Writes go to staged; reads consult staged then base.
type txStore struct {
	base   *state
	staged *state
}

func (tx *txStore) Users() domain.UserRepository          { return &txUserRepository{tx: tx} }
func (tx *txStore) Properties() domain.PropertyRepository { return &txPropertyRepository{tx: tx} }
func (tx *txStore) Rooms() domain.RoomRepository          { return &txRoomRepository{tx: tx} }
func (tx *txStore) Bookings() domain.BookingRepository    { return &txBookingRepository{tx: tx} }
func (tx *txStore) Payments() domain.PaymentRepository    { return &txPaymentRepository{tx: tx} }
func (tx *txStore) Outbox() domain.OutboxRepository       { return &txOutboxRepository{tx: tx} }

// Aggregates are cloned on read so a rolled-back callback cannot leak
// mutations into committed state through a shared pointer.

func cloneBooking(b *domain.Booking) *domain.Booking {
	var end *time.Time
	if b.EndDate() != nil {
		e := *b.EndDate()
		end = &e
	}
	return domain.ReconstructBooking(
		b.ID(), b.RoomID(), b.PropertyID(), b.StudentID(),
		b.StartDate(), end, b.Status(), b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func clonePayment(p *domain.Payment) *domain.Payment {
	var ref *string
	if p.TxnRef() != nil {
		r := *p.TxnRef()
		ref = &r
	}
	var paid *time.Time
	if p.PaidAt() != nil {
		t := *p.PaidAt()
		paid = &t
	}
	return domain.ReconstructPayment(
		p.ID(), p.BookingID(), p.Amount(), p.Method(), p.Status(),
		ref, paid, p.Version(), p.CreatedAt(),
	)
}

// State queries. Callers hold the lock.

func (s *state) userByEmail(email string) *domain.User {
	for _, u := range s.users {
		if u.Email() == email {
			return u
		}
	}
	return nil
}

func (s *state) countActiveForRoom(roomID domain.RoomID) int {
	count := 0
	for _, b := range s.bookings {
		if b.RoomID() == roomID && b.Status().IsActive() {
			count++
		}
	}
	return count
}

func (s *state) listAllProperties() []*domain.Property {
	props := make([]*domain.Property, 0, len(s.properties))
	for _, p := range s.properties {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i].ID() > props[j].ID() })
	return props
}

func (s *state) listPropertiesByOwner(ownerID domain.UserID) []*domain.Property {
	var props []*domain.Property
	for _, p := range s.properties {
		if p.OwnerID() == ownerID {
			props = append(props, p)
		}
	}
	sort.Slice(props, func(i, j int) bool { return props[i].ID() > props[j].ID() })
	return props
}

func (s *state) listRoomsByProperty(propertyID domain.PropertyID) []domain.RoomOccupancy {
	var rooms []*domain.Room
	for _, r := range s.rooms {
		if r.PropertyID() == propertyID {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID() < rooms[j].ID() })

	occupancies := make([]domain.RoomOccupancy, 0, len(rooms))
	for _, r := range rooms {
		occupancies = append(occupancies, domain.RoomOccupancy{
			Room:           r,
			ActiveStudents: s.countActiveForRoom(r.ID()),
		})
	}
	return occupancies
}

func (s *state) latestPaymentByBooking(bookingID domain.BookingID) *domain.Payment {
	var latest *domain.Payment
	for _, p := range s.payments {
		if p.BookingID() != bookingID {
			continue
		}
		if latest == nil || p.ID() > latest.ID() {
			latest = p
		}
	}
	return latest
}

func (s *state) bookingSummary(b *domain.Booking, withStudent, withPayment bool) domain.BookingSummary {
	sum := domain.BookingSummary{
		BookingID: b.ID(),
		StartDate: b.StartDate(),
		EndDate:   b.EndDate(),
		Status:    b.Status(),
	}
	if room, ok := s.rooms[b.RoomID()]; ok {
		sum.RoomNo = room.RoomNo()
	}
	if prop, ok := s.properties[b.PropertyID()]; ok {
		sum.PropertyName = prop.Name()
	}
	if withStudent {
		if student, ok := s.users[b.StudentID()]; ok {
			sum.StudentName = student.Name()
		}
	}
	if withPayment {
		if latest := s.latestPaymentByBooking(b.ID()); latest != nil {
			status := latest.Status()
			sum.PaymentStatus = &status
		}
	}
	return sum
}

func (s *state) bookingsForStudent(studentID domain.UserID) []domain.BookingSummary {
	var bookings []*domain.Booking
	for _, b := range s.bookings {
		if b.StudentID() == studentID {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID() > bookings[j].ID() })

	summaries := make([]domain.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, s.bookingSummary(b, false, true))
	}
	return summaries
}

func (s *state) bookingsForOwner(ownerID domain.UserID) []domain.BookingSummary {
	var bookings []*domain.Booking
	for _, b := range s.bookings {
		if prop, ok := s.properties[b.PropertyID()]; ok && prop.OwnerID() == ownerID {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID() > bookings[j].ID() })

	summaries := make([]domain.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, s.bookingSummary(b, true, false))
	}
	return summaries
}

func (s *state) paymentRecord(p *domain.Payment, withStudent bool) domain.PaymentRecord {
	rec := domain.PaymentRecord{
		PaymentID: p.ID(),
		BookingID: p.BookingID(),
		Amount:    p.Amount(),
		Method:    p.Method(),
		Status:    p.Status(),
		TxnRef:    p.TxnRef(),
		PaidAt:    p.PaidAt(),
		CreatedAt: p.CreatedAt(),
	}
	booking, ok := s.bookings[p.BookingID()]
	if !ok {
		return rec
	}
	if room, ok := s.rooms[booking.RoomID()]; ok {
		rec.RoomNo = room.RoomNo()
	}
	if prop, ok := s.properties[booking.PropertyID()]; ok {
		rec.PropertyName = prop.Name()
	}
	if withStudent {
		if student, ok := s.users[booking.StudentID()]; ok {
			rec.StudentName = student.Name()
		}
	}
	return rec
}

func (s *state) paymentsForStudent(studentID domain.UserID) []domain.PaymentRecord {
	var payments []*domain.Payment
	for _, p := range s.payments {
		if booking, ok := s.bookings[p.BookingID()]; ok && booking.StudentID() == studentID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID() > payments[j].ID() })

	records := make([]domain.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		records = append(records, s.paymentRecord(p, false))
	}
	return records
}

func (s *state) paymentsForOwner(ownerID domain.UserID) []domain.PaymentRecord {
	var payments []*domain.Payment
	for _, p := range s.payments {
		booking, ok := s.bookings[p.BookingID()]
		if !ok {
			continue
		}
		if prop, ok := s.properties[booking.PropertyID()]; ok && prop.OwnerID() == ownerID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID() > payments[j].ID() })

	records := make([]domain.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		records = append(records, s.paymentRecord(p, true))
	}
	return records
}

// Transactional repositories

type txUserRepository struct{ tx *txStore }

func (r *txUserRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	if r.tx.merged().userByEmail(user.Email()) != nil {
		return 0, domain.ErrEmailTaken
	}
	id := domain.UserID(r.tx.staged.nextUserID)
	r.tx.staged.nextUserID++
	r.tx.staged.users[id] = domain.ReconstructUser(
		id, user.Role(), user.Name(), user.Email(), user.Phone(), user.PasswordHash(), user.CreatedAt(),
	)
	return id, nil
}

func (r *txUserRepository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	if u, ok := r.tx.staged.users[id]; ok {
		return u, nil
	}
	if u, ok := r.tx.base.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *txUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u := r.tx.merged().userByEmail(email); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type txPropertyRepository struct{ tx *txStore }

func (r *txPropertyRepository) Create(ctx context.Context, property *domain.Property) (domain.PropertyID, error) {
	id := domain.PropertyID(r.tx.staged.nextPropertyID)
	r.tx.staged.nextPropertyID++
	r.tx.staged.properties[id] = domain.ReconstructProperty(
		id, property.OwnerID(), property.Name(), property.Address(), property.City(),
		property.Pincode(), property.Description(), property.CreatedAt(),
	)
	return id, nil
}

func (r *txPropertyRepository) FindByID(ctx context.Context, id domain.PropertyID) (*domain.Property, error) {
	if p, ok := r.tx.staged.properties[id]; ok {
		return p, nil
	}
	if p, ok := r.tx.base.properties[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPropertyNotFound
}

func (r *txPropertyRepository) ListAll(ctx context.Context) ([]*domain.Property, error) {
	return r.tx.merged().listAllProperties(), nil
}

func (r *txPropertyRepository) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Property, error) {
	return r.tx.merged().listPropertiesByOwner(ownerID), nil
}

type txRoomRepository struct{ tx *txStore }

func (r *txRoomRepository) Create(ctx context.Context, room *domain.Room) (domain.RoomID, error) {
	id := domain.RoomID(r.tx.staged.nextRoomID)
	r.tx.staged.nextRoomID++
	r.tx.staged.rooms[id] = domain.ReconstructRoom(
		id, room.PropertyID(), room.RoomNo(), room.RoomType(), room.BedCapacity(),
		room.Rent(), room.Deposit(), room.Sharing(), room.CreatedAt(),
	)
	return id, nil
}

func (r *txRoomRepository) FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	if room, ok := r.tx.staged.rooms[id]; ok {
		return room, nil
	}
	if room, ok := r.tx.base.rooms[id]; ok {
		return room, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (r *txRoomRepository) ListByProperty(ctx context.Context, propertyID domain.PropertyID) ([]domain.RoomOccupancy, error) {
	return r.tx.merged().listRoomsByProperty(propertyID), nil
}

type txBookingRepository struct{ tx *txStore }

func (r *txBookingRepository) Create(ctx context.Context, booking *domain.Booking) (domain.BookingID, error) {
	id := domain.BookingID(r.tx.staged.nextBookingID)
	r.tx.staged.nextBookingID++
	stored := cloneBooking(booking)
	r.tx.staged.bookings[id] = domain.ReconstructBooking(
		id, stored.RoomID(), stored.PropertyID(), stored.StudentID(),
		stored.StartDate(), stored.EndDate(), stored.Status(), stored.Version(),
		stored.CreatedAt(), stored.UpdatedAt(),
	)
	return id, nil
}

func (r *txBookingRepository) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	if b, ok := r.tx.staged.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	if b, ok := r.tx.base.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, domain.ErrBookingNotFound
}

// Save applies optimistic locking: the stored version must be exactly one
// behind the aggregate being saved.
func (r *txBookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	current, err := r.FindByID(ctx, booking.ID())
	if err != nil {
		return err
	}
	if current.Version() != booking.Version()-1 {
		return domain.ErrOptimisticLock
	}
	r.tx.staged.bookings[booking.ID()] = cloneBooking(booking)
	return nil
}

func (r *txBookingRepository) CountActiveForRoom(ctx context.Context, roomID domain.RoomID) (int, error) {
	return r.tx.merged().countActiveForRoom(roomID), nil
}

func (r *txBookingRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.BookingSummary, error) {
	return r.tx.merged().bookingsForStudent(studentID), nil
}

func (r *txBookingRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.BookingSummary, error) {
	return r.tx.merged().bookingsForOwner(ownerID), nil
}

type txPaymentRepository struct{ tx *txStore }

func (r *txPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (domain.PaymentID, error) {
	id := domain.PaymentID(r.tx.staged.nextPaymentID)
	r.tx.staged.nextPaymentID++
	stored := clonePayment(payment)
	r.tx.staged.payments[id] = domain.ReconstructPayment(
		id, stored.BookingID(), stored.Amount(), stored.Method(), stored.Status(),
		stored.TxnRef(), stored.PaidAt(), stored.Version(), stored.CreatedAt(),
	)
	return id, nil
}

func (r *txPaymentRepository) FindLatestByBooking(ctx context.Context, bookingID domain.BookingID) (*domain.Payment, error) {
	if latest := r.tx.merged().latestPaymentByBooking(bookingID); latest != nil {
		return clonePayment(latest), nil
	}
	return nil, nil
}

func (r *txPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	var current *domain.Payment
	if p, ok := r.tx.staged.payments[payment.ID()]; ok {
		current = p
	} else if p, ok := r.tx.base.payments[payment.ID()]; ok {
		current = p
	}
	if current == nil || current.Version() != payment.Version()-1 {
		return domain.ErrOptimisticLock
	}
	r.tx.staged.payments[payment.ID()] = clonePayment(payment)
	return nil
}

func (r *txPaymentRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.PaymentRecord, error) {
	return r.tx.merged().paymentsForStudent(studentID), nil
}

func (r *txPaymentRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.PaymentRecord, error) {
	return r.tx.merged().paymentsForOwner(ownerID), nil
}

type txOutboxRepository struct{ tx *txStore }

func (r *txOutboxRepository) Append(ctx context.Context, entry *domain.OutboxEntry) error {
	r.tx.staged.outbox = append(r.tx.staged.outbox, entry)
	return nil
}

func (r *txOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	return fetchUnpublished(r.tx.merged().outbox, limit), nil
}

func (r *txOutboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	markPublished(r.tx.base.outbox, ids)
	return nil
}

// Direct (non-transactional) repositories. Reads observe committed state only.

type userRepository struct{ ds *DataStore }

func (r *userRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	if r.ds.state.userByEmail(user.Email()) != nil {
		return 0, domain.ErrEmailTaken
	}
	id := domain.UserID(r.ds.state.nextUserID)
	r.ds.state.nextUserID++
	r.ds.state.users[id] = domain.ReconstructUser(
		id, user.Role(), user.Name(), user.Email(), user.Phone(), user.PasswordHash(), user.CreatedAt(),
	)
	return id, nil
}

func (r *userRepository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if u, ok := r.ds.state.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if u := r.ds.state.userByEmail(email); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type propertyRepository struct{ ds *DataStore }

func (r *propertyRepository) Create(ctx context.Context, property *domain.Property) (domain.PropertyID, error) {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	id := domain.PropertyID(r.ds.state.nextPropertyID)
	r.ds.state.nextPropertyID++
	r.ds.state.properties[id] = domain.ReconstructProperty(
		id, property.OwnerID(), property.Name(), property.Address(), property.City(),
		property.Pincode(), property.Description(), property.CreatedAt(),
	)
	return id, nil
}

func (r *propertyRepository) FindByID(ctx context.Context, id domain.PropertyID) (*domain.Property, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if p, ok := r.ds.state.properties[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPropertyNotFound
}

func (r *propertyRepository) ListAll(ctx context.Context) ([]*domain.Property, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.listAllProperties(), nil
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Property, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.listPropertiesByOwner(ownerID), nil
}

type roomRepository struct{ ds *DataStore }

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) (domain.RoomID, error) {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	id := domain.RoomID(r.ds.state.nextRoomID)
	r.ds.state.nextRoomID++
	r.ds.state.rooms[id] = domain.ReconstructRoom(
		id, room.PropertyID(), room.RoomNo(), room.RoomType(), room.BedCapacity(),
		room.Rent(), room.Deposit(), room.Sharing(), room.CreatedAt(),
	)
	return id, nil
}

func (r *roomRepository) FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if room, ok := r.ds.state.rooms[id]; ok {
		return room, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (r *roomRepository) ListByProperty(ctx context.Context, propertyID domain.PropertyID) ([]domain.RoomOccupancy, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.listRoomsByProperty(propertyID), nil
}

type bookingRepository struct{ ds *DataStore }

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) (domain.BookingID, error) {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	id := domain.BookingID(r.ds.state.nextBookingID)
	r.ds.state.nextBookingID++
	r.ds.state.bookings[id] = domain.ReconstructBooking(
		id, booking.RoomID(), booking.PropertyID(), booking.StudentID(),
		booking.StartDate(), booking.EndDate(), booking.Status(), booking.Version(),
		booking.CreatedAt(), booking.UpdatedAt(),
	)
	return id, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if b, ok := r.ds.state.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, domain.ErrBookingNotFound
}

func (r *bookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	current, ok := r.ds.state.bookings[booking.ID()]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if current.Version() != booking.Version()-1 {
		return domain.ErrOptimisticLock
	}
	r.ds.state.bookings[booking.ID()] = cloneBooking(booking)
	return nil
}

func (r *bookingRepository) CountActiveForRoom(ctx context.Context, roomID domain.RoomID) (int, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.countActiveForRoom(roomID), nil
}

func (r *bookingRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.BookingSummary, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.bookingsForStudent(studentID), nil
}

func (r *bookingRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.BookingSummary, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.bookingsForOwner(ownerID), nil
}

type paymentRepository struct{ ds *DataStore }

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) (domain.PaymentID, error) {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	id := domain.PaymentID(r.ds.state.nextPaymentID)
	r.ds.state.nextPaymentID++
	r.ds.state.payments[id] = domain.ReconstructPayment(
		id, payment.BookingID(), payment.Amount(), payment.Method(), payment.Status(),
		payment.TxnRef(), payment.PaidAt(), payment.Version(), payment.CreatedAt(),
	)
	return id, nil
}

func (r *paymentRepository) FindLatestByBooking(ctx context.Context, bookingID domain.BookingID) (*domain.Payment, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	if latest := r.ds.state.latestPaymentByBooking(bookingID); latest != nil {
		return clonePayment(latest), nil
	}
	return nil, nil
}

func (r *paymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	current, ok := r.ds.state.payments[payment.ID()]
	if !ok {
		return domain.ErrOptimisticLock
	}
	if current.Version() != payment.Version()-1 {
		return domain.ErrOptimisticLock
	}
	r.ds.state.payments[payment.ID()] = clonePayment(payment)
	return nil
}

func (r *paymentRepository) ListForStudent(ctx context.Context, studentID domain.UserID) ([]domain.PaymentRecord, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.paymentsForStudent(studentID), nil
}

func (r *paymentRepository) ListForOwner(ctx context.Context, ownerID domain.UserID) ([]domain.PaymentRecord, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return r.ds.state.paymentsForOwner(ownerID), nil
}

type outboxRepository struct{ ds *DataStore }

func (r *outboxRepository) Append(ctx context.Context, entry *domain.OutboxEntry) error {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	r.ds.state.outbox = append(r.ds.state.outbox, entry)
	return nil
}

func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	r.ds.mu.RLock()
	defer r.ds.mu.RUnlock()
	return fetchUnpublished(r.ds.state.outbox, limit), nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	markPublished(r.ds.state.outbox, ids)
	return nil
}

func fetchUnpublished(entries []*domain.OutboxEntry, limit int) []*domain.OutboxEntry {
	var result []*domain.OutboxEntry
	for _, entry := range entries {
		if entry.PublishedAt == nil {
			result = append(result, entry)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}

func markPublished(entries []*domain.OutboxEntry, ids []types.EventID) {
	now := time.Now()
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id.String()] = true
	}
	for _, entry := range entries {
		if idSet[entry.ID.String()] {
			entry.PublishedAt = &now
		}
	}
}

// Verify interface implementations
var (
	_ domain.AtomicExecutor = (*DataStore)(nil)
	_ domain.Repositories   = (*DataStore)(nil)
	_ domain.Repositories   = (*txStore)(nil)
)
