package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
)

type seatKey struct {
	trip int64
	seat int
}

type lockKey struct {
	trip    int64
	subject string
}

// MemoryStore is a single-process implementation of every store. The
// mutex is its commit point: each method is one atomic transaction.
type MemoryStore struct {
	mu sync.Mutex

	nextTripID   int64
	trips        map[int64]models.ScheduledTrip
	groups       map[string]models.BookingGroup
	reservations map[string]models.SeatReservation
	live         map[seatKey]string
	refunds      map[string]models.Refund
	balances     map[string]int64
	configs      map[int64]pricing.Config
	locks        map[lockKey]models.PriceLock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:        map[int64]models.ScheduledTrip{},
		groups:       map[string]models.BookingGroup{},
		reservations: map[string]models.SeatReservation{},
		live:         map[seatKey]string{},
		refunds:      map[string]models.Refund{},
		balances:     map[string]int64{},
		configs:      map[int64]pricing.Config{},
		locks:        map[lockKey]models.PriceLock{},
	}
}

// CreateTrip stores t, assigning an id when t.ID is zero.
func (m *MemoryStore) CreateTrip(_ context.Context, t models.ScheduledTrip) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		m.nextTripID++
		t.ID = m.nextTripID
	} else if t.ID > m.nextTripID {
		m.nextTripID = t.ID
	}
	if t.Status == "" {
		t.Status = models.TripActive
	}
	m.trips[t.ID] = t
	return t.ID, nil
}

func (m *MemoryStore) GetTrip(_ context.Context, id int64) (models.ScheduledTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return t, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (m *MemoryStore) ListSiblingOccupancy(_ context.Context, trip models.ScheduledTrip) ([]models.TripOccupancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	y, mo, d := trip.DepartureAt.Date()
	out := []models.TripOccupancy{}
	for _, t := range m.trips {
		if t.ID == trip.ID || t.Status != models.TripActive {
			continue
		}
		if t.DepartureCity != trip.DepartureCity || t.ArrivalCity != trip.ArrivalCity {
			continue
		}
		ty, tmo, td := t.DepartureAt.In(trip.DepartureAt.Location()).Date()
		if ty != y || tmo != mo || td != d {
			continue
		}
		out = append(out, models.TripOccupancy{TripID: t.ID, TotalSeats: t.TotalSeats, ReservedCount: m.countLive(t.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out, nil
}

func (m *MemoryStore) UpdateTripStatus(_ context.Context, id int64, status models.TripStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.Status = status
	m.trips[id] = t
	return nil
}

func (m *MemoryStore) countLive(tripID int64) int {
	n := 0
	for k := range m.live {
		if k.trip == tripID {
			n++
		}
	}
	return n
}

// CreateGroup mirrors SQLStore.CreateGroup: all seats or none.
func (m *MemoryStore) CreateGroup(_ context.Context, g models.BookingGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trip, ok := m.trips[g.TripID]
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	if ok, reason := trip.Bookable(g.CreatedAt); !ok {
		return domain.TripNotBookableError{TripID: trip.ID, Reason: reason}
	}
	if bad := invalidSeats(trip, g.Reservations); len(bad) > 0 {
		return domain.InvalidSeatError{TripID: trip.ID, Seats: bad, TotalSeats: trip.TotalSeats}
	}

	var taken []int
	seen := map[int]bool{}
	for _, r := range g.Reservations {
		if _, held := m.live[seatKey{trip.ID, r.SeatNumber}]; held || seen[r.SeatNumber] {
			taken = append(taken, r.SeatNumber)
		}
		seen[r.SeatNumber] = true
	}
	if len(taken) > 0 {
		return domain.SeatConflictError{TripID: trip.ID, Seats: taken}
	}

	stored := g
	stored.Reservations = nil
	m.groups[g.ID] = stored
	for _, r := range g.Reservations {
		r.TripID = trip.ID
		r.Status = models.ReservationReserved
		r.BookingGroupID = g.ID
		r.PurchaserPhone = g.PurchaserPhone
		m.reservations[r.ID] = r
		m.live[seatKey{trip.ID, r.SeatNumber}] = r.ID
	}
	return nil
}

func (m *MemoryStore) GetGroup(_ context.Context, id string) (models.BookingGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return g, domain.NotFoundError{Resource: "booking group"}
	}
	g.Reservations = nil
	for _, r := range m.reservations {
		if r.BookingGroupID == id {
			g.Reservations = append(g.Reservations, r)
		}
	}
	sort.Slice(g.Reservations, func(i, j int) bool { return g.Reservations[i].SeatNumber < g.Reservations[j].SeatNumber })
	return g, nil
}

func (m *MemoryStore) ConfirmGroup(_ context.Context, groupID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[groupID]; !ok {
		return 0, domain.NotFoundError{Resource: "booking group"}
	}
	n := 0
	for id, r := range m.reservations {
		if r.BookingGroupID == groupID && r.Status == models.ReservationReserved {
			r.Status = models.ReservationConfirmed
			m.reservations[id] = r
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CancelSeat(_ context.Context, tripID int64, seat int, now time.Time) (models.ReservationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.live[seatKey{tripID, seat}]
	if !ok {
		return models.ReservationCancelled, nil
	}
	r := m.reservations[id]
	prev := r.Status
	m.cancelLocked(r, now)
	return prev, nil
}

func (m *MemoryStore) cancelLocked(r models.SeatReservation, now time.Time) {
	r.Status = models.ReservationCancelled
	t := now
	r.CancelledAt = &t
	m.reservations[r.ID] = r
	delete(m.live, seatKey{r.TripID, r.SeatNumber})
}

func (m *MemoryStore) Occupancy(_ context.Context, tripID int64) (models.Occupancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return models.Occupancy{}, domain.NotFoundError{Resource: "trip"}
	}
	occ := models.Occupancy{TripID: tripID, TotalSeats: trip.TotalSeats, SeatNumbers: []int{}}
	for k := range m.live {
		if k.trip == tripID {
			occ.SeatNumbers = append(occ.SeatNumbers, k.seat)
		}
	}
	sort.Ints(occ.SeatNumbers)
	occ.ReservedCount = len(occ.SeatNumbers)
	return occ, nil
}

// CountReservedSince walks live seats only, like the MySQL query.
func (m *MemoryStore) CountReservedSince(_ context.Context, tripID int64, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.live {
		r := m.reservations[id]
		if r.TripID == tripID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetReservation(_ context.Context, id string) (models.SeatReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return r, domain.NotFoundError{Resource: "reservation"}
	}
	return r, nil
}

func (m *MemoryStore) ListActiveByTrip(_ context.Context, tripID int64) ([]models.SeatReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeByTripLocked(tripID), nil
}

func (m *MemoryStore) activeByTripLocked(tripID int64) []models.SeatReservation {
	out := []models.SeatReservation{}
	for k, id := range m.live {
		if k.trip == tripID {
			out = append(out, m.reservations[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out
}

func (m *MemoryStore) CancelTrip(_ context.Context, tripID int64) ([]models.SeatReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, domain.NotFoundError{Resource: "trip"}
	}
	t.Status = models.TripCancelled
	m.trips[tripID] = t
	return m.activeByTripLocked(tripID), nil
}

func (m *MemoryStore) CancelWithRefund(_ context.Context, reservationID string, compute RefundFunc) (models.Refund, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	if !ok {
		return models.Refund{}, false, domain.NotFoundError{Resource: "reservation"}
	}
	if r.Status == models.ReservationCancelled {
		f, ok := m.refunds[reservationID]
		if !ok {
			return models.Refund{}, false, domain.NotFoundError{Resource: "refund"}
		}
		return f, false, nil
	}
	trip, ok := m.trips[r.TripID]
	if !ok {
		return models.Refund{}, false, domain.NotFoundError{Resource: "trip"}
	}
	f, err := compute(r, trip)
	if err != nil {
		return models.Refund{}, false, err
	}
	m.cancelLocked(r, f.CreatedAt)
	m.refunds[reservationID] = f
	m.balances[f.PurchaserPhone] += f.Amount
	return f, true, nil
}

func (m *MemoryStore) GetRefund(_ context.Context, reservationID string) (models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.refunds[reservationID]
	if !ok {
		return f, domain.NotFoundError{Resource: "refund"}
	}
	return f, nil
}

func (m *MemoryStore) RefundBalance(_ context.Context, phone string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[phone], nil
}

func (m *MemoryStore) GetPricingConfig(_ context.Context, agencyID int64) (pricing.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[agencyID]
	if !ok {
		return cfg, domain.NotFoundError{Resource: "pricing config"}
	}
	return cfg, nil
}

func (m *MemoryStore) SavePricingConfig(_ context.Context, agencyID int64, cfg pricing.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[agencyID] = cfg
	return nil
}

func (m *MemoryStore) GetLock(_ context.Context, tripID int64, subjectID string) (models.PriceLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[lockKey{tripID, subjectID}]
	if !ok {
		return l, domain.NotFoundError{Resource: "price lock"}
	}
	return l, nil
}

func (m *MemoryStore) AcquireLock(_ context.Context, lock models.PriceLock) (models.PriceLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := lockKey{lock.TripID, lock.SubjectID}
	if cur, ok := m.locks[k]; ok && cur.ActiveAt(lock.LockedAt) {
		return cur, nil
	}
	m.locks[k] = lock
	return lock, nil
}
