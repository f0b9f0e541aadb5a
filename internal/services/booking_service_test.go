package services

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/events"
)

func TestCreateGroupReservationSuccess(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	ctx := context.Background()

	res, err := f.booking.CreateGroupReservation(ctx, request(trip.ID, 3, 4), testNow)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.UnitPrice != 3000 || res.TotalAmount != 6000 || len(res.TicketIDs) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(res.Seats, []int{3, 4}) {
		t.Fatalf("unexpected seats %v", res.Seats)
	}

	g, err := f.booking.GetGroup(ctx, res.BookingGroupID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if g.PurchaserPhone != "+237600000001" || len(g.Reservations) != 2 {
		t.Fatalf("unexpected stored group %+v", g)
	}
	for _, r := range g.Reservations {
		if r.Status != models.ReservationReserved || r.Price != 3000 {
			t.Fatalf("unexpected reservation %+v", r)
		}
	}

	occ, _ := f.store.Occupancy(ctx, trip.ID)
	if !reflect.DeepEqual(occ.SeatNumbers, []int{3, 4}) {
		t.Fatalf("unexpected occupancy %v", occ.SeatNumbers)
	}
	if f.events.count(events.SubjectBookingCreated) != 1 {
		t.Fatalf("expected one booking.created event")
	}
	if got := testutil.ToFloat64(f.metrics.SeatsReserved); got != 2 {
		t.Fatalf("expected 2 seats counted, got %v", got)
	}
}

func TestCreateGroupReservationConflictIsAtomic(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	ctx := context.Background()

	if _, err := f.booking.CreateGroupReservation(ctx, request(trip.ID, 5, 6), testNow); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := f.booking.CreateGroupReservation(ctx, request(trip.ID, 6, 7), testNow)
	if !domain.IsSeatConflict(err) {
		t.Fatalf("expected seat conflict, got %v", err)
	}
	if seats := domain.ConflictSeats(err); !reflect.DeepEqual(seats, []int{6}) {
		t.Fatalf("expected conflict on seat 6, got %v", seats)
	}

	occ, _ := f.store.Occupancy(ctx, trip.ID)
	if !reflect.DeepEqual(occ.SeatNumbers, []int{5, 6}) {
		t.Fatalf("seat 7 must not be held after a failed group, got %v", occ.SeatNumbers)
	}
	if got := testutil.ToFloat64(f.metrics.SeatConflicts); got != 1 {
		t.Fatalf("expected one conflict counted, got %v", got)
	}
}

func TestCreateGroupReservationTripNotBookable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	departed := f.trip(t, 1, 3000, testNow.Add(-time.Hour))
	if _, err := f.booking.CreateGroupReservation(ctx, request(departed.ID, 1), testNow); !domain.IsTripNotBookable(err) {
		t.Fatalf("departed trip: expected not bookable, got %v", err)
	}

	inactive := f.trip(t, 1, 3000, testDeparture)
	if err := f.store.UpdateTripStatus(ctx, inactive.ID, models.TripInactive); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if _, err := f.booking.CreateGroupReservation(ctx, request(inactive.ID, 1), testNow); !domain.IsTripNotBookable(err) {
		t.Fatalf("inactive trip: expected not bookable, got %v", err)
	}
}

func TestCreateGroupReservationValidation(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	ctx := context.Background()

	noPayment := request(trip.ID, 1)
	noPayment.PaymentMethod = " "
	noPhone := request(trip.ID, 1)
	noPhone.PurchaserPhone = ""

	cases := map[string]GroupReservationRequest{
		"empty passengers": request(trip.ID),
		"duplicate seats":  request(trip.ID, 2, 2),
		"no payment":       noPayment,
		"no phone":         noPhone,
	}
	for name, req := range cases {
		if _, err := f.booking.CreateGroupReservation(ctx, req, testNow); !domain.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	_, err := f.booking.CreateGroupReservation(ctx, request(trip.ID, 1, 51, 0), testNow)
	if !domain.IsInvalidSeat(err) {
		t.Fatalf("expected invalid seat, got %v", err)
	}

	occ, _ := f.store.Occupancy(ctx, trip.ID)
	if occ.ReservedCount != 0 {
		t.Fatalf("rejected requests must not hold seats, got %d", occ.ReservedCount)
	}
}

func TestCreateGroupReservationUsesSubjectLock(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	f.config(t, 1, fillRateOnly())
	ctx := context.Background()

	if _, err := f.pricing.Quote(ctx, trip.ID, "sess-1", 2, testNow); err != nil {
		t.Fatalf("quote: %v", err)
	}
	f.fill(t, trip.ID, 1, 26)

	req := request(trip.ID, 30, 31)
	req.SubjectID = "sess-1"
	res, err := f.booking.CreateGroupReservation(ctx, req, testNow.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if res.UnitPrice != 3000 || res.TotalAmount != 6000 {
		t.Fatalf("expected locked 3000 per seat, got %+v", res)
	}
}

func TestCreateGroupReservationConcurrentBuyers(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)

	const buyers = 24
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.booking.CreateGroupReservation(context.Background(), request(trip.ID, 10, 11), testNow)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case domain.IsSeatConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != buyers-1 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestConfirmGroup(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	ctx := context.Background()

	res := f.fill(t, trip.ID, 1, 2)
	g, err := f.booking.ConfirmGroup(ctx, res.BookingGroupID, testNow)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	for _, r := range g.Reservations {
		if r.Status != models.ReservationConfirmed {
			t.Fatalf("expected confirmed, got %s", r.Status)
		}
	}
	if _, err := f.booking.ConfirmGroup(ctx, res.BookingGroupID, testNow); err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if f.events.count(events.SubjectBookingConfirmed) != 1 {
		t.Fatalf("confirming twice should publish once")
	}
	if _, err := f.booking.ConfirmGroup(ctx, "missing", testNow); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
