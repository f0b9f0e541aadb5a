package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
	"github.com/biendoubrian23/YENDI-sub000/internal/repositories"
)

var testNow = time.Date(2026, 10, 20, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []any
}

func (p *recordingPublisher) Publish(subject string, ev any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

// fillRateOnly prices on occupancy alone so expected values stay simple.
func fillRateOnly() pricing.Config {
	cfg := pricing.DefaultConfig()
	cfg.Enabled = true
	cfg.TimeProximityEnabled = false
	cfg.DemandEnabled = false
	cfg.VelocityEnabled = false
	cfg.CompetitionEnabled = false
	return cfg
}

type fixture struct {
	store   *repositories.MemoryStore
	metrics *metrics.Collector
	events  *recordingPublisher
	pricing PriceLockService
	booking BookingService
	cancel  CancellationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	m := metrics.New()
	pub := &recordingPublisher{}
	var seq atomic.Int64
	pl := PriceLockService{Trips: store, Inventory: store, Configs: store, Locks: store, Metrics: m}
	return &fixture{
		store:   store,
		metrics: m,
		events:  pub,
		pricing: pl,
		booking: BookingService{
			Trips:    store,
			Bookings: store,
			Pricing:  pl,
			Events:   pub,
			Metrics:  m,
			NewID:    func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
		},
		cancel: CancellationService{Trips: store, Inventory: store, Refunds: store, Events: pub, Metrics: m},
	}
}

func (f *fixture) trip(t *testing.T, agencyID, basePrice int64, departure time.Time) models.ScheduledTrip {
	t.Helper()
	trip := models.ScheduledTrip{
		AgencyID:      agencyID,
		DepartureCity: "Douala",
		ArrivalCity:   "Yaounde",
		DepartureAt:   departure,
		ArrivalAt:     departure.Add(4 * time.Hour),
		BasePrice:     basePrice,
		TotalSeats:    50,
		Layout:        models.SeatLayout{Rows: 12, Left: 2, Right: 2, BackRow: 2},
	}
	id, err := f.store.CreateTrip(context.Background(), trip)
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	trip.ID = id
	trip.Status = models.TripActive
	return trip
}

func (f *fixture) config(t *testing.T, agencyID int64, cfg pricing.Config) {
	t.Helper()
	if err := f.store.SavePricingConfig(context.Background(), agencyID, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
}

func request(tripID int64, seats ...int) GroupReservationRequest {
	req := GroupReservationRequest{
		TripID:         tripID,
		PurchaserName:  "Awa Ndiaye",
		PurchaserPhone: "+237600000001",
		PaymentMethod:  "mobile_money",
	}
	for _, s := range seats {
		req.Passengers = append(req.Passengers, models.PassengerInput{SeatNumber: s, Name: fmt.Sprintf("Passenger %d", s)})
	}
	return req
}

// fill books seats from..to in one group at base price.
func (f *fixture) fill(t *testing.T, tripID int64, from, to int) GroupReservationResult {
	t.Helper()
	var seats []int
	for s := from; s <= to; s++ {
		seats = append(seats, s)
	}
	res, err := f.booking.CreateGroupReservation(context.Background(), request(tripID, seats...), testNow)
	if err != nil {
		t.Fatalf("fill seats %d-%d: %v", from, to, err)
	}
	return res
}
