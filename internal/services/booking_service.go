package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/events"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

// BookingService coordinates a group purchase: one booking group and one
// seat reservation per passenger, committed together or not at all.
type BookingService struct {
	Trips     TripStore
	Bookings  BookingStore
	Pricing   PriceLockService
	Events    events.Publisher
	Metrics   *metrics.Collector
	NewID     func() string
	RequestID string
}

type GroupReservationRequest struct {
	TripID            int64                   `json:"tripId"`
	Passengers        []models.PassengerInput `json:"passengers"`
	PurchaserName     string                  `json:"purchaserName"`
	PurchaserPhone    string                  `json:"purchaserPhone"`
	PurchaserEmail    string                  `json:"purchaserEmail"`
	PaymentMethod     string                  `json:"paymentMethod"`
	UnitPriceOverride *int64                  `json:"unitPriceOverride,omitempty"`
	SubjectID         string                  `json:"subjectId,omitempty"`
}

type GroupReservationResult struct {
	BookingGroupID string   `json:"bookingGroupId"`
	TicketIDs      []string `json:"ticketIds"`
	Seats          []int    `json:"seats"`
	UnitPrice      int64    `json:"unitPrice"`
	TotalAmount    int64    `json:"totalAmount"`
}

func (s BookingService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// CreateGroupReservation books every requested seat or none of them. A
// seat conflict is returned as is; the caller re-selects and retries.
func (s BookingService) CreateGroupReservation(ctx context.Context, req GroupReservationRequest, now time.Time) (GroupReservationResult, error) {
	if req.TripID <= 0 {
		return GroupReservationResult{}, domain.ValidationError{Field: "tripId", Msg: "must be positive"}
	}
	trip, err := s.Trips.GetTrip(ctx, req.TripID)
	if err != nil {
		return GroupReservationResult{}, storeErr(err)
	}
	if ok, reason := trip.Bookable(now); !ok {
		return GroupReservationResult{}, domain.TripNotBookableError{TripID: trip.ID, Reason: reason}
	}

	passengers, err := normalizePassengers(req)
	if err != nil {
		return GroupReservationResult{}, err
	}
	if err := validatePurchaser(req); err != nil {
		return GroupReservationResult{}, err
	}
	var bad []int
	for _, p := range passengers {
		if !trip.ValidSeat(p.SeatNumber) {
			bad = append(bad, p.SeatNumber)
		}
	}
	if len(bad) > 0 {
		return GroupReservationResult{}, domain.InvalidSeatError{TripID: trip.ID, Seats: bad, TotalSeats: trip.TotalSeats}
	}

	pricer := s.Pricing
	pricer.RequestID = s.RequestID
	unit, err := pricer.ResolveUnitPrice(ctx, trip, req.SubjectID, req.UnitPriceOverride, now)
	if err != nil {
		return GroupReservationResult{}, err
	}

	g := models.BookingGroup{
		ID:             s.newID(),
		TripID:         trip.ID,
		PurchaserName:  utils.NormalizeSpace(req.PurchaserName),
		PurchaserPhone: utils.NormalizePhone(req.PurchaserPhone),
		PurchaserEmail: strings.TrimSpace(req.PurchaserEmail),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		UnitPrice:      unit,
		TotalAmount:    unit * int64(len(passengers)),
		CreatedAt:      now,
	}
	for _, p := range passengers {
		g.Reservations = append(g.Reservations, models.SeatReservation{
			ID:             s.newID(),
			TripID:         trip.ID,
			SeatNumber:     p.SeatNumber,
			Status:         models.ReservationReserved,
			PassengerName:  p.Name,
			PassengerPhone: p.Phone,
			BookingGroupID: g.ID,
			Price:          unit,
			CreatedAt:      now,
		})
	}

	if err := s.Bookings.CreateGroup(ctx, g); err != nil {
		if domain.IsSeatConflict(err) {
			s.Metrics.SeatConflict()
			utils.LogEvent(s.RequestID, "booking", "create_group", "seat conflict",
				zap.Int64("trip_id", trip.ID), zap.Ints("seats", domain.ConflictSeats(err)))
		}
		return GroupReservationResult{}, storeErr(err)
	}

	res := GroupReservationResult{
		BookingGroupID: g.ID,
		UnitPrice:      unit,
		TotalAmount:    g.TotalAmount,
	}
	for _, r := range g.Reservations {
		res.TicketIDs = append(res.TicketIDs, r.ID)
		res.Seats = append(res.Seats, r.SeatNumber)
	}
	s.Metrics.BookingCreated(len(g.Reservations))
	utils.LogEvent(s.RequestID, "booking", "create_group", "booking group created",
		zap.String("booking_group_id", g.ID), zap.Int64("trip_id", trip.ID),
		zap.Int("seats", len(g.Reservations)), zap.Int64("total", g.TotalAmount))

	s.publish(events.SubjectBookingCreated, events.BookingCreated{
		BookingGroupID: g.ID,
		TripID:         trip.ID,
		Seats:          res.Seats,
		TicketIDs:      res.TicketIDs,
		UnitPrice:      unit,
		TotalAmount:    g.TotalAmount,
		PurchaserPhone: g.PurchaserPhone,
		CreatedAt:      now,
	})
	return res, nil
}

// ConfirmGroup moves every reserved seat of the group to confirmed once
// payment has been captured elsewhere. Confirming twice is a no-op.
func (s BookingService) ConfirmGroup(ctx context.Context, groupID string, now time.Time) (models.BookingGroup, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return models.BookingGroup{}, domain.ValidationError{Field: "id", Msg: "required"}
	}
	n, err := s.Bookings.ConfirmGroup(ctx, groupID)
	if err != nil {
		return models.BookingGroup{}, storeErr(err)
	}
	g, err := s.Bookings.GetGroup(ctx, groupID)
	if err != nil {
		return models.BookingGroup{}, storeErr(err)
	}
	if n > 0 {
		s.publish(events.SubjectBookingConfirmed, events.BookingConfirmed{BookingGroupID: groupID, Confirmed: n, At: now})
	}
	return g, nil
}

func (s BookingService) GetGroup(ctx context.Context, groupID string) (models.BookingGroup, error) {
	g, err := s.Bookings.GetGroup(ctx, strings.TrimSpace(groupID))
	return g, storeErr(err)
}

func (s BookingService) publish(subject string, ev any) {
	publishEvent(s.Events, s.Metrics, s.RequestID, "booking", subject, ev)
}

// publishEvent is best effort: the booking is already committed.
func publishEvent(pub events.Publisher, m *metrics.Collector, requestID, module, subject string, ev any) {
	if pub == nil {
		pub = events.Nop{}
	}
	err := pub.Publish(subject, ev)
	m.EventPublished(err)
	if err != nil {
		utils.LogWarn(requestID, module, "publish", "event publish failed",
			zap.String("subject", subject), zap.Error(err))
	}
}

// normalizePassengers trims input, defaults missing passenger names to
// the purchaser and rejects duplicate seats.
func normalizePassengers(req GroupReservationRequest) ([]models.PassengerInput, error) {
	if len(req.Passengers) == 0 {
		return nil, domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	seen := make(map[int]bool, len(req.Passengers))
	var dup []int
	out := make([]models.PassengerInput, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		if seen[p.SeatNumber] {
			dup = append(dup, p.SeatNumber)
			continue
		}
		seen[p.SeatNumber] = true
		name := utils.NormalizeSpace(p.Name)
		if name == "" {
			name = utils.NormalizeSpace(req.PurchaserName)
		}
		phone := utils.NormalizePhone(p.Phone)
		if phone == "" {
			phone = utils.NormalizePhone(req.PurchaserPhone)
		}
		out = append(out, models.PassengerInput{SeatNumber: p.SeatNumber, Name: name, Phone: phone})
	}
	if len(dup) > 0 {
		sort.Ints(dup)
		return nil, domain.ValidationError{Field: "passengers", Msg: "duplicate seat numbers " + seatList(dup)}
	}
	return out, nil
}

func seatList(seats []int) string {
	parts := make([]string, len(seats))
	for i, n := range seats {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func validatePurchaser(req GroupReservationRequest) error {
	switch {
	case strings.TrimSpace(req.PurchaserName) == "":
		return domain.ValidationError{Field: "purchaserName", Msg: "required"}
	case utils.NormalizePhone(req.PurchaserPhone) == "":
		return domain.ValidationError{Field: "purchaserPhone", Msg: "required"}
	case strings.TrimSpace(req.PaymentMethod) == "":
		return domain.ValidationError{Field: "paymentMethod", Msg: "required"}
	}
	return nil
}

// storeErr passes domain errors through and hides raw storage failures.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var (
		nf   domain.NotFoundError
		val  domain.ValidationError
		conf domain.ConflictError
		nb   domain.TripNotBookableError
		sc   domain.SeatConflictError
		is   domain.InvalidSeatError
		cfg  domain.ConfigurationError
		in   domain.InternalError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &val), errors.As(err, &conf),
		errors.As(err, &nb), errors.As(err, &sc), errors.As(err, &is),
		errors.As(err, &cfg), errors.As(err, &in):
		return err
	}
	return domain.InternalError{Msg: "storage failure", Err: err}
}
