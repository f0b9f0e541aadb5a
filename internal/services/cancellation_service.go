package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/events"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

type CancellationService struct {
	Trips     TripStore
	Inventory InventoryStore
	Refunds   RefundStore
	Events    events.Publisher
	Metrics   *metrics.Collector
	RequestID string
}

type CancellationPreview struct {
	ReservationID    string             `json:"reservationId"`
	TripID           int64              `json:"tripId"`
	SeatNumber       int                `json:"seatNumber"`
	Refund           domain.RefundQuote `json:"refund"`
	AlreadyCancelled bool               `json:"alreadyCancelled"`
}

type CancellationResult struct {
	Refund models.Refund `json:"refund"`
	// AlreadyCancelled is set when the stored refund of an earlier
	// cancellation is returned and nothing was credited.
	AlreadyCancelled bool `json:"alreadyCancelled"`
}

type TripCancellationResult struct {
	TripID       int64           `json:"tripId"`
	Cancelled    int             `json:"cancelled"`
	RefundTotal  int64           `json:"refundTotal"`
	Refunds      []models.Refund `json:"refunds"`
	Unreconciled []string        `json:"unreconciled,omitempty"`
}

// Preview computes the refund a cancellation at now would credit without
// changing anything. For a reservation already cancelled it returns the
// refund that was credited.
func (s CancellationService) Preview(ctx context.Context, reservationID string, now time.Time, by domain.Initiator) (CancellationPreview, error) {
	res, trip, err := s.load(ctx, reservationID, by)
	if err != nil {
		return CancellationPreview{}, err
	}
	if res.Status == models.ReservationCancelled {
		return s.previewCancelled(ctx, res, trip)
	}
	if err := checkDeparture(trip, now, by); err != nil {
		return CancellationPreview{}, err
	}
	q, err := domain.ComputeRefund(trip.DepartureAt, now, res.Price, by.Agency)
	if err != nil {
		return CancellationPreview{}, err
	}
	return CancellationPreview{ReservationID: res.ID, TripID: trip.ID, SeatNumber: res.SeatNumber, Refund: q}, nil
}

func (s CancellationService) previewCancelled(ctx context.Context, res models.SeatReservation, trip models.ScheduledTrip) (CancellationPreview, error) {
	f, err := s.Refunds.GetRefund(ctx, res.ID)
	if domain.IsNotFound(err) {
		// released without going through a refund
		return CancellationPreview{}, domain.ConflictError{Resource: "reservation", Msg: "already cancelled"}
	}
	if err != nil {
		return CancellationPreview{}, storeErr(err)
	}
	return CancellationPreview{
		ReservationID: res.ID,
		TripID:        trip.ID,
		SeatNumber:    res.SeatNumber,
		Refund: domain.RefundQuote{
			DaysUntilDeparture: domain.DaysUntil(trip.DepartureAt, f.CreatedAt),
			Percent:            f.Percent,
			Amount:             f.Amount,
			OriginalPrice:      f.OriginalPrice,
			AgencyInitiated:    f.AgencyInitiated,
		},
		AlreadyCancelled: true,
	}, nil
}

// Cancel releases the seat and credits the refund to the purchaser in one
// transaction. Cancelling again returns the first refund.
func (s CancellationService) Cancel(ctx context.Context, reservationID string, now time.Time, by domain.Initiator) (CancellationResult, error) {
	res, _, err := s.load(ctx, reservationID, by)
	if err != nil {
		return CancellationResult{}, err
	}
	refund, applied, err := s.Refunds.CancelWithRefund(ctx, res.ID, refundAt(now, by))
	if err != nil {
		return CancellationResult{}, storeErr(err)
	}
	if applied {
		s.cancelled(res, refund, now)
	}
	return CancellationResult{Refund: refund, AlreadyCancelled: !applied}, nil
}

// CancelTrip stops sales on a trip and cancels every live reservation at
// the agency rate. Reservations that cannot be refunded are reported and
// left for manual reconciliation.
func (s CancellationService) CancelTrip(ctx context.Context, tripID int64, now time.Time, by domain.Initiator) (TripCancellationResult, error) {
	if !by.Agency {
		return TripCancellationResult{}, domain.ValidationError{Field: "initiator", Msg: "only agencies cancel trips"}
	}
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return TripCancellationResult{}, storeErr(err)
	}
	if !owns(by, trip) {
		return TripCancellationResult{}, domain.NotFoundError{Resource: "trip"}
	}

	live, err := s.Refunds.CancelTrip(ctx, trip.ID)
	if err != nil {
		return TripCancellationResult{}, storeErr(err)
	}

	out := TripCancellationResult{TripID: trip.ID}
	for _, r := range live {
		refund, applied, err := s.Refunds.CancelWithRefund(ctx, r.ID, refundAt(now, by))
		if err != nil {
			utils.LogWarn(s.RequestID, "cancellation", "cancel_trip", "reservation left for reconciliation",
				zap.String("reservation_id", r.ID), zap.Error(err))
			out.Unreconciled = append(out.Unreconciled, r.ID)
			continue
		}
		if !applied {
			continue
		}
		s.cancelled(r, refund, now)
		out.Cancelled++
		out.RefundTotal += refund.Amount
		out.Refunds = append(out.Refunds, refund)
	}

	utils.LogEvent(s.RequestID, "cancellation", "cancel_trip", "trip cancelled",
		zap.Int64("trip_id", trip.ID), zap.Int("reservations", out.Cancelled), zap.Int64("refund_total", out.RefundTotal))
	publishEvent(s.Events, s.Metrics, s.RequestID, "cancellation", events.SubjectTripCancelled, events.TripCancelled{
		TripID:       trip.ID,
		Reservations: out.Cancelled,
		RefundTotal:  out.RefundTotal,
		At:           now,
	})
	return out, nil
}

func (s CancellationService) RefundBalance(ctx context.Context, phone string) (int64, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" {
		return 0, domain.ValidationError{Field: "phone", Msg: "required"}
	}
	b, err := s.Refunds.RefundBalance(ctx, phone)
	return b, storeErr(err)
}

func (s CancellationService) load(ctx context.Context, reservationID string, by domain.Initiator) (models.SeatReservation, models.ScheduledTrip, error) {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return models.SeatReservation{}, models.ScheduledTrip{}, domain.ValidationError{Field: "id", Msg: "required"}
	}
	res, err := s.Inventory.GetReservation(ctx, reservationID)
	if err != nil {
		return res, models.ScheduledTrip{}, storeErr(err)
	}
	trip, err := s.Trips.GetTrip(ctx, res.TripID)
	if err != nil {
		return res, trip, storeErr(err)
	}
	if !owns(by, trip) {
		return res, trip, domain.NotFoundError{Resource: "reservation"}
	}
	return res, trip, nil
}

func (s CancellationService) cancelled(res models.SeatReservation, f models.Refund, now time.Time) {
	s.Metrics.Cancelled(f.AgencyInitiated, f.Amount)
	utils.LogEvent(s.RequestID, "cancellation", "cancel", "reservation cancelled",
		zap.String("reservation_id", f.ReservationID), zap.Int("percent", f.Percent), zap.Int64("amount", f.Amount))
	publishEvent(s.Events, s.Metrics, s.RequestID, "cancellation", events.SubjectReservationCancelled, events.ReservationCancelled{
		ReservationID:   f.ReservationID,
		BookingGroupID:  f.BookingGroupID,
		TripID:          res.TripID,
		SeatNumber:      res.SeatNumber,
		RefundPercent:   f.Percent,
		RefundAmount:    f.Amount,
		AgencyInitiated: f.AgencyInitiated,
		At:              now,
	})
}

// refundAt runs inside the store transaction with the reservation locked.
func refundAt(now time.Time, by domain.Initiator) func(models.SeatReservation, models.ScheduledTrip) (models.Refund, error) {
	return func(res models.SeatReservation, trip models.ScheduledTrip) (models.Refund, error) {
		if err := checkDeparture(trip, now, by); err != nil {
			return models.Refund{}, err
		}
		q, err := domain.ComputeRefund(trip.DepartureAt, now, res.Price, by.Agency)
		if err != nil {
			return models.Refund{}, err
		}
		return models.Refund{
			ReservationID:   res.ID,
			BookingGroupID:  res.BookingGroupID,
			PurchaserPhone:  res.PurchaserPhone,
			Percent:         q.Percent,
			Amount:          q.Amount,
			OriginalPrice:   q.OriginalPrice,
			AgencyInitiated: q.AgencyInitiated,
			CreatedAt:       now,
		}, nil
	}
}

// checkDeparture stops customers from cancelling a trip that already left.
func checkDeparture(trip models.ScheduledTrip, now time.Time, by domain.Initiator) error {
	if !by.Agency && !trip.DepartureAt.After(now) {
		return domain.TripNotBookableError{TripID: trip.ID, Reason: "already departed"}
	}
	return nil
}

// owns scopes agency callers to their own trips. AgencyID 0 is a platform admin.
func owns(by domain.Initiator, trip models.ScheduledTrip) bool {
	return !by.Agency || by.AgencyID == 0 || by.AgencyID == trip.AgencyID
}
