package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	intdb "github.com/biendoubrian23/YENDI-sub000/internal/db"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
)

type TripsRepository struct {
	DB *sql.DB
}

func (r TripsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, agency_id, departure_city, arrival_city, intermediate_stops,
	departure_at, arrival_at, base_price, total_seats,
	layout_rows, layout_left, layout_right, layout_back_row, status`

// GetTrip loads one scheduled trip.
func (r TripsRepository) GetTrip(ctx context.Context, id int64) (models.ScheduledTrip, error) {
	return r.getTrip(ctx, r.db(), id, "")
}

// getTrip reads a trip through q. lock is appended verbatim, e.g.
// "LOCK IN SHARE MODE" inside a booking transaction.
func (r TripsRepository) getTrip(ctx context.Context, q intdb.Querier, id int64, lock string) (models.ScheduledTrip, error) {
	if id <= 0 {
		return models.ScheduledTrip{}, domain.ValidationError{Field: "tripId", Msg: "must be positive"}
	}
	row := q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM scheduled_trips WHERE id=? `+lock, id)
	trip, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ScheduledTrip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return models.ScheduledTrip{}, fmt.Errorf("get trip %d: %w", id, err)
	}
	return trip, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.ScheduledTrip, error) {
	var (
		t     models.ScheduledTrip
		stops []byte
	)
	err := row.Scan(&t.ID, &t.AgencyID, &t.DepartureCity, &t.ArrivalCity, &stops,
		&t.DepartureAt, &t.ArrivalAt, &t.BasePrice, &t.TotalSeats,
		&t.Layout.Rows, &t.Layout.Left, &t.Layout.Right, &t.Layout.BackRow, &t.Status)
	if err != nil {
		return t, err
	}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &t.IntermediateStops); err != nil {
			return t, fmt.Errorf("decode intermediate_stops: %w", err)
		}
	}
	return t, nil
}

// ListSiblingOccupancy returns the fill rate of other active trips on the
// same route leaving the same calendar day.
func (r TripsRepository) ListSiblingOccupancy(ctx context.Context, trip models.ScheduledTrip) ([]models.TripOccupancy, error) {
	dep := trip.DepartureAt
	dayStart := time.Date(dep.Year(), dep.Month(), dep.Day(), 0, 0, 0, 0, dep.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db().QueryContext(ctx, `
		SELECT t.id, t.total_seats, COUNT(s.id)
		FROM scheduled_trips t
		LEFT JOIN seat_reservations s ON s.trip_id = t.id AND s.status <> 'cancelled'
		WHERE t.departure_city = ? AND t.arrival_city = ?
		  AND t.departure_at >= ? AND t.departure_at < ?
		  AND t.id <> ? AND t.status = 'active'
		GROUP BY t.id, t.total_seats`,
		trip.DepartureCity, trip.ArrivalCity, dayStart, dayEnd, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("list sibling trips: %w", err)
	}
	defer rows.Close()

	out := []models.TripOccupancy{}
	for rows.Next() {
		var o models.TripOccupancy
		if err := rows.Scan(&o.TripID, &o.TotalSeats, &o.ReservedCount); err != nil {
			return out, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateTripStatus changes the status of a trip.
func (r TripsRepository) UpdateTripStatus(ctx context.Context, id int64, status models.TripStatus) error {
	return r.updateStatus(ctx, r.db(), id, status)
}

func (r TripsRepository) updateStatus(ctx context.Context, q intdb.Querier, id int64, status models.TripStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE scheduled_trips SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update trip status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.getTrip(ctx, q, id, ""); err != nil {
			return err
		}
	}
	return nil
}

// CreateTrip inserts a trip and returns its id. Used by seeding tools and tests.
func (r TripsRepository) CreateTrip(ctx context.Context, t models.ScheduledTrip) (int64, error) {
	var stops any
	if len(t.IntermediateStops) > 0 {
		b, err := json.Marshal(t.IntermediateStops)
		if err != nil {
			return 0, err
		}
		stops = string(b)
	}
	if t.Status == "" {
		t.Status = models.TripActive
	}
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO scheduled_trips
			(agency_id, departure_city, arrival_city, intermediate_stops, departure_at, arrival_at,
			 base_price, total_seats, layout_rows, layout_left, layout_right, layout_back_row, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.AgencyID, t.DepartureCity, t.ArrivalCity, stops, t.DepartureAt, t.ArrivalAt,
		t.BasePrice, t.TotalSeats, t.Layout.Rows, t.Layout.Left, t.Layout.Right, t.Layout.BackRow, string(t.Status))
	if err != nil {
		return 0, fmt.Errorf("insert trip: %w", err)
	}
	return res.LastInsertId()
}
