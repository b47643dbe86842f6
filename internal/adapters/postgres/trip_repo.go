package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

const uniqueViolation = "23505"

const tripColumns = `trip_id, train_type_name, start_station_name, stations_name,
	terminal_station_name, start_time, end_time, route_id`

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, trip.ID, trip.TrainTypeName, trip.StartStationName, stationsOf(trip),
		trip.TerminalStationName, trip.StartTime, trip.EndTime, trip.RouteID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: trip %s", domain.ErrAlreadyExists, trip.ID)
	}
	return err
}

func (r *TripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE trips
		SET train_type_name = $2, start_station_name = $3, stations_name = $4,
		    terminal_station_name = $5, start_time = $6, end_time = $7, route_id = $8,
		    updated_at = now()
		WHERE trip_id = $1
	`, trip.ID, trip.TrainTypeName, trip.StartStationName, stationsOf(trip),
		trip.TerminalStationName, trip.StartTime, trip.EndTime, trip.RouteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip %s", domain.ErrNotFound, trip.ID)
	}
	return nil
}

func (r *TripRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM trips WHERE trip_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+tripColumns+` FROM trips WHERE trip_id = $1`, id)
	if err != nil {
		return nil, err
	}
	trip, err := pgx.CollectOneRow(rows, scanTrip)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *TripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY trip_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTrip)
}

func (r *TripRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+tripColumns+` FROM trips WHERE route_id = $1 ORDER BY trip_id
	`, routeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTrip)
}

func scanTrip(row pgx.CollectableRow) (domain.Trip, error) {
	var t domain.Trip
	err := row.Scan(&t.ID, &t.TrainTypeName, &t.StartStationName, &t.StationsName,
		&t.TerminalStationName, &t.StartTime, &t.EndTime, &t.RouteID)
	return t, err
}

// stationsOf never returns nil; the column is NOT NULL.
func stationsOf(trip *domain.Trip) []string {
	if trip.StationsName == nil {
		return []string{}
	}
	return trip.StationsName
}
