// Package badger stores trips in an embedded Badger database.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

const (
	tripPrefix  = "trip:"
	routePrefix = "route:"
)

func tripKey(id string) []byte { return []byte(tripPrefix + id) }

func routeKey(routeID, tripID string) []byte {
	return []byte(routePrefix + routeID + "\x00" + tripID)
}

// Open opens the database at path. An empty path opens an in-memory store.
func Open(path string) (*badgerdb.DB, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// TripRepo implements ports.TripRepository. Trips are stored as JSON under
// trip:<id>, with a route:<route>\x00<id> index for route lookups.
type TripRepo struct {
	db *badgerdb.DB
}

func NewTripRepo(db *badgerdb.DB) *TripRepo {
	return &TripRepo{db: db}
}

// Ping reports whether the database is still open.
func (r *TripRepo) Ping(ctx context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(tripKey(trip.ID))
		if err == nil {
			return fmt.Errorf("%w: trip %s", domain.ErrAlreadyExists, trip.ID)
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(tripKey(trip.ID), data); err != nil {
			return err
		}
		return txn.Set(routeKey(trip.RouteID, trip.ID), nil)
	})
}

func (r *TripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badgerdb.Txn) error {
		old, err := getTrip(txn, trip.ID)
		if err != nil {
			return err
		}
		if old.RouteID != trip.RouteID {
			if err := txn.Delete(routeKey(old.RouteID, old.ID)); err != nil {
				return err
			}
		}
		if err := txn.Set(tripKey(trip.ID), data); err != nil {
			return err
		}
		return txn.Set(routeKey(trip.RouteID, trip.ID), nil)
	})
}

func (r *TripRepo) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(txn *badgerdb.Txn) error {
		old, err := getTrip(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(routeKey(old.RouteID, id)); err != nil {
			return err
		}
		return txn.Delete(tripKey(id))
	})
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var trip *domain.Trip
	err := r.db.View(func(txn *badgerdb.Txn) error {
		var err error
		trip, err = getTrip(txn, id)
		return err
	})
	return trip, err
}

func (r *TripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	var trips []domain.Trip
	err := r.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(tripPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t domain.Trip
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return err
			}
			trips = append(trips, t)
		}
		return nil
	})
	return trips, err
}

func (r *TripRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Trip, error) {
	var trips []domain.Trip
	err := r.db.View(func(txn *badgerdb.Txn) error {
		prefix := []byte(routePrefix + routeID + "\x00")
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			t, err := getTrip(txn, id)
			if err != nil {
				return err
			}
			trips = append(trips, *t)
		}
		return nil
	})
	return trips, err
}

func getTrip(txn *badgerdb.Txn, id string) (*domain.Trip, error) {
	item, err := txn.Get(tripKey(id))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var t domain.Trip
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &t)
	}); err != nil {
		return nil, err
	}
	return &t, nil
}
