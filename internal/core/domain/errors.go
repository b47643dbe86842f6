package domain

import "errors"

var (
	// ErrNotOnRoute means a requested station is missing from the route or
	// comes after the destination. It yields "no offer", never a failure.
	ErrNotOnRoute = errors.New("station not on route")
	// ErrInvalidDate means the travel date lies before today.
	ErrInvalidDate = errors.New("travel date is in the past")
	// ErrInvalidTrainType means the train type cannot drive a schedule.
	ErrInvalidTrainType = errors.New("invalid train type")
	// ErrUpstreamUnavailable means a downstream call failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound means the entity is absent from the store or a downstream service.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a trip whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument means the caller sent data that can never be stored.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoContent marks a query that ran but produced nothing.
	ErrNoContent = errors.New("no content")
)

// IsNoOffer reports whether err is an expected filtering outcome rather
// than a failure.
func IsNoOffer(err error) bool {
	return errors.Is(err, ErrNotOnRoute) || errors.Is(err, ErrInvalidDate)
}
