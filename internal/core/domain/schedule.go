package domain

import (
	"fmt"
	"time"
)

// ComputeTime returns when the trip reaches station, assuming the train
// covers the route at its average speed from the trip's start time.
// Elapsed minutes are truncated to whole minutes.
func ComputeTime(route *Route, trip *Trip, trainType *TrainType, station string) (time.Time, error) {
	if trainType == nil || trainType.AverageSpeed <= 0 {
		return time.Time{}, fmt.Errorf("%w: average speed must be positive", ErrInvalidTrainType)
	}
	idx := route.IndexOf(station)
	if idx < 0 {
		return time.Time{}, fmt.Errorf("%w: %s on route %s", ErrNotOnRoute, station, route.ID)
	}
	if len(route.Distances) != len(route.Stations) {
		return time.Time{}, fmt.Errorf("%w: route %s has %d stations but %d distances",
			ErrNotOnRoute, route.ID, len(route.Stations), len(route.Distances))
	}

	elapsed := route.Distances[idx] - route.Distances[0]
	minutes := 60 * elapsed / trainType.AverageSpeed
	return trip.StartTime.Add(time.Duration(minutes) * time.Minute), nil
}

// IsUsable reports whether date falls on today or a later calendar day.
// Both values are compared as calendar dates in now's location.
func IsUsable(date, now time.Time) bool {
	y1, m1, d1 := date.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !a.Before(b)
}
