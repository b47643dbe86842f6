package domain

import (
	"fmt"
	"time"
)

// Trip is a scheduled train run on a route.
type Trip struct {
	ID                  string    `json:"trip_id"`
	TrainTypeName       string    `json:"train_type_name"`
	StartStationName    string    `json:"start_station_name"`
	StationsName        []string  `json:"stations_name,omitempty"`
	TerminalStationName string    `json:"terminal_station_name"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	RouteID             string    `json:"route_id"`
}

// Route is the ordered list of stops of a line together with the cumulative
// distance of every stop from the first one.
type Route struct {
	ID           string   `json:"id"`
	Stations     []string `json:"stations"`
	Distances    []int    `json:"distances"`
	StartStation string   `json:"start_station,omitempty"`
	EndStation   string   `json:"end_station,omitempty"`
}

// IndexOf returns the position of a station on the route, or -1.
func (r *Route) IndexOf(station string) int {
	for i, s := range r.Stations {
		if s == station {
			return i
		}
	}
	return -1
}

// Serves reports whether both stations are on the route and from comes before to.
func (r *Route) Serves(from, to string) bool {
	if r == nil {
		return false
	}
	i, j := r.IndexOf(from), r.IndexOf(to)
	return i >= 0 && j >= 0 && i < j
}

// TrainType describes the rolling stock used on a trip.
type TrainType struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EconomyClass int    `json:"economy_class"`
	ConfortClass int    `json:"confort_class"`
	AverageSpeed int    `json:"average_speed"` // km/h
}

// SeatClass is the seat class code understood by the seat service.
type SeatClass int

const (
	SeatClassNone     SeatClass = 0
	SeatClassBusiness SeatClass = 1
	FirstClass        SeatClass = 2
	SecondClass       SeatClass = 3
	SeatClassHardSeat SeatClass = 4
)

func (c SeatClass) String() string {
	switch c {
	case SeatClassBusiness:
		return "business"
	case FirstClass:
		return "first"
	case SecondClass:
		return "second"
	case SeatClassHardSeat:
		return "hard_seat"
	default:
		return "none"
	}
}

// SeatQuery asks the seat service how many tickets are left.
type SeatQuery struct {
	TravelDate   time.Time `json:"travel_date"`
	TrainNumber  string    `json:"train_number"`
	StartStation string    `json:"start_station"` // station id
	DestStation  string    `json:"dest_station"`  // station id
	SeatType     SeatClass `json:"seat_type"`
}

// FareQuery asks for the prices of a trip between two stations.
type FareQuery struct {
	Trip          *Trip     `json:"trip"`
	StartPlace    string    `json:"start_place"`
	EndPlace      string    `json:"end_place"`
	DepartureTime time.Time `json:"departure_time"`
}

// Price table keys returned by the fare lookup.
const (
	PriceComfort = "comfort"
	PriceEconomy = "economy"
)

// Fare is the price table of a trip plus the train number the booking
// subsystem knows the trip by.
type Fare struct {
	TrainNumber string             `json:"train_number"`
	Prices      map[string]float64 `json:"prices"`
}

// Offer is what a rider sees for one trip matching a query.
type Offer struct {
	TripID               string    `json:"trip_id"`
	TrainTypeName        string    `json:"train_type_name"`
	StartStation         string    `json:"start_station"`
	TerminalStation      string    `json:"terminal_station"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	ConfortClass         int       `json:"confort_class"`
	EconomyClass         int       `json:"economy_class"`
	PriceForConfortClass float64   `json:"price_for_confort_class"`
	PriceForEconomyClass float64   `json:"price_for_economy_class"`
}

// Query is a rider's availability search.
type Query struct {
	StartPlace    string    `json:"start_place"`
	EndPlace      string    `json:"end_place"`
	DepartureTime time.Time `json:"departure_time"`
	RouteIDs      []string  `json:"route_ids,omitempty"`
}

// TripDetailQuery requests the offer of one specific trip.
type TripDetailQuery struct {
	TripID     string    `json:"trip_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	TravelDate time.Time `json:"travel_date"`
}

// TripDetail pairs a stored trip with its computed offer.
type TripDetail struct {
	Trip  *Trip  `json:"trip"`
	Offer *Offer `json:"trip_response"`
}

// AdminTrip is a trip joined with its route and train type.
type AdminTrip struct {
	Trip      Trip       `json:"trip"`
	Route     *Route     `json:"route,omitempty"`
	TrainType *TrainType `json:"train_type,omitempty"`
}

// Trip event types.
const (
	TripCreated = "created"
	TripUpdated = "updated"
	TripDeleted = "deleted"
)

// TripEvent is published whenever a trip is created, updated or deleted.
type TripEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	TripID     string    `json:"trip_id"`
	Trip       *Trip     `json:"trip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StationEvent is received when the station service changes a station.
type StationEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ClassPrices returns the comfort and economy prices of the fare.
// A missing price or train number makes the fare unusable.
func (f *Fare) ClassPrices() (comfort, economy float64, err error) {
	if f == nil || f.TrainNumber == "" {
		return 0, 0, fmt.Errorf("%w: fare has no train number", ErrNotFound)
	}
	comfort, ok := f.Prices[PriceComfort]
	if !ok {
		return 0, 0, fmt.Errorf("%w: no %s price", ErrNotFound, PriceComfort)
	}
	economy, ok = f.Prices[PriceEconomy]
	if !ok {
		return 0, 0, fmt.Errorf("%w: no %s price", ErrNotFound, PriceEconomy)
	}
	return comfort, economy, nil
}
