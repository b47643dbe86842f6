package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// Downstream price table keys.
const (
	wirePriceComfort = "confortClass"
	wirePriceEconomy = "economyClass"
)

const wireDateLayout = "2006-01-02"

// response is the envelope every downstream service answers with.
type response struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

const statusOK = 1

type routeDTO struct {
	ID           string   `json:"id"`
	Stations     []string `json:"stations"`
	Distances    []int    `json:"distances"`
	StartStation string   `json:"startStation"`
	EndStation   string   `json:"endStation"`
}

func (r routeDTO) toDomain() *domain.Route {
	return &domain.Route{
		ID:           r.ID,
		Stations:     r.Stations,
		Distances:    r.Distances,
		StartStation: r.StartStation,
		EndStation:   r.EndStation,
	}
}

type trainTypeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EconomyClass int    `json:"economyClass"`
	ConfortClass int    `json:"confortClass"`
	AverageSpeed int    `json:"averageSpeed"`
}

func (t trainTypeDTO) toDomain() *domain.TrainType {
	return &domain.TrainType{
		ID:           t.ID,
		Name:         t.Name,
		EconomyClass: t.EconomyClass,
		ConfortClass: t.ConfortClass,
		AverageSpeed: t.AverageSpeed,
	}
}

type seatRequest struct {
	TravelDate   string `json:"travelDate"`
	TrainNumber  string `json:"trainNumber"`
	StartStation string `json:"startStation"`
	DestStation  string `json:"destStation"`
	SeatType     int    `json:"seatType"`
}

func newSeatRequest(q domain.SeatQuery) seatRequest {
	return seatRequest{
		TravelDate:   q.TravelDate.Format(wireDateLayout),
		TrainNumber:  q.TrainNumber,
		StartStation: q.StartStation,
		DestStation:  q.DestStation,
		SeatType:     int(q.SeatType),
	}
}

type tripDTO struct {
	TripID              string    `json:"tripId"`
	TrainTypeName       string    `json:"trainTypeName"`
	RouteID             string    `json:"routeId"`
	StartStationName    string    `json:"startStationName"`
	StationsName        []string  `json:"stationsName,omitempty"`
	TerminalStationName string    `json:"terminalStationName"`
	StartTime           time.Time `json:"startTime"`
	EndTime             time.Time `json:"endTime"`
}

type travelRequest struct {
	Trip          tripDTO `json:"trip"`
	StartPlace    string  `json:"startPlace"`
	EndPlace      string  `json:"endPlace"`
	DepartureTime string  `json:"departureTime"`
}

func newTravelRequest(q domain.FareQuery) travelRequest {
	t := q.Trip
	return travelRequest{
		Trip: tripDTO{
			TripID:              t.ID,
			TrainTypeName:       t.TrainTypeName,
			RouteID:             t.RouteID,
			StartStationName:    t.StartStationName,
			StationsName:        t.StationsName,
			TerminalStationName: t.TerminalStationName,
			StartTime:           t.StartTime,
			EndTime:             t.EndTime,
		},
		StartPlace:    q.StartPlace,
		EndPlace:      q.EndPlace,
		DepartureTime: q.DepartureTime.Format(wireDateLayout),
	}
}

// travelResult is the fare answer of the basic service. Prices arrive as
// numbers or numeric strings depending on the deployment.
type travelResult struct {
	Status bool                   `json:"status"`
	Prices map[string]json.Number `json:"prices"`
}

func (r travelResult) prices() (map[string]float64, error) {
	out := make(map[string]float64, 2)
	for wire, key := range map[string]string{
		wirePriceComfort: domain.PriceComfort,
		wirePriceEconomy: domain.PriceEconomy,
	} {
		n, ok := r.Prices[wire]
		if !ok {
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", wire, err)
		}
		out[key] = f
	}
	return out, nil
}

type soldTicket struct {
	TrainNumber string `json:"trainNumber"`
}
