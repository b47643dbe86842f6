package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// dateTime accepts either a calendar date or an RFC 3339 timestamp.
type dateTime struct {
	time.Time
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	// A bare date is that calendar day in the server's zone, the zone the
	// travel-date check compares in.
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		d.Time = t
		return nil
	}
	return fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
}

type tripRequest struct {
	TripID              string   `json:"tripId" validate:"required,min=2"`
	TrainTypeName       string   `json:"trainTypeName" validate:"required"`
	RouteID             string   `json:"routeId" validate:"required"`
	StartStationName    string   `json:"startStationName"`
	StationsName        []string `json:"stationsName"`
	TerminalStationName string   `json:"terminalStationName"`
	StartTime           dateTime `json:"startTime"`
	EndTime             dateTime `json:"endTime"`
}

func (r tripRequest) toDomain() *domain.Trip {
	return &domain.Trip{
		ID:                  r.TripID,
		TrainTypeName:       r.TrainTypeName,
		RouteID:             r.RouteID,
		StartStationName:    r.StartStationName,
		StationsName:        r.StationsName,
		TerminalStationName: r.TerminalStationName,
		StartTime:           r.StartTime.Time,
		EndTime:             r.EndTime.Time,
	}
}

func (r tripRequest) validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.StartTime.IsZero() {
		return errors.New("startTime is required")
	}
	if !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime.Time) {
		return errors.New("endTime must not be before startTime")
	}
	return nil
}

type queryRequest struct {
	StartPlace    string   `json:"startPlace" validate:"required"`
	EndPlace      string   `json:"endPlace" validate:"required"`
	DepartureTime dateTime `json:"departureTime"`
	RouteIDs      []string `json:"routeIds" validate:"omitempty,dive,required"`
}

func (r queryRequest) toDomain() domain.Query {
	return domain.Query{
		StartPlace:    r.StartPlace,
		EndPlace:      r.EndPlace,
		DepartureTime: r.DepartureTime.Time,
		RouteIDs:      r.RouteIDs,
	}
}

func (r queryRequest) validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.DepartureTime.IsZero() {
		return errors.New("departureTime is required")
	}
	return nil
}

type tripDetailRequest struct {
	TripID     string   `json:"tripId" validate:"required"`
	From       string   `json:"from" validate:"required"`
	To         string   `json:"to" validate:"required"`
	TravelDate dateTime `json:"travelDate"`
}

func (r tripDetailRequest) toDomain() domain.TripDetailQuery {
	return domain.TripDetailQuery{
		TripID:     r.TripID,
		From:       r.From,
		To:         r.To,
		TravelDate: r.TravelDate.Time,
	}
}

func (r tripDetailRequest) validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.TravelDate.IsZero() {
		return errors.New("travelDate is required")
	}
	return nil
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
