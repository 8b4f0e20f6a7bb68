package schoolbus

import (
	"context"
	"net/url"
	"strconv"

	"nanyuan-backend/lib/extract"
	"nanyuan-backend/lib/upstream"

	"go.opentelemetry.io/otel/codes"
)

// Timeslot is one departure on a given day.
type Timeslot struct {
	ScheduleId int64  `json:"schedule_id"`
	StartTime  string `json:"start_time"`
	Price      string `json:"price"`
	// remaining seats
	Surplus      int      `json:"surplus"`
	TakeStations []string `json:"take_station"`
}

// Schedule is the timetable for one route on one date.
type Schedule struct {
	Route     Route
	Date      string
	Timeslots []Timeslot
}

// Schedule fetches the timetable for a route and date. The date must be
// inside the presale window; outside it the portal renders an error page
// without the schedule blob, which surfaces as an upstream error.
func (c *Client) Schedule(ctx context.Context, route Route, date, session string) (Schedule, error) {
	ctx, span := tracer.Start(ctx, "client:Schedule")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "GET",
		Path:   "/campusbus_index/ticket/show_schedule.html",
		Query: url.Values{
			"route_id": {strconv.Itoa(int(route))},
			"time":     {date},
		},
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch schedule page")
		return Schedule{}, err
	}

	var blob struct {
		Date     string     `json:"date"`
		Schedule []Timeslot `json:"schedule"`
	}
	err = extract.ScriptVarJSON(string(body), "msg", &blob)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schedule blob missing, date is likely outside the presale window")
		return Schedule{}, &upstream.Error{Cause: err}
	}

	return Schedule{
		Route:     route,
		Date:      date,
		Timeslots: blob.Schedule,
	}, nil
}

// Passenger is a rider registered on the portal account behind the session.
type Passenger struct {
	Id    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Passengers lists the riders registered for the session's account. Orders
// reference them by id.
func (c *Client) Passengers(ctx context.Context, session string) ([]Passenger, error) {
	ctx, span := tracer.Start(ctx, "client:Passengers")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "GET",
		Path:   "/campusbus_index/my/passenger_puls.html",
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch passenger page")
		return nil, err
	}

	var passengers []Passenger
	err = extract.ScriptVarJSON(string(body), "passenger", &passengers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "passenger blob missing")
		return nil, &upstream.Error{Cause: err}
	}

	return passengers, nil
}
