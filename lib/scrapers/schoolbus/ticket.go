package schoolbus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"nanyuan-backend/lib/extract"
	"nanyuan-backend/lib/upstream"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// SeatUnassigned marks a ticket the portal has not assigned a seat to yet.
const SeatUnassigned = "未分配"

// BusData describes the departure shared by every ticket of an order.
type BusData struct {
	RoadFrom    string `json:"roadFrom"`
	RoadTo      string `json:"roadTo"`
	Year        string `json:"year"`
	Week        string `json:"week"`
	Time        string `json:"time"`
	BusId       string `json:"busId"`
	TakeStation string `json:"takeStation"`
}

// Ticket is one issued electronic ticket. Tickets only exist after the
// portal has confirmed payment.
type Ticket struct {
	TicketId  string `json:"ticketId"`
	Passenger string `json:"passenger"`
	Seat      string `json:"seat"`
}

// TicketPage is the scraped electronic-ticket page of a paid order. Script
// is the display script the portal generates into the page; clients
// rendering the ticket need it verbatim.
type TicketPage struct {
	Bus     BusData  `json:"busData"`
	Tickets []Ticket `json:"ticket"`
	Script  string   `json:"javascript"`
}

// TicketData scrapes the electronic tickets of a paid order. Fetching
// tickets for an order the portal has not seen payment for yields an error
// page without the ticket markup, which surfaces as an upstream error
// rather than partial data.
func (c *Client) TicketData(ctx context.Context, orderId int64, session string) (TicketPage, error) {
	ctx, span := tracer.Start(ctx, "client:TicketData")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "GET",
		Path:   "/campusbus_index/order/ticket.html",
		Query:  url.Values{"order_id": {strconv.FormatInt(orderId, 10)}},
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch ticket page")
		return TicketPage{}, err
	}

	doc, err := extract.Document(string(body))
	if err != nil {
		return TicketPage{}, &upstream.Error{Cause: err}
	}

	var bus BusData
	fields := []struct {
		out      *string
		selector string
	}{
		{&bus.RoadFrom, "span.road_from"},
		{&bus.RoadTo, "span.road_to"},
		{&bus.Year, "span.data_y"},
		{&bus.Week, "span.data_week"},
		{&bus.Time, "span.data_hm"},
		{&bus.BusId, "div.data_bc"},
	}
	for _, f := range fields {
		*f.out, err = extract.Text(doc.Selection, f.selector)
		if err != nil {
			return TicketPage{}, scrapeError(span, err)
		}
	}
	bus.TakeStation, err = extract.TextAfter(doc.Selection, "p.data_station", "上车点：")
	if err != nil {
		return TicketPage{}, scrapeError(span, err)
	}

	// one block per ticket: id, rider and seat live together, so a missing
	// seat on one ticket can never shift another ticket's fields
	var tickets []Ticket
	var ticketErr error
	doc.Find("div.erwei_box").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		id, err := extract.TextAfter(block, "p.erwei_num", "电子票号：")
		if err != nil {
			ticketErr = err
			return false
		}
		passenger, err := extract.Text(block, "p.erwei_name")
		if err != nil {
			ticketErr = err
			return false
		}
		ticket := Ticket{
			TicketId:  id,
			Passenger: passenger,
			Seat:      SeatUnassigned,
		}
		// seat assignment is optional, the portal leaves it out until
		// shortly before departure
		if seat, err := extract.TextAfter(block, "p.erwei_seat", "座位："); err == nil {
			ticket.Seat = seat
		}
		tickets = append(tickets, ticket)
		return true
	})
	if ticketErr != nil {
		return TicketPage{}, scrapeError(span, ticketErr)
	}
	if len(tickets) == 0 {
		return TicketPage{}, scrapeError(span, &extract.Error{What: "ticket blocks, order is likely unpaid"})
	}

	// some portal revisions render the display script without the class;
	// there it is the first script element on the page
	script, err := extract.OuterHtml(doc.Selection, "script.ticket_display")
	if err != nil {
		script, err = extract.OuterHtml(doc.Selection, "script")
	}
	if err != nil {
		return TicketPage{}, scrapeError(span, err)
	}

	return TicketPage{
		Bus:     bus,
		Tickets: tickets,
		Script:  script,
	}, nil
}

// RefundableTicket names a rider on an order together with the ticket id a
// refund must reference. Riders whose ticket id cannot be parsed are still
// listed, tagged not refundable, so callers see the full passenger set.
type RefundableTicket struct {
	Name       string `json:"name"`
	TicketId   string `json:"ticketId,omitempty"`
	Refundable bool   `json:"refundable"`
}

var ticketIdPattern = regexp.MustCompile(`, (\d+)`)

// RefundableTickets scrapes the refund page for the ticket ids of an order.
func (c *Client) RefundableTickets(ctx context.Context, orderId int64, session string) ([]RefundableTicket, error) {
	ctx, span := tracer.Start(ctx, "client:RefundableTickets")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "GET",
		Path:   "/campusbus_index/order/refund_ticket.html",
		Query:  url.Values{"order_id": {strconv.FormatInt(orderId, 10)}},
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch refund page")
		return nil, err
	}

	doc, err := extract.Document(string(body))
	if err != nil {
		return nil, &upstream.Error{Cause: err}
	}

	var tickets []RefundableTicket
	var blockErr error
	doc.Find("div.title_box").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		name, err := extract.Text(block, "span.title_name")
		if err != nil {
			blockErr = err
			return false
		}

		groups := ticketIdPattern.FindStringSubmatch(block.Text())
		if len(groups) < 2 {
			tickets = append(tickets, RefundableTicket{Name: name})
			return true
		}
		tickets = append(tickets, RefundableTicket{
			Name:       name,
			TicketId:   groups[1],
			Refundable: true,
		})
		return true
	})
	if blockErr != nil {
		return nil, scrapeError(span, blockErr)
	}

	return tickets, nil
}

// ReturnTicket posts a refund for one ticket of an order, returning the
// portal's success message. Rejections (refund window closed, already
// refunded, ...) fail with a BusinessError.
func (c *Client) ReturnTicket(ctx context.Context, orderId int64, ticketId string, session string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:ReturnTicket")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "POST",
		Path:   "/campusbus_index/order/refund_ticket.html",
		Form: map[string]string{
			"order_id":  strconv.FormatInt(orderId, 10),
			"ticket_id": ticketId,
		},
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit refund form")
		return "", err
	}

	var res struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
	}
	err = json.Unmarshal(body, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refund response is not json")
		return "", &upstream.Error{Cause: err}
	}

	if res.Code != codeRefundOk {
		span.SetStatus(codes.Error, fmt.Sprintf("portal rejected refund with code %s", res.Code))
		return "", &BusinessError{Code: res.Code, Desc: res.Desc}
	}

	return res.Desc, nil
}
