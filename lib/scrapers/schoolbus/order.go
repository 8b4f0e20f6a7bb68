package schoolbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"nanyuan-backend/lib/extract"
	"nanyuan-backend/lib/upstream"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

type CreateOrderRequest struct {
	PassengerIds []int64
	// contact person id on the portal account
	ConnectId  int64
	ScheduleId int64
	Date       string
	// boarding station, one of the timeslot's take stations
	TakeStation string
}

// OrderCreated carries the identifiers the portal returns for a successful
// purchase, unmodified.
type OrderCreated struct {
	OrderId    int64  `json:"orderId"`
	TradeNo    string `json:"tradeNo"`
	OutTradeNo string `json:"outTradeNo"`
}

// CreateOrder submits a purchase. On success the order sits in pending
// payment until it is paid through Alipay. Any portal code other than the
// known success code fails with a BusinessError carrying the portal's own
// description (sold out, duplicate passenger, ...).
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, session string) (OrderCreated, error) {
	ctx, span := tracer.Start(ctx, "client:CreateOrder")
	defer span.End()

	ids := make([]string, len(req.PassengerIds))
	for i, id := range req.PassengerIds {
		ids[i] = strconv.FormatInt(id, 10)
	}

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "POST",
		Path:   "/campusbus_index/order/create_order.html",
		Form: map[string]string{
			"passenger_ids": strings.Join(ids, ","),
			"connect_id":    strconv.FormatInt(req.ConnectId, 10),
			"schedule_id":   strconv.FormatInt(req.ScheduleId, 10),
			"date":          req.Date,
			"take_station":  req.TakeStation,
			// no seat preference, grab whatever is left
			"seat_num": "",
		},
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit order form")
		return OrderCreated{}, err
	}

	var res struct {
		Code       string `json:"code"`
		Desc       string `json:"desc"`
		TradeNo    string `json:"trade_no"`
		OutTradeNo string `json:"out_trade_no"`
		OrderId    int64  `json:"order_id"`
	}
	err = json.Unmarshal(body, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order response is not json")
		return OrderCreated{}, &upstream.Error{Cause: err}
	}

	if res.Code != codeCreateOk {
		span.SetStatus(codes.Error, fmt.Sprintf("portal rejected order with code %s", res.Code))
		return OrderCreated{}, &BusinessError{Code: res.Code, Desc: res.Desc}
	}

	return OrderCreated{
		OrderId:    res.OrderId,
		TradeNo:    res.TradeNo,
		OutTradeNo: res.OutTradeNo,
	}, nil
}

// OrderSummary is one row of the portal's order list.
type OrderSummary struct {
	Id        int64  `json:"id"`
	Date      string `json:"date"`
	Week      string `json:"week"`
	StartTime string `json:"start_time"`
	Price     string `json:"price"`
	StartFrom string `json:"start_from_name"`
	StartTo   string `json:"start_to_name"`
}

const (
	orderListWaitingRide    = 0
	orderListPendingPayment = 1
)

func (c *Client) orderList(ctx context.Context, session string, listType int) ([]OrderSummary, error) {
	body, err := c.http.Do(ctx, upstream.Request{
		Method: "POST",
		Path:   "/campusbus_index/order/refresh.html",
		Form: map[string]string{
			"type": strconv.Itoa(listType),
			"page": "1",
		},
		Cookie: session,
	})
	if err != nil {
		return nil, err
	}

	var orders []OrderSummary
	err = json.Unmarshal(body, &orders)
	if err != nil {
		return nil, &upstream.Error{Cause: err}
	}
	return orders, nil
}

// WaitingRideOrders lists paid orders whose ride has not happened yet.
func (c *Client) WaitingRideOrders(ctx context.Context, session string) ([]OrderSummary, error) {
	ctx, span := tracer.Start(ctx, "client:WaitingRideOrders")
	defer span.End()
	return c.orderList(ctx, session, orderListWaitingRide)
}

// PendingPaymentOrders lists orders that still need to be paid.
func (c *Client) PendingPaymentOrders(ctx context.Context, session string) ([]OrderSummary, error) {
	ctx, span := tracer.Start(ctx, "client:PendingPaymentOrders")
	defer span.End()
	return c.orderList(ctx, session, orderListPendingPayment)
}

// OrderPassenger is a rider on an unpaid order. Name and phone always come
// from the same markup block, so they cannot drift out of alignment.
type OrderPassenger struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PayOrder is the trade metadata of an unpaid order.
type PayOrder struct {
	OrderId    int64
	Route      string
	Date       string
	Passengers []OrderPassenger
	Price      string
	TradeNo    string
}

// PayOrder scrapes the unpaid-order page for the trade metadata needed to
// hand the order off to Alipay.
func (c *Client) PayOrder(ctx context.Context, orderId int64, session string) (PayOrder, error) {
	ctx, span := tracer.Start(ctx, "client:PayOrder")
	defer span.End()

	body, err := c.http.Do(ctx, upstream.Request{
		Method: "GET",
		Path:   fmt.Sprintf("/campusbus_index/order/notpay_order/order_id/%d.html", orderId),
		Cookie: session,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch unpaid order page")
		return PayOrder{}, err
	}

	doc, err := extract.Document(string(body))
	if err != nil {
		return PayOrder{}, &upstream.Error{Cause: err}
	}

	from, err := extract.Text(doc.Selection, "span.site_from")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}
	to, err := extract.Text(doc.Selection, "span.site_to")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}
	timeGo, err := extract.Text(doc.Selection, "span.time_go")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}
	timeDay, err := extract.Text(doc.Selection, "span.time_day")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}
	price, err := extract.Text(doc.Selection, "div.ticket_price span")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}
	tradeNo, err := extract.ScriptVarString(string(body), "tradeNo")
	if err != nil {
		return PayOrder{}, scrapeError(span, err)
	}

	// each passenger block carries the rider's name and phone together
	var passengers []OrderPassenger
	var passengerErr error
	doc.Find("div.title_box").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		name, err := extract.Text(block, "span.title_name")
		if err != nil {
			passengerErr = err
			return false
		}
		phone, err := extract.Text(block, "span.title_iphone")
		if err != nil {
			passengerErr = err
			return false
		}
		passengers = append(passengers, OrderPassenger{Name: name, Phone: phone})
		return true
	})
	if passengerErr != nil {
		return PayOrder{}, scrapeError(span, passengerErr)
	}

	return PayOrder{
		OrderId:    orderId,
		Route:      fmt.Sprintf("%s -> %s", from, to),
		Date:       fmt.Sprintf("%s %s", timeGo, timeDay),
		Passengers: passengers,
		Price:      price,
		TradeNo:    tradeNo,
	}, nil
}
