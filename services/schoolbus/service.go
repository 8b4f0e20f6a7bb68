// Package schoolbus ties the bus portal scraper to the rest of the app:
// it resolves users to their stored portal session, decorates orders with
// payment links and shareable ticket URLs, and redeems ticket tokens.
package schoolbus

import (
	"context"
	"fmt"

	"nanyuan-backend/lib/paylink"
	"nanyuan-backend/lib/scrapers/schoolbus"
	"nanyuan-backend/lib/tokens"
	"nanyuan-backend/services/accounts"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/schoolbus")

// AccountStore is the slice of the accounts service this service needs.
type AccountStore interface {
	Account(ctx context.Context, userId int64) (accounts.Account, error)
}

type Service struct {
	client   *schoolbus.Client
	accounts AccountStore
	issuer   tokens.Issuer
	paylink  paylink.Builder
}

func NewService(client *schoolbus.Client, accounts AccountStore, issuer tokens.Issuer, links paylink.Builder) Service {
	return Service{
		client:   client,
		accounts: accounts,
		issuer:   issuer,
		paylink:  links,
	}
}

func (s Service) session(ctx context.Context, userId int64) (string, error) {
	account, err := s.accounts.Account(ctx, userId)
	if err != nil {
		return "", err
	}
	return account.BusSession, nil
}

// Order is an order summary plus the shareable ticket URL. The URL embeds
// a signed token so the holder can fetch the ticket without the portal
// session.
type Order struct {
	schoolbus.OrderSummary
	TicketUrl string `json:"ticket_url"`
}

// WaitingRideOrders lists paid orders awaiting the ride, each with a
// ticket URL valid for the token's lifetime.
func (s Service) WaitingRideOrders(ctx context.Context, userId int64) ([]Order, error) {
	ctx, span := tracer.Start(ctx, "service:WaitingRideOrders")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return nil, err
	}
	summaries, err := s.client.WaitingRideOrders(ctx, session)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, len(summaries))
	for i, summary := range summaries {
		token, err := s.issuer.Issue(map[string]any{
			"userId":  userId,
			"orderId": summary.Id,
		}, tokens.TypeTicket, tokens.TicketTTL)
		if err != nil {
			span.SetStatus(codes.Error, "ticket token issue failed")
			span.RecordError(err)
			return nil, err
		}
		orders[i] = Order{
			OrderSummary: summary,
			TicketUrl:    fmt.Sprintf("%s/schoolBus/ticket/%s", s.paylink.ApiBaseUrl, token),
		}
	}
	return orders, nil
}

// PendingPaymentOrders lists unpaid orders. No ticket URL here, the portal
// renders no ticket until the order is paid.
func (s Service) PendingPaymentOrders(ctx context.Context, userId int64) ([]schoolbus.OrderSummary, error) {
	ctx, span := tracer.Start(ctx, "service:PendingPaymentOrders")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.client.PendingPaymentOrders(ctx, session)
}

// PayOrderPage is the payment page of one order plus the derived payment
// links for its trade number.
type PayOrderPage struct {
	schoolbus.PayOrder
	Payment paylink.Link `json:"payment"`
}

func (s Service) PayOrder(ctx context.Context, userId, orderId int64) (PayOrderPage, error) {
	ctx, span := tracer.Start(ctx, "service:PayOrder")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return PayOrderPage{}, err
	}
	order, err := s.client.PayOrder(ctx, orderId, session)
	if err != nil {
		return PayOrderPage{}, err
	}
	return PayOrderPage{
		PayOrder: order,
		Payment:  s.paylink.Link(order.TradeNo),
	}, nil
}

// AlipayQrcode renders the payment deep link for a trade number as a PNG.
func (s Service) AlipayQrcode(tradeNo string) ([]byte, error) {
	return paylink.QrcodePng(s.paylink.AlipayUrl(tradeNo))
}

// TicketFromToken redeems a ticket token: it validates the token, resolves
// the embedded user's portal session and fetches the ticket page for the
// embedded order. Token failures (tokens.ErrExpired, tokens.ErrInvalid)
// surface directly.
func (s Service) TicketFromToken(ctx context.Context, ticketToken string) (schoolbus.TicketPage, error) {
	ctx, span := tracer.Start(ctx, "service:TicketFromToken")
	defer span.End()

	claims, err := s.issuer.Validate(ticketToken, tokens.TypeTicket)
	if err != nil {
		span.SetStatus(codes.Error, "ticket token rejected")
		return schoolbus.TicketPage{}, err
	}

	// jwt numbers decode as float64
	userId, ok := claims["userId"].(float64)
	if !ok {
		return schoolbus.TicketPage{}, tokens.ErrInvalid
	}
	orderId, ok := claims["orderId"].(float64)
	if !ok {
		return schoolbus.TicketPage{}, tokens.ErrInvalid
	}

	session, err := s.session(ctx, int64(userId))
	if err != nil {
		return schoolbus.TicketPage{}, err
	}
	return s.client.TicketData(ctx, int64(orderId), session)
}

func (s Service) Schedule(ctx context.Context, userId int64, route schoolbus.Route, date string) (schoolbus.Schedule, error) {
	ctx, span := tracer.Start(ctx, "service:Schedule")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return schoolbus.Schedule{}, err
	}
	return s.client.Schedule(ctx, route, date, session)
}

func (s Service) Passengers(ctx context.Context, userId int64) ([]schoolbus.Passenger, error) {
	ctx, span := tracer.Start(ctx, "service:Passengers")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.client.Passengers(ctx, session)
}

func (s Service) CreateOrder(ctx context.Context, userId int64, req schoolbus.CreateOrderRequest) (schoolbus.OrderCreated, error) {
	ctx, span := tracer.Start(ctx, "service:CreateOrder")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return schoolbus.OrderCreated{}, err
	}
	return s.client.CreateOrder(ctx, req, session)
}

func (s Service) RefundableTickets(ctx context.Context, userId, orderId int64) ([]schoolbus.RefundableTicket, error) {
	ctx, span := tracer.Start(ctx, "service:RefundableTickets")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.client.RefundableTickets(ctx, orderId, session)
}

func (s Service) ReturnTicket(ctx context.Context, userId, orderId int64, ticketId string) (string, error) {
	ctx, span := tracer.Start(ctx, "service:ReturnTicket")
	defer span.End()

	session, err := s.session(ctx, userId)
	if err != nil {
		return "", err
	}
	return s.client.ReturnTicket(ctx, orderId, ticketId, session)
}
