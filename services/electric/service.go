// Package electric looks up dorm electricity balances and builds top-up
// orders. Balance reads go through a cache since the provider is slow and
// the value only changes when someone pays.
package electric

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"nanyuan-backend/lib/kv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/electric")

const balanceTTL = time.Minute * 5

const payBaseUrl = "http://nfu.zhihuianxin.net/school_paycgi_wxpay/paycgi_upw"

// Gateway is the electricity provider. Implementations talk to the
// campus payment platform; tests substitute a fake.
type Gateway interface {
	Balance(ctx context.Context, roomId int64) (float64, error)
	CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error)
}

// OrderRequest is a top-up order for one room.
type OrderRequest struct {
	RoomId int64
	Amount float64
}

// OrderResponse carries the provider's signed payment payload. PayURL
// turns it into the link the client opens.
type OrderResponse struct {
	PaymentJSON string
	Signature   string
	Cookies     []string
}

// PayURL builds the provider's payment page URL from the signed payload.
func (r OrderResponse) PayURL() string {
	query := url.Values{}
	query.Set("json", r.PaymentJSON)
	query.Set("signature", r.Signature)
	return payBaseUrl + "?" + query.Encode()
}

type Service struct {
	gateway Gateway
	cache   kv.KV
}

func NewService(gateway Gateway, cache kv.KV) Service {
	return Service{gateway: gateway, cache: cache}
}

// Balance returns the room's balance, serving from cache when a recent
// value exists. Cache failures fall through to the gateway.
func (s Service) Balance(ctx context.Context, roomId int64) (float64, error) {
	ctx, span := tracer.Start(ctx, "service:Balance")
	defer span.End()

	key := fmt.Sprintf("electric:%d", roomId)

	cached, ok, err := s.cache.Get(ctx, key)
	if err == nil && ok {
		balance, err := strconv.ParseFloat(cached, 64)
		if err == nil {
			return balance, nil
		}
	}

	balance, err := s.gateway.Balance(ctx, roomId)
	if err != nil {
		span.SetStatus(codes.Error, "balance lookup failed")
		return 0, err
	}

	err = s.cache.Set(ctx, key, strconv.FormatFloat(balance, 'f', -1, 64), balanceTTL)
	if err != nil {
		span.RecordError(err)
	}
	return balance, nil
}

// CreateOrder passes the top-up through to the provider.
func (s Service) CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	ctx, span := tracer.Start(ctx, "service:CreateOrder")
	defer span.End()

	res, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "order creation failed")
		return OrderResponse{}, err
	}
	return res, nil
}
