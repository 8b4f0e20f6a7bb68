package schoolbus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nanyuan-backend/lib/paylink"
	"nanyuan-backend/lib/scrapers/schoolbus"
	"nanyuan-backend/lib/telemetry"
	"nanyuan-backend/lib/tokens"
	"nanyuan-backend/services/accounts"

	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	accounts map[int64]accounts.Account
}

func (f fakeAccounts) Account(ctx context.Context, userId int64) (accounts.Account, error) {
	account, ok := f.accounts[userId]
	if !ok {
		return accounts.Account{}, errors.New("unknown user")
	}
	return account, nil
}

func newTestService(t testing.TB, handler http.Handler) (Service, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/schoolbus")
	server := httptest.NewServer(handler)

	client := schoolbus.NewClient(schoolbus.ClientOptions{
		BaseUrl: server.URL,
		Retries: 1,
		Timeout: time.Second * 5,
	})
	issuer := tokens.NewIssuer(tokens.Config{
		Secrets: map[tokens.Type]string{
			tokens.TypeTicket: "ticket-secret",
			tokens.TypeAccess: "access-secret",
		},
	})
	store := fakeAccounts{accounts: map[int64]accounts.Account{
		20000001: {UserId: 20000001, Name: "张三", BusSession: "PHPSESSID=abc"},
	}}

	service := NewService(client, store, issuer, paylink.Builder{
		ApiBaseUrl: "https://api.example.com",
	})
	return service, func() {
		server.Close()
		cleanup()
	}
}

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)
	return ctx
}

func TestWaitingRideOrders(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/campusbus_index/order/refresh.html", r.URL.Path)
		// the stored session cookie must be forwarded to the portal
		require.Equal(t, "PHPSESSID=abc", r.Header.Get("cookie"))
		w.Write([]byte(`[{"id": 501, "date": "2020-05-01", "week": "星期五", "start_time": "08:30", "price": "18", "start_from_name": "南苑", "start_to_name": "河堤公园"}]`))
	}))
	defer cleanup()

	orders, err := service.WaitingRideOrders(testContext(t), 20000001)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(501), orders[0].Id)

	// the ticket URL must embed a valid ticket token for this user/order
	require.True(t, strings.HasPrefix(orders[0].TicketUrl, "https://api.example.com/schoolBus/ticket/"))
	token := strings.TrimPrefix(orders[0].TicketUrl, "https://api.example.com/schoolBus/ticket/")

	claims, err := service.issuer.Validate(token, tokens.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, float64(20000001), claims["userId"])
	require.Equal(t, float64(501), claims["orderId"])
}

func TestWaitingRideOrdersUnknownUser(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("the portal must not be hit for an unknown user")
	}))
	defer cleanup()

	_, err := service.WaitingRideOrders(testContext(t), 404)
	require.Error(t, err)
}

const payOrderPage = `<html><body>
<div class="pay_head">
	<span class="site_from">南苑</span>
	<span class="site_to">河堤公园</span>
	<span class="time_go">08:30</span>
	<span class="time_day">2020-05-01</span>
</div>
<div class="ticket_price">￥<span>18</span></div>
<div class="title_box">
	<span class="title_name title_w">张三</span>
	<span class="title_iphone">13800000000</span>
</div>
<script>
var tradeNo = 'T123';
</script>
</body></html>`

func TestPayOrder(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payOrderPage))
	}))
	defer cleanup()

	page, err := service.PayOrder(testContext(t), 20000001, 501)
	require.NoError(t, err)
	require.Equal(t, "T123", page.TradeNo)
	require.Equal(t, paylink.Link{
		AlipayUrl: "alipays://platformapi/startapp?appId=20000067&url=https%3A%2F%2Fapi.example.com%2FschoolBus%2Falipay%3FtradeNo%3DT123",
		QrcodeUrl: "https://api.example.com/schoolBus/alipay/qrcode?tradeNo=T123",
	}, page.Payment)
}

const ticketPage = `<html><body>
<div class="ticket_head">
	<span class="road_from">南苑</span>
	<span class="road_to">河堤公园</span>
	<span class="data_y">2020年05月01日</span>
	<span class="data_week">星期五</span>
	<span class="data_hm">08:30</span>
	<div class="data_bc">粤A12345</div>
	<p class="data_station">上车点：南苑站</p>
</div>
<div class="erwei_box">
	<p class="erwei_num">电子票号：8001</p>
	<p class="erwei_name">张三</p>
	<p class="erwei_seat">座位：12</p>
</div>
<script class="ticket_display">drawTicketQrcode(["8001"]);</script>
</body></html>`

func TestTicketFromToken(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/campusbus_index/order/ticket.html", r.URL.Path)
		require.Equal(t, "501", r.URL.Query().Get("order_id"))
		require.Equal(t, "PHPSESSID=abc", r.Header.Get("cookie"))
		w.Write([]byte(ticketPage))
	}))
	defer cleanup()

	token, err := service.issuer.Issue(map[string]any{
		"userId":  int64(20000001),
		"orderId": int64(501),
	}, tokens.TypeTicket, tokens.TicketTTL)
	require.NoError(t, err)

	page, err := service.TicketFromToken(testContext(t), token)
	require.NoError(t, err)
	require.Len(t, page.Tickets, 1)
	require.Equal(t, "8001", page.Tickets[0].TicketId)
}

func TestTicketFromTokenExpired(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("an expired token must never reach the portal")
	}))
	defer cleanup()

	token, err := service.issuer.Issue(map[string]any{
		"userId":  int64(20000001),
		"orderId": int64(501),
	}, tokens.TypeTicket, -time.Hour)
	require.NoError(t, err)

	_, err = service.TicketFromToken(testContext(t), token)
	require.ErrorIs(t, err, tokens.ErrExpired)
}

func TestTicketFromTokenWrongType(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("a non-ticket token must never reach the portal")
	}))
	defer cleanup()

	// an access token must not redeem a ticket even though it is signed
	token, err := service.issuer.Issue(map[string]any{
		"userId":  int64(20000001),
		"orderId": int64(501),
	}, tokens.TypeAccess, tokens.AccessTTL)
	require.NoError(t, err)

	_, err = service.TicketFromToken(testContext(t), token)
	require.ErrorIs(t, err, tokens.ErrInvalid)
}

func TestAlipayQrcode(t *testing.T) {
	service, cleanup := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer cleanup()

	png, err := service.AlipayQrcode("T123")
	require.NoError(t, err)
	require.True(t, len(png) > 0)
	// png magic
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
