package schoolbus

import (
	"net/http"
	"testing"

	"nanyuan-backend/lib/upstream"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

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
<div class="erwei_box">
	<p class="erwei_num">电子票号：8002</p>
	<p class="erwei_name">李四</p>
</div>
<script class="ticket_display">drawTicketQrcode(["8001", "8002"]);</script>
</body></html>`

func TestTicketData(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/campusbus_index/order/ticket.html", r.URL.Path)
		require.Equal(t, "501", r.URL.Query().Get("order_id"))
		w.Write([]byte(ticketPage))
	}))
	defer cleanup()

	page, err := client.TicketData(testContext(t), 501, testSession)
	require.NoError(t, err)

	expectedBus := BusData{
		RoadFrom:    "南苑",
		RoadTo:      "河堤公园",
		Year:        "2020年05月01日",
		Week:        "星期五",
		Time:        "08:30",
		BusId:       "粤A12345",
		TakeStation: "南苑站",
	}
	if diff := cmp.Diff(expectedBus, page.Bus); diff != "" {
		t.Fatalf("bus data mismatch (-want +got):\n%s", diff)
	}

	// the second ticket has no seat marker and must fall back to the
	// sentinel instead of failing the parse or stealing another seat
	require.Equal(t, []Ticket{
		{TicketId: "8001", Passenger: "张三", Seat: "12"},
		{TicketId: "8002", Passenger: "李四", Seat: SeatUnassigned},
	}, page.Tickets)

	require.Contains(t, page.Script, "<script")
	require.Contains(t, page.Script, "drawTicketQrcode")
}

func TestTicketDataUnclassedScript(t *testing.T) {
	// older portal revisions render the display script without the
	// ticket_display class; the first script on the page is used instead
	page := `<html><body>
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
<script>drawTicketQrcode(["8001"]);</script>
</body></html>`

	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer cleanup()

	result, err := client.TicketData(testContext(t), 501, testSession)
	require.NoError(t, err)
	require.Contains(t, result.Script, "drawTicketQrcode")
}

func TestTicketDataUnpaidOrder(t *testing.T) {
	// an unpaid order renders a page without ticket blocks; that must be a
	// distinguishable failure, never partial data
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>订单未支付</p></body></html>`))
	}))
	defer cleanup()

	_, err := client.TicketData(testContext(t), 501, testSession)
	var upstreamErr *upstream.Error
	require.ErrorAs(t, err, &upstreamErr)
}

const refundPage = `<html><body>
<div class="title_box">
	<span class="title_name title_w">张三</span>
	<span class="title_info">2020-05-01 08:30, 8001</span>
</div>
<div class="title_box">
	<span class="title_name title_w">李四</span>
	<span class="title_info">2020-05-01 08:30</span>
</div>
</body></html>`

func TestRefundableTickets(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/campusbus_index/order/refund_ticket.html", r.URL.Path)
		require.Equal(t, "501", r.URL.Query().Get("order_id"))
		w.Write([]byte(refundPage))
	}))
	defer cleanup()

	tickets, err := client.RefundableTickets(testContext(t), 501, testSession)
	require.NoError(t, err)

	// the rider without a parsable ticket id is still listed, tagged not
	// refundable
	require.Equal(t, []RefundableTicket{
		{Name: "张三", TicketId: "8001", Refundable: true},
		{Name: "李四", Refundable: false},
	}, tickets)
}

func TestReturnTicket(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/campusbus_index/order/refund_ticket.html", r.URL.Path)
		r.ParseForm()
		require.Equal(t, "501", r.PostFormValue("order_id"))
		require.Equal(t, "8001", r.PostFormValue("ticket_id"))
		w.Write([]byte(`{"code": "0000", "desc": "退票成功"}`))
	}))
	defer cleanup()

	msg, err := client.ReturnTicket(testContext(t), 501, "8001", testSession)
	require.NoError(t, err)
	require.Equal(t, "退票成功", msg)
}

func TestReturnTicketRejected(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "1001", "desc": "该车票已过退票时间"}`))
	}))
	defer cleanup()

	_, err := client.ReturnTicket(testContext(t), 501, "8001", testSession)
	var businessErr *BusinessError
	require.ErrorAs(t, err, &businessErr)
	require.Equal(t, "1001", businessErr.Code)
	require.Equal(t, "该车票已过退票时间", businessErr.Desc)
}
