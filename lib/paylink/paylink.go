// Package paylink derives payment deep links and QR codes from a trade
// number. Everything here is a pure function of its inputs so links can be
// regenerated at any time.
package paylink

import (
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// Alipay H5 deep link scheme, see
// https://myjsapi.alipay.com/alipayjsapi/util/pay/tradepay.html
const alipayScheme = "alipays://platformapi/startapp?appId=20000067&url="

// matches the original QR geometry: version 1 (21 modules) plus a 4 module
// border at 10px per module
const qrImageSize = 290

type Builder struct {
	// base URL of this API, embedded in callback links
	ApiBaseUrl string
}

// Link is the derived payment handle for one trade number.
type Link struct {
	AlipayUrl string `json:"alipayUrl"`
	QrcodeUrl string `json:"alipayQrUrl"`
}

func (b Builder) Link(tradeNo string) Link {
	return Link{
		AlipayUrl: b.AlipayUrl(tradeNo),
		QrcodeUrl: b.QrcodeUrl(tradeNo),
	}
}

// AlipayUrl returns a deep link that wakes the Alipay app and sends it to
// this API's payment callback for the given trade.
func (b Builder) AlipayUrl(tradeNo string) string {
	callback := b.ApiBaseUrl + "/schoolBus/alipay?tradeNo=" + tradeNo
	return alipayScheme + url.QueryEscape(callback)
}

// QrcodeUrl returns the API endpoint serving the QR rendering of the deep
// link, for clients that want a scannable image instead.
func (b Builder) QrcodeUrl(tradeNo string) string {
	return b.ApiBaseUrl + "/schoolBus/alipay/qrcode?tradeNo=" + tradeNo
}

// QrcodePng renders any URL as a PNG QR code with low error correction.
// Output is deterministic for a given input.
func QrcodePng(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Low, qrImageSize)
}
