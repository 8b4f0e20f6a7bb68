package schoolbus

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Route identifies one of the fixed campus bus lines. The values are the
// portal's own route ids.
type Route int

const (
	RouteNanyuanToHedi    Route = 21
	RouteHediToNanyuan    Route = 22
	RouteNanyuanToZhongda Route = 13
	RouteZhongdaToNanyuan Route = 14
)

var routeNames = map[Route]string{
	RouteNanyuanToHedi:    "南苑 -> 河堤公园",
	RouteHediToNanyuan:    "河堤公园 -> 南苑",
	RouteNanyuanToZhongda: "南苑 -> 中大南校区",
	RouteZhongdaToNanyuan: "中大南校区 -> 南苑",
}

func (r Route) String() string {
	name, ok := routeNames[r]
	if !ok {
		return "未知路线"
	}
	return name
}

// Routes lists all known bus lines in a stable order.
func Routes() []Route {
	return []Route{
		RouteNanyuanToHedi,
		RouteHediToNanyuan,
		RouteNanyuanToZhongda,
		RouteZhongdaToNanyuan,
	}
}

// RouteByName resolves a human-entered route name, tolerating partial input
// ("河堤") and small typos via string similarity.
func RouteByName(name string) (Route, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}

	for _, r := range Routes() {
		if strings.Contains(routeNames[r], name) {
			return r, true
		}
	}

	var best Route
	var bestSimilarity float64
	for _, r := range Routes() {
		similarity := matchr.JaroWinkler(name, routeNames[r], false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = r
		}
	}
	if bestSimilarity < 0.6 {
		return 0, false
	}
	return best, true
}
