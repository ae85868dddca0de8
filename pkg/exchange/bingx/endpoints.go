package bingx

// API namespace groups. BingX splits its REST surface across three
// independently versioned base URLs.
const (
	groupSpot     = "spot"
	groupSwap     = "swap"
	groupContract = "contract"
)

// endpointGroup describes one API namespace: its base URL and version
// segment. The access rules are uniform across groups (public endpoints are
// unauthenticated, private ones carry the API key header).
type endpointGroup struct {
	BaseURL string
	Version string
}

// endpointTable maps namespace groups to their endpoint configuration. It is
// built once at protocol construction and read-only afterward.
type endpointTable map[string]endpointGroup

func newEndpointTable() endpointTable {
	return endpointTable{
		groupSpot: {
			BaseURL: "https://open-api.bingx.com/openApi/spot",
			Version: "v1",
		},
		groupSwap: {
			BaseURL: "https://open-api.bingx.com/openApi/swap",
			Version: "v2",
		},
		groupContract: {
			BaseURL: "https://open-api.bingx.com/openApi/contract",
			Version: "v1",
		},
	}
}

// timeframes maps unified timeframe tokens to BingX interval strings.
// Unmapped tokens pass through verbatim as an escape hatch for upstream codes
// added after this table was written.
var timeframes = map[string]string{
	"1m":  "1m",
	"3m":  "3m",
	"5m":  "5m",
	"15m": "15m",
	"30m": "30m",
	"1h":  "1h",
	"2h":  "2h",
	"4h":  "4h",
	"6h":  "6h",
	"12h": "12h",
	"1d":  "1D",
	"1w":  "1W",
	"1M":  "1M",
}

func intervalFor(timeframe string) string {
	if interval, ok := timeframes[timeframe]; ok {
		return interval
	}
	return timeframe
}
