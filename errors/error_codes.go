package errors

import "strconv"

// ERR is the numeric category of an Error.
type ERR int32

const (
	ERR_UNKNOWN                    ERR = 0
	ERR_INVALID_ARGUMENT           ERR = 1
	ERR_NOT_FOUND                  ERR = 2
	ERR_PROCESSING                 ERR = 3
	ERR_CONFIGURATION              ERR = 4
	ERR_CONTEXT_CANCELED           ERR = 5
	ERR_ERROR                      ERR = 9
	ERR_TX_NOT_FOUND               ERR = 30
	ERR_TX_INVALID                 ERR = 31
	ERR_SERVICE_UNAVAILABLE        ERR = 50
	ERR_SERVICE_ERROR              ERR = 52
	ERR_STORAGE_UNAVAILABLE        ERR = 60
	ERR_STORAGE_ERROR              ERR = 62
	ERR_NETWORK_ERROR              ERR = 70
	ERR_NETWORK_TIMEOUT            ERR = 71
	ERR_NETWORK_CONNECTION_REFUSED ERR = 72
	ERR_NETWORK_INVALID_RESPONSE   ERR = 73
	ERR_FETCH_FAILED               ERR = 80
	ERR_INVALID_PORT               ERR = 81
	ERR_CACHE_CORRUPT              ERR = 82
	ERR_GRAPH_INVARIANT            ERR = 83
	ERR_LAYOUT_DESYNC              ERR = 84
	ERR_WORKSPACE_VERSION          ERR = 85
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "NOT_FOUND",
	3:  "PROCESSING",
	4:  "CONFIGURATION",
	5:  "CONTEXT_CANCELED",
	9:  "ERROR",
	30: "TX_NOT_FOUND",
	31: "TX_INVALID",
	50: "SERVICE_UNAVAILABLE",
	52: "SERVICE_ERROR",
	60: "STORAGE_UNAVAILABLE",
	62: "STORAGE_ERROR",
	70: "NETWORK_ERROR",
	71: "NETWORK_TIMEOUT",
	72: "NETWORK_CONNECTION_REFUSED",
	73: "NETWORK_INVALID_RESPONSE",
	80: "FETCH_FAILED",
	81: "INVALID_PORT",
	82: "CACHE_CORRUPT",
	83: "GRAPH_INVARIANT",
	84: "LAYOUT_DESYNC",
	85: "WORKSPACE_VERSION",
}

func (x ERR) Enum() *ERR {
	p := new(ERR)
	*p = x

	return p
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}
