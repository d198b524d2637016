package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request/state layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownRig    = "E_UNKNOWN_RIG"
	ErrUnknownTarget = "E_UNKNOWN_TARGET"
	ErrNoAccess      = "E_NO_ACCESS"
	ErrNoCapacity    = "E_NO_CAPACITY"
	ErrNoFunds       = "E_NO_FUNDS"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrBusy          = "E_BUSY"
	ErrStale         = "E_STALE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrUnknownRig:      {},
	ErrUnknownTarget:   {},
	ErrNoAccess:        {},
	ErrNoCapacity:      {},
	ErrNoFunds:         {},
	ErrRateLimit:       {},
	ErrBusy:            {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
