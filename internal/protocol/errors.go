package protocol

const (
	// Payload validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Business rules.
	ErrNoFunds  = "E_NO_FUNDS"
	ErrDailyCap = "E_DAILY_CAP"
	ErrConflict = "E_CONFLICT"
	ErrFull     = "E_FULL"

	// Lookup and access.
	ErrNotFound     = "E_NOT_FOUND"
	ErrNoPermission = "E_NO_PERMISSION"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:   {},
	ErrNoFunds:      {},
	ErrDailyCap:     {},
	ErrConflict:     {},
	ErrFull:         {},
	ErrNotFound:     {},
	ErrNoPermission: {},
	ErrInternal:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// ErrorPayload is the payload of every "<domain>:error" reply.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
