package analysis

import "errors"

var (
	// ErrImageRequired is returned when the request carries no image payload.
	ErrImageRequired = errors.New("image data is required")
	// ErrInvalidImage is returned when the image payload is not valid base64.
	ErrInvalidImage = errors.New("image must be base64 encoded")
	// ErrInvalidReply indicates the model answered with something that is not an analysis.
	ErrInvalidReply = errors.New("model reply is not a valid analysis")
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrModelUnavailable is surfaced when model errors are not masked by the fallback record.
	ErrModelUnavailable = errors.New("analysis model unavailable")
	// ErrStoreUnavailable is surfaced when history errors are not masked by mock data.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrInvalidDate is returned for an unparseable date bound.
	ErrInvalidDate = errors.New("invalid date")
)
