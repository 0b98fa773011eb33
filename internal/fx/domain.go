package fx

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Rate sources, in order of preference.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Rate is one base/quote exchange rate observation.
type Rate struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
	Source    string          `json:"source"`
}

var (
	ErrRateUnavailable = errors.New("fx: no rate available from any source")
	ErrBadCurrency     = errors.New("fx: currency is not a valid ISO 4217 code")
)
