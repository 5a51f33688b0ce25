package notification

import (
	"strconv"
	"strings"
	"time"
)

const (
	PrefixOutcome             = "rp"
	PrefixTomorrowPayment     = "rp_tp"
	PrefixTomorrowNoReceipts  = "rp_tpnr"
	PrefixTomorrowLimitExceed = "rp_tple"
	PrefixNoReceiptsToProceed = "rp_nrtp"
)

// Key is the idempotency key of a message. Together with the message type it
// identifies one logical notification.
type Key struct {
	Prefix string
	Parts  []string
}

func (k Key) String() string {
	return strings.Join(append([]string{k.Prefix}, k.Parts...), "_")
}

// OutcomeKey is unique per attempt, try and outcome. tryCount is the value
// after the try was counted.
func OutcomeKey(attemptID string, tryCount int, succeeded bool) Key {
	return Key{
		Prefix: PrefixOutcome,
		Parts:  []string{attemptID, strconv.Itoa(tryCount), strconv.FormatBool(succeeded)},
	}
}

// UpcomingKey identifies the due tomorrow reminder of a context. Without an
// attempt the reminder is unique per day.
func UpcomingKey(contextID, attemptID string, day time.Time) Key {
	trigger := attemptID
	if trigger == "" {
		trigger = day.Format(time.DateOnly)
	}
	return Key{Prefix: PrefixTomorrowPayment, Parts: []string{contextID, trigger}}
}

func DailyKey(prefix, contextID string, day time.Time) Key {
	return Key{Prefix: prefix, Parts: []string{contextID, day.Format(time.DateOnly)}}
}
