package trigger

import (
	"fmt"
	"time"

	"StockAlert/internal/model"
)

const (
	reasonNotMet        = "condition not met"
	reasonCooldown      = "condition met but cooldown active"
	reasonZeroPrevPrice = "previous price is zero"
)

// ShouldTrigger decides whether alert fires for quote at now. last is the
// alert's previous trigger time and prev its most recent history record;
// either may be nil. The function performs no I/O.
func ShouldTrigger(alert model.Alert, q model.Quote, now time.Time, last *model.TriggerTime, prev *model.AlertRecord) (bool, string) {
	v, ok, reason := observedValue(alert.Kind, q, prev)
	if !ok {
		return false, reason
	}

	var cond bool
	switch alert.Op {
	case model.OpGE:
		cond = v >= alert.Value
	case model.OpLE:
		cond = v <= alert.Value
	default:
		return false, fmt.Sprintf("unsupported operator: %q", alert.Op)
	}

	if !cond {
		return false, fmt.Sprintf("%s (now %s)", reasonNotMet, model.FormatNumber(v))
	}

	if last != nil {
		nowSec := float64(now.UnixNano()) / float64(time.Second)
		elapsed := nowSec - last.Unix()
		if elapsed < float64(alert.CooldownSeconds) {
			return false, fmt.Sprintf("%s (%s %s %s, %.0fs elapsed of %ds)",
				reasonCooldown, model.FormatNumber(v), alert.Op, model.FormatNumber(alert.Value),
				elapsed, alert.CooldownSeconds)
		}
	}

	return true, describe(alert, q, v, prev)
}

// observedValue computes the scalar compared against the threshold.
func observedValue(kind model.AlertKind, q model.Quote, prev *model.AlertRecord) (float64, bool, string) {
	switch kind {
	case model.KindPriceValue:
		return q.Price, true, ""
	case model.KindPctDay:
		return q.PctDay, true, ""
	case model.KindVolume:
		return float64(q.Volume), true, ""
	case model.KindPriceValueOffsetSinceLast:
		if prev == nil {
			// Without a prior alert, use today's absolute move vs. yesterday's close.
			if q.PctDay == 0 {
				return 0, true, ""
			}
			return q.Price - q.Price/(1+q.PctDay/100), true, ""
		}
		return q.Price - prev.Price, true, ""
	case model.KindPricePercentOffsetSinceLast:
		if prev == nil {
			return q.PctDay, true, ""
		}
		if prev.Price == 0 {
			return 0, false, reasonZeroPrevPrice
		}
		return 100 * (q.Price - prev.Price) / prev.Price, true, ""
	default:
		return 0, false, fmt.Sprintf("unsupported alert kind: %q", kind)
	}
}

func describe(alert model.Alert, q model.Quote, v float64, prev *model.AlertRecord) string {
	head := alert.Condition()
	base := "vs previous close"
	if prev != nil {
		base = "since last alert at " + model.FormatNumber(prev.Price)
	}
	switch alert.Kind {
	case model.KindPriceValueOffsetSinceLast:
		return fmt.Sprintf("%s (delta %s %s, now %s)", head, model.FormatNumber(v), base, model.FormatNumber(q.Price))
	case model.KindPricePercentOffsetSinceLast:
		return fmt.Sprintf("%s (now %.2f%% %s, price %s)", head, v, base, model.FormatNumber(q.Price))
	default:
		return fmt.Sprintf("%s (now %s)", head, model.FormatNumber(v))
	}
}
