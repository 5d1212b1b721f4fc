package trigger

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"StockAlert/internal/model"
)

var operators = []model.Operator{model.OpGE, model.OpLE}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	return parameters
}

func TestProperty_ConditionRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("parse(render(kind, op, v)) == (kind, op, v)", prop.ForAll(
		func(ki, oi int, v float64) bool {
			kind, op := model.AlertKinds[ki], operators[oi]
			gotKind, gotOp, gotValue, err := ParseCondition(model.RenderCondition(kind, op, v))
			return err == nil && gotKind == kind && gotOp == op && gotValue == v
		},
		gen.IntRange(0, len(model.AlertKinds)-1),
		gen.IntRange(0, len(operators)-1),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

func TestProperty_ShouldTriggerIsPure(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())
	now := time.Unix(1_700_000_000, 0)

	properties.Property("identical inputs give identical outputs", prop.ForAll(
		func(ki, oi int, threshold, price, pct, prevPrice float64, ago int) bool {
			a := model.NewAlert("SPY", model.AlertKinds[ki], operators[oi], threshold, 300)
			q := model.Quote{Symbol: "SPY", Price: price, PctDay: pct, Volume: 1000}
			last := model.EpochTime(now.Add(-time.Duration(ago) * time.Second))
			prev := &model.AlertRecord{Price: prevPrice}

			ok1, r1 := ShouldTrigger(a, q, now, &last, prev)
			ok2, r2 := ShouldTrigger(a, q, now, &last, prev)
			return ok1 == ok2 && r1 == r2
		},
		gen.IntRange(0, len(model.AlertKinds)-1),
		gen.IntRange(0, len(operators)-1),
		gen.Float64Range(-100, 100),
		gen.Float64Range(1, 1000),
		gen.Float64Range(-20, 20),
		gen.Float64Range(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func TestProperty_CooldownSuppressesAnyBreach(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())
	now := time.Unix(1_700_000_000, 0)
	const cooldown = 300

	properties.Property("met condition inside cooldown never triggers", prop.ForAll(
		func(price float64, elapsed int) bool {
			a := model.NewAlert("AAPL", model.KindPriceValue, model.OpGE, 200, cooldown)
			last := model.EpochTime(now.Add(-time.Duration(elapsed) * time.Second))
			ok, reason := ShouldTrigger(a, model.Quote{Price: price}, now, &last, nil)
			return !ok && strings.Contains(reason, "cooldown")
		},
		gen.Float64Range(200, 1e7),
		gen.IntRange(0, cooldown-1),
	))

	properties.TestingRun(t)
}

func TestProperty_PercentOffsetWithoutHistoryMatchesPctDay(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())
	now := time.Unix(1_700_000_000, 0)

	properties.Property("no prior record => same decision as pct_day", prop.ForAll(
		func(oi int, threshold, pct float64) bool {
			op := operators[oi]
			q := model.Quote{Symbol: "QQQ", Price: 400, PctDay: pct}
			offset := model.NewAlert("QQQ", model.KindPricePercentOffsetSinceLast, op, threshold, 0)
			plain := model.NewAlert("QQQ", model.KindPctDay, op, threshold, 0)

			got, _ := ShouldTrigger(offset, q, now, nil, nil)
			want, _ := ShouldTrigger(plain, q, now, nil, nil)
			return got == want
		},
		gen.IntRange(0, len(operators)-1),
		gen.Float64Range(-10, 10),
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}
