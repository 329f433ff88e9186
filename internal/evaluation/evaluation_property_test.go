package evaluation

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trade-review/internal/models"
)

type tradeInput struct {
	Sell      bool
	Entry     float64
	Exit      float64
	Stop      float64
	Target    float64
	HasExit   bool
	HasStop   bool
	HasTarget bool
	HasNotes  bool
}

func (in tradeInput) trade() models.Trade {
	t := newTrade(models.SideBuy, in.Entry)
	if in.Sell {
		t.Side = models.SideSell
	}
	if in.HasExit {
		t.ExitPrice = models.Float(in.Exit)
	}
	if in.HasStop {
		t.StopLoss = models.Float(in.Stop)
	}
	if in.HasTarget {
		t.TakeProfit = models.Float(in.Target)
	}
	if in.HasNotes {
		t.Notes = models.String("note")
	}
	return t
}

func tradeInputGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(tradeInput{}), map[string]gopter.Gen{
		"Sell":      gen.Bool(),
		"Entry":     gen.Float64Range(50, 150),
		"Exit":      gen.Float64Range(50, 150),
		"Stop":      gen.Float64Range(50, 150),
		"Target":    gen.Float64Range(50, 150),
		"HasExit":   gen.Bool(),
		"HasStop":   gen.Bool(),
		"HasTarget": gen.Bool(),
		"HasNotes":  gen.Bool(),
	})
}

func trendGen() gopter.Gen {
	return gen.OneConstOf(models.TrendBullish, models.TrendBearish, models.TrendNeutral)
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

func TestProperty_EvaluationInvariants(t *testing.T) {
	properties := newProperties()

	properties.Property("tiers are in range and exit quality tracks closed trades", prop.ForAll(
		func(in tradeInput, trend models.Trend) bool {
			mc := withTrendOf(bullishContext(), trend)
			eval := EvaluateTrade(in.trade(), mc)

			switch eval.EntryQuality {
			case models.QualityGood, models.QualityAcceptable, models.QualityPoor:
			default:
				return false
			}
			switch eval.ExecutionDiscipline {
			case models.DisciplineHigh, models.DisciplineMedium, models.DisciplineLow:
			default:
				return false
			}
			return (eval.ExitQuality != nil) == in.HasExit
		},
		tradeInputGen(), trendGen(),
	))

	properties.Property("risk/reward is present only with both bounds and is positive", prop.ForAll(
		func(in tradeInput) bool {
			eval := EvaluateTrade(in.trade(), bullishContext())
			if eval.RiskRewardRatio == nil {
				return !(in.HasStop && in.HasTarget) || in.Stop == in.Entry || in.Target == in.Entry
			}
			return in.HasStop && in.HasTarget && *eval.RiskRewardRatio > 0
		},
		tradeInputGen(),
	))

	properties.Property("every evaluation carries a risk remark", prop.ForAll(
		func(in tradeInput, trend models.Trend) bool {
			eval := EvaluateTrade(in.trade(), withTrendOf(bullishContext(), trend))
			return len(eval.KeyObservations) >= 1 && len(eval.KeyObservations) <= 4
		},
		tradeInputGen(), trendGen(),
	))

	properties.Property("neutral markets align every trade", prop.ForAll(
		func(in tradeInput) bool {
			return EvaluateTrade(in.trade(), withTrendOf(bullishContext(), models.TrendNeutral)).AlignedWithTrend
		},
		tradeInputGen(),
	))

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(in tradeInput, trend models.Trend) bool {
			mc := withTrendOf(bullishContext(), trend)
			return reflect.DeepEqual(EvaluateTrade(in.trade(), mc), EvaluateTrade(in.trade(), mc))
		},
		tradeInputGen(), trendGen(),
	))

	properties.TestingRun(t)
}
