package service

import (
	"fmt"

	"forest_monitor/internal/models"
)

// Fire risk cut points. Each bucket includes its lower bound.
const (
	riskLowFrom    = 0.2
	riskMediumFrom = 0.5
	riskHighFrom   = 0.7
)

// Evaluator applies the threshold table. It holds no mutable state.
type Evaluator struct {
	rules map[models.Channel]models.ThresholdRule
	order []models.ThresholdRule
}

// NewEvaluator builds an evaluator; nil rules selects models.DefaultThresholds.
// Rules for the fire probability are ignored: it contributes through risk only.
func NewEvaluator(rules []models.ThresholdRule) *Evaluator {
	if rules == nil {
		rules = models.DefaultThresholds
	}
	e := &Evaluator{
		rules: make(map[models.Channel]models.ThresholdRule, len(rules)),
		order: make([]models.ThresholdRule, 0, len(rules)),
	}
	for _, r := range rules {
		if r.Channel == models.ChannelFireProbability {
			continue
		}
		if _, dup := e.rules[r.Channel]; dup {
			continue
		}
		e.rules[r.Channel] = r
		e.order = append(e.order, r)
	}
	return e
}

// Rules returns the threshold table in display order.
func (e *Evaluator) Rules() []models.ThresholdRule {
	out := make([]models.ThresholdRule, len(e.order))
	copy(out, e.order)
	return out
}

// CheckThreshold reports whether value breaches the rule for ch.
// Channels without a rule never breach.
func (e *Evaluator) CheckThreshold(ch models.Channel, value float64) (bool, string) {
	rule, ok := e.rules[ch]
	if !ok {
		return false, ""
	}
	switch rule.Kind {
	case models.ThresholdUpper:
		if value > rule.Limit {
			return true, fmt.Sprintf("High: > %g%s", rule.Limit, rule.Unit)
		}
	case models.ThresholdLower:
		if value < rule.Limit {
			return true, fmt.Sprintf("Low: < %g%s", rule.Limit, rule.Unit)
		}
	}
	return false, ""
}

// Warnings lists every channel of st currently breaching its rule.
func (e *Evaluator) Warnings(st models.LatestState) []models.Warning {
	out := make([]models.Warning, 0, len(e.order))
	for _, rule := range e.order {
		v, ok := st.Value(rule.Channel)
		if !ok {
			continue
		}
		if breached, msg := e.CheckThreshold(rule.Channel, v); breached {
			out = append(out, models.Warning{Channel: rule.Channel, Value: v, Message: msg})
		}
	}
	return out
}

// AggregateWarningCount counts breaching channels, plus one when the camera
// is connected and the fire probability is above the low-risk cut point.
func (e *Evaluator) AggregateWarningCount(st models.LatestState) int {
	n := len(e.Warnings(st))
	if p, known := st.Fire.Probability.Value(); known && p > riskLowFrom {
		n++
	}
	return n
}

// ClassifyRisk buckets a fire probability.
func ClassifyRisk(p models.FireProbability) models.RiskLevel {
	v, known := p.Value()
	switch {
	case !known:
		return models.RiskUnknown
	case v < riskLowFrom:
		return models.RiskSafe
	case v < riskMediumFrom:
		return models.RiskLow
	case v < riskHighFrom:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
