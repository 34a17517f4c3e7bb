package strategy

import (
	"bytes"
	"text/template"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// Evaluate applies every applicable rule to the snapshot in table order and
// returns the alerts that fired. It has no side effects beyond logging.
func Evaluate(snap *model.IndicatorSnapshot, symbol string, rules []Rule, th Thresholds) []model.TriggeredAlert {
	var alerts []model.TriggeredAlert
	for _, r := range rules {
		if !r.Applicable(snap) {
			continue
		}
		if !r.When(snap, th) {
			continue
		}
		data := templateData{Symbol: symbol, S: snap, Th: th}
		alert := model.TriggeredAlert{
			RuleID:   r.ID,
			Severity: r.Severity,
			Title:    render(r, r.title, data),
			Message:  render(r, r.message, data),
			Symbol:   symbol,
			AsOfDate: snap.AsOf,
		}
		if r.ID.IsCrossover() {
			alert.Relationship = snap.MARelationship()
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

// Skipped lists the rules that could not be evaluated because an indicator
// they depend on is unavailable.
func Skipped(snap *model.IndicatorSnapshot, rules []Rule) []model.RuleID {
	var ids []model.RuleID
	for _, r := range rules {
		if !r.Applicable(snap) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func render(r Rule, tmpl *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.Warn("Failed to render alert template",
			logger.String("rule_id", string(r.ID)),
			logger.ErrorField(err),
		)
		return string(r.ID)
	}
	return buf.String()
}
