package strategy

import (
	"math"
	"strings"
	"text/template"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// Predicate decides whether a rule fires. It is only called when every
// indicator the rule requires is available.
type Predicate func(s *model.IndicatorSnapshot, th Thresholds) bool

// Rule is one row of the rule table.
type Rule struct {
	ID       model.RuleID
	Severity model.Severity
	Requires []model.Indicator
	When     Predicate

	title   *template.Template
	message *template.Template
}

// templateData is what rule templates are rendered against.
type templateData struct {
	Symbol string
	S      *model.IndicatorSnapshot
	Th     Thresholds
}

var funcs = template.FuncMap{
	"abs": math.Abs,
	"direction": func(v float64) string {
		if v >= 0 {
			return "up"
		}
		return "down"
	},
	"upper": strings.ToUpper,
	"gap": func(s *model.IndicatorSnapshot) float64 {
		return calculator.GapPct(s.Open, s.PrevClose.Value)
	},
}

// NewRule builds a rule from its metadata and title/message templates.
// It panics on a malformed template; rules are defined at startup.
func NewRule(id model.RuleID, sev model.Severity, requires []model.Indicator, when Predicate, title, message string) Rule {
	return Rule{
		ID:       id,
		Severity: sev,
		Requires: requires,
		When:     when,
		title:    template.Must(template.New(string(id) + ".title").Funcs(funcs).Parse(title)),
		message:  template.Must(template.New(string(id) + ".message").Funcs(funcs).Parse(message)),
	}
}

// Applicable reports whether every indicator the rule needs is available.
func (r Rule) Applicable(s *model.IndicatorSnapshot) bool {
	for _, ind := range r.Requires {
		if !s.Get(ind).Valid {
			return false
		}
	}
	return true
}

var crossInputs = []model.Indicator{model.IndMA50, model.IndMA200, model.IndPrevMA50, model.IndPrevMA200}

var coreRules = []Rule{
	NewRule(model.RulePriceMovement, model.SeverityHigh,
		[]model.Indicator{model.IndPriceChangePct},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return math.Abs(s.PriceChangePct.Value) >= th.PriceChangePct
		},
		`Large Price Movement: {{direction .S.PriceChangePct.Value | upper}} {{abs .S.PriceChangePct.Value | printf "%.2f"}}%`,
		`{{.Symbol}} is {{direction .S.PriceChangePct.Value}} ${{abs .S.PriceChange.Value | printf "%.2f"}} ({{printf "%+.2f" .S.PriceChangePct.Value}}%) to ${{printf "%.2f" .S.Close}}`,
	),
	NewRule(model.RuleVolumeSpike, model.SeverityMedium,
		[]model.Indicator{model.IndAvgVolume20d},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return s.Volume >= th.VolumeSpike*s.AvgVolume20d.Value
		},
		`Unusual Volume: {{printf "%.2f" .S.VolumeRatio}}x Average`,
		`Trading volume is {{printf "%.2f" .S.VolumeRatio}}x the 20-day average ({{printf "%.0f" .S.Volume}} shares vs {{printf "%.0f" .S.AvgVolume20d.Value}})`,
	),
	NewRule(model.RuleRSIOversold, model.SeverityHigh,
		[]model.Indicator{model.IndRSI14},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return s.RSI14.Value <= th.RSIOversold
		},
		`RSI Oversold Signal: {{printf "%.2f" .S.RSI14.Value}}`,
		`RSI(14) is {{printf "%.2f" .S.RSI14.Value}} (<= {{printf "%.0f" .Th.RSIOversold}}), indicating potential buying opportunity`,
	),
	NewRule(model.RuleRSIOverbought, model.SeverityMedium,
		[]model.Indicator{model.IndRSI14},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return s.RSI14.Value >= th.RSIOverbought
		},
		`RSI Overbought Signal: {{printf "%.2f" .S.RSI14.Value}}`,
		`RSI(14) is {{printf "%.2f" .S.RSI14.Value}} (>= {{printf "%.0f" .Th.RSIOverbought}}), indicating potential selling pressure`,
	),
	NewRule(model.RuleWeek52High, model.SeverityHigh,
		[]model.Indicator{model.IndWeek52High},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return s.Close >= s.Week52High.Value*(1-th.Week52HighBand/100)
		},
		`Near 52-Week High`,
		`Price ${{printf "%.2f" .S.Close}} is within {{printf "%g" .Th.Week52HighBand}}% of the 52-week high (${{printf "%.2f" .S.Week52High.Value}})`,
	),
	NewRule(model.RuleWeek52Low, model.SeverityHigh,
		[]model.Indicator{model.IndWeek52Low},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return s.Close <= s.Week52Low.Value*(1+th.Week52LowBand/100)
		},
		`Near 52-Week Low`,
		`Price ${{printf "%.2f" .S.Close}} is within {{printf "%g" .Th.Week52LowBand}}% of the 52-week low (${{printf "%.2f" .S.Week52Low.Value}})`,
	),
	NewRule(model.RuleGoldenCross, model.SeverityHigh, crossInputs,
		func(s *model.IndicatorSnapshot, _ Thresholds) bool {
			return s.PrevMA50.Value <= s.PrevMA200.Value && s.MA50.Value > s.MA200.Value
		},
		`Golden Cross Signal`,
		`MA50 (${{printf "%.2f" .S.MA50.Value}}) crossed above MA200 (${{printf "%.2f" .S.MA200.Value}}) - Bullish signal`,
	),
	NewRule(model.RuleDeathCross, model.SeverityHigh, crossInputs,
		func(s *model.IndicatorSnapshot, _ Thresholds) bool {
			return s.PrevMA50.Value >= s.PrevMA200.Value && s.MA50.Value < s.MA200.Value
		},
		`Death Cross Signal`,
		`MA50 (${{printf "%.2f" .S.MA50.Value}}) crossed below MA200 (${{printf "%.2f" .S.MA200.Value}}) - Bearish signal`,
	),
}

var extendedRules = []Rule{
	NewRule(model.RuleBreakout, model.SeverityMedium,
		[]model.Indicator{model.IndPrevClose, model.IndMA50, model.IndMA200, model.IndPrevMA200},
		func(s *model.IndicatorSnapshot, _ Thresholds) bool {
			return s.PrevClose.Value <= s.PrevMA200.Value && s.Close > s.MA50.Value && s.Close > s.MA200.Value
		},
		`Breakout Above MA200`,
		`Price (${{printf "%.2f" .S.Close}}) broke above MA200 (${{printf "%.2f" .S.MA200.Value}})`,
	),
	NewRule(model.RuleGapUp, model.SeverityMedium,
		[]model.Indicator{model.IndPrevClose},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return calculator.GapPct(s.Open, s.PrevClose.Value) >= th.GapPct
		},
		`Gap Up: {{gap .S | printf "%.2f"}}%`,
		`Stock opened with a {{gap .S | printf "%.2f"}}% gap up from previous close (${{printf "%.2f" .S.PrevClose.Value}})`,
	),
	NewRule(model.RuleGapDown, model.SeverityMedium,
		[]model.Indicator{model.IndPrevClose},
		func(s *model.IndicatorSnapshot, th Thresholds) bool {
			return calculator.GapPct(s.Open, s.PrevClose.Value) <= -th.GapPct
		},
		`Gap Down: {{gap .S | abs | printf "%.2f"}}%`,
		`Stock opened with a {{gap .S | abs | printf "%.2f"}}% gap down from previous close (${{printf "%.2f" .S.PrevClose.Value}})`,
	),
}

// DefaultRules returns the eight core rules in evaluation order.
func DefaultRules() []Rule {
	return append([]Rule(nil), coreRules...)
}

// ExtendedRules returns the core rules followed by the breakout and gap rules.
func ExtendedRules() []Rule {
	return append(DefaultRules(), extendedRules...)
}
