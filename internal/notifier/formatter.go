package notifier

import (
	"bytes"
	"fmt"
	"html"
	htmltemplate "html/template"
	"strings"

	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"
)

func severityIcon(s model.Severity) string {
	if s == model.SeverityHigh {
		return "🚨"
	}
	return "⚠️"
}

// bySeverity splits alerts into high and medium keeping table order.
func bySeverity(alerts []model.TriggeredAlert) (high, medium []model.TriggeredAlert) {
	for _, a := range alerts {
		if a.Severity == model.SeverityHigh {
			high = append(high, a)
		} else {
			medium = append(medium, a)
		}
	}
	return high, medium
}

func money(r model.Reading) string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", r.Value)
}

func number(r model.Reading, format string) string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf(format, r.Value)
}

func volumeRatio(s *model.IndicatorSnapshot) string {
	if !s.AvgVolume20d.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2fx", s.VolumeRatio())
}

// FormatTelegram renders the batch as a Telegram HTML message.
func FormatTelegram(b *Batch) string {
	var sb strings.Builder
	day := ""
	if b.Snapshot != nil {
		day = model.DayKey(b.Snapshot.AsOf)
	}
	sb.WriteString(fmt.Sprintf("📈 <b>%s Stock Alerts</b> | %s\n\n", html.EscapeString(b.Symbol), day))

	high, medium := bySeverity(b.Alerts)
	for _, group := range [][]model.TriggeredAlert{high, medium} {
		for _, a := range group {
			sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n%s\n\n",
				severityIcon(a.Severity), html.EscapeString(a.Title), html.EscapeString(a.Message)))
		}
	}

	if s := b.Snapshot; s != nil {
		sb.WriteString(fmt.Sprintf("Price: $%.2f (%s%%)\n", s.Close, number(s.PriceChangePct, "%+.2f")))
		sb.WriteString(fmt.Sprintf("RSI(14): %s | Volume: %s\n", number(s.RSI14, "%.1f"), volumeRatio(s)))
		sb.WriteString(fmt.Sprintf("MA50: %s | MA200: %s\n", money(s.MA50), money(s.MA200)))
	}
	return sb.String()
}

// FormatPlainText renders the plain-text part of the alert email.
func FormatPlainText(b *Batch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s STOCK ALERTS\n", strings.ToUpper(b.Symbol)))
	if s := b.Snapshot; s != nil {
		sb.WriteString(model.DayKey(s.AsOf) + "\n\n")
		sb.WriteString(fmt.Sprintf("Current Price: $%.2f\n", s.Close))
		sb.WriteString(fmt.Sprintf("Change: %s (%s%%)\n", number(s.PriceChange, "%+.2f"), number(s.PriceChangePct, "%+.2f")))
	}
	sb.WriteString("\nALERTS:\n")
	for _, a := range b.Alerts {
		sb.WriteString(fmt.Sprintf("\n[%s] %s\n%s\n", a.Severity, a.Title, a.Message))
	}
	return sb.String()
}

// EmailSubject names the first alert of the batch.
func EmailSubject(b *Batch) string {
	if len(b.Alerts) == 0 {
		return b.Symbol + " Stock Alert"
	}
	subject := fmt.Sprintf("%s Stock Alert: %s", b.Symbol, b.Alerts[0].Title)
	if n := len(b.Alerts) - 1; n > 0 {
		subject += fmt.Sprintf(" (+%d more)", n)
	}
	return subject
}

var emailTemplate = htmltemplate.Must(htmltemplate.New("email").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px; }
.container { background-color: white; border-radius: 10px; padding: 20px; max-width: 600px; margin: 0 auto; }
.header { background: #4b5bd6; color: white; padding: 20px; border-radius: 10px 10px 0 0; margin: -20px -20px 20px -20px; }
.price-info { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0; }
.alert-high { border-left: 4px solid #dc3545; padding: 10px; margin: 10px 0; background-color: #fff5f5; }
.alert-medium { border-left: 4px solid #ffc107; padding: 10px; margin: 10px 0; background-color: #fffdf5; }
.metric { display: inline-block; margin: 10px 20px 10px 0; }
.metric-label { color: #666; font-size: 12px; }
.metric-value { font-size: 18px; font-weight: bold; color: #333; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #666; }
td { padding: 8px; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <div style="font-size: 24px; font-weight: bold;">{{.Symbol}} Stock Alerts</div>
    <div style="font-size: 14px; margin-top: 10px;">{{.Day}}</div>
  </div>
  <div class="price-info">
    <div class="metric"><div class="metric-label">Current Price</div><div class="metric-value">{{.Price}}</div></div>
    <div class="metric"><div class="metric-label">Change</div><div class="metric-value" style="color: {{.ChangeColor}};">{{.Change}}</div></div>
    <div class="metric"><div class="metric-label">Volume</div><div class="metric-value">{{.Volume}}</div></div>
  </div>
  {{if .High}}<h3>High Priority Alerts</h3>{{range .High}}
  <div class="alert-high"><strong>{{.Title}}</strong><br>{{.Message}}</div>{{end}}{{end}}
  {{if .Medium}}<h3>Medium Priority Alerts</h3>{{range .Medium}}
  <div class="alert-medium"><strong>{{.Title}}</strong><br>{{.Message}}</div>{{end}}{{end}}
  <h3>Key Metrics</h3>
  <table style="width: 100%; border-collapse: collapse;">
    {{range .Metrics}}<tr><td><strong>{{.Label}}</strong></td><td style="text-align: right;">{{.Value}}</td></tr>
    {{end}}
  </table>
  <div class="footer">
    <p>Alert thresholds: Price change &ge;{{.Th.PriceChangePct}}% | Volume &ge;{{.Th.VolumeSpike}}x | RSI &le;{{.Th.RSIOversold}} or &ge;{{.Th.RSIOverbought}}</p>
  </div>
</div>
</body>
</html>
`))

type metric struct {
	Label string
	Value string
}

// FormatEmailHTML renders the HTML part of the alert email. Titles and
// messages are escaped by html/template.
func FormatEmailHTML(b *Batch) (string, error) {
	high, medium := bySeverity(b.Alerts)
	data := struct {
		Symbol, Day, Price, Change, ChangeColor, Volume string
		High, Medium                                    []model.TriggeredAlert
		Metrics                                         []metric
		Th                                              strategy.Thresholds
	}{
		Symbol:      b.Symbol,
		Price:       "N/A",
		Change:      "N/A",
		ChangeColor: "green",
		Volume:      "N/A",
		High:        high,
		Medium:      medium,
		Th:          b.Thresholds,
	}
	if s := b.Snapshot; s != nil {
		data.Day = model.DayKey(s.AsOf)
		data.Price = fmt.Sprintf("$%.2f", s.Close)
		data.Change = fmt.Sprintf("%s (%s%%)", number(s.PriceChange, "%+.2f"), number(s.PriceChangePct, "%+.2f"))
		if s.PriceChange.Valid && s.PriceChange.Value < 0 {
			data.ChangeColor = "red"
		}
		data.Volume = fmt.Sprintf("%.0f", s.Volume)
		data.Metrics = []metric{
			{"RSI (14)", number(s.RSI14, "%.2f")},
			{"MA50", money(s.MA50)},
			{"MA200", money(s.MA200)},
			{"52-Week Range", money(s.Week52Low) + " - " + money(s.Week52High)},
			{"Volume Ratio", volumeRatio(s)},
		}
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
