package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func TestFormatTelegram(t *testing.T) {
	msg := FormatTelegram(testBatch())

	assert.Contains(t, msg, "<b>WMT Stock Alerts</b> | 2025-03-14")
	assert.Contains(t, msg, "RSI(14): 61.2 | Volume: 2.00x")
	assert.Contains(t, msg, "MA50: $98.00 | MA200: N/A")

	// High severity is listed first regardless of table order.
	assert.Less(t, strings.Index(msg, "Large Price Movement"), strings.Index(msg, "Unusual Volume"))
}

func TestFormatTelegram_EscapesHTML(t *testing.T) {
	b := testBatch()
	b.Alerts = []model.TriggeredAlert{{Severity: model.SeverityHigh, Title: "MA50 <crossed> & more", Message: "x"}}
	msg := FormatTelegram(b)
	assert.Contains(t, msg, "MA50 &lt;crossed&gt; &amp; more")
}

func TestFormatPlainText(t *testing.T) {
	text := FormatPlainText(testBatch())
	assert.Contains(t, text, "WMT STOCK ALERTS")
	assert.Contains(t, text, "Current Price: $102.50")
	assert.Contains(t, text, "Change: +2.50 (+2.50%)")
	assert.Contains(t, text, "[HIGH] Large Price Movement: UP 2.50%")
}

func TestEmailSubject(t *testing.T) {
	b := testBatch()
	assert.Equal(t, "WMT Stock Alert: Unusual Volume: 2.00x Average (+1 more)", EmailSubject(b))

	b.Alerts = b.Alerts[:1]
	assert.Equal(t, "WMT Stock Alert: Unusual Volume: 2.00x Average", EmailSubject(b))
}

func TestFormatEmailHTML(t *testing.T) {
	out, err := FormatEmailHTML(testBatch())
	require.NoError(t, err)

	assert.Contains(t, out, "WMT Stock Alerts")
	assert.Contains(t, out, "High Priority Alerts")
	assert.Contains(t, out, "Medium Priority Alerts")
	assert.Contains(t, out, "$80.00 - $105.00")
	assert.Contains(t, out, "61.23")
	assert.Contains(t, out, "color: green")
}

func TestFormatEmailHTML_NegativeChangeAndNoSnapshot(t *testing.T) {
	b := testBatch()
	b.Snapshot.PriceChange = model.Known(-3)
	out, err := FormatEmailHTML(b)
	require.NoError(t, err)
	assert.Contains(t, out, "color: red")

	b.Snapshot = nil
	out, err = FormatEmailHTML(b)
	require.NoError(t, err)
	assert.Contains(t, out, "N/A")
}
