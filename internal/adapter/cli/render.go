// Package cli renders simulation reports for a terminal.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/simaogato/dcaflow-backend/internal/adapter/presenter"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D4C57"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392"))

	gainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	summaryStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// RenderReport renders the purchase log, the holdings and the totals of report
func RenderReport(report presenter.Report) string {
	lang := report.Language
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("DCA simulation %s (%s)", report.RunID, report.Currency)))
	b.WriteString("\n")

	purchases := newTable(
		presenter.Label(lang, "date"),
		presenter.Label(lang, "ticker"),
		presenter.Label(lang, "price"),
		presenter.Label(lang, "shares"),
		presenter.Label(lang, "held"),
		presenter.Label(lang, "spent"),
		presenter.Label(lang, "cash"),
		presenter.Label(lang, "rule"),
	)
	for _, r := range report.Rows {
		purchases.Row(r.Date, r.Ticker, r.Price, r.Shares, r.Held, r.Spent, r.CashAfter, r.Rule)
	}
	b.WriteString(purchases.Render())
	b.WriteString("\n")

	if len(report.Holdings) > 0 {
		holdings := newTable(
			presenter.Label(lang, "ticker"),
			presenter.Label(lang, "held"),
			presenter.Label(lang, "price"),
			presenter.Label(lang, "holdings"),
		)
		for _, h := range report.Holdings {
			holdings.Row(h.Ticker, h.Shares, h.Price, h.Value)
		}
		b.WriteString(holdings.Render())
		b.WriteString("\n")
	}

	b.WriteString(summaryStyle.Render(renderSummary(report)))
	b.WriteString("\n")
	return b.String()
}

func renderSummary(report presenter.Report) string {
	lang := report.Language
	line := func(key, value string) string {
		return labelStyle.Render(presenter.Label(lang, key)+":") + " " + value
	}

	assets := withWon(report.TotalAssets, report.TotalAssetsCompact, report.TotalAssetsDetail)
	contributed := withWon(report.TotalContributed, report.TotalContributedCompact, report.TotalContributedDetail)

	rate := gainStyle
	if strings.HasPrefix(report.ProfitRate, "-") {
		rate = lossStyle
	}

	return strings.Join([]string{
		line("periods", fmt.Sprint(report.Periods)),
		line("holdings", report.HoldingsValue),
		line("cash", report.Cash),
		line("assets", assets),
		line("contributed", contributed),
		line("profit", report.Profit),
		line("rate", rate.Render(report.ProfitRate)),
	}, "\n")
}

// RenderRefresh renders one line per refreshed ticker
func RenderRefresh(reports []updater.Report) string {
	t := newTable("ticker", "mode", "added", "error")
	for _, r := range reports {
		msg := ""
		if r.Err != nil {
			msg = errorStyle.Render(r.Err.Error())
		}
		t.Row(r.Ticker, string(r.Mode), fmt.Sprint(r.Added), msg)
	}
	return t.Render() + "\n"
}

// Print writes s to w, ignoring write errors on a terminal
func Print(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}

// withWon appends the 만/억 rendering of a KRW total, preferring the exact form
func withWon(amount, compact, detail string) string {
	switch {
	case detail != "":
		return amount + " (" + detail + ")"
	case compact != "":
		return amount + " (" + compact + ")"
	default:
		return amount
	}
}
