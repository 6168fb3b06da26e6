package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/pomofocus/internal/insights"
	"github.com/sadopc/pomofocus/internal/session"
	"github.com/sadopc/pomofocus/internal/stats"
	"github.com/sadopc/pomofocus/internal/store"
)

type reportRange int

const (
	rangeWeek reportRange = iota
	rangeMonth
)

// recentLimit is how many history rows the stats view shows.
const recentLimit = 5

type reportsModel struct {
	sess       *session.Session
	history    HistorySource
	streakDays int
	width      int
	height     int

	rng        reportRange
	recent     []store.SessionRecord
	historyErr error
}

func newReportsModel(s *session.Session, opts Options) reportsModel {
	return reportsModel{
		sess:       s,
		history:    opts.History,
		streakDays: opts.StreakDays,
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// refresh reloads the recent history. Without a history source there is
// nothing to load.
func (r reportsModel) refresh() tea.Cmd {
	if r.history == nil {
		return nil
	}
	src, user := r.history, r.sess.User()
	return func() tea.Msg {
		records, err := src.ListSessions(context.Background(), user, store.HistoryFilter{Limit: recentLimit})
		return historyMsg{records: records, err: err}
	}
}

func (r reportsModel) days() []stats.DayStats {
	if r.rng == rangeMonth {
		return r.sess.LastDays(30)
	}
	return r.sess.Weekly()
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyMsg:
		r.recent = msg.records
		r.historyErr = msg.err
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.rng = rangeWeek
		case key.Matches(msg, keys.Right):
			r.rng = rangeMonth
		}
	}
	return r, nil
}

// renderChart draws focus minutes per day.
func (r reportsModel) renderChart(days []stats.DayStats) string {
	chartWidth := max(r.width-8, 20)
	chartHeight := 10
	if r.height > 40 {
		chartHeight = 14
	}

	chart := barchart.New(chartWidth, chartHeight)
	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	emptyStyle := lipgloss.NewStyle().Foreground(colorSubtle)

	bars := make([]barchart.BarData, 0, len(days))
	for _, d := range days {
		label := d.Date
		if t, err := time.Parse(stats.DateLayout, d.Date); err == nil {
			label = t.Format("Mon 02")
			if r.rng == rangeMonth {
				label = t.Format("02")
			}
		}
		style := barStyle
		if d.FocusTime == 0 {
			style = emptyStyle
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "Focus", Value: float64(d.FocusTime), Style: style}},
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("7 days")
	monthTab := inactiveTabStyle.Render("30 days")
	if r.rng == rangeWeek {
		weekTab = activeTabStyle.Render("7 days")
	} else {
		monthTab = activeTabStyle.Render("30 days")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", weekTab, monthTab,
	)

	days := r.days()
	focus := 0
	for _, d := range days {
		focus += d.FocusTime
	}
	rangeLabel := mutedStyle.Render(fmt.Sprintf("  %s focused in %s to %s",
		formatMinutes(focus), days[0].Date, days[len(days)-1].Date))

	nav := mutedStyle.Render("  ←/→: range")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			r.renderToday(), "",
			r.renderChart(days),
			rangeLabel, "",
			r.renderAchievements(), "",
			r.renderInsights(), "",
			r.renderRecent(), "",
			nav,
		),
	)
}

func (r reportsModel) renderToday() string {
	today := r.sess.Today()
	totals := r.sess.Totals()
	streak := r.sess.Streak(r.streakDays)

	return strings.Join([]string{
		fmt.Sprintf("  Today  %s sessions  %s focus  %s breaks  %s tasks done",
			highlightStyle.Render(fmt.Sprint(today.Sessions)),
			highlightStyle.Render(formatMinutes(today.FocusTime)),
			highlightStyle.Render(fmt.Sprint(today.Breaks)),
			highlightStyle.Render(fmt.Sprint(today.TasksCompleted)),
		),
		fmt.Sprintf("  Streak %s   All time %s sessions, %s over %d active days",
			successStyle.Render(fmt.Sprintf("%d day(s)", streak)),
			humanize.Comma(int64(totals.Sessions)),
			formatMinutes(totals.FocusTime),
			totals.ActiveDays,
		),
	}, "\n")
}

func (r reportsModel) renderAchievements() string {
	rows := []string{titleStyle.Render("  Achievements")}
	for _, a := range r.sess.Achievements(r.streakDays) {
		if a.Unlocked {
			rows = append(rows, successStyle.Render(fmt.Sprintf("  ✓ %s", a.Title)))
			continue
		}
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  ○ %-18s %d/%d", a.Title, a.Progress, a.Max)))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderInsights() string {
	list, err := insights.Local{}.Generate(context.Background(), r.sess.InsightInput())
	if err != nil || len(list) == 0 {
		return mutedStyle.Render("  No insights right now")
	}
	rows := []string{titleStyle.Render("  Insights")}
	for _, in := range list {
		rows = append(rows, fmt.Sprintf("  %s %s", highlightStyle.Render("•"), in.Title))
		rows = append(rows, mutedStyle.Render("    "+in.Actionable))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderRecent() string {
	if r.history == nil {
		return ""
	}
	if r.historyErr != nil {
		return errorStyle.Render(fmt.Sprintf("  History unavailable: %v", r.historyErr))
	}
	if len(r.recent) == 0 {
		return mutedStyle.Render("  No sessions recorded yet")
	}

	rows := []string{titleStyle.Render("  Recent")}
	for _, rec := range r.recent {
		label := rec.Type.Label()
		if rec.Skipped {
			label += " (skipped)"
		}
		rows = append(rows, fmt.Sprintf("  %-14s %-20s %3dm",
			humanize.Time(rec.CompletedAt), label, rec.DurationMinutes))
	}
	return strings.Join(rows, "\n")
}
