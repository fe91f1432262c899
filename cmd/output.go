package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"feed-enricher/dlq"
	"feed-enricher/orchestrator"
	"feed-enricher/service"
)

// printer writes human-readable command output.
type printer struct {
	out    io.Writer
	colors bool
}

func newPrinter(out io.Writer, colors bool) *printer {
	return &printer{out: out, colors: colors}
}

func (p *printer) paint(attr color.Attribute, s string) string {
	if !p.colors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func (p *printer) success(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(color.FgGreen, "✓"), msg)
}

func (p *printer) warning(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(color.FgYellow, "!"), msg)
}

func (p *printer) failure(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(color.FgRed, "✗"), msg)
}

func (p *printer) runSummary(summary *service.RunSummary) {
	rows := make([][]string, 0, len(summary.Sources))
	for _, s := range summary.Sources {
		note := ""
		switch {
		case s.FeedError != "":
			note = p.paint(color.FgRed, s.FeedError)
		case s.StateError != "":
			note = p.paint(color.FgYellow, "state not saved: "+s.StateError)
		}
		rows = append(rows, []string{
			s.SourceID,
			strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Published),
			strconv.Itoa(s.Insufficient),
			strconv.Itoa(s.FetchFailed),
			strconv.Itoa(s.PublishFailed),
			note,
		})
	}
	renderTable(p.out, []string{"Source", "Fetched", "Skipped", "Published", "Insufficient", "Fetch failed", "Publish failed", "Error"}, rows)

	elapsed := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond)
	msg := fmt.Sprintf("run %s: %d processed, %d published in %s", summary.RunID, summary.Processed(), summary.Published(), elapsed)
	if failed := countFailures(summary); failed > 0 {
		p.warning(fmt.Sprintf("%s (%d failed)", msg, failed))
		return
	}
	p.success(msg)
}

func countFailures(summary *service.RunSummary) int {
	failed := 0
	for _, s := range summary.Sources {
		failed += s.PublishFailed + s.FetchFailed
		if s.FeedError != "" {
			failed++
		}
	}
	return failed
}

func (p *printer) statusTable(statuses []orchestrator.SourceStatus) {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		lastRun := "never"
		if !st.LastRun.IsZero() {
			lastRun = st.LastRun.Local().Format(time.DateTime)
		}
		processed := strconv.Itoa(st.Processed)
		if st.Error != "" {
			processed = p.paint(color.FgRed, "error: "+st.Error)
		}
		rows = append(rows, []string{st.SourceID, st.SectionLabel, processed, lastRun})
	}
	renderTable(p.out, []string{"Source", "Section", "Processed", "Last run"}, rows)
}

func (p *printer) journalStats(stats dlq.DLQStats) {
	if stats.TotalFailedItems == 0 {
		p.success("failure journal is empty")
		return
	}
	p.failure(fmt.Sprintf("failure journal: %d entries, oldest %s, %d bytes",
		stats.TotalFailedItems, stats.OldestFailure.Local().Format(time.DateTime), stats.DiskUsage))
}

func renderTable(out io.Writer, headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}
	t.Render()
}
