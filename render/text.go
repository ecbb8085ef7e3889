package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/raywall/issue-insights/analyzer"
)

const smallSliceMark = "*"

// Text renders reports as terminal tables.
type Text struct {
	heading *color.Color
	muted   *color.Color
	warn    *color.Color
}

// NewText returns a text renderer. noColor disables ANSI colors.
func NewText(noColor bool) *Text {
	t := &Text{
		heading: color.New(color.FgBlue, color.Bold),
		muted:   color.New(color.FgHiBlack),
		warn:    color.New(color.FgYellow),
	}

	if noColor {
		t.heading.DisableColor()
		t.muted.DisableColor()
		t.warn.DisableColor()
	}

	return t
}

// Render writes the tables for report.
func (t *Text) Render(w io.Writer, report *analyzer.Report) error {
	t.header(w, report)

	switch {
	case report.Overview != nil:
		t.overview(w, report.Overview)
	case report.CreationTrend != nil:
		t.trend(w, *report.CreationTrend)
	case report.Contributors != nil:
		t.contributors(w, report.Contributors)
	case report.Resolution != nil:
		t.resolution(w, report.Resolution)
	case report.LabelTrend != nil:
		t.trend(w, *report.LabelTrend)
	default:
		return ErrEmptyReport
	}

	return nil
}

func (t *Text) header(w io.Writer, report *analyzer.Report) {
	fmt.Fprintln(w, t.heading.Sprint(strings.ToUpper(title(report))))

	sub := fmt.Sprintf("%s issues", humanize.Comma(int64(report.Meta.IssueCount)))
	if f := filterSubtitle(report.Meta.Filter); f != "" {
		sub += " | " + f
	}
	fmt.Fprintln(w, t.muted.Sprint(sub))
	fmt.Fprintln(w)
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func (t *Text) overview(w io.Writer, ov *analyzer.Overview) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Issues", humanize.Comma(int64(ov.TotalIssues))},
		{"Open", humanize.Comma(int64(ov.OpenIssues))},
		{"Closed", humanize.Comma(int64(ov.ClosedIssues))},
		{"Unlabeled", humanize.Comma(int64(ov.UnlabeledIssues))},
		{"Missing timestamps", humanize.Comma(int64(ov.MissingTimestamps))},
		{"Distinct labels", humanize.Comma(int64(ov.DistinctLabels))},
		{"Comment events", humanize.Comma(int64(ov.CommentEvents))},
		{"Commenters", humanize.Comma(int64(ov.Commenters))},
	})
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tbl.Render()
}

func (t *Text) trend(w io.Writer, tt analyzer.TrendTable) {
	if tt.Empty() {
		fmt.Fprintln(w, t.warn.Sprint("No data"))
		return
	}

	header := table.Row{tt.Width.String()}
	for _, l := range tt.Labels {
		header = append(header, l)
	}

	tbl := newTable(w)
	tbl.AppendHeader(header)

	buckets := tt.BucketLabels()
	for i, r := range tt.Rows {
		row := table.Row{buckets[i]}
		for _, l := range tt.Labels {
			row = append(row, r.Counts[l])
		}
		tbl.AppendRow(row)
	}

	tbl.Render()
}

func (t *Text) contributors(w io.Writer, share *analyzer.ContributorShare) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"#", "Contributor", "Comments", "Share", ""})

	for i, s := range share.Shares {
		mark := ""
		if s.Small {
			mark = smallSliceMark
		}
		tbl.AppendRow(table.Row{
			i + 1,
			s.Name,
			humanize.Comma(int64(s.Count)),
			fmt.Sprintf("%.1f%%", s.Percent),
			mark,
		})
	}

	tbl.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(share.TotalComments)), "100%", ""})
	tbl.Render()

	fmt.Fprintln(w, t.muted.Sprintf("%s share below %.1f%%", smallSliceMark, share.Threshold))

	if share.User != "" {
		fmt.Fprintf(w, "%s wrote %s comments\n", share.User, humanize.Comma(int64(share.UserComments)))
	}
}

func (t *Text) resolution(w io.Writer, res *analyzer.LabelResolution) {
	fmt.Fprintln(w, t.heading.Sprintf("Top %d labels", len(res.Frequency)))

	freq := newTable(w)
	freq.AppendHeader(table.Row{"Label", "Issues"})
	for _, lc := range res.Frequency {
		freq.AppendRow(table.Row{lc.Label, humanize.Comma(int64(lc.Count))})
	}
	freq.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, t.heading.Sprintf("Average resolution time (labels on at least %d closed issues)", res.MinSample))

	if len(res.Means) == 0 {
		fmt.Fprintln(w, t.warn.Sprint("No label reaches the sample threshold"))
		return
	}

	means := newTable(w)
	means.AppendHeader(table.Row{"Label", "Mean", "Closed issues", "Frequency"})
	for _, m := range res.Means {
		means.AppendRow(table.Row{
			m.Label,
			analyzer.FormatDays(m.Mean),
			humanize.Comma(int64(m.Samples)),
			humanize.Comma(int64(res.Counts[m.Label])),
		})
	}
	means.Render()
}
