package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/raywall/issue-insights/analyzer"
)

const (
	chartWidth       = "1100px"
	chartHeight      = "600px"
	emptyChartHeight = "200px"
	dataZoomEnd      = 100
	scatterSymbol    = 14
	pieRadius        = "60%"
	smallSliceFormat = "{b}\n{d}%"
	sliceFormat      = "{d}%"
	frequencyColor   = "#008080"
	resolutionColor  = "#ff7f50"
	scatterColor     = "#4682b4"
)

// HTML renders reports as a self-contained go-echarts page.
type HTML struct {
	Width  string
	Height string
}

// NewHTML returns an HTML renderer with default chart dimensions.
func NewHTML() *HTML {
	return &HTML{Width: chartWidth, Height: chartHeight}
}

// Render writes the page for report.
func (h *HTML) Render(w io.Writer, report *analyzer.Report) error {
	chartList, err := h.Charts(report)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.SetPageTitle(title(report))
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(chartList...)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

// Charts builds the charts for report without rendering them.
func (h *HTML) Charts(report *analyzer.Report) ([]components.Charter, error) {
	switch {
	case report.Overview != nil:
		return []components.Charter{h.overviewChart(report.Overview)}, nil
	case report.CreationTrend != nil:
		return []components.Charter{h.trendChart(*report.CreationTrend, title(report), "Number of Issues Created")}, nil
	case report.Contributors != nil:
		return []components.Charter{h.contributorPie(report.Contributors, filterSubtitle(report.Meta.Filter))}, nil
	case report.Resolution != nil:
		res := report.Resolution
		return []components.Charter{
			h.frequencyBar(res.Frequency),
			h.resolutionBar(res),
			h.frequencyVsResolution(res),
		}, nil
	case report.LabelTrend != nil:
		yAxis := fmt.Sprintf("Number of New Issues Created (per %s)", report.LabelTrend.Width)
		return []components.Charter{h.trendChart(*report.LabelTrend, title(report), yAxis)}, nil
	}
	return nil, ErrEmptyReport
}

func (h *HTML) init() opts.Initialization {
	return opts.Initialization{Width: h.Width, Height: h.Height}
}

func (h *HTML) frequencyBar(freq []analyzer.LabelCount) *charts.Bar {
	labels := make([]string, len(freq))
	data := make([]opts.BarData, len(freq))

	// Reversed so the most common label is drawn on top of the horizontal bars.
	for i, lc := range freq {
		j := len(freq) - 1 - i
		labels[j] = lc.Label
		data[j] = opts.BarData{Value: lc.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Top %d Most Common Issue Labels", len(freq))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "5%", Right: "5%", ContainLabel: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Total Number of Issues", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Label", Type: "category"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("issues", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: frequencyColor}))
	bar.XYReversal()

	return bar
}

func (h *HTML) resolutionBar(res *analyzer.LabelResolution) *charts.Bar {
	labels := make([]string, len(res.Means))
	data := make([]opts.BarData, len(res.Means))

	for i, m := range res.Means {
		j := len(res.Means) - 1 - i
		labels[j] = m.Label
		data[j] = opts.BarData{Value: roundTenth(m.Mean)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Average Resolution Time (for labels on at least %d closed issues)", res.MinSample),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "5%", Right: "5%", ContainLabel: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Average Resolution Time (Days)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Label", Type: "category"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("mean days", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: resolutionColor}))
	bar.XYReversal()

	return bar
}

func (h *HTML) frequencyVsResolution(res *analyzer.LabelResolution) *charts.Scatter {
	data := make([]opts.ScatterData, len(res.Means))

	for i, m := range res.Means {
		data[i] = opts.ScatterData{
			Name:       m.Label,
			Value:      []any{res.Counts[m.Label], roundTenth(m.Mean), m.Label},
			SymbolSize: scatterSymbol,
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{Title: "Label Frequency vs. Average Resolution Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Total Frequency (Number of Issues)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Average Resolution Time (Days)",
			Type:      "value",
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)
	scatter.AddSeries("labels", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: scatterColor, Opacity: opts.Float(0.7)}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
	)

	return scatter
}

func (h *HTML) trendChart(table analyzer.TrendTable, chartTitle, yAxis string) *charts.Line {
	line := charts.NewLine()

	if table.Empty() {
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: h.Width, Height: emptyChartHeight}),
			charts.WithTitleOpts(opts.Title{Title: chartTitle, Subtitle: "No data"}),
		)
		return line
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{Title: chartTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "8%"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxis, Min: 0}),
	)
	line.SetXAxis(table.BucketLabels())

	for _, label := range table.Labels {
		series := table.Series(label)
		data := make([]opts.LineData, len(series))
		for i, v := range series {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(label, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	}

	return line
}

func (h *HTML) contributorPie(share *analyzer.ContributorShare, subtitle string) *charts.Pie {
	data := make([]opts.PieData, len(share.Shares))

	for i, s := range share.Shares {
		d := opts.PieData{Name: fmt.Sprintf("%s (%d)", s.Name, s.Count), Value: s.Count}
		if s.Small {
			// Small slices are pulled out and labelled outside the pie.
			d.Selected = opts.Bool(true)
			d.Label = &opts.Label{Show: opts.Bool(true), Position: "outside", Formatter: smallSliceFormat}
		}
		data[i] = d
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{Title: "Top Comment Contributors (Grouped)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Orient: "vertical", Right: "2%", Top: "middle"}),
	)
	pie.AddSeries("Contributors", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside", Formatter: sliceFormat}),
			charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius}),
			// Selected data items are only offset when the series is selectable.
			charts.WithSeriesOpts(func(s *charts.SingleSeries) {
				s.SelectedMode = opts.Bool(true)
			}),
		)

	return pie
}

func (h *HTML) overviewChart(ov *analyzer.Overview) *charts.Bar {
	names := []string{"Issues", "Open", "Closed", "Unlabeled", "Missing dates", "Labels", "Comments", "Commenters"}
	values := []int{
		ov.TotalIssues, ov.OpenIssues, ov.ClosedIssues, ov.UnlabeledIssues,
		ov.MissingTimestamps, ov.DistinctLabels, ov.CommentEvents, ov.Commenters,
	}

	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(h.init()),
		charts.WithTitleOpts(opts.Title{Title: "Issue Snapshot Overview"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("count", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: frequencyColor}))

	return bar
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
