// Package charts renders collection and pack statistics as go-echarts HTML.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string
	Subtitle   string
	SeriesName string
	Width      string // e.g. "900px"
	Height     string
	Theme      string
	ShowLegend bool
	Colors     []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// rarityColors follows the in-game set symbol colors.
var rarityColors = map[cards.Rarity]string{
	cards.Common:   "#3d3d3d",
	cards.Uncommon: "#a4b5c2",
	cards.Rare:     "#d4af37",
	cards.Mythic:   "#e8581c",
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
	Color string // optional
}

func globalOpts(config ChartConfig) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: config.Title,
			Width:     config.Width,
			Height:    config.Height,
			Theme:     config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

// RenderBarChart writes an interactive bar chart page to w.
func RenderBarChart(w io.Writer, data []DataPoint, config ChartConfig) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(config)...)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
		if point.Color != "" {
			yData[i].ItemStyle = &opts.ItemStyle{Color: point.Color}
		}
	}

	bar.SetXAxis(xLabels).
		AddSeries(config.SeriesName, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:     opts.Bool(true),
				Position: "top",
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderPieChart writes an interactive pie chart page to w.
func RenderPieChart(w io.Writer, data []DataPoint, config ChartConfig) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(config)...)

	items := make([]opts.PieData, len(data))
	for i, point := range data {
		items[i] = opts.PieData{Name: point.Label, Value: point.Value}
		if point.Color != "" {
			items[i].ItemStyle = &opts.ItemStyle{Color: point.Color}
		}
	}

	pie.AddSeries(config.SeriesName, items).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
		)

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RarityPoints turns per-rarity counts into points in rarity order.
func RarityPoints(byRarity map[cards.Rarity]int) []DataPoint {
	points := make([]DataPoint, 0, len(cards.Rarities))
	for _, r := range cards.Rarities {
		points = append(points, DataPoint{
			Label: string(r),
			Value: float64(byRarity[r]),
			Color: rarityColors[r],
		})
	}
	return points
}

// SetCompletionPoints turns set progress into percentage points.
func SetCompletionPoints(progress []economy.SetProgress) []DataPoint {
	points := make([]DataPoint, len(progress))
	for i, p := range progress {
		label := p.SetName
		if label == "" {
			label = p.SetCode
		}
		points[i] = DataPoint{Label: label, Value: float64(p.Percentage)}
	}
	return points
}

// RenderRarityChart renders the unique-card rarity split of a collection.
func RenderRarityChart(w io.Writer, stats economy.CollectionStats) error {
	config := DefaultChartConfig()
	config.Title = "Collection by Rarity"
	config.Subtitle = fmt.Sprintf("%d unique cards, %d total", stats.UniqueCards, stats.TotalCards)
	config.SeriesName = "Unique cards"
	return RenderPieChart(w, RarityPoints(stats.ByRarity), config)
}

// RenderSetCompletionChart renders per-set completion percentages.
func RenderSetCompletionChart(w io.Writer, progress []economy.SetProgress) error {
	config := DefaultChartConfig()
	config.Title = "Set Completion"
	config.Subtitle = "Unique cards owned (%)"
	config.SeriesName = "Completion"
	config.ShowLegend = false
	return RenderBarChart(w, SetCompletionPoints(progress), config)
}

// RenderPackSummaryChart renders the rarity histogram of simulated packs.
func RenderPackSummaryChart(w io.Writer, setCode string, s *booster.Summary) error {
	config := DefaultChartConfig()
	config.Title = fmt.Sprintf("%d %s packs", s.Packs, setCode)
	config.Subtitle = fmt.Sprintf("avg %.2f cards, avg value %s", s.AverageSize(), s.AverageValue().StringFixed(2))
	config.SeriesName = "Cards"
	config.ShowLegend = false

	points := append([]DataPoint{{Label: "land", Value: float64(s.Lands)}}, RarityPoints(s.ByRarity)...)
	return RenderBarChart(w, points, config)
}

// WriteFile creates path and renders into it.
func WriteFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return render(f)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
