// Command packsim opens simulated boosters of one set and prints what came out.
//
//	packsim -set dsk -packs 36 -seed 7 -chart packs.html -export pulls.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/charts"
	"github.com/ramonehamilton/booster-sim/internal/config"
	"github.com/ramonehamilton/booster-sim/internal/export"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/scryfall"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/setcache"
	"github.com/ramonehamilton/booster-sim/internal/version"
)

var (
	setCode   = flag.String("set", "", "Set code to open (required)")
	packs     = flag.Int("packs", 1, "Number of packs to open")
	seed      = flag.Uint64("seed", 0, "Deterministic seed (0 for random)")
	chartPath = flag.String("chart", "", "Write an HTML chart of the results to this file")
	openChart = flag.Bool("open", false, "Open the chart in a browser")
	exportTo  = flag.String("export", "", "Write every pulled card to this .csv or .json file")
	baseURL   = flag.String("scryfall", "", "Scryfall API base URL")
	rateLimit = flag.String("rate", "100ms", "Minimum delay between Scryfall requests")
	verbose   = flag.Bool("v", false, "List every pack")
)

func main() {
	flag.Parse()
	log.SetLevel(log.WarnLevel)
	if *verbose {
		log.SetLevel(log.InfoLevel)
	}

	if *setCode == "" || *packs < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := []scryfall.Option{
		scryfall.WithUserAgent(version.UserAgent()),
		scryfall.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		scryfall.WithRateLimit(config.Duration(*rateLimit, 100*time.Millisecond)),
	}
	if *baseURL != "" {
		opts = append(opts, scryfall.WithBaseURL(*baseURL))
	}
	provider := setcache.NewProvider(scryfall.NewClient(opts...), nil, time.Hour)

	meta, ok := provider.LookupSet(ctx, *setCode)
	if !ok {
		// Not in the purchasable catalog; still allow simulating it.
		meta = cards.SetMeta{Code: strings.ToLower(*setCode), Name: strings.ToUpper(*setCode)}
	}

	pool := provider.Pool(ctx, meta.Code)
	if pool.Empty() {
		log.Fatalf("No cards found for set %q", *setCode)
	}

	var rng booster.RNG
	if *seed != 0 {
		rng = booster.NewSeededRNG(*seed)
	}

	var pulls []export.PackRow
	summary := simulate(booster.NewGenerator(rng), pool, meta, *packs, func(i int, pack []booster.DrawnCard) {
		if *verbose {
			printPack(os.Stdout, i, pack)
		}
		if *exportTo != "" {
			pulls = append(pulls, export.PackRows(i+1, pack)...)
		}
	})
	report(os.Stdout, meta, pool, summary)

	if *exportTo != "" {
		if err := exportPulls(*exportTo, pulls); err != nil {
			log.Fatalf("Failed to export pulls: %v", err)
		}
		fmt.Printf("Pulls written to %s\n", *exportTo)
	}

	if *chartPath != "" {
		err := charts.WriteFile(*chartPath, func(w io.Writer) error {
			return charts.RenderPackSummaryChart(w, meta.Code, summary)
		})
		if err != nil {
			log.Fatalf("Failed to write chart: %v", err)
		}
		fmt.Printf("Chart written to %s\n", *chartPath)

		if *openChart {
			if err := charts.OpenInBrowser(*chartPath); err != nil {
				log.Warnf("Failed to open browser: %v", err)
			}
		}
	}
}

// simulate opens n packs and tallies them. each is called per pack, if set.
func simulate(gen *booster.Generator, pool cards.Pool, meta cards.SetMeta, n int, each func(int, []booster.DrawnCard)) *booster.Summary {
	summary := booster.NewSummary()
	for i := 0; i < n; i++ {
		pack := gen.Generate(pool, meta)
		summary.Add(pack)
		if each != nil {
			each(i, pack)
		}
	}
	return summary
}

// exportPulls picks the format from the file extension.
func exportPulls(path string, rows []export.PackRow) error {
	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	return export.NewExporter(export.Options{
		Format:     format,
		FilePath:   path,
		PrettyJSON: true,
		Overwrite:  true,
	}).Export(rows)
}

func printPack(w io.Writer, i int, pack []booster.DrawnCard) {
	fmt.Fprintf(w, "Pack %d\n", i+1)
	for _, c := range pack {
		fmt.Fprintf(w, "  %-9s %-40s %6s\n", c.Rarity, c.Name, c.Price.StringFixed(2))
	}
	fmt.Fprintln(w)
}

func report(w io.Writer, meta cards.SetMeta, pool cards.Pool, s *booster.Summary) {
	fmt.Fprintf(w, "\n%s (%s)\n", meta.Name, strings.ToUpper(meta.Code))
	fmt.Fprintln(w, strings.Repeat("=", len(meta.Name)+len(meta.Code)+3))
	fmt.Fprintf(w, "Pool: %d cards (%d lands, %d commons, %d uncommons, %d rares, %d mythics)\n\n",
		pool.Size(), len(pool.Lands), len(pool.Commons), len(pool.Uncommons), len(pool.Rares), len(pool.Mythics))

	fmt.Fprintf(w, "Opened %d packs, %d cards\n", s.Packs, s.Cards)
	if s.ShortPack > 0 {
		fmt.Fprintf(w, "Short packs: %d\n", s.ShortPack)
	}
	fmt.Fprintln(w)

	maxCount := s.Lands
	for _, r := range cards.Rarities {
		maxCount = max(maxCount, s.ByRarity[r])
	}
	row := func(label string, n int) {
		bar := 0
		if maxCount > 0 {
			bar = n * 40 / maxCount
		}
		fmt.Fprintf(w, "  %-9s %6d  %s\n", label, n, strings.Repeat("#", bar))
	}
	row("land", s.Lands)
	for _, r := range cards.Rarities {
		row(string(r), s.ByRarity[r])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Average pack size:  %.2f\n", s.AverageSize())
	fmt.Fprintf(w, "Average pack value: %s\n", s.AverageValue().StringFixed(2))
	fmt.Fprintf(w, "Total value:        %s\n", s.Value.StringFixed(2))
}
