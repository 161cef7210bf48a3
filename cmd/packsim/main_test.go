package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/export"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

func testPool() cards.Pool {
	var all []cards.Card
	add := func(n int, r cards.Rarity, typeLine string) {
		for i := 0; i < n; i++ {
			all = append(all, cards.Card{
				ID:        fmt.Sprintf("%s-%d", r, i),
				Name:      fmt.Sprintf("%s %d", r, i),
				Rarity:    r,
				TypeLine:  typeLine,
				PriceHint: decimal.RequireFromString("0.05"),
			})
		}
	}
	add(5, cards.Common, "Basic Land — Plains")
	add(30, cards.Common, "Creature")
	add(15, cards.Uncommon, "Instant")
	add(8, cards.Rare, "Enchantment")
	add(3, cards.Mythic, "Planeswalker")
	return cards.NewPool(all)
}

func TestSimulate_Deterministic(t *testing.T) {
	meta := cards.SetMeta{Code: "tst", Name: "Test Set", CardCount: 61}
	pool := testPool()

	a := simulate(booster.NewGenerator(booster.NewSeededRNG(42)), pool, meta, 20, nil)
	b := simulate(booster.NewGenerator(booster.NewSeededRNG(42)), pool, meta, 20, nil)

	assert.Equal(t, a.ByRarity, b.ByRarity)
	assert.True(t, a.Value.Equal(b.Value))
	assert.Equal(t, 20, a.Packs)
	assert.Equal(t, 20*booster.PackSize, a.Cards)
	assert.Equal(t, 40, a.Lands)
	assert.Zero(t, a.ShortPack)
	// Every card is priced at the floor.
	assert.True(t, a.Value.Equal(booster.MinSalePrice.Mul(decimal.NewFromInt(int64(a.Cards)))))
}

func TestSimulate_Callback(t *testing.T) {
	var seen []int
	simulate(booster.NewGenerator(booster.NewSeededRNG(1)), testPool(), cards.SetMeta{Code: "tst"}, 3, func(i int, pack []booster.DrawnCard) {
		seen = append(seen, i)
		assert.Len(t, pack, booster.PackSize)
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestReport(t *testing.T) {
	meta := cards.SetMeta{Code: "tst", Name: "Test Set"}
	pool := testPool()
	s := simulate(booster.NewGenerator(booster.NewSeededRNG(3)), pool, meta, 10, nil)

	var buf bytes.Buffer
	report(&buf, meta, pool, s)
	out := buf.String()

	assert.Contains(t, out, "Test Set (TST)")
	assert.Contains(t, out, "Pool: 61 cards (5 lands, 30 commons, 15 uncommons, 8 rares, 3 mythics)")
	assert.Contains(t, out, "Opened 10 packs, 140 cards")
	assert.Contains(t, out, "Average pack size:  14.00")
	assert.Contains(t, out, "Average pack value: 1.40")
	assert.NotContains(t, out, "Short packs")
	for _, label := range []string{"land", "common", "uncommon", "rare", "mythic"} {
		assert.Contains(t, out, "  "+label)
	}
}

func TestPrintPack(t *testing.T) {
	pack := booster.NewGenerator(booster.NewSeededRNG(9)).Generate(testPool(), cards.SetMeta{Code: "tst"})
	require.Len(t, pack, booster.PackSize)

	var buf bytes.Buffer
	printPack(&buf, 0, pack)
	assert.Contains(t, buf.String(), "Pack 1\n")
	assert.Contains(t, buf.String(), "0.10")
}

func TestExportPulls(t *testing.T) {
	var rows []export.PackRow
	simulate(booster.NewGenerator(booster.NewSeededRNG(5)), testPool(), cards.SetMeta{Code: "tst"}, 2, func(i int, pack []booster.DrawnCard) {
		rows = append(rows, export.PackRows(i+1, pack)...)
	})
	require.Len(t, rows, 2*booster.PackSize)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "pulls.csv")
	require.NoError(t, exportPulls(csvPath, rows))
	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 1+2*booster.PackSize)
	assert.Equal(t, "pack,slot,card_id,name,set,rarity,land,price", lines[0])

	require.NoError(t, exportPulls(filepath.Join(dir, "pulls.JSON"), rows))
	assert.Error(t, exportPulls(filepath.Join(dir, "pulls.txt"), rows))
}
