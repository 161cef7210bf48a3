package setcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/scryfall"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetSets(ctx context.Context) (*scryfall.SetList, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).(*scryfall.SetList); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSource) SearchAllCards(ctx context.Context, query string) ([]scryfall.Card, error) {
	args := m.Called(ctx, query)
	if list, ok := args.Get(0).([]scryfall.Card); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestIsPurchasable(t *testing.T) {
	tests := []struct {
		name string
		set  scryfall.Set
		want bool
	}{
		{"regular expansion", scryfall.Set{Name: "Dominaria United", SetType: "expansion", CardCount: 281}, true},
		{"exactly 100 cards", scryfall.Set{Name: "Core", SetType: "core", CardCount: 100}, true},
		{"too small", scryfall.Set{Name: "Tiny", SetType: "expansion", CardCount: 99}, false},
		{"promo", scryfall.Set{Name: "Promos", SetType: "promo", CardCount: 300}, false},
		{"digital", scryfall.Set{Name: "Alchemy", SetType: "alchemy", CardCount: 300, Digital: true}, false},
		{"tokens", scryfall.Set{Name: "Dominaria United Tokens", SetType: "token", CardCount: 120}, false},
		{"art series", scryfall.Set{Name: "Bloomburrow Art Series", SetType: "memorabilia", CardCount: 150}, false},
		{"eternal", scryfall.Set{Name: "Eternal Weekend", SetType: "memorabilia", CardCount: 150}, false},
		{"jumpstart", scryfall.Set{Name: "Jumpstart 2022", SetType: "draft_innovation", CardCount: 800}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPurchasable(tt.set))
		})
	}
}

func TestConvertCard(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		c := convertCard(scryfall.Card{
			ID: "a1", Name: "Shivan Dragon", Rarity: "rare", TypeLine: "Creature — Dragon", ManaCost: "{4}{R}{R}",
			SetCode: "dmu", SetName: "Dominaria United",
			ImageURIs: &scryfall.ImageURIs{Normal: "n.jpg", Small: "s.jpg"},
			Prices:    scryfall.Prices{EUR: strPtr("1.25"), USD: strPtr("2.00")},
		})
		assert.Equal(t, cards.Rare, c.Rarity)
		assert.Equal(t, "n.jpg", c.Image)
		assert.True(t, decimal.RequireFromString("1.25").Equal(c.PriceHint))
		assert.Equal(t, "Dominaria United", c.SetName)
	})

	t.Run("fallbacks", func(t *testing.T) {
		c := convertCard(scryfall.Card{
			ID: "a2", Name: "Delver", Rarity: "special",
			CardFaces: []scryfall.CardFace{{TypeLine: "Creature — Human", ManaCost: "{U}", ImageURIs: &scryfall.ImageURIs{Small: "face.jpg"}}},
			Prices:    scryfall.Prices{EUR: strPtr("n/a"), USD: strPtr("0.40")},
		})
		assert.Equal(t, cards.Rare, c.Rarity)
		assert.Equal(t, "face.jpg", c.Image)
		assert.Equal(t, "Creature — Human", c.TypeLine)
		assert.Equal(t, "{U}", c.ManaCost)
		assert.True(t, decimal.RequireFromString("0.40").Equal(c.PriceHint))
	})

	t.Run("missing everything", func(t *testing.T) {
		c := convertCard(scryfall.Card{ID: "a3", Name: "Mystery"})
		assert.Equal(t, "", c.Image)
		assert.True(t, c.PriceHint.IsZero())
		assert.Equal(t, cards.Common, c.Rarity)
	})
}

func TestProvider_FetchSetsFiltersAndCaches(t *testing.T) {
	src := new(mockSource)
	src.On("GetSets", mock.Anything).Return(&scryfall.SetList{Data: []scryfall.Set{
		{Code: "dmu", Name: "Dominaria United", SetType: "expansion", CardCount: 281, IconSVGURI: "dmu.svg"},
		{Code: "tdmu", Name: "Dominaria United Tokens", SetType: "token", CardCount: 120},
		{Code: "pdmu", Name: "Dominaria United Promos", SetType: "promo", CardCount: 150},
	}}, nil).Once()

	p := NewProvider(src, nil, time.Hour)

	sets := p.FetchSets(context.Background())
	require.Len(t, sets, 1)
	assert.Equal(t, "dmu", sets[0].Code)
	assert.Equal(t, "dmu.svg", sets[0].IconURL)

	// Served from memory the second time.
	again := p.FetchSets(context.Background())
	assert.Equal(t, sets, again)
	src.AssertNumberOfCalls(t, "GetSets", 1)

	meta, ok := p.LookupSet(context.Background(), "DMU")
	assert.True(t, ok)
	assert.Equal(t, 281, meta.CardCount)
}

func TestProvider_FetchSetsErrorYieldsEmpty(t *testing.T) {
	src := new(mockSource)
	src.On("GetSets", mock.Anything).Return(nil, errors.New("boom"))

	p := NewProvider(src, nil, time.Hour)
	assert.Empty(t, p.FetchSets(context.Background()))
}

func TestProvider_RefreshSetsLogsCounts(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	src := new(mockSource)
	src.On("GetSets", mock.Anything).Return(&scryfall.SetList{Data: []scryfall.Set{
		{Code: "dmu", Name: "Dominaria United", SetType: "expansion", CardCount: 281},
		{Code: "tdmu", Name: "Dominaria United Tokens", SetType: "token", CardCount: 120},
	}}, nil).Once()

	p := NewProvider(src, nil, time.Hour)
	_, err := p.RefreshSets(context.Background())
	require.NoError(t, err)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message != "[SetCache] Loaded purchasable sets" {
			continue
		}
		found = true
		assert.Equal(t, 1, e.Data["sets"])
		assert.Equal(t, 2, e.Data["total"])
	}
	assert.True(t, found, "expected a structured set count entry")
}

func TestProvider_FetchCardsForSet(t *testing.T) {
	src := new(mockSource)
	src.On("SearchAllCards", mock.Anything, "set:dmu").Return([]scryfall.Card{
		{ID: "1", Name: "Forest", TypeLine: "Basic Land — Forest", Rarity: "common"},
		{ID: "2", Name: "Bear", TypeLine: "Creature — Bear", Rarity: "common"},
		{ID: "", Name: "Broken"},
	}, nil).Once()

	p := NewProvider(src, NewMemoryCache(time.Hour), time.Hour)

	list := p.FetchCardsForSet(context.Background(), "DMU")
	require.Len(t, list, 2)

	pool := p.Pool(context.Background(), "dmu")
	assert.Len(t, pool.Lands, 1)
	assert.Len(t, pool.Commons, 1)
	src.AssertNumberOfCalls(t, "SearchAllCards", 1)
}

func TestProvider_FetchCardsErrorYieldsEmpty(t *testing.T) {
	src := new(mockSource)
	src.On("SearchAllCards", mock.Anything, "set:bad").Return(nil, errors.New("network down"))

	p := NewProvider(src, NewMemoryCache(time.Hour), time.Hour)
	assert.Empty(t, p.FetchCardsForSet(context.Background(), "bad"))
	assert.True(t, p.Pool(context.Background(), "bad").Empty())
}

func TestProvider_ConcurrentFetchesShareOneCall(t *testing.T) {
	release := make(chan struct{})
	src := new(mockSource)
	src.On("SearchAllCards", mock.Anything, "set:dmu").
		Run(func(mock.Arguments) { <-release }).
		Return([]scryfall.Card{{ID: "1", Rarity: "rare"}}, nil).Once()

	p := NewProvider(src, nil, time.Hour)

	var wg sync.WaitGroup
	results := make([][]cards.Card, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.FetchCardsForSet(context.Background(), "dmu")
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r, 1)
	}
	src.AssertNumberOfCalls(t, "SearchAllCards", 1)
}

func TestProvider_CancelledCallerGetsEmpty(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	src := new(mockSource)
	src.On("SearchAllCards", mock.Anything, "set:slow").
		Run(func(mock.Arguments) { <-release }).
		Return([]scryfall.Card{{ID: "1"}}, nil)

	p := NewProvider(src, nil, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Empty(t, p.FetchCardsForSet(ctx, "slow"))
}
