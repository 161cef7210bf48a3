package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

var fifty = decimal.NewFromInt(50)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(t *testing.T) (*SnapshotStore, *MemorySink) {
	t.Helper()
	sink := NewMemorySink()
	return NewSnapshotStore(sink, "", fifty), sink
}

func sampleState() economy.State {
	st := economy.DefaultState(dec("37.25"))
	st.Collection = []economy.CollectionEntry{{
		Card: booster.DrawnCard{
			Card:         cards.Card{ID: "c1", Name: "Shock", Rarity: cards.Common, SetCode: "abc"},
			Price:        dec("0.25"),
			SetIcon:      "abc.svg",
			SetCardCount: 250,
		},
		Quantity: 3,
	}}
	st.Cart = []economy.CartLine{{SetCode: "abc", SetName: "Alpha", Quantity: 2, UnitPrice: dec("5")}}
	st.UnopenedBoosters = []economy.Booster{{ID: "abc-tok-0", SetCode: "abc", SetName: "Alpha"}}
	st.SellCart = []economy.SellLine{{CardID: "c1", Name: "Shock", Rarity: cards.Common, Quantity: 2, UnitPrice: dec("0.25")}}
	return st
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	want := sampleState()

	require.NoError(t, store.Save(ctx, want))
	got, ok := store.Load(ctx)
	require.True(t, ok)

	assert.True(t, want.Balance.Equal(got.Balance), "balance %s", got.Balance)
	require.Len(t, got.Collection, 1)
	assert.Equal(t, "Shock", got.Collection[0].Card.Name)
	assert.Equal(t, 3, got.Collection[0].Quantity)
	assert.True(t, dec("0.25").Equal(got.Collection[0].Card.Price))
	assert.Equal(t, 250, got.Collection[0].Card.SetCardCount)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, 2, got.Cart[0].Quantity)
	require.Len(t, got.UnopenedBoosters, 1)
	assert.Equal(t, "abc-tok-0", got.UnopenedBoosters[0].ID)
	require.Len(t, got.SellCart, 1)
	assert.Equal(t, 2, got.SellCart[0].Quantity)
}

func TestSnapshotStore_DocumentShape(t *testing.T) {
	ctx := context.Background()
	store, sink := newStore(t)
	require.NoError(t, store.Save(ctx, economy.DefaultState(fifty)))

	raw, err := sink.Get(ctx, DefaultKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `0`, string(doc["version"]))

	var st map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["state"], &st))
	for _, k := range []string{"balance", "collection", "cart", "unopenedBoosters", "sellCart"} {
		assert.Contains(t, st, k)
	}
	assert.JSONEq(t, `[]`, string(st["collection"]))
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store, _ := newStore(t)
	st, ok := store.Load(context.Background())

	assert.False(t, ok)
	assert.True(t, fifty.Equal(st.Balance))
	assert.NotNil(t, st.Collection)
	assert.NotNil(t, st.SellCart)
}

func TestSnapshotStore_HydratesMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		balance string
	}{
		{"only balance", `{"state":{"balance":12.5},"version":0}`, "12.5"},
		{"string balance", `{"state":{"balance":"7.10"}}`, "7.1"},
		{"missing balance", `{"state":{"cart":[]},"version":0}`, "50"},
		{"null balance", `{"state":{"balance":null},"version":0}`, "50"},
		{"zero balance stays zero", `{"state":{"balance":0},"version":0}`, "0"},
		{"legacy euros", `{"state":{"euros":3},"version":0}`, "3"},
		{"balance wins over euros", `{"state":{"balance":4,"euros":3},"version":0}`, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, sink := newStore(t)
			require.NoError(t, sink.Put(ctx, DefaultKey, []byte(tt.doc)))

			st, ok := store.Load(ctx)
			require.True(t, ok)
			assert.True(t, dec(tt.balance).Equal(st.Balance), "balance %s", st.Balance)
			assert.NotNil(t, st.Collection)
			assert.NotNil(t, st.Cart)
			assert.NotNil(t, st.UnopenedBoosters)
			assert.NotNil(t, st.SellCart)
		})
	}
}

func TestSnapshotStore_DiscardsCorrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"no state", `{"version":0}`},
		{"null state", `{"state":null,"version":0}`},
		{"future version", `{"state":{"balance":10},"version":1}`},
		{"negative balance", `{"state":{"balance":-1}}`},
		{"bad balance", `{"state":{"balance":"lots"}}`},
		{"zero quantity", `{"state":{"collection":[{"card":{"id":"c1"},"quantity":0}]}}`},
		{"sell above owned", `{"state":{
			"collection":[{"card":{"id":"c1","price":"1"},"quantity":1}],
			"sellCart":[{"cardId":"c1","quantity":2,"unitPrice":"1"}]}}`},
		{"sell unowned", `{"state":{"sellCart":[{"cardId":"c9","quantity":1,"unitPrice":"1"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, sink := newStore(t)
			require.NoError(t, sink.Put(ctx, DefaultKey, []byte(tt.doc)))

			st, ok := store.Load(ctx)
			assert.False(t, ok)
			assert.True(t, fifty.Equal(st.Balance))
			assert.Empty(t, st.Collection)
			assert.Empty(t, st.SellCart)
		})
	}
}

type brokenSink struct{ err error }

func (b brokenSink) Get(context.Context, string) ([]byte, error) { return nil, b.err }
func (b brokenSink) Put(context.Context, string, []byte) error   { return b.err }
func (b brokenSink) Delete(context.Context, string) error        { return b.err }

func TestSnapshotStore_SinkErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	store := NewSnapshotStore(brokenSink{err: boom}, "custom", fifty)

	assert.Equal(t, "custom", store.Key())

	st, ok := store.Load(ctx)
	assert.False(t, ok, "read failure falls back to defaults")
	assert.True(t, fifty.Equal(st.Balance))

	assert.ErrorIs(t, store.Save(ctx, st), boom)
	assert.ErrorIs(t, store.Clear(ctx), boom)

	notFound := NewSnapshotStore(brokenSink{err: ErrNotFound}, "", fifty)
	assert.NoError(t, notFound.Clear(ctx))
}

func TestSnapshotStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.Save(ctx, sampleState()))

	require.NoError(t, store.Clear(ctx))
	_, ok := store.Load(ctx)
	assert.False(t, ok)
	assert.NoError(t, store.Clear(ctx))
}
