package setcache

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/scryfall"
)

// MinSetCardCount is the smallest set offered for sale.
const MinSetCardCount = 100

// excludedSetNames drops product lines that don't sell regular boosters.
var excludedSetNames = []string{"Tokens", "Art Series", "Eternal", "Jumpstart"}

// IsPurchasable reports whether a set should be offered in the shop.
func IsPurchasable(s scryfall.Set) bool {
	if s.CardCount < MinSetCardCount || s.SetType == "promo" || s.Digital {
		return false
	}
	for _, name := range excludedSetNames {
		if strings.Contains(s.Name, name) {
			return false
		}
	}
	return true
}

// convertSet maps a Scryfall set to set metadata.
func convertSet(s scryfall.Set) cards.SetMeta {
	return cards.SetMeta{
		Code:       s.Code,
		Name:       s.Name,
		CardCount:  s.CardCount,
		IconURL:    s.IconSVGURI,
		ReleasedAt: s.ReleasedAt,
		SetType:    s.SetType,
		Digital:    s.Digital,
	}
}

// convertCard normalizes a raw Scryfall card into a strict record.
// Missing images become "", and missing or unparsable prices become zero.
func convertCard(sc scryfall.Card) cards.Card {
	typeLine := sc.TypeLine
	manaCost := sc.ManaCost
	if len(sc.CardFaces) > 0 {
		if typeLine == "" {
			typeLine = sc.CardFaces[0].TypeLine
		}
		if manaCost == "" {
			manaCost = sc.CardFaces[0].ManaCost
		}
	}

	return cards.Card{
		ID:        sc.ID,
		Name:      sc.Name,
		Rarity:    cards.ParseRarity(sc.Rarity),
		Image:     imageURL(sc),
		TypeLine:  typeLine,
		ManaCost:  manaCost,
		SetCode:   sc.SetCode,
		SetName:   sc.SetName,
		PriceHint: priceHint(sc.Prices),
	}
}

func imageURL(sc scryfall.Card) string {
	if u := pickImage(sc.ImageURIs); u != "" {
		return u
	}
	// Double-faced cards carry images per face.
	for _, face := range sc.CardFaces {
		if u := pickImage(face.ImageURIs); u != "" {
			return u
		}
	}
	return ""
}

func pickImage(uris *scryfall.ImageURIs) string {
	if uris == nil {
		return ""
	}
	if uris.Normal != "" {
		return uris.Normal
	}
	return uris.Small
}

// priceHint prefers EUR and falls back to USD.
func priceHint(p scryfall.Prices) decimal.Decimal {
	for _, s := range []*string{p.EUR, p.USD} {
		if s == nil {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(*s))
		if err != nil || d.IsNegative() {
			continue
		}
		return d
	}
	return decimal.Zero
}
