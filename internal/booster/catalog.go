// Package booster содержит неизменяемый каталог пакетов бустеров.
package booster

import (
	"fmt"

	"github.com/shopspring/decimal"

	"anycraft.io/bot/internal/validation"
)

const callbackPrefix = "boost_"

// Tier - пакет бустеров. Price в центах.
type Tier struct {
	ID     string `json:"id" validate:"required,tier_id"`
	Amount int    `json:"amount" validate:"gt=0"`
	Price  int64  `json:"price" validate:"gt=0"`
}

// CallbackData - данные inline-кнопки выбора пакета.
func (t Tier) CallbackData() string {
	return callbackPrefix + t.ID
}

// DisplayPrice - цена в долларах, например "1.50".
func (t Tier) DisplayPrice() string {
	return decimal.New(t.Price, -2).StringFixed(2)
}

// Catalog - таблица пакетов. После создания не изменяется.
type Catalog struct {
	tiers []Tier
	byID  map[string]Tier
}

type tierTable struct {
	Tiers []Tier `json:"tiers" validate:"required,min=1,unique=ID,dive"`
}

// DefaultTiers - пакеты, продаваемые ботом.
func DefaultTiers() []Tier {
	return []Tier{
		{ID: "5", Amount: 5, Price: 100},
		{ID: "10", Amount: 10, Price: 150},
		{ID: "20", Amount: 20, Price: 200},
		{ID: "50", Amount: 50, Price: 400},
		{ID: "100", Amount: 100, Price: 450},
	}
}

// DefaultCatalog собирает каталог из DefaultTiers. Таблица статична,
// поэтому ошибка валидации здесь - ошибка программиста.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTiers())
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog проверяет пакеты и строит таблицу поиска.
func NewCatalog(tiers []Tier) (*Catalog, error) {
	spec := tierTable{Tiers: tiers}
	if errs := validation.ValidateStruct(spec); errs != nil {
		return nil, fmt.Errorf("booster: некорректный каталог: %s", validation.Summary(errs))
	}

	c := &Catalog{
		tiers: make([]Tier, len(tiers)),
		byID:  make(map[string]Tier, len(tiers)),
	}
	copy(c.tiers, tiers)
	for _, t := range tiers {
		c.byID[t.ID] = t
	}
	return c, nil
}

// Lookup ищет пакет по идентификатору ("5", "10", ...).
func (c *Catalog) Lookup(id string) (Tier, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Tiers возвращает копию пакетов в порядке каталога.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// IsTierCallback сообщает, что данные кнопки относятся к выбору пакета.
func IsTierCallback(data string) bool {
	_, ok := TierIDFromCallback(data)
	return ok
}

// TierIDFromCallback извлекает идентификатор пакета из "boost_<id>".
// Идентификатор не проверяется по каталогу.
func TierIDFromCallback(data string) (string, bool) {
	if len(data) <= len(callbackPrefix) || data[:len(callbackPrefix)] != callbackPrefix {
		return "", false
	}
	return data[len(callbackPrefix):], true
}
