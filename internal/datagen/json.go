package datagen

import (
	"fmt"
	"math/big"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// RegisteredLayout is the layout of the "registered" timestamp inside
// generated JSON documents.
const RegisteredLayout = "2006-01-02T15:04:05 -07:00"

// epoch is 0001-01-01 UTC; registered timestamps are a random number of
// 100ns ticks after it.
var epoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// document is the fixed shape of every generated JSON value. Field order is
// the serialization order.
type document struct {
	GUID       string    `json:"guid"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	Company    string    `json:"company"`
	Address    string    `json:"address"`
	Registered string    `json:"registered"`
	Latitude   *big.Int  `json:"latitude"`
	Longitude  *big.Int  `json:"longitude"`
	Tags       [3]string `json:"tags"`
}

// JSON renders a random document. Every string component is plain
// alphanumeric, so no escaping ever kicks in.
func (g *Generator) JSON() (string, error) {
	// Drawing the guid from the generator's own source keeps a seeded run
	// reproducible.
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return "", fmt.Errorf("datagen: json guid: %w", err)
	}
	doc := document{
		GUID:       id.String(),
		Name:       g.Text(12),
		Active:     g.Bool(),
		Company:    g.Text(8),
		Address:    g.Text(64),
		Registered: g.registered(),
		Latitude:   g.Decimal(),
		Longitude:  g.Decimal(),
		Tags:       [3]string{g.Text(8), g.Text(8), g.Text(8)},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("datagen: json marshal: %w", err)
	}
	return string(b), nil
}

func (g *Generator) registered() string {
	ticks := g.rng.Int31()
	return epoch.Add(time.Duration(ticks) * 100).Format(RegisteredLayout)
}
