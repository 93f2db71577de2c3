// Package datagen produces random column values for a schema.
//
// A Generator owns a single *rand.Rand and is not safe for concurrent use;
// one generator serves one load. Distributions follow the benchmark's
// historical behaviour rather than textbook uniformity: bigint and numeric
// values are the product of a bounded draw and a large constant, so
// magnitudes cluster at the extremes of (and for numeric, far beyond) the
// 64-bit range.
package datagen

import (
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"time"

	"pgbinload/internal/schema"
)

// drawBound bounds the signed draw used by the bigint and numeric
// generators: values fall in [-drawBound, drawBound).
const drawBound = 1_000_000_000

// RowSource hands out generated rows. rowIndex runs from 0 to N-1 and the
// returned row always has s.NonSerialLen() values.
type RowSource interface {
	NextRow(s *schema.Schema, rowIndex int) (schema.Row, error)
}

// Generator produces values for every supported kind.
type Generator struct {
	rng *rand.Rand
}

var _ RowSource = (*Generator)(nil)

// NewGenerator returns a generator seeded with seed. A zero seed picks a
// time based one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NextRow generates one value per non-serial column of s.
func (g *Generator) NextRow(s *schema.Schema, rowIndex int) (schema.Row, error) {
	row := make(schema.Row, s.NonSerialLen())
	for i := range row {
		v, err := g.Value(s.Column(i), rowIndex)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// Value generates a single value for col. rowIndex only matters for
// multibyte text, which cycles through its presets by row.
func (g *Generator) Value(col schema.ColumnDefinition, rowIndex int) (any, error) {
	switch col.Kind {
	case schema.KindInt32:
		return g.Int32(), nil
	case schema.KindInt64:
		return g.Int64(), nil
	case schema.KindDecimal:
		return g.Decimal(), nil
	case schema.KindBoolean:
		return g.Bool(), nil
	case schema.KindText:
		if col.MaxLength == schema.Unbounded {
			return nil, fmt.Errorf("datagen: column %q: %w", col.Name, ErrUnboundedText)
		}
		return g.Text(col.MaxLength), nil
	case schema.KindMultibyteText:
		return MultibyteText(rowIndex), nil
	case schema.KindJSON:
		return g.JSON()
	case schema.KindSerial:
		return nil, &InternalError{Column: col.Name, Kind: col.Kind, Reason: "serial columns are not generated"}
	default:
		return nil, &InternalError{Column: col.Name, Kind: col.Kind, Reason: "no generator for kind"}
	}
}

// Int32 is uniform over the whole signed 32-bit range.
func (g *Generator) Int32() int32 {
	return int32(g.rng.Uint32())
}

// Int64 returns draw*MaxInt32 for a draw in [-1e9, 1e9).
func (g *Generator) Int64() int64 {
	return g.draw() * math.MaxInt32
}

// Decimal returns draw*MaxInt64 for a draw in [-1e9, 1e9). The product is
// exact and routinely exceeds 64 bits.
func (g *Generator) Decimal() *big.Int {
	return new(big.Int).Mul(big.NewInt(g.draw()), big.NewInt(math.MaxInt64))
}

// Bool is a fair coin.
func (g *Generator) Bool() bool {
	return g.rng.Float64() > 0.5
}

// Text returns n random letters from A to Z.
func (g *Generator) Text(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('A' + g.rng.Intn(26))
	}
	return string(b)
}

func (g *Generator) draw() int64 {
	return g.rng.Int63n(2*drawBound) - drawBound
}
