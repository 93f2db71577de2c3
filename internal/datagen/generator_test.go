package datagen

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgbinload/internal/schema"
)

func mustSchema(t *testing.T, columnMap string) *schema.Schema {
	t.Helper()
	s, err := schema.ParseColumnMap(columnMap)
	require.NoError(t, err)
	return s
}

// TestNextRow_ArityAndTypes checks a row has one value per non-serial column
// and each value has the Go type the encoder expects.
func TestNextRow_ArityAndTypes(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, "id=serial,a=int4,b=int8,c=numeric,d=varchar(7),e=text(5):multibyte,f=jsonb,g=bool")
	g := NewGenerator(42)

	row, err := g.NextRow(s, 3)
	require.NoError(t, err)
	require.Len(t, row, s.NonSerialLen())

	assert.IsType(t, int32(0), row[0])
	assert.IsType(t, int64(0), row[1])
	assert.IsType(t, (*big.Int)(nil), row[2])
	assert.IsType(t, "", row[3])
	assert.Len(t, row[3].(string), 7)
	assert.Equal(t, MultibyteText(3), row[4])
	assert.IsType(t, "", row[5])
	assert.IsType(t, true, row[6])
}

// TestGenerator_SeededIsDeterministic verifies two generators with the same
// seed produce identical rows, JSON guid included.
func TestGenerator_SeededIsDeterministic(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, "a=int4,b=bigint,c=decimal,d=char(10),e=json,f=boolean")
	g1, g2 := NewGenerator(7), NewGenerator(7)

	for i := 0; i < 25; i++ {
		r1, err := g1.NextRow(s, i)
		require.NoError(t, err)
		r2, err := g2.NextRow(s, i)
		require.NoError(t, err)
		assert.Equal(t, r1, r2, "row %d", i)
	}
}

func TestText_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	g := NewGenerator(1)
	assert.Equal(t, "", g.Text(0))

	for _, n := range []int{1, 5, 64, 500} {
		s := g.Text(n)
		require.Len(t, s, n)
		for _, r := range s {
			require.True(t, r >= 'A' && r <= 'Z', "unexpected rune %q", r)
		}
	}
}

func TestValue_UnboundedText(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, "a=text")
	_, err := NewGenerator(1).NextRow(s, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnboundedText))
	assert.Contains(t, err.Error(), `"a"`)
}

// TestValue_ZeroLengthText covers the explicit empty-string case.
func TestValue_ZeroLengthText(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, "a=varchar(0)")
	row, err := NewGenerator(1).NextRow(s, 0)
	require.NoError(t, err)
	assert.Equal(t, "", row[0])
}

func TestValue_InternalErrors(t *testing.T) {
	t.Parallel()

	g := NewGenerator(1)
	for _, col := range []schema.ColumnDefinition{
		{Name: "id", Kind: schema.KindSerial, IsSerial: true},
		{Name: "bad", Kind: schema.KindInvalid},
		{Name: "worse", Kind: schema.Kind(99)},
	} {
		_, err := g.Value(col, 0)
		var ie *InternalError
		require.True(t, errors.As(err, &ie), "column %s: %v", col.Name, err)
		assert.Equal(t, col.Name, ie.Column)
	}
}

// TestMultibyteText_Cycle checks presets repeat every ten rows and are all
// genuinely multi-byte.
func TestMultibyteText_Cycle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, MultibytePresetCount)
	assert.Equal(t, MultibyteText(0), MultibyteText(10))
	assert.Equal(t, MultibyteText(3), MultibyteText(1003))
	assert.NotEqual(t, MultibyteText(0), MultibyteText(1))
	assert.Equal(t, MultibyteText(9), MultibyteText(-1))

	seen := map[string]struct{}{}
	for i := 0; i < MultibytePresetCount; i++ {
		s := MultibyteText(i)
		require.True(t, utf8.ValidString(s))
		assert.Greater(t, len(s), utf8.RuneCountInString(s), "preset %d is single-byte", i)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, MultibytePresetCount)
	assert.Equal(t, 14, MaxMultibyteRunes())
}

// TestInt64_Distribution checks every value is a multiple of MaxInt32 with a
// bounded factor.
func TestInt64_Distribution(t *testing.T) {
	t.Parallel()

	g := NewGenerator(99)
	for i := 0; i < 1000; i++ {
		v := g.Int64()
		require.Zero(t, v%math.MaxInt32)
		f := v / math.MaxInt32
		require.True(t, f >= -drawBound && f < drawBound, "factor %d", f)
	}
}

func TestDecimal_Magnitude(t *testing.T) {
	t.Parallel()

	g := NewGenerator(5)
	maxInt64 := big.NewInt(math.MaxInt64)
	limit := new(big.Int).Mul(big.NewInt(drawBound), maxInt64)
	for i := 0; i < 1000; i++ {
		v := g.Decimal()
		var rem big.Int
		new(big.Int).QuoRem(v, maxInt64, &rem)
		require.Zero(t, rem.Sign())
		require.True(t, new(big.Int).Abs(v).Cmp(limit) <= 0)
	}
}

// TestJSON_Shape parses a generated document and checks every field.
func TestJSON_Shape(t *testing.T) {
	t.Parallel()

	g := NewGenerator(11)
	doc, err := g.JSON()
	require.NoError(t, err)

	var got struct {
		GUID       string      `json:"guid"`
		Name       string      `json:"name"`
		Active     *bool       `json:"active"`
		Company    string      `json:"company"`
		Address    string      `json:"address"`
		Registered string      `json:"registered"`
		Latitude   json.Number `json:"latitude"`
		Longitude  json.Number `json:"longitude"`
		Tags       []string    `json:"tags"`
	}
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&got))

	_, err = uuid.Parse(got.GUID)
	require.NoError(t, err)
	assert.Len(t, got.Name, 12)
	require.NotNil(t, got.Active)
	assert.Len(t, got.Company, 8)
	assert.Len(t, got.Address, 64)
	assert.Len(t, got.Tags, 3)
	for _, tag := range got.Tags {
		assert.Len(t, tag, 8)
	}

	ts, err := time.Parse(RegisteredLayout, got.Registered)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Year())

	for _, n := range []json.Number{got.Latitude, got.Longitude} {
		_, ok := new(big.Int).SetString(n.String(), 10)
		assert.True(t, ok, "coordinate %q is not an integer", n)
	}

	assert.True(t, strings.HasPrefix(doc, `{"guid":"`), doc)
}
