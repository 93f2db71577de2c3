package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapType_NoFallback(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"money", "uuid", "timestamp", "float8", ""} {
		k, err := MapType(typ, nil)
		require.Error(t, err, typ)
		assert.Equal(t, KindInvalid, k)

		var ute *UnsupportedTypeError
		require.True(t, errors.As(err, &ute))
		assert.Equal(t, typ, ute.Type)
		assert.Empty(t, ute.Column)
	}
}

func TestNewSchema_Invariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cols []ColumnDefinition
		want string
	}{
		{"empty", nil, "at least one column"},
		{"empty name", []ColumnDefinition{{Kind: KindInt32, MaxLength: Unbounded}}, "empty name"},
		{"invalid kind", []ColumnDefinition{{Name: "a", MaxLength: Unbounded}}, "invalid kind"},
		{"serial mismatch", []ColumnDefinition{{Name: "a", Kind: KindSerial, MaxLength: Unbounded}}, "serial flag"},
		{"negative length", []ColumnDefinition{{Name: "a", Kind: KindText, MaxLength: -5}}, "negative length"},
		{
			"duplicate",
			[]ColumnDefinition{
				{Name: "a", Kind: KindInt32, MaxLength: Unbounded},
				{Name: "a", Kind: KindInt64, MaxLength: Unbounded},
			},
			"duplicate column",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSchema(tt.cols...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestSchema_CopiesAreIndependent ensures callers cannot mutate a schema
// through the slices it hands out.
func TestSchema_CopiesAreIndependent(t *testing.T) {
	t.Parallel()

	s, err := NewSchema(
		ColumnDefinition{Name: "a", Kind: KindText, TypeName: "text", MaxLength: 3, Tags: []string{"x"}},
		ColumnDefinition{Name: "id", Kind: KindSerial, TypeName: "serial", MaxLength: Unbounded, IsSerial: true},
	)
	require.NoError(t, err)

	cols := s.NonSerial()
	cols[0].Name = "changed"

	assert.Equal(t, "a", s.Column(0).Name)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.NonSerialLen())
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "multibyte_text", KindMultibyteText.String())
	assert.Equal(t, "serial", KindSerial.String())
	assert.Equal(t, "kind(200)", Kind(200).String())
	assert.False(t, Kind(200).Valid())
	assert.True(t, KindText.IsText())
	assert.False(t, KindJSON.IsText())
}
