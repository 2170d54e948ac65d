package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profile-screener/internal/schema"
)

func TestNormalize(t *testing.T) {
	mapping := schema.Mapping{
		schema.FieldName:     {Native: "full_name", Confidence: 1.0, Rule: schema.RuleSynonym},
		schema.FieldDOB:      {Native: "birth", Confidence: 0.5, Rule: schema.RuleValueShape},
		schema.FieldPassport: {Native: "pp_no", Confidence: 1.0, Rule: schema.RuleSynonym},
	}
	raw := RawRecord{
		"full_name": "Rahul Mehra",
		"birth":     "   ",
		"remarks":   "keep me",
	}

	c := Normalize("tabular-file:/data/customers.csv", 3, raw, mapping)

	assert.Equal(t, "tabular-file:/data/customers.csv#3", c.Key())

	// Mapped and usable.
	v, ok := c.Get(schema.FieldName)
	require.True(t, ok)
	assert.Equal(t, "Rahul Mehra", v)

	// Mapped but blank: absent, not empty.
	_, ok = c.Get(schema.FieldDOB)
	assert.False(t, ok)

	// Mapped but missing from the record: absent.
	_, ok = c.Get(schema.FieldPassport)
	assert.False(t, ok)

	// The raw record rides along untouched.
	assert.Equal(t, "keep me", c.Native["remarks"])
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"tabular-file", "semi-structured-file", "relational-table"} {
		k, err := ParseKind(valid)
		require.NoError(t, err)
		assert.Equal(t, Kind(valid), k)
	}

	_, err := ParseKind("spreadsheet")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestDescriptorKey(t *testing.T) {
	file := Descriptor{Kind: KindTabularFile, Location: "/data/customers.csv"}
	assert.Equal(t, "tabular-file:/data/customers.csv", file.Key())

	table := Descriptor{Kind: KindRelationalTable, Location: "screening", Table: "accounts"}
	assert.Equal(t, "relational-table:screening/accounts", table.Key())

	named := Descriptor{Name: "accounts", Kind: KindRelationalTable, Location: "screening", Table: "accounts"}
	assert.Equal(t, "accounts", named.String())
	assert.Equal(t, table.Key(), named.Key())
}

func TestNewAdapterUnsupported(t *testing.T) {
	_, err := NewAdapter(Descriptor{Kind: Kind("carrier-pigeon")}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = NewAdapter(Descriptor{Kind: KindRelationalTable, Table: "accounts"}, nil)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
