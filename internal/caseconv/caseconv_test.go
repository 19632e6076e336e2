package caseconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"":          Snake,
		"snake":     Snake,
		"snakecase": Snake,
		"snake_case": Snake,
		"PASCAL":    Pascal,
		"pascalCase": Pascal,
		"camel":     Camel,
		"CamelCase": Camel,
	}
	for raw, want := range cases {
		got, err := ParsePolicy(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParsePolicyRejectsUnknown(t *testing.T) {
	_, err := ParsePolicy("kebab")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "example_one_big_int", Normalize("exampleOneBigInt", Snake))
	assert.Equal(t, "ExampleOneBigInt", Normalize("exampleOneBigInt", Pascal))
	assert.Equal(t, "exampleOneBigInt", Normalize("exampleOneBigInt", Camel))
}

func TestNormalizeSingleWord(t *testing.T) {
	assert.Equal(t, "id", Normalize("id", Snake))
	assert.Equal(t, "Id", Normalize("id", Pascal))
	assert.Equal(t, "id", Normalize("id", Camel))
}

func TestDenormalizeRoundTrip(t *testing.T) {
	for _, policy := range []Policy{Snake, Pascal, Camel} {
		normalized := Normalize("exampleOneBigInt", policy)
		assert.Equal(t, "exampleOneBigInt", Denormalize(normalized, policy), policy)
	}
}

func TestPrimaryKeyColumn(t *testing.T) {
	assert.Equal(t, "id", PrimaryKeyColumn(Snake))
	assert.Equal(t, "Id", PrimaryKeyColumn(Pascal))
	assert.Equal(t, "id", PrimaryKeyColumn(Camel))
}

func TestLockingColumn(t *testing.T) {
	assert.Equal(t, "last_updated", LockingColumn(Snake))
	assert.Equal(t, "LastUpdated", LockingColumn(Pascal))
	assert.Equal(t, "lastUpdated", LockingColumn(Camel))
}

func TestRelationshipColumn(t *testing.T) {
	assert.Equal(t, "author_primary", RelationshipColumn("author", "primary", Snake))
	assert.Equal(t, "AuthorPrimary", RelationshipColumn("author", "primary", Pascal))
	assert.Equal(t, "authorprimary", RelationshipColumn("author", "primary", Camel))
}
