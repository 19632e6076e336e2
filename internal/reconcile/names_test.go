package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsync/internal/caseconv"
	"dbsync/internal/model"
)

func postEntity() *model.EntityDefinition {
	return &model.EntityDefinition{
		Module: "blog",
		Attributes: map[string]model.AttributeDefinition{
			"title": {Type: "varchar", AllowNull: false},
		},
		AttributeOrder:    []string{"title"},
		RelationshipOrder: []string{"author"},
		Relationships:     map[string][]string{"author": {"primary", "editor"}},
		Options:           model.EntityOptions{EnforceLockingConstraints: true},
	}
}

func TestFreshConstraintNameIsUnique(t *testing.T) {
	a := freshConstraintName()
	b := freshConstraintName()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "fk_")
}

func TestExpectedForeignKeysOnePerRole(t *testing.T) {
	e := postEntity()
	fks := expectedForeignKeys(e, caseconv.Snake)
	require.Len(t, fks, 2)
	assert.Equal(t, "author_primary", fks[0].Column)
	assert.Equal(t, "author_editor", fks[1].Column)
	assert.NotEqual(t, fks[0].ConstraintName, fks[1].ConstraintName)
}

func TestExpectedForeignKeysNamesDifferAcrossCalls(t *testing.T) {
	e := postEntity()
	first := expectedForeignKeys(e, caseconv.Snake)
	second := expectedForeignKeys(e, caseconv.Snake)
	assert.NotEqual(t, first[0].ConstraintName, second[0].ConstraintName)
}

func TestRelationshipFromColumnFindsMatch(t *testing.T) {
	e := postEntity()
	related, ok := relationshipFromColumn(e, "author_primary", caseconv.Snake)
	require.True(t, ok)
	assert.Equal(t, "author", related)
}

func TestRelationshipFromColumnNoMatch(t *testing.T) {
	e := postEntity()
	_, ok := relationshipFromColumn(e, "nonexistent_column", caseconv.Snake)
	assert.False(t, ok)
}

func TestExpectedColumnSetIncludesPkAttributesLockingAndFKs(t *testing.T) {
	e := postEntity()
	fks := expectedForeignKeys(e, caseconv.Snake)
	set := expectedColumnSet(e, caseconv.Snake, fks)

	assert.True(t, set["id"])
	assert.True(t, set["title"])
	assert.True(t, set["last_updated"])
	assert.True(t, set["author_primary"])
	assert.True(t, set["author_editor"])
	assert.False(t, set["unrelated"])
}

func TestExpectedColumnSetOmitsLockingWhenDisabled(t *testing.T) {
	e := postEntity()
	e.Options.EnforceLockingConstraints = false
	set := expectedColumnSet(e, caseconv.Snake, nil)
	assert.False(t, set["last_updated"])
}

func TestExpectedIndexNamesUnionsFKsAndDeclaredIndexes(t *testing.T) {
	e := postEntity()
	e.Indexes = []model.IndexDefinition{
		{Attribute: "title", IndexName: "idxTitle", IndexChoice: model.IndexChoicePlain, Type: model.IndexBTree},
	}
	fks := expectedForeignKeys(e, caseconv.Snake)
	names := expectedIndexNames(e, fks, caseconv.Snake)

	assert.True(t, names[fks[0].ConstraintName])
	assert.True(t, names[fks[1].ConstraintName])
	assert.True(t, names["idx_title"])
}
