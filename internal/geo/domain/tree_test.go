package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id snowflake.ID) *snowflake.ID { return &id }

func sampleTree() *Tree {
	return NewTree([]GeoNode{
		{ID: 1, Level: LevelDepartment, Name: "Piura"},
		{ID: 2, Level: LevelProvince, Name: "Morropon", ParentID: ptr(1)},
		{ID: 3, Level: LevelDistrict, Name: "Chulucanas", ParentID: ptr(2)},
		{ID: 4, Level: LevelZone, Name: "Vicus", ParentID: ptr(3)},
		{ID: 5, Level: LevelZone, Name: "Sol Sol", ParentID: ptr(3)},
		{ID: 6, Level: LevelDistrict, Name: "Orphan", ParentID: ptr(99)},
	})
}

func TestAncestorsTerminateAtDepartment(t *testing.T) {
	tree := sampleTree()

	chain, ok := tree.Ancestors(4)
	require.True(t, ok)
	require.Len(t, chain, 3)
	assert.Equal(t, snowflake.ID(3), chain[0].ID)
	assert.Equal(t, LevelDepartment, chain[2].Level)

	_, ok = tree.Ancestors(6)
	assert.False(t, ok)
}

func TestSubtreeAndDescendants(t *testing.T) {
	tree := sampleTree()

	assert.Equal(t, []snowflake.ID{2, 3, 4, 5}, tree.Subtree(2))
	assert.Len(t, tree.Descendants(1), 4)
	assert.Nil(t, tree.Descendants(5))
	assert.Nil(t, tree.Subtree(42))
}

func TestAncestorsDetectsCycle(t *testing.T) {
	tree := NewTree([]GeoNode{
		{ID: 1, Level: LevelProvince, ParentID: ptr(2)},
		{ID: 2, Level: LevelProvince, ParentID: ptr(1)},
	})
	_, ok := tree.Ancestors(1)
	assert.False(t, ok)
}

func TestLevelDepth(t *testing.T) {
	assert.Equal(t, 0, LevelDepartment.Depth())
	assert.Equal(t, 3, LevelZone.Depth())
	assert.Equal(t, -1, Level("hamlet").Depth())
}
