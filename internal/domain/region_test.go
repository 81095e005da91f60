package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPath(t *testing.T) {
	assert.Equal(t, "r1", BuildPath("", "r1"))
	assert.Equal(t, "r1:r2", BuildPath("r1", "r2"))
	assert.Equal(t, "r1:r2:r3", BuildPath("r1:r2", "r3"))
}

func TestAncestorIDs(t *testing.T) {
	root := AdministrativeRegion{ID: "r1", Path: "r1"}
	assert.Nil(t, root.AncestorIDs())

	leaf := AdministrativeRegion{ID: "r3", Path: "r1:r2:r3"}
	assert.Equal(t, []string{"r1", "r2"}, leaf.AncestorIDs())
}

func TestIsDescendantOf(t *testing.T) {
	root := &AdministrativeRegion{ID: "r1", Path: "r1"}
	child := &AdministrativeRegion{ID: "r2", Path: "r1:r2"}
	grandchild := &AdministrativeRegion{ID: "r3", Path: "r1:r2:r3"}
	sibling := &AdministrativeRegion{ID: "r20", Path: "r1:r20"}

	assert.True(t, child.IsDescendantOf(root))
	assert.True(t, grandchild.IsDescendantOf(root))
	assert.True(t, grandchild.IsDescendantOf(child))

	assert.False(t, root.IsDescendantOf(child))
	assert.False(t, child.IsDescendantOf(child))
	assert.False(t, child.IsDescendantOf(nil))
	// "r1:r2" is a string prefix of "r1:r20" but not an ancestor path
	assert.False(t, sibling.IsDescendantOf(child))
}

func TestIsRoot(t *testing.T) {
	parentID := "r1"
	assert.True(t, (&AdministrativeRegion{ID: "r1"}).IsRoot())
	assert.False(t, (&AdministrativeRegion{ID: "r2", ParentID: &parentID}).IsRoot())
}
