package domain

import (
	"strings"
	"time"
)

// PathSeparator joins ancestor ids in a region's materialized path.
const PathSeparator = ":"

// AdministrativeRegion is a node in the per-project region hierarchy. The
// materialized path is the colon-joined ancestor id chain from root to self
// and must stay consistent with the live parent chain.
type AdministrativeRegion struct {
	ID        string
	ProjectID string
	Name      string
	LevelID   string
	ParentID  *string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the region tops its hierarchy.
func (r *AdministrativeRegion) IsRoot() bool {
	return r.ParentID == nil
}

// BuildPath derives a region's materialized path from its parent's path.
func BuildPath(parentPath, regionID string) string {
	if parentPath == "" {
		return regionID
	}
	return parentPath + PathSeparator + regionID
}

// AncestorIDs returns the ids on the path above the region, root first.
func (r *AdministrativeRegion) AncestorIDs() []string {
	parts := strings.Split(r.Path, PathSeparator)
	if len(parts) <= 1 {
		return nil
	}
	return parts[:len(parts)-1]
}

// IsDescendantOf reports whether the region sits below other in the tree,
// judged by materialized paths alone.
func (r *AdministrativeRegion) IsDescendantOf(other *AdministrativeRegion) bool {
	if other == nil || r.ID == other.ID {
		return false
	}
	return strings.HasPrefix(r.Path, other.Path+PathSeparator)
}
