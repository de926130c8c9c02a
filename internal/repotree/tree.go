// Package repotree converts the flat recursive tree listing returned by the
// GitHub API into the nested structure the navigation UI walks.
//
// The builder is a pure function over its input: it performs no I/O, raises
// no errors, and leaves display ordering to the caller. Entries whose parent
// directory is missing from the listing are promoted to top level rather than
// dropped, so a truncated or otherwise incomplete listing still renders.
package repotree

import (
	"sort"
	"strings"
)

// Entry types as reported by the GitHub git/trees endpoint.
const (
	TypeTree = "tree"
	TypeBlob = "blob"
)

// Entry is one file or directory in the repository listing. Path is
// slash-delimited and unique across the listing. Mode, SHA and Size are
// passed through from the API untouched. Children is populated for tree
// entries by Build and holds them in input order.
type Entry struct {
	Path     string
	Type     string
	Mode     string
	SHA      string
	Size     int64
	Children []*Entry
}

// Name returns the final path segment.
func (e *Entry) Name() string {
	if i := strings.LastIndex(e.Path, "/"); i >= 0 {
		return e.Path[i+1:]
	}
	return e.Path
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Type == TypeTree
}

// ParentPath returns the path of the entry's parent directory, or "" for a
// top-level entry.
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Build converts a flat listing into a forest of top-level entries. Callers
// traverse Children for the rest.
//
// Every entry is first registered in a path-indexed map, then attached to the
// entry matching its parent path. The index covers the whole input before any
// parent lookup happens, so ordering within the listing does not matter. An
// entry whose parent path is not in the listing becomes a root itself; the
// entry count of the resulting forest always equals the input length.
//
// The input is assumed pre-filtered and duplicate-free. On duplicate paths
// the later entry wins the index slot and earlier ones still appear in their
// parent's children, so duplicates should be rejected upstream.
func Build(entries []Entry) []*Entry {
	index := make(map[string]*Entry, len(entries))
	nodes := make([]*Entry, len(entries))

	for i := range entries {
		node := entries[i]
		node.Children = nil
		nodes[i] = &node
		index[node.Path] = &node
	}

	var roots []*Entry
	for _, node := range nodes {
		parent := ParentPath(node.Path)
		if parent == "" {
			roots = append(roots, node)
			continue
		}
		if p, ok := index[parent]; ok && p != node {
			p.Children = append(p.Children, node)
			continue
		}
		// Orphaned entry: the listing never mentioned its parent.
		roots = append(roots, node)
	}

	return roots
}

// SortSiblings orders a sibling slice for display: directories before files,
// then ascending lexical order by full path. The builder itself never sorts;
// the navigation view calls this on every render.
func SortSiblings(siblings []*Entry) []*Entry {
	sorted := make([]*Entry, len(siblings))
	copy(sorted, siblings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir() != sorted[j].IsDir() {
			return sorted[i].IsDir()
		}
		return sorted[i].Path < sorted[j].Path
	})
	return sorted
}

// Find walks the forest for the entry with the given path, or nil. Orphan
// promotion means a nested path can sit at top level, so no prefix pruning.
func Find(forest []*Entry, path string) *Entry {
	for _, root := range forest {
		if root.Path == path {
			return root
		}
		if e := Find(root.Children, path); e != nil {
			return e
		}
	}
	return nil
}

// Count returns the total number of entries in the forest, recursively.
func Count(forest []*Entry) int {
	n := 0
	for _, root := range forest {
		n += 1 + Count(root.Children)
	}
	return n
}
