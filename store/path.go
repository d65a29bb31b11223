// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package store

import (
	"fmt"
	"strings"

	"github.com/IBM/mftwalk/record"
)

const (
	// PathSeparator joins resolved path segments, root first.
	PathSeparator = `\`

	// UnknownDirFormat is the synthetic segment emitted when an ancestor has
	// no entry in the directory name map. The unresolved identity is embedded
	// verbatim so a damaged chain stays traceable back to the table.
	UnknownDirFormat = "[UNKNOWN:%s]"
)

// CyclicAncestryError is returned when a parent chain loops without ever
// reaching the volume root. It indicates corrupt parent references; no path
// exists for such a record.
type CyclicAncestryError struct {
	Start record.Identity
	At    record.Identity
}

func (e CyclicAncestryError) Error() string {
	return fmt.Sprintf("cyclic ancestry resolving path of %s: revisited %s before reaching the root", e.Start, e.At)
}

// GetFullParentPath resolves the full path of the given identity by walking
// parent references in the directory name map up to the volume root. An
// ancestor missing from the map terminates the walk with a synthetic
// segment embedding the unresolved identity instead of failing the whole
// path. The only error condition is a cyclic parent chain.
//
// The catalog must be fully constructed; concurrent readers are fine.
func (c *Catalog) GetFullParentPath(id record.Identity) (string, error) {
	if c.pathCache != nil {
		if cached, ok := c.pathCache.Get(id); ok {
			return cached.(string), nil
		}
	}

	// segments are collected leaf to root and reversed at the end
	var segments []string
	visited := map[record.Identity]bool{}
	current := id
	for {
		if visited[current] {
			return "", CyclicAncestryError{Start: id, At: current}
		}
		visited[current] = true

		ent, ok := c.LookupName(current)
		if !ok {
			segments = append(segments, fmt.Sprintf(UnknownDirFormat, current))
			break
		}
		segments = append(segments, ent.Name)
		if current == record.RootIdentity {
			break
		}
		current = ent.Parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	path := strings.Join(segments, PathSeparator)

	if c.pathCache != nil {
		c.pathCache.Add(id, path)
	}
	return path, nil
}
