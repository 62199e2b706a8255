package hdf5

import "strings"

// SplitPath splits a path into its non-empty components.
//
//   - "/" -> []
//   - "/foo/bar" -> ["foo", "bar"]
func SplitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	return parts
}

// JoinPath joins a group path and a member name.
func JoinPath(parent, name string) string {
	if parent == "/" || parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}
