package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form object@attribute.
//
// Examples:
//   - "/@version" -> objectPath="/", attrName="version"
//   - "/VoxelDataContainer@DIMENSIONS" -> objectPath="/VoxelDataContainer", attrName="DIMENSIONS"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: %q has no '@' separator", ErrInvalidPath, path)
	}
	objectPath, attrName = CleanPath(path[:at]), path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidPath, path)
	}
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath returns the components of a path, dropping empty components
// and ".".
//
//   - "/" -> []
//   - "a//b/./c/" -> ["a", "b", "c"]
func SplitPath(path string) []string {
	return splitPath(path)
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// CleanPath returns path in absolute form without empty or "." components.
func CleanPath(path string) string {
	return "/" + strings.Join(splitPath(path), "/")
}

// joinPath appends a relative path to a parent path.
func joinPath(parent, rel string) string {
	if strings.HasPrefix(rel, "/") {
		return CleanPath(rel)
	}
	return CleanPath(parent + "/" + rel)
}

// checkName validates the name of a new link or attribute.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidPath, name)
	}
	return nil
}
