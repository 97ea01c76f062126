package store

import (
	"fmt"
	"strings"
)

// ParseAttrPath parses an attribute path into object path and attribute name.
// Path format: /group/subgroup/object@attribute_name
//
// Examples:
//   - "/@file_version" -> objectPath="/", attrName="file_version"
//   - "/UniqueGlobalKey/channel_id@digitisation" -> objectPath="/UniqueGlobalKey/channel_id", attrName="digitisation"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("empty attribute path: %w", ErrInvalidPath)
	}
	atIdx := strings.LastIndex(path, "@")
	if atIdx == -1 {
		return "", "", fmt.Errorf("attribute path must contain '@' separator: %s: %w", path, ErrInvalidPath)
	}
	objectPath = path[:atIdx]
	attrName = path[atIdx+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("attribute name cannot be empty: %s: %w", path, ErrInvalidPath)
	}
	return CleanPath(objectPath), attrName, nil
}

// JoinAttrPath creates an attribute path from object path and attribute name.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath splits a path into its components, dropping empty ones.
//
// Examples:
//   - "/" -> []string{}
//   - "Raw/Reads/Read_12" -> []string{"Raw", "Reads", "Read_12"}
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanPath normalizes a path, ensuring it starts with "/" and has no trailing slash.
func CleanPath(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// JoinPath joins a parent path and a child name.
func JoinPath(parent, name string) string {
	if parent == "/" || parent == "" {
		return CleanPath(name)
	}
	return CleanPath(parent + "/" + name)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/@") {
		return fmt.Errorf("%w: member name %q", ErrInvalidPath, name)
	}
	return nil
}
