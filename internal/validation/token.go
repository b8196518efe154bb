package validation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when a token is not base64-encoded JSON.
	ErrDecode = errors.New("validation token could not be decoded")
	// ErrFormat is returned when a token decodes to the wrong shape.
	ErrFormat = errors.New("validation token has an invalid format")
)

// Serialize encodes tree as base64 of its JSON form.
func Serialize(tree Tree) (string, error) {
	normalized := make(Tree, len(tree))
	for id, entry := range tree {
		entry.Tree.Added = nonNil(entry.Tree.Added)
		entry.Tree.Modified = nonNil(entry.Tree.Modified)
		entry.Tree.Removed = nonNil(entry.Tree.Removed)
		normalized[id] = entry
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to encode validation tree: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Deserialize decodes a token produced by Serialize.
func Deserialize(token string) (Tree, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := checkShape(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for id, entry := range tree {
		entry.Tree.Added = nonNil(entry.Tree.Added)
		entry.Tree.Modified = nonNil(entry.Tree.Modified)
		entry.Tree.Removed = nonNil(entry.Tree.Removed)
		tree[id] = entry
	}
	return tree, nil
}

// checkShape verifies that a decoded value is a map of commit IDs to
// entries with a string parent and three file lists.
func checkShape(raw any) error {
	commits, ok := raw.(map[string]any)
	if !ok {
		return errors.New("top level is not an object")
	}
	for id, v := range commits {
		entry, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("commit %q is not an object", id)
		}
		if _, ok := entry["parent_id"].(string); !ok {
			return fmt.Errorf("commit %q has no parent_id", id)
		}
		tree, ok := entry["tree"].(map[string]any)
		if !ok {
			return fmt.Errorf("commit %q has no tree", id)
		}
		for _, key := range []string{"added", "modified", "removed"} {
			list, present := tree[key]
			if !present || list == nil {
				continue
			}
			items, ok := list.([]any)
			if !ok {
				return fmt.Errorf("commit %q: %s is not a list", id, key)
			}
			for _, item := range items {
				fi, ok := item.(map[string]any)
				if !ok {
					return fmt.Errorf("commit %q: %s entry is not an object", id, key)
				}
				if _, ok := fi["filename"].(string); !ok {
					return fmt.Errorf("commit %q: %s entry has no filename", id, key)
				}
				if _, ok := fi["revision"].(string); !ok {
					return fmt.Errorf("commit %q: %s entry has no revision", id, key)
				}
			}
		}
	}
	return nil
}

func nonNil(files []FileInfo) []FileInfo {
	if files == nil {
		return []FileInfo{}
	}
	return files
}
