// Package interpolate resolves {{nodeId.field}} references against an
// execution context.
package interpolate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Match {{path}} occurrences. The path is dot-separated with optional
// single-level array indexing, e.g. {{httpNode.body.items[0].name}}.
var placeholderPattern = regexp.MustCompile(`{{\s*([^}]+?)\s*}}`)

var indexPattern = regexp.MustCompile(`^(.+)\[(\d+)\]$`)

// Resolver substitutes {{...}} placeholders in node inputs. It never mutates
// its input and resolves unknown paths to an empty string.
type Resolver struct{}

// New creates a new Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve substitutes placeholders in value against context. Strings are
// substituted in place; maps and slices are round-tripped through JSON so the
// same substitution applies to every nested string. Other types pass through.
func (r *Resolver) Resolve(value interface{}, context map[string]interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return r.ResolveString(v, context)
	case map[string]interface{}, []interface{}:
		serialized, err := json.Marshal(v)
		if err != nil {
			return value
		}
		substituted := r.ResolveString(string(serialized), context)
		var parsed interface{}
		if err := json.Unmarshal([]byte(substituted), &parsed); err != nil {
			// Substitution produced something that is no longer valid JSON
			// (e.g. an injected string containing quotes). Return the raw
			// substituted text so the caller still sees the resolved data.
			return substituted
		}
		return parsed
	default:
		return value
	}
}

// ResolveInputs resolves every entry of a node's input map, returning a new
// map and leaving the original untouched.
func (r *Resolver) ResolveInputs(inputs map[string]interface{}, context map[string]interface{}) map[string]interface{} {
	if inputs == nil {
		return nil
	}
	resolved := make(map[string]interface{}, len(inputs))
	for key, value := range inputs {
		resolved[key] = r.Resolve(value, context)
	}
	return resolved
}

// ResolveString replaces every {{path}} occurrence in s. Values that are maps
// or slices are JSON-stringified; unresolvable paths become an empty string.
func (r *Resolver) ResolveString(s string, context map[string]interface{}) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-2])
		value, ok := Lookup(context, path)
		if !ok || value == nil {
			return ""
		}
		return stringify(value)
	})
}

// Lookup walks a dot-separated path through data. Each segment supports one
// level of array indexing (field[2]) and falls back to a case-insensitive
// key match when the exact key is absent.
func Lookup(data map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = data

	for _, part := range strings.Split(path, ".") {
		index := -1
		if m := indexPattern.FindStringSubmatch(part); m != nil {
			part = m[1]
			index, _ = strconv.Atoi(m[2])
		}

		currentMap, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, found := currentMap[part]
		if !found {
			value, found = lookupFold(currentMap, part)
		}
		if !found {
			return nil, false
		}
		current = value

		if index >= 0 {
			array, ok := current.([]interface{})
			if !ok || index >= len(array) {
				return nil, false
			}
			current = array[index]
		}
	}

	return current, true
}

// lookupFold finds a key by case-insensitive comparison.
func lookupFold(data map[string]interface{}, key string) (interface{}, bool) {
	for k, v := range data {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}, []interface{}:
		serialized, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(serialized)
	default:
		return fmt.Sprintf("%v", v)
	}
}
