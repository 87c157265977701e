// Package parse converts the semi-structured text VBoxManage prints into
// maps and record lists. All transforms are pure; malformed lines are
// skipped rather than reported, since listings routinely mix banner and
// separator lines with real data.
package parse

import (
	"strings"
)

// Lines splits every line on sep and folds the results into a map,
// trimming cutset from both sides of each token. keyIdx and valIdx select
// which tokens become the key and value when a line yields more than two
// tokens. Lines without the separator are skipped.
func Lines(lines []string, sep, cutset string, keyIdx, valIdx int) map[string]string {
	out := make(map[string]string)
	for _, line := range lines {
		if !strings.Contains(line, sep) {
			continue
		}
		tokens := strings.Split(line, sep)
		if keyIdx >= len(tokens) || valIdx >= len(tokens) {
			continue
		}
		key := strings.Trim(tokens[keyIdx], cutset)
		val := strings.Trim(tokens[valIdx], cutset)
		if key == "" {
			continue
		}
		out[key] = val
	}
	return out
}

// KeyValues splits each line at the first occurrence of sep and trims
// whitespace around both halves. Unlike Lines it preserves separators
// inside the value, which `showvminfo` output needs for timestamps and
// paths.
func KeyValues(lines []string, sep string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines {
		key, val, found := strings.Cut(line, sep)
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(val)
	}
	return out
}

// BracketPair extracts the quoted name and braced identifier from a
// single `"Name" {identifier}` line, as printed by `VBoxManage list vms`.
// ok is false when either part is missing, which covers banner and
// separator lines.
func BracketPair(line string) (name, id string, ok bool) {
	name, ok = quoted(line)
	if !ok {
		return "", "", false
	}
	open := strings.IndexByte(line, '{')
	end := strings.IndexByte(line, '}')
	if open < 0 || end < open {
		return "", "", false
	}
	return name, line[open+1 : end], true
}

// BracketPairs folds BracketPair over a listing into a name to identifier
// map. A later duplicate name overwrites the earlier entry.
func BracketPairs(lines []string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines {
		name, id, ok := BracketPair(line)
		if !ok {
			continue
		}
		out[name] = id
	}
	return out
}

// RecordList splits a listing of repeated field blocks, as printed by
// `VBoxManage list hdds`, into one map per blank-line-delimited block.
func RecordList(lines []string, sep string) []map[string]string {
	var records []map[string]string
	current := make(map[string]string)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				records = append(records, current)
				current = make(map[string]string)
			}
			continue
		}
		key, val, found := strings.Cut(line, sep)
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		current[key] = strings.TrimSpace(val)
	}
	if len(current) > 0 {
		records = append(records, current)
	}
	return records
}

// Fields splits a line into whitespace-delimited tokens, as used by the
// `list hostcpuids` register table.
func Fields(line string) []string {
	return strings.Fields(line)
}

// GuestProperties extracts the key/value pairs from
// `VBoxManage guestproperty enumerate` output. Each well-formed line
// carries three markers; a line missing any of them is skipped.
func GuestProperties(lines []string) map[string]string {
	const (
		nameMark  = "Name: "
		valueMark = ", value: "
		stampMark = ", timestamp:"
	)
	out := make(map[string]string)
	for _, line := range lines {
		nameAt := strings.Index(line, nameMark)
		if nameAt < 0 {
			continue
		}
		valueAt := strings.Index(line, valueMark)
		if valueAt < 0 || valueAt < nameAt {
			continue
		}
		stampAt := strings.Index(line, stampMark)
		if stampAt < 0 || stampAt < valueAt {
			continue
		}
		key := line[nameAt+len(nameMark) : valueAt]
		out[key] = line[valueAt+len(valueMark) : stampAt]
	}
	return out
}

// Value extracts the payload of a `Value: xxx` reply line from
// `VBoxManage guestproperty get`. The second return is false when the
// line is not a value reply (e.g. "No value set!").
func Value(line string) (string, bool) {
	const mark = "Value: "
	if !strings.HasPrefix(line, mark) {
		return "", false
	}
	return line[len(mark):], true
}

func quoted(line string) (string, bool) {
	first := strings.IndexByte(line, '"')
	if first < 0 {
		return "", false
	}
	second := strings.IndexByte(line[first+1:], '"')
	if second < 0 {
		return "", false
	}
	return line[first+1 : first+1+second], true
}
