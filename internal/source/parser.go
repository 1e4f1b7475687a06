// Package source discovers and parses JSONL usage-export files for replay
// into the ledger.
package source

import (
	"bufio"
	"encoding/json"
	"os"
	"time"
)

// ParseResult holds the output of parsing a single export file.
type ParseResult struct {
	Calls       []ImportedCall
	ParseErrors int
	Err         error
}

// ParseFile reads a JSONL export file into validated calls.
//
// Records carrying a prompt id are deduplicated, keeping the last entry per
// id (exports can re-emit a call with corrected final usage). Malformed or
// incomplete lines are counted and skipped, never fatal: an export file with
// one bad line still imports the rest.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		ordered     []ImportedCall
		byPrompt    = make(map[string]int)
		parseErrors int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw RawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			parseErrors++
			continue
		}

		call, ok := validate(raw)
		if !ok {
			parseErrors++
			continue
		}

		if call.PromptID != "" {
			if idx, dup := byPrompt[call.PromptID]; dup {
				ordered[idx] = call
				continue
			}
			byPrompt[call.PromptID] = len(ordered)
		}
		ordered = append(ordered, call)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{Err: err}
	}

	return ParseResult{Calls: ordered, ParseErrors: parseErrors}
}

// validate converts a raw record, rejecting rows that cannot be metered.
func validate(raw RawRecord) (ImportedCall, bool) {
	if raw.UserID == "" {
		return ImportedCall{}, false
	}
	if raw.InputTokens < 0 || raw.OutputTokens < 0 {
		return ImportedCall{}, false
	}
	if raw.InputTokens == 0 && raw.OutputTokens == 0 {
		return ImportedCall{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return ImportedCall{}, false
	}

	return ImportedCall{
		UserID:       raw.UserID,
		PromptID:     raw.PromptID,
		Model:        raw.Model,
		InputTokens:  raw.InputTokens,
		OutputTokens: raw.OutputTokens,
		CacheHit:     raw.CacheHit,
		Timestamp:    ts.UTC(),
	}, true
}

// CountUsers returns the number of distinct users in a set of parsed calls.
func CountUsers(calls []ImportedCall) int {
	seen := make(map[string]struct{})
	for _, c := range calls {
		seen[c.UserID] = struct{}{}
	}
	return len(seen)
}
