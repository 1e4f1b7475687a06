package source

import "time"

// RawRecord is one line in a usage-export JSONL file: a single metered API
// call as exported by the platform's request logger.
type RawRecord struct {
	UserID       string `json:"user_id"`
	PromptID     string `json:"prompt_id,omitempty"`
	Model        string `json:"model,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	CacheHit     bool   `json:"cache_hit,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// ImportedCall is a validated export record ready to replay into the ledger.
type ImportedCall struct {
	UserID       string
	PromptID     string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CacheHit     bool
	Timestamp    time.Time
}

// DiscoveredFile is a JSONL export file found during directory scanning.
type DiscoveredFile struct {
	Path      string
	Name      string
	SizeBytes int64
}
