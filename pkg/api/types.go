// Package api implements the HTTP REST API and Prometheus metrics endpoint
// for a dictionary store.
package api

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse holds daemon status information.
type StatusResponse struct {
	Uptime      string `json:"uptime"`
	Name        string `json:"name"`
	Entries     int    `json:"entries"`
	Patterns    int    `json:"patterns"`
	Digest      string `json:"digest"`
	Commits     uint64 `json:"commits"`
	Configuring bool   `json:"configuring"`
	Dirty       bool   `json:"dirty"`
	LastCommit  string `json:"last_commit,omitempty"`
}

// LookupResponse describes the entry found for a keyword.
type LookupResponse struct {
	Keyword string `json:"keyword"`
	Pattern bool   `json:"pattern"`
	Scope   string `json:"scope"`
	Line    int    `json:"line,omitempty"`
	IsDict  bool   `json:"is_dict"`
	// Value holds the token text of a primitive entry or the written form
	// of a dictionary entry.
	Value string `json:"value"`
}

// OutputResponse wraps free-form text output.
type OutputResponse struct {
	Output string `json:"output"`
}

// DigestResponse holds a BLAKE3 digest.
type DigestResponse struct {
	Keyword string `json:"keyword,omitempty"`
	Digest  string `json:"digest"`
}

// ConfigStatus reports candidate state.
type ConfigStatus struct {
	ConfigMode bool `json:"config_mode"`
	Dirty      bool `json:"dirty"`
}

// SetRequest sets or deletes an entry by slash path.
type SetRequest struct {
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
}

// LoadRequest loads dictionary text into the candidate.
type LoadRequest struct {
	Mode string `json:"mode"` // "merge" (default) or "override"
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
}

// CommitRequest commits the candidate.
type CommitRequest struct {
	Comment string `json:"comment,omitempty"`
}

// RollbackRequest resets the candidate to a previous commit.
type RollbackRequest struct {
	N int `json:"n"`
}

// HistoryEntry describes one commit in the rollback history.
type HistoryEntry struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Digest    string `json:"digest"`
	Comment   string `json:"comment,omitempty"`
	Entries   int    `json:"entries"`
}

// LogStreamEntry is a log record sent via SSE.
type LogStreamEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Attrs   string `json:"attrs,omitempty"`
}
