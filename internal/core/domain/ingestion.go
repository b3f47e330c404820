package domain

import "time"

// FileState is the lifecycle of a file in the watched directory
type FileState string

const (
	FileDiscovered FileState = "discovered"
	FileIngesting  FileState = "ingesting"
	FileIngested   FileState = "ingested" // Renamed with the processed marker
	FileFailed     FileState = "failed"   // Left in place for the next scan
)

// IngestResult is the outcome of ingesting one source
type IngestResult struct {
	Source       string        `json:"source"`
	Scope        AccessScope   `json:"scope"`
	Chunks       int           `json:"chunks"`
	FailedChunks []string      `json:"failed_chunks,omitempty"`
	ChunkIDs     []string      `json:"-"` // Entries this ingest stored
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

// OK reports whether the source was fully ingested
func (r *IngestResult) OK() bool {
	return r.Err == nil && len(r.FailedChunks) == 0
}

// FileOutcome records what a scan did with one file
type FileOutcome struct {
	Name   string    `json:"name"`
	State  FileState `json:"state"`
	Chunks int       `json:"chunks"`
	Error  string    `json:"error,omitempty"`
}

// ScanReport summarises one pass over the watched directory
type ScanReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Files     []FileOutcome `json:"files"`
	Truncated bool          `json:"truncated"` // Listing hit the per-scan cap
}

// Count returns how many files ended the scan in state
func (r *ScanReport) Count(state FileState) int {
	n := 0
	for _, f := range r.Files {
		if f.State == state {
			n++
		}
	}
	return n
}

// Ingested counts files that reached FileIngested
func (r *ScanReport) Ingested() int {
	return r.Count(FileIngested)
}

// Chunks counts chunks written during the scan
func (r *ScanReport) Chunks() int {
	n := 0
	for _, f := range r.Files {
		n += f.Chunks
	}
	return n
}
