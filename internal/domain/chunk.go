package domain

import (
	"time"

	"github.com/google/uuid"
)

// Branch identifies which Stage-1 retrieval branch produced a candidate.
type Branch string

const (
	BranchKeyword Branch = "keyword"
	BranchVector  Branch = "vector"
)

// DocumentChunk is a unit of retrievable text. Chunks are created at
// ingestion time and are read-only from this service's perspective.
type DocumentChunk struct {
	ID       uuid.UUID
	Content  string
	Metadata map[string]any
}

// Title reads the well-known "title" metadata key. Metadata keys are not
// fixed, so all accessors degrade to a zero value on missing or mistyped
// entries.
func (c DocumentChunk) Title() string {
	if v, ok := c.Metadata["title"].(string); ok {
		return v
	}
	return ""
}

// Source reads the well-known "source" metadata key (path or URL).
func (c DocumentChunk) Source() string {
	if v, ok := c.Metadata["source"].(string); ok {
		return v
	}
	return ""
}

// Language reads the well-known "language" metadata key.
func (c DocumentChunk) Language() string {
	if v, ok := c.Metadata["language"].(string); ok {
		return v
	}
	return ""
}

// Tags reads the well-known "tags" metadata key. JSON decoding yields
// []any, so both representations are accepted.
func (c DocumentChunk) Tags() []string {
	switch v := c.Metadata["tags"].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// CreatedAt reads the well-known "created_at" metadata key (RFC3339).
func (c DocumentChunk) CreatedAt() time.Time {
	switch v := c.Metadata["created_at"].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RankedCandidate is a DocumentChunk annotated with provenance from one
// retrieval branch. Rank is 1-based and branch-local: it resets to 1 at the
// top of each branch's list and increases by decreasing relevance.
type RankedCandidate struct {
	Document DocumentChunk
	Rank     int
	Source   Branch
}

// FusedCandidate is the result of combining RankedCandidates for the same
// document id across branches. At most one exists per document id in a
// single fusion pass.
type FusedCandidate struct {
	Document    DocumentChunk
	FusionScore float64
	PresentIn   []Branch
}

// InBranch reports whether the candidate appeared in the given branch.
func (f FusedCandidate) InBranch(b Branch) bool {
	for _, p := range f.PresentIn {
		if p == b {
			return true
		}
	}
	return false
}

// ScoredResult is a FusedCandidate after Stage-2 re-ranking. Stage1Score
// carries the fusion score through for diagnostics.
type ScoredResult struct {
	Document    DocumentChunk
	RerankScore float64
	Stage1Score float64
	PresentIn   []Branch
}
