package convert

import (
	"errors"
	"time"

	"github.com/robert-malhotra/mat2img/internal/container"
	"github.com/robert-malhotra/mat2img/internal/record"
)

// Failure kinds counted in a Summary.
const (
	FailureUnsupportedVersion = "unsupported_version"
	FailureSchemaMissing      = "schema_missing"
	FailureDecode             = "decode_failed"
	FailureMalformedRecord    = "malformed_record"
	FailureUnexpectedShape    = "unexpected_shape"
	FailureDegenerateRange    = "degenerate_range"
	FailureWrite              = "write_failed"
)

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Matched     int
	Saved       int
	Existing    int
	Interrupted bool
	Duration    time.Duration
	// PerLabel counts saved images by label.
	PerLabel map[int]int
	// Failures counts skipped files by failure kind.
	Failures map[string]int
}

func newSummary(runID string) *Summary {
	return &Summary{RunID: runID, PerLabel: make(map[int]int), Failures: make(map[string]int)}
}

// Failed returns the number of files skipped because of an error.
func (s *Summary) Failed() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}
	return n
}

// failureKind classifies a per-file error.
func failureKind(err error) string {
	kinds := []struct {
		target error
		name   string
	}{
		{container.ErrUnsupportedLegacyVersion, FailureUnsupportedVersion},
		{container.ErrSchemaMissing, FailureSchemaMissing},
		{container.ErrDecodeFailed, FailureDecode},
		{record.ErrMalformedRecord, FailureMalformedRecord},
		{record.ErrUnexpectedShape, FailureUnexpectedShape},
		{record.ErrDegenerateRange, FailureDegenerateRange},
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.name
		}
	}
	return FailureWrite
}
