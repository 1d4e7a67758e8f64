package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// JobKind selects how the worker resumes a fired job.
type JobKind string

const (
	// JobKindDispatch resumes a full orchestrator dispatch from a serialized
	// notification context. Used for deferred out-of-hours sends and for
	// reminders firing.
	JobKindDispatch JobKind = "dispatch"

	// JobKindSendRetry resumes a single channel send that previously failed
	// with a retryable provider error.
	JobKindSendRetry JobKind = "send_retry"
)

// JobMessage is the transport envelope for a scheduled job on the queue.
// Payload is the gzip-compressed, base64-encoded serialized context: case
// snapshots routinely run to hundreds of kilobytes of JSON and must fit the
// SQS 256 KB body limit.
type JobMessage struct {
	JobID     string    `json:"job_id"`
	Group     string    `json:"group"`
	Name      string    `json:"name"`
	Kind      JobKind   `json:"kind"`
	Payload   string    `json:"payload"`
	TriggerAt time.Time `json:"trigger_at"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// CompressPayload gzips raw bytes and base64-encodes the result for transport
// inside a JSON job message.
func CompressPayload(raw []byte) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressPayload reverses CompressPayload.
func DecompressPayload(enc string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: decode base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: open gzip: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return raw, nil
}
