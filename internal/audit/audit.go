package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"
)

// Entry records one mutating call against an order or policy resource.
type Entry struct {
	ID            string
	CompanyID     string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Recorder writes audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LogRecorder writes audit entries to the ambient logger. Used when no
// database-backed recorder is wired.
type LogRecorder struct {
	logger *log.Logger
}

// NewLogRecorder constructs a LogRecorder.
func NewLogRecorder(logger *log.Logger) *LogRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &LogRecorder{logger: logger}
}

// Record logs the entry.
func (r *LogRecorder) Record(ctx context.Context, entry Entry) error {
	_ = ctx
	r.logger.Printf("audit: %s %s/%s by %s (%s) company=%s", entry.Action, entry.ResourceType, entry.ResourceID, entry.Actor, entry.Role, entry.CompanyID)
	return nil
}
