package storage

import (
	"context"
	"errors"

	"github.com/xaenox/cash-copilot/internal/models"
)

// ErrNotFound is returned when a record to delete or look up does not exist
var ErrNotFound = errors.New("not found")

// RecordStore keeps the user-maintained salaries, bills and receivables.
// Lists are returned in insertion order. Create always assigns ID and CreatedAt,
// overwriting whatever the caller set.
type RecordStore interface {
	ListSalaries(ctx context.Context) ([]models.SalaryObligation, error)
	CreateSalary(ctx context.Context, s *models.SalaryObligation) error
	ListBills(ctx context.Context) ([]models.FixedBill, error)
	CreateBill(ctx context.Context, b *models.FixedBill) error
	ListReceivables(ctx context.Context) ([]models.Receivable, error)
	CreateReceivable(ctx context.Context, r *models.Receivable) error
	DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error
}

// AnalysisStore is an append-only log of analysis snapshots
type AnalysisStore interface {
	AppendAnalysis(ctx context.Context, s *models.AnalysisSnapshot) error
	// LatestAnalysis returns nil without error when nothing was stored yet
	LatestAnalysis(ctx context.Context) (*models.AnalysisSnapshot, error)
	// ListAnalyses returns the newest snapshots first. limit <= 0 means all.
	ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisSnapshot, error)
}

// MemoryStore is an append-only log of decision history
type MemoryStore interface {
	AppendMemory(ctx context.Context, e *models.MemoryEntry) error
	ListMemory(ctx context.Context) ([]models.MemoryEntry, error)
}

// ChatStore keeps assistant conversations per session
type ChatStore interface {
	AppendChat(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error
	ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, sessionID string) error
}

type Storage interface {
	RecordStore
	AnalysisStore
	MemoryStore
	ChatStore
	Close() error
}
