package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/cash-copilot/internal/models"
)

type MemoryStorage struct {
	mu          sync.RWMutex
	salaries    []models.SalaryObligation
	bills       []models.FixedBill
	receivables []models.Receivable
	analyses    []models.AnalysisSnapshot
	memory      []models.MemoryEntry
	chats       map[string][]models.ChatMessage
	now         func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		chats: make(map[string][]models.ChatMessage),
		now:   time.Now,
	}
}

// WithClock overrides the clock used for CreatedAt and Timestamp
func (s *MemoryStorage) WithClock(now func() time.Time) *MemoryStorage {
	s.now = now
	return s
}

func (s *MemoryStorage) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now().UTC()
	}
}

// Records

func (s *MemoryStorage) ListSalaries(ctx context.Context) ([]models.SalaryObligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SalaryObligation{}, s.salaries...), nil
}

func (s *MemoryStorage) CreateSalary(ctx context.Context, salary *models.SalaryObligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	salary.ID = uuid.New().String()
	salary.CreatedAt = s.now().UTC()
	s.salaries = append(s.salaries, *salary)
	return nil
}

func (s *MemoryStorage) ListBills(ctx context.Context) ([]models.FixedBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FixedBill{}, s.bills...), nil
}

func (s *MemoryStorage) CreateBill(ctx context.Context, bill *models.FixedBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill.ID = uuid.New().String()
	bill.CreatedAt = s.now().UTC()
	s.bills = append(s.bills, *bill)
	return nil
}

func (s *MemoryStorage) ListReceivables(ctx context.Context) ([]models.Receivable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Receivable{}, s.receivables...), nil
}

func (s *MemoryStorage) CreateReceivable(ctx context.Context, r *models.Receivable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New().String()
	r.CreatedAt = s.now().UTC()
	s.receivables = append(s.receivables, *r)
	return nil
}

func (s *MemoryStorage) DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	switch kind {
	case models.KindSalary:
		s.salaries, found = removeByID(s.salaries, id, func(v models.SalaryObligation) string { return v.ID })
	case models.KindBill:
		s.bills, found = removeByID(s.bills, id, func(v models.FixedBill) string { return v.ID })
	case models.KindReceivable:
		s.receivables, found = removeByID(s.receivables, id, func(v models.Receivable) string { return v.ID })
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	for i, item := range items {
		if idOf(item) == id {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

// Analyses

func (s *MemoryStorage) AppendAnalysis(ctx context.Context, snap *models.AnalysisSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.ID = uuid.New().String()
	s.stamp(&snap.CreatedAt)
	s.analyses = append(s.analyses, *snap)
	return nil
}

func (s *MemoryStorage) LatestAnalysis(ctx context.Context) (*models.AnalysisSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.analyses) == 0 {
		return nil, nil
	}
	latest := s.analyses[0]
	for _, a := range s.analyses[1:] {
		if a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	return &latest, nil
}

func (s *MemoryStorage) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisSnapshot, error) {
	s.mu.RLock()
	out := append([]models.AnalysisSnapshot{}, s.analyses...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Memory

func (s *MemoryStorage) AppendMemory(ctx context.Context, e *models.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.New().String()
	s.stamp(&e.Timestamp)
	if e.Clients == nil {
		e.Clients = []string{}
	}
	s.memory = append(s.memory, *e)
	return nil
}

func (s *MemoryStorage) ListMemory(ctx context.Context) ([]models.MemoryEntry, error) {
	s.mu.RLock()
	out := append([]models.MemoryEntry{}, s.memory...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Chat

func (s *MemoryStorage) AppendChat(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		s.stamp(&m.Timestamp)
		s.chats[sessionID] = append(s.chats[sessionID], m)
	}
	return nil
}

func (s *MemoryStorage) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage{}, s.chats[sessionID]...), nil
}

func (s *MemoryStorage) ClearChat(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, sessionID)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
