// Package service wires the pure engine to storage, the planner and the assistant.
package service

import (
	"context"
	"fmt"

	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xaenox/cash-copilot/internal/storage"
	"go.uber.org/zap"
)

// AnalysisListLimit caps analysis history listings
const AnalysisListLimit = 50

// Responder answers chat questions from decision history
type Responder interface {
	Reply(ctx context.Context, question string, history []models.ChatMessage, memory []models.MemoryEntry, stats models.MemoryStats) models.AssistantReply
}

type Service struct {
	store     storage.Storage
	delegate  engine.Assessor
	assistant Responder
	logger    *zap.Logger
}

// New builds a service. delegate may be nil, in which case every analysis
// runs on the local rules.
func New(store storage.Storage, delegate engine.Assessor, assistant Responder, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		delegate:  delegate,
		assistant: assistant,
		logger:    logger,
	}
}

// Records

func (s *Service) Salaries(ctx context.Context) ([]models.SalaryObligation, error) {
	return s.store.ListSalaries(ctx)
}

func (s *Service) AddSalary(ctx context.Context, v *models.SalaryObligation) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateSalary(ctx, v); err != nil {
		return fmt.Errorf("create salary: %w", err)
	}
	return nil
}

func (s *Service) Bills(ctx context.Context) ([]models.FixedBill, error) {
	return s.store.ListBills(ctx)
}

func (s *Service) AddBill(ctx context.Context, v *models.FixedBill) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateBill(ctx, v); err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	return nil
}

func (s *Service) Receivables(ctx context.Context) ([]models.Receivable, error) {
	return s.store.ListReceivables(ctx)
}

func (s *Service) AddReceivable(ctx context.Context, v *models.Receivable) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateReceivable(ctx, v); err != nil {
		return fmt.Errorf("create receivable: %w", err)
	}
	return nil
}

func (s *Service) DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error {
	return s.store.DeleteRecord(ctx, kind, id)
}

type records struct {
	salaries    []models.SalaryObligation
	bills       []models.FixedBill
	receivables []models.Receivable
}

func (s *Service) loadRecords(ctx context.Context) (*records, error) {
	salaries, err := s.store.ListSalaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load salaries: %w", err)
	}
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	receivables, err := s.store.ListReceivables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load receivables: %w", err)
	}
	return &records{salaries: salaries, bills: bills, receivables: receivables}, nil
}
