package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/xaenox/cash-copilot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// DSN prefers an explicit URL over the individual connection fields
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := NewPostgresStorageFromDB(db)
	if err := storage.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

// NewPostgresStorageFromDB wraps an open handle without running migrations
func NewPostgresStorageFromDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db, now: time.Now}
}

func (s *PostgresStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now().UTC()
	}
}

// Records

func (s *PostgresStorage) ListSalaries(ctx context.Context) ([]models.SalaryObligation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee, amount, due_in_days, created_at
		FROM salaries
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying salaries: %w", err)
	}
	defer rows.Close()

	salaries := []models.SalaryObligation{}
	for rows.Next() {
		var v models.SalaryObligation
		if err := rows.Scan(&v.ID, &v.Employee, &v.Amount, &v.DueInDays, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning salary: %w", err)
		}
		salaries = append(salaries, v)
	}
	return salaries, rows.Err()
}

func (s *PostgresStorage) CreateSalary(ctx context.Context, v *models.SalaryObligation) error {
	v.ID = uuid.New().String()
	v.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salaries (id, employee, amount, due_in_days, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.Employee, v.Amount, v.DueInDays, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating salary: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListBills(ctx context.Context) ([]models.FixedBill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, amount, due_in_days, created_at
		FROM fixed_bills
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying bills: %w", err)
	}
	defer rows.Close()

	bills := []models.FixedBill{}
	for rows.Next() {
		var v models.FixedBill
		if err := rows.Scan(&v.ID, &v.Category, &v.Amount, &v.DueInDays, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning bill: %w", err)
		}
		bills = append(bills, v)
	}
	return bills, rows.Err()
}

func (s *PostgresStorage) CreateBill(ctx context.Context, v *models.FixedBill) error {
	v.ID = uuid.New().String()
	v.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixed_bills (id, category, amount, due_in_days, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.Category, v.Amount, v.DueInDays, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating bill: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListReceivables(ctx context.Context) ([]models.Receivable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client, email, amount, due_in_days, created_at
		FROM receivables
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying receivables: %w", err)
	}
	defer rows.Close()

	receivables := []models.Receivable{}
	for rows.Next() {
		var v models.Receivable
		if err := rows.Scan(&v.ID, &v.Client, &v.Email, &v.Amount, &v.DueInDays, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning receivable: %w", err)
		}
		receivables = append(receivables, v)
	}
	return receivables, rows.Err()
}

func (s *PostgresStorage) CreateReceivable(ctx context.Context, v *models.Receivable) error {
	v.ID = uuid.New().String()
	v.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receivables (id, client, email, amount, due_in_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Client, v.Email, v.Amount, v.DueInDays, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating receivable: %w", err)
	}
	return nil
}

var recordTables = map[models.RecordKind]string{
	models.KindSalary:     "salaries",
	models.KindBill:       "fixed_bills",
	models.KindReceivable: "receivables",
}

func (s *PostgresStorage) DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error {
	table, ok := recordTables[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting %s: %w", kind, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Analyses

func (s *PostgresStorage) AppendAnalysis(ctx context.Context, snap *models.AnalysisSnapshot) error {
	snap.ID = uuid.New().String()
	s.stamp(&snap.CreatedAt)

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("error encoding analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (id, source, risk_score, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, string(snap.Source), snap.RiskAnalysis.RiskScore, payload, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating analysis: %w", err)
	}
	return nil
}

func (s *PostgresStorage) LatestAnalysis(ctx context.Context) (*models.AnalysisSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM analysis_results
		ORDER BY created_at DESC
		LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying latest analysis: %w", err)
	}

	var snap models.AnalysisSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("error decoding analysis: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStorage) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisSnapshot, error) {
	query := `
		SELECT payload
		FROM analysis_results
		ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying analyses: %w", err)
	}
	defer rows.Close()

	snapshots := []models.AnalysisSnapshot{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("error scanning analysis: %w", err)
		}
		var snap models.AnalysisSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("error decoding analysis: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Memory

func (s *PostgresStorage) AppendMemory(ctx context.Context, e *models.MemoryEntry) error {
	e.ID = uuid.New().String()
	s.stamp(&e.Timestamp)
	if e.Clients == nil {
		e.Clients = []string{}
	}

	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("error encoding memory details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (id, ts, clients, strategy, action_taken, result, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Timestamp, pq.Array(e.Clients), e.Strategy, e.ActionTaken, e.Result, details)
	if err != nil {
		return fmt.Errorf("error creating memory entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListMemory(ctx context.Context) ([]models.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, clients, strategy, action_taken, result, details
		FROM memory_entries
		ORDER BY ts DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying memory: %w", err)
	}
	defer rows.Close()

	entries := []models.MemoryEntry{}
	for rows.Next() {
		var (
			e       models.MemoryEntry
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, pq.Array(&e.Clients), &e.Strategy, &e.ActionTaken, &e.Result, &details); err != nil {
			return nil, fmt.Errorf("error scanning memory entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("error decoding memory details: %w", err)
			}
		}
		if e.Clients == nil {
			e.Clients = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Chat

func (s *PostgresStorage) AppendChat(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	for _, m := range msgs {
		s.stamp(&m.Timestamp)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO chat_messages (session_id, role, content, created_at)
			VALUES ($1, $2, $3, $4)`,
			sessionID, string(m.Role), m.Content, m.Timestamp)
		if err != nil {
			return fmt.Errorf("error saving chat message: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying chat history: %w", err)
	}
	defer rows.Close()

	history := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning chat message: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

func (s *PostgresStorage) ClearChat(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("error clearing chat history: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
