package storage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cash-copilot/internal/models"
)

func setupMockDB(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStorageFromDB(db)
	s.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "copilot", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=copilot sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db/copilot"
	assert.Equal(t, "postgres://u:p@db/copilot", cfg.DSN())
}

func TestPostgresStorage_CreateReceivable(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO receivables")).
		WithArgs(sqlmock.AnyArg(), "Acme", "ap@acme.test", 1200.0, -3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := &models.Receivable{Client: "Acme", Email: "ap@acme.test", Amount: 1200, DueInDays: -3}
	require.NoError(t, s.CreateReceivable(context.Background(), r))

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), r.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_CreateOverwritesCreatedAt(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fixed_bills")).
		WithArgs(sqlmock.AnyArg(), "Rent", 1500.0, 3, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := &models.FixedBill{Category: "Rent", Amount: 1500, DueInDays: 3, CreatedAt: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.CreateBill(context.Background(), b))

	assert.Equal(t, now, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListSalaries(t *testing.T) {
	s, mock := setupMockDB(t)
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "employee", "amount", "due_in_days", "created_at"}).
		AddRow("s1", "Dev", 3000.0, 7, created).
		AddRow("s2", "Ops", 2500.0, 14, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM salaries")).WillReturnRows(rows)

	salaries, err := s.ListSalaries(context.Background())
	require.NoError(t, err)
	require.Len(t, salaries, 2)
	assert.Equal(t, models.SalaryObligation{ID: "s1", Employee: "Dev", Amount: 3000, DueInDays: 7, CreatedAt: created}, salaries[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListBillsEmpty(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM fixed_bills")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "amount", "due_in_days", "created_at"}))

	bills, err := s.ListBills(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, bills)
	assert.Empty(t, bills)
}

func TestPostgresStorage_DeleteRecord(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fixed_bills WHERE id = $1")).
			WithArgs("b1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.DeleteRecord(context.Background(), models.KindBill, "b1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM receivables")).
			WithArgs("nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.DeleteRecord(context.Background(), models.KindReceivable, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		s, _ := setupMockDB(t)
		assert.Error(t, s.DeleteRecord(context.Background(), models.RecordKind("invoice"), "x"))
	})
}

func TestPostgresStorage_AppendAnalysis(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_results")).
		WithArgs(sqlmock.AnyArg(), "FALLBACK", 8, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snap := &models.AnalysisSnapshot{Source: models.SourceFallback, RiskAnalysis: models.RiskAssessment{RiskScore: 8}}
	require.NoError(t, s.AppendAnalysis(context.Background(), snap))

	assert.NotEmpty(t, snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_LatestAnalysis(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_results")).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))

		latest, err := s.LatestAnalysis(context.Background())
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("decodes payload", func(t *testing.T) {
		s, mock := setupMockDB(t)
		payload, err := json.Marshal(models.AnalysisSnapshot{
			ID:       "a1",
			Source:   models.SourceDelegated,
			Decision: models.Decision{Strategy: models.StrategyCollectReceivable, Target: models.SingleTarget("Acme")},
		})
		require.NoError(t, err)
		mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_results")).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

		latest, err := s.LatestAnalysis(context.Background())
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "a1", latest.ID)
		assert.Equal(t, "Acme", latest.Decision.Target.String())
	})

	t.Run("query failure", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_results")).WillReturnError(errors.New("connection reset"))

		_, err := s.LatestAnalysis(context.Background())
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestPostgresStorage_ListAnalysesLimit(t *testing.T) {
	s, mock := setupMockDB(t)
	payload, err := json.Marshal(models.AnalysisSnapshot{ID: "a1"})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	snapshots, err := s.ListAnalyses(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "a1", snapshots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Memory(t *testing.T) {
	s, mock := setupMockDB(t)
	ts := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO memory_entries")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "COLLECT_RECEIVABLE", "EMAIL_SENT", "SENT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AppendMemory(context.Background(), &models.MemoryEntry{
		Clients:     []string{"Acme"},
		Strategy:    "COLLECT_RECEIVABLE",
		ActionTaken: "EMAIL_SENT",
		Result:      "SENT",
	}))

	rows := sqlmock.NewRows([]string{"id", "ts", "clients", "strategy", "action_taken", "result", "details"}).
		AddRow("m1", ts, []byte("{Acme,Beta}"), "COLLECT_RECEIVABLE", "EMAIL_SENT", "SENT", []byte(`{"amount":1200}`)).
		AddRow("m2", ts, []byte("{}"), "MAINTAIN_STATUS_QUO", "NO_ACTION", "ANALYSIS_COMPLETE", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM memory_entries")).WillReturnRows(rows)

	entries, err := s.ListMemory(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"Acme", "Beta"}, entries[0].Clients)
	assert.Equal(t, 1200.0, entries[0].Details["amount"])
	assert.NotNil(t, entries[1].Clients)
	assert.Empty(t, entries[1].Clients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Chat(t *testing.T) {
	s, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WithArgs("s1", "user", "hi", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.AppendChat(ctx, "s1", models.ChatMessage{Role: models.RoleUser, Content: "hi"}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM chat_messages")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"role", "content", "created_at"}).
			AddRow("user", "hi", time.Now()))
	history, err := s.ChatHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleUser, history[0].Role)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chat_messages")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.ClearChat(ctx, "s1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
