package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordKind names one of the user-maintained record collections
type RecordKind string

const (
	KindSalary     RecordKind = "salary"
	KindBill       RecordKind = "bill"
	KindReceivable RecordKind = "receivable"
)

// SalaryObligation is a scheduled payroll payment
type SalaryObligation struct {
	ID        string    `json:"id"`
	Employee  string    `json:"employee"`
	Amount    float64   `json:"amount"`
	DueInDays int       `json:"due_in_days"`
	CreatedAt time.Time `json:"created_at"`
}

// FixedBill is a scheduled vendor payment
type FixedBill struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	DueInDays int       `json:"due_in_days"`
	CreatedAt time.Time `json:"created_at"`
}

// Receivable is an expected incoming payment. A negative DueInDays means overdue.
type Receivable struct {
	ID        string    `json:"id"`
	Client    string    `json:"client"`
	Email     string    `json:"email"`
	Amount    float64   `json:"amount"`
	DueInDays int       `json:"due_in_days"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationError reports a record rejected on creation
type ValidationError struct {
	Kind   RecordKind
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(e.Fields, ", "))
}

func (s *SalaryObligation) Validate() error {
	var fields []string
	if strings.TrimSpace(s.Employee) == "" {
		fields = append(fields, "employee is required")
	}
	if s.Amount < 0 {
		fields = append(fields, "amount must be non-negative")
	}
	return validationResult(KindSalary, fields)
}

func (b *FixedBill) Validate() error {
	var fields []string
	if strings.TrimSpace(b.Category) == "" {
		fields = append(fields, "category is required")
	}
	if b.Amount < 0 {
		fields = append(fields, "amount must be non-negative")
	}
	return validationResult(KindBill, fields)
}

func (r *Receivable) Validate() error {
	var fields []string
	if strings.TrimSpace(r.Client) == "" {
		fields = append(fields, "client is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		fields = append(fields, "email is required")
	}
	if r.Amount < 0 {
		fields = append(fields, "amount must be non-negative")
	}
	return validationResult(KindReceivable, fields)
}

func validationResult(kind RecordKind, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Fields: fields}
}

// SalaryInput, BillInput and ReceivableInput are records as submitted by a
// client. Numeric fields are pointers so an omitted value is not read as zero.
type SalaryInput struct {
	Employee  string   `json:"employee"`
	Amount    *float64 `json:"amount"`
	DueInDays *int     `json:"due_in_days"`
}

type BillInput struct {
	Category  string   `json:"category"`
	Amount    *float64 `json:"amount"`
	DueInDays *int     `json:"due_in_days"`
}

type ReceivableInput struct {
	Client    string   `json:"client"`
	Email     string   `json:"email"`
	Amount    *float64 `json:"amount"`
	DueInDays *int     `json:"due_in_days"`
}

func (in *SalaryInput) Record() (*SalaryObligation, error) {
	v := &SalaryObligation{Employee: in.Employee, Amount: valueOf(in.Amount), DueInDays: valueOf(in.DueInDays)}
	return v, checkInput(KindSalary, v.Validate(), in.Amount, in.DueInDays)
}

func (in *BillInput) Record() (*FixedBill, error) {
	v := &FixedBill{Category: in.Category, Amount: valueOf(in.Amount), DueInDays: valueOf(in.DueInDays)}
	return v, checkInput(KindBill, v.Validate(), in.Amount, in.DueInDays)
}

func (in *ReceivableInput) Record() (*Receivable, error) {
	v := &Receivable{Client: in.Client, Email: in.Email, Amount: valueOf(in.Amount), DueInDays: valueOf(in.DueInDays)}
	return v, checkInput(KindReceivable, v.Validate(), in.Amount, in.DueInDays)
}

// checkInput adds missing required numbers to the record's own validation result
func checkInput(kind RecordKind, err error, amount *float64, dueInDays *int) error {
	var fields []string
	var verr *ValidationError
	if errors.As(err, &verr) {
		fields = append(fields, verr.Fields...)
	}
	if amount == nil {
		fields = append(fields, "amount is required")
	}
	if dueInDays == nil {
		fields = append(fields, "due_in_days is required")
	}
	return validationResult(kind, fields)
}

func valueOf[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Preferences are founder constraints forwarded to the planning service
type Preferences struct {
	DontDelaySalaries bool `json:"dont_delay_salaries"`
	AvoidVendorDamage bool `json:"avoid_vendor_damage"`
}

// DefaultPreferences is used when a request carries none
func DefaultPreferences() Preferences {
	return Preferences{DontDelaySalaries: true, AvoidVendorDamage: true}
}

// FinanceState is the full input of one analysis run
type FinanceState struct {
	CashBalance float64            `json:"cash_balance"`
	Salaries    []SalaryObligation `json:"salaries"`
	FixedBills  []FixedBill        `json:"fixed_bills"`
	Receivables []Receivable       `json:"receivables"`
	Preferences Preferences        `json:"preferences"`
	Metrics     FinancialMetrics   `json:"financial_metrics"`
}
