package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func errOf(_ any, err error) error { return err }

func TestReceivableInput_Record(t *testing.T) {
	in := ReceivableInput{Client: "Acme", Email: "ap@acme.test", Amount: ptr(0.0), DueInDays: ptr(0)}

	r, err := in.Record()

	require.NoError(t, err, "explicit zeros are present values")
	assert.Equal(t, &Receivable{Client: "Acme", Email: "ap@acme.test"}, r)
}

func TestRecordInputs_MissingNumbers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   RecordKind
		fields []string
	}{
		{
			name:   "salary without numbers",
			err:    errOf((&SalaryInput{Employee: "Dev"}).Record()),
			kind:   KindSalary,
			fields: []string{"amount is required", "due_in_days is required"},
		},
		{
			name:   "bill without due date",
			err:    errOf((&BillInput{Category: "Rent", Amount: ptr(10.0)}).Record()),
			kind:   KindBill,
			fields: []string{"due_in_days is required"},
		},
		{
			name:   "receivable missing everything",
			err:    errOf((&ReceivableInput{}).Record()),
			kind:   KindReceivable,
			fields: []string{"client is required", "email is required", "amount is required", "due_in_days is required"},
		},
		{
			name:   "negative amount still reported",
			err:    errOf((&SalaryInput{Employee: "Dev", Amount: ptr(-1.0), DueInDays: ptr(3)}).Record()),
			kind:   KindSalary,
			fields: []string{"amount must be non-negative"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.True(t, errors.As(tt.err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestTarget_JSON(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		names  []string
		isList bool
	}{
		{"single", `"Rent"`, []string{"Rent"}, false},
		{"list", `["Acme","Beta"]`, []string{"Acme", "Beta"}, true},
		{"empty list", `[]`, []string{}, true},
		{"none placeholder", `"None"`, []string{}, false},
		{"null", `null`, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decision
			require.NoError(t, json.Unmarshal([]byte(`{"strategy":"X","target":`+tt.in+`}`), &d))

			assert.Equal(t, tt.names, d.Target.Names())
			assert.Equal(t, tt.isList, d.Target.IsList())

			out, err := json.Marshal(d.Target)
			require.NoError(t, err)
			if tt.in == `null` {
				assert.Equal(t, `""`, string(out))
				return
			}
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}

func TestTarget_RejectsNonStrings(t *testing.T) {
	var d Decision
	assert.Error(t, json.Unmarshal([]byte(`{"target":[1,2]}`), &d))
	assert.Error(t, json.Unmarshal([]byte(`{"target":{"name":"Acme"}}`), &d))
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "Acme, Beta", TargetList("Acme", "Beta").String())
	assert.Equal(t, "", SingleTarget("").String())
	assert.Equal(t, []string{"Rent"}, SingleTarget("Rent").Names())
}
