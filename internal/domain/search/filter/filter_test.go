package filter

import (
	"strings"
	"testing"
)

func TestNewMatch_Valid(t *testing.T) {
	c, err := NewMatch("doc_id", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Key() != "doc_id" || c.Match() != "abc" {
		t.Errorf("condition = %q:%q", c.Key(), c.Match())
	}
}

func TestNewMatch_Errors(t *testing.T) {
	if _, err := NewMatch("", "v"); err == nil {
		t.Error("expected error for empty key")
	}
	_, err := NewMatch("k", "")
	if err == nil {
		t.Fatal("expected error for empty value")
	}
	if !strings.Contains(err.Error(), `"k"`) {
		t.Errorf("error = %q", err)
	}
}

func TestNewExpression_TooManyConditions(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	for i := range conds {
		conds[i], _ = NewMatch("k", "v")
	}
	if _, err := NewExpression(conds, nil); err == nil {
		t.Error("expected error for too many must conditions")
	}
	if _, err := NewExpression(nil, conds); err == nil {
		t.Error("expected error for too many must_not conditions")
	}
}

func TestExpression_IsEmpty(t *testing.T) {
	if !(Expression{}).IsEmpty() {
		t.Error("zero expression should be empty")
	}
	expr, err := Exclude("doc_id", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.IsEmpty() {
		t.Error("exclusion should not be empty")
	}
	if len(expr.MustNot()) != 1 || len(expr.Must()) != 0 {
		t.Errorf("unexpected groups: must=%d must_not=%d", len(expr.Must()), len(expr.MustNot()))
	}
}

func TestExpression_Matches(t *testing.T) {
	must, _ := NewMatch("lang", "en")
	not, _ := NewMatch("doc_id", "self")
	expr, _ := NewExpression([]Condition{must}, []Condition{not})

	tests := []struct {
		name   string
		fields map[string]string
		want   bool
	}{
		{"match", map[string]string{"lang": "en", "doc_id": "other"}, true},
		{"excluded", map[string]string{"lang": "en", "doc_id": "self"}, false},
		{"must missing", map[string]string{"doc_id": "other"}, false},
		{"must differs", map[string]string{"lang": "de", "doc_id": "other"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expr.Matches(tt.fields); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.fields, got, tt.want)
			}
		})
	}

	if !(Expression{}).Matches(nil) {
		t.Error("empty expression should match everything")
	}
}

func TestExclude_EmptyValue(t *testing.T) {
	if _, err := Exclude("doc_id", ""); err == nil {
		t.Error("expected error for empty exclusion value")
	}
}
