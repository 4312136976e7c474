package db

import (
	"strings"
	"testing"
)

func TestDB_Pool_Nil(t *testing.T) {
	db := &DB{pool: nil}

	if db.Pool() != nil {
		t.Error("Pool() should return nil when pool is nil")
	}
	db.Close()
}

func TestFromPool(t *testing.T) {
	if FromPool(nil).Pool() != nil {
		t.Error("FromPool(nil).Pool() should be nil")
	}
}

func TestNullable(t *testing.T) {
	if nullable("") != nil {
		t.Error("nullable(\"\") should be nil")
	}
	if got := nullable("abc"); got == nil || *got != "abc" {
		t.Errorf("nullable(abc) = %v", got)
	}
}

func TestSchema(t *testing.T) {
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS analysis_reports", "report JSONB NOT NULL"} {
		if !strings.Contains(Schema, want) {
			t.Errorf("Schema missing %q", want)
		}
	}
}
