package core

import (
	"fmt"
	"strings"
	"testing"
)

// importFixture builds a header plus n valid data rows with every column set.
func importFixture(n int) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(CSVColumns, ",") + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `"Buyer %d",buyer%d@example.com,="99988%05d",Mohali,Apartment,2,Buy,5000000,7500000,0-3m,Website,"notes, with comma",hot;nri,New`+"\n", i, i, i)
	}
	return []byte(b.String())
}

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParseCSV benchmarks a full-size import file.
func BenchmarkParseCSV(b *testing.B) {
	data := importFixture(DefaultMaxImportRows)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseCSV(data, 0); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCleanCell benchmarks cell cleanup, run once per cell.
func BenchmarkCleanCell(b *testing.B) {
	cells := []string{"  Jane Roe  ", `="09998887777"`, "Mohali", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range cells {
			cleanCell(c)
		}
	}
}

// ============================================================================
// Validation Benchmarks
// ============================================================================

// BenchmarkValidateBatch benchmarks validating a full-size import.
func BenchmarkValidateBatch(b *testing.B) {
	rows, err := ParseCSV(importFixture(DefaultMaxImportRows), 0)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := ValidateBatch(rows); !res.OK() {
			b.Fatalf("fixture invalid: %+v", res.Errors[0])
		}
	}
}

// BenchmarkDiff benchmarks a typical single-field edit.
func BenchmarkDiff(b *testing.B) {
	old := validFields()
	old.Tags = []string{"hot", "nri", "repeat"}
	next := old
	next.Status = "Contacted"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Diff(old, next)
	}
}
