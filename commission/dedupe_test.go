package commission_test

import (
	"testing"
	"time"

	"github.com/warp/commission-engine/commission"
)

func sale(identity, course string, closed time.Time, amount int64) commission.SalesRecord {
	return commission.SalesRecord{
		Identity:   identity,
		CourseName: course,
		ClosedDate: closed,
		Amount:     dec(amount),
	}
}

func TestDeduplicate_SubstringContainment(t *testing.T) {
	// GIVEN: the same student sold both "INTRO TO PYTHON" and "PYTHON"
	// WHEN: deduplicated
	// THEN: the later-index record is removed, the earlier one survives
	sales := []commission.SalesRecord{
		sale("S1234567A", "INTRO TO PYTHON", date(2025, time.July, 1), 2000),
		sale("S1234567A", "PYTHON", date(2025, time.July, 5), 1500),
	}

	out := commission.Deduplicate(sales)

	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].CourseName != "INTRO TO PYTHON" {
		t.Errorf("survivor = %q, want the earlier-index record", out[0].CourseName)
	}
}

func TestDeduplicate_ContainmentIsSymmetric(t *testing.T) {
	// The shorter name first still collapses the pair.
	sales := []commission.SalesRecord{
		sale("S1234567A", "PYTHON", date(2025, time.July, 1), 1500),
		sale("S1234567A", "INTRO TO PYTHON", date(2025, time.July, 5), 2000),
	}
	out := commission.Deduplicate(sales)
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].CourseName != "PYTHON" {
		t.Errorf("survivor = %q, want the earlier-index record", out[0].CourseName)
	}
}

func TestDeduplicate_ExactDuplicatesKeepLatestClosedDate(t *testing.T) {
	sales := []commission.SalesRecord{
		sale("S1234567A", "DATA SCIENCE", date(2025, time.July, 10), 3000),
		sale("S1234567A", "DATA SCIENCE", date(2025, time.July, 2), 3000),
		sale("S1234567A", "DATA SCIENCE", date(2025, time.July, 20), 3000),
	}
	out := commission.Deduplicate(sales)
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if !out[0].ClosedDate.Equal(date(2025, time.July, 20)) {
		t.Errorf("survivor closed %s, want the latest date", out[0].ClosedDate.Format("2006-01-02"))
	}
}

func TestDeduplicate_DifferentIdentitiesNeverCollapse(t *testing.T) {
	sales := []commission.SalesRecord{
		sale("S1234567A", "PYTHON", date(2025, time.July, 1), 1500),
		sale("T7654321B", "INTRO TO PYTHON", date(2025, time.July, 5), 2000),
	}
	out := commission.Deduplicate(sales)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
}

func TestDeduplicate_UnrelatedCoursesSurvive(t *testing.T) {
	sales := []commission.SalesRecord{
		sale("S1234567A", "PYTHON", date(2025, time.July, 1), 1500),
		sale("S1234567A", "DATA SCIENCE", date(2025, time.July, 5), 3000),
	}
	out := commission.Deduplicate(sales)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
}

func TestDeduplicate_EmptyCourseNamesAreLeftAlone(t *testing.T) {
	// The empty string is a substring of everything; it must not swallow
	// records that simply lack a course name.
	sales := []commission.SalesRecord{
		sale("S1234567A", "", date(2025, time.July, 1), 1500),
		sale("S1234567A", "DATA SCIENCE", date(2025, time.July, 5), 3000),
	}
	out := commission.Deduplicate(sales)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
}

func TestDeduplicate_DoesNotMutateInput(t *testing.T) {
	sales := []commission.SalesRecord{
		sale("S1234567A", "INTRO TO PYTHON", date(2025, time.July, 1), 2000),
		sale("S1234567A", "PYTHON", date(2025, time.July, 5), 1500),
	}
	_ = commission.Deduplicate(sales)
	if len(sales) != 2 || sales[1].CourseName != "PYTHON" {
		t.Error("input slice was mutated")
	}
}
