package rundb

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenAndRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite3")

	ledger, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error opening ledger: %v", err)
	}
	defer ledger.Close()

	start := time.Now()
	run := RunRecord{
		Seed:       12345,
		Grammars:   "common.dg,html.dg",
		Constants:  `{"leaf_trigger":1000}`,
		Count:      10,
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
	}
	if err := ledger.Record(run); err != nil {
		t.Fatalf("unexpected error recording run: %v", err)
	}

	var got []RunRecord
	if err := ledger.db.Find(&got).Error; err != nil {
		t.Fatalf("unexpected error reading back records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Fatalf("expected BeforeCreate to mint an ID")
	}
	if got[0].Seed != 12345 || got[0].Count != 10 {
		t.Fatalf("unexpected round-tripped record: %+v", got[0])
	}
}

func TestNewUUIDLooksLikeV4(t *testing.T) {
	id := newUUID()
	if len(id) != 36 {
		t.Fatalf("expected a 36-character UUID string, got %q (%d)", id, len(id))
	}
	if id[14] != '4' {
		t.Fatalf("expected UUID v4 version nibble, got %q", id)
	}
}
