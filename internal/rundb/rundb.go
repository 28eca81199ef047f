// Package rundb is the optional run ledger named in SPEC_FULL.md's domain
// stack: a sqlite-backed audit trail of generator CLI invocations, so a run
// can be reproduced later from its recorded seed (spec.md §8 Determinism).
// This repurposes the teacher's `var db *gorm.DB` / model-struct pattern
// (internal/compiler/generator/gen_models.go) for our own domain instead of
// generating that pattern as Go source.
package rundb

import (
	"crypto/rand"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RunRecord is one row of the ledger: enough to reproduce a run exactly —
// its seed, the grammar files it loaded, a snapshot of the constants in
// effect, how many test cases it asked for, and when it ran.
type RunRecord struct {
	ID         string `gorm:"primaryKey"`
	Seed       int64
	Grammars   string
	Constants  string
	Count      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// BeforeCreate mints an ID if the caller left it blank, the same
// generateUUID shape the teacher emits for models annotated
// @default(uuid_v4) (gen_helpers.go), adapted here as a real hook instead
// of generated source.
func (r *RunRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newUUID()
	}
	return nil
}

func newUUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// Ledger wraps one sqlite-backed *gorm.DB holding the run_records table.
type Ledger struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// migrates the RunRecord schema into it.
func Open(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening run history database: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrating run history schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record inserts one completed (or completing) run into the ledger.
func (l *Ledger) Record(run RunRecord) error {
	return l.db.Create(&run).Error
}

// Close releases the underlying sqlite connection.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
