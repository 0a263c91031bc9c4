// Package audit keeps a relational trail of administrative actions and
// protocol rejections, queryable by actor and election.
package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/vocdoni/zkvote-core/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Entry is one audit record.
type Entry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	Actor      string    `gorm:"index;size:42" json:"actor"`
	OfficialID string    `json:"officialId,omitempty"`
	Action     string    `gorm:"index;size:32" json:"action"`
	ElectionID *uint64   `gorm:"index" json:"electionId,omitempty"`
	Outcome    string    `gorm:"size:16" json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}

// Outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// Filter selects entries. Zero values match everything.
type Filter struct {
	Actor      string
	ElectionID *uint64
	Limit      int
}

// Log is the audit store.
type Log struct {
	db *gorm.DB
}

// Open connects to the audit database. For sqlite, dsn is a directory (an
// empty dsn keeps the log in memory); for postgres it is a connection
// string.
func Open(driver, dsn string) (*Log, error) {
	cfg := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	var db *gorm.DB
	var err error
	switch driver {
	case DriverSQLite, "":
		if dsn == "" {
			db, err = gorm.Open(sqlite.Open("file::memory:"), cfg)
			if err == nil {
				// every pooled connection would get its own memory db
				sqlDB, dbErr := db.DB()
				if dbErr != nil {
					return nil, dbErr
				}
				sqlDB.SetMaxOpenConns(1)
			}
			break
		}
		if err := os.MkdirAll(dsn, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit dir: %w", err)
		}
		path := filepath.Join(dsn, "audit.sqlite")
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)), cfg)
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported audit driver %q", types.ErrInputDomain, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open audit db: %v", types.ErrBackendUnavailable, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return &Log{db: db}, nil
}

// Record stores e, assigning its id and creation time when unset.
func (l *Log) Record(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("nil audit entry")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	if err := l.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("%w: record audit entry: %v", types.ErrBackendUnavailable, err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (l *Log) List(ctx context.Context, f Filter) ([]Entry, error) {
	q := l.db.WithContext(ctx).Model(&Entry{})
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.ElectionID != nil {
		q = q.Where("election_id = ?", *f.ElectionID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var entries []Entry
	if err := q.Order("created_at desc").Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list audit entries: %v", types.ErrBackendUnavailable, err)
	}
	return entries, nil
}

// Ping checks the database connection.
func (l *Log) Ping(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connections.
func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Recorder is implemented by Log. Components take a Recorder so the audit
// trail stays optional.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}
