package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maintainly/fssync/internal/model"
)

// GormStore implements Store using GORM. Production runs on MySQL; sqlite is
// used for local runs and tests.
type GormStore struct {
	db        *gorm.DB
	batchSize int
	now       func() time.Time
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens a MySQL connection and runs migrations. parseTime is
// forced on so DATETIME columns scan into time.Time.
func NewGormStore(dsn string) (*GormStore, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	db, err := gorm.Open(mysql.Open(cfg.FormatDSN()), gormConfig())
	if err != nil {
		return nil, err
	}
	return NewGormStoreFromDB(db)
}

// NewSQLiteStore opens (or creates) a sqlite database file with foreign keys
// enforced.
func NewSQLiteStore(path string) (*GormStore, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer
	sqlDB.SetMaxOpenConns(1)
	return NewGormStoreFromDB(db)
}

// NewGormStoreFromDB constructs a GormStore from an existing *gorm.DB. This is
// useful for tests or when the caller manages the DB.
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db, batchSize: DefaultBatchSize, now: func() time.Time { return time.Now().UTC() }}, nil
}

// newGormLogger reports slow queries and errors. A missing row is an expected
// answer here (cursors, settings, jobs), so it is not logged.
func newGormLogger(w gormlogger.Writer) gormlogger.Interface {
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: newGormLogger(log.New(os.Stderr, "\r\n", log.LstdFlags))}
}

// SetBatchSize overrides the insert batch size; values <= 0 are ignored.
func (s *GormStore) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// DB exposes the underlying *gorm.DB for callers that need low-level access.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Customer{},
		&model.System{},
		&model.ContactPerson{},
		&model.SyncCursor{},
		&model.Setting{},
		&model.Job{},
	)
}

func (s *GormStore) CreateJob(ctx context.Context, j *model.Job) (string, error) {
	if j == nil {
		return "", errors.New("nil job")
	}
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := s.now()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = model.StatusPending
	}
	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		return "", err
	}
	return j.ID, nil
}

func (s *GormStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (s *GormStore) UpdateJob(ctx context.Context, j *model.Job) error {
	if j == nil || j.ID == "" {
		return errors.New("invalid job")
	}
	j.UpdatedAt = s.now()
	updates := map[string]interface{}{
		"status":     string(j.Status),
		"result":     j.Result,
		"error":      j.Error,
		"updated_at": j.UpdatedAt,
	}
	res := s.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", j.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	var jobs []*model.Job
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
