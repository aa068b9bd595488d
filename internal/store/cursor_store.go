package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/maintainly/fssync/internal/model"
)

func (s *GormStore) GetCursor(ctx context.Context, stream string) (*time.Time, error) {
	var c model.SyncCursor
	if err := s.db.WithContext(ctx).First(&c, "stream = ?", stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseMark(c.Mark)
}

// SetCursor upserts the mark; concurrent writers to one stream race and the
// last write wins.
func (s *GormStore) SetCursor(ctx context.Context, stream string, mark time.Time) error {
	c := model.SyncCursor{Stream: stream, Mark: formatMark(mark), UpdatedAt: s.now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stream"}},
		DoUpdates: clause.AssignmentColumns([]string{"mark", "updated_at"}),
	}).Create(&c).Error
}

func (s *GormStore) ListCursors(ctx context.Context) ([]model.SyncCursor, error) {
	var out []model.SyncCursor
	if err := s.db.WithContext(ctx).Order("stream").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func formatMark(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseMark(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("parse cursor %q: %w", s, err)
	}
	return &t, nil
}

const cursorKeyPrefix = "fssync:cursor:"

// RedisCursorStore keeps stream cursors in redis under fssync:cursor:<stream>.
type RedisCursorStore struct {
	c *redis.Client
}

var _ CursorStore = (*RedisCursorStore)(nil)

func NewRedisCursorStore(c *redis.Client) *RedisCursorStore { return &RedisCursorStore{c: c} }

func (r *RedisCursorStore) GetCursor(ctx context.Context, stream string) (*time.Time, error) {
	val, err := r.c.Get(ctx, cursorKeyPrefix+stream).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return parseMark(val)
}

func (r *RedisCursorStore) SetCursor(ctx context.Context, stream string, mark time.Time) error {
	return r.c.Set(ctx, cursorKeyPrefix+stream, formatMark(mark), 0).Err()
}

func (r *RedisCursorStore) ListCursors(ctx context.Context) ([]model.SyncCursor, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, cursorKeyPrefix+"*", 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	out := make([]model.SyncCursor, 0, len(keys))
	for _, k := range keys {
		val, err := r.c.Get(ctx, k).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		out = append(out, model.SyncCursor{Stream: strings.TrimPrefix(k, cursorKeyPrefix), Mark: val})
	}
	return out, nil
}
