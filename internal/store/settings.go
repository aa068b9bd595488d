package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/maintainly/fssync/internal/model"
)

func (s *GormStore) GetSetting(ctx context.Context, key string) (string, error) {
	var st model.Setting
	if err := s.db.WithContext(ctx).First(&st, "`key` = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return st.Value, nil
}

func (s *GormStore) UpdateSetting(ctx context.Context, key string, fn func(current string) (string, error)) (string, error) {
	var updated string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st model.Setting
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&st, "`key` = ?", key).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		next, err := fn(st.Value)
		if err != nil {
			return err
		}
		updated = next
		row := model.Setting{Key: key, Value: next, UpdatedAt: s.now()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return "", err
	}
	return updated, nil
}
