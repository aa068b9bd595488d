package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/maintainly/fssync/internal/model"
)

func (s *GormStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var out []model.Customer
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *GormStore) ListSystems(ctx context.Context) ([]model.System, error) {
	var out []model.System
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	return out, nil
}

// ListContacts returns the contacts of one source; an empty source returns all.
func (s *GormStore) ListContacts(ctx context.Context, source model.ContactSource) ([]model.ContactPerson, error) {
	var out []model.ContactPerson
	q := s.db.WithContext(ctx).Order("id")
	if source != "" {
		q = q.Where("source = ?", source)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

func (s *GormStore) ListManualOwners(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)
	var systems, contacts []string
	manual := "external_id IS NULL OR external_id = ''"
	if err := db.Model(&model.System{}).Where(manual).Distinct().Pluck("customer_id", &systems).Error; err != nil {
		return nil, fmt.Errorf("manual system owners: %w", err)
	}
	if err := db.Model(&model.ContactPerson{}).Where(manual).Distinct().Pluck("customer_id", &contacts).Error; err != nil {
		return nil, fmt.Errorf("manual contact owners: %w", err)
	}
	out := append(systems, contacts...)
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *GormStore) ApplyCustomers(ctx context.Context, cs ChangeSet[model.Customer]) error {
	return applyChangeSet(ctx, s.db, s.batchSize, cs, s.now())
}

func (s *GormStore) ApplySystems(ctx context.Context, cs ChangeSet[model.System]) error {
	return applyChangeSet(ctx, s.db, s.batchSize, cs, s.now())
}

func (s *GormStore) ApplyContacts(ctx context.Context, cs ChangeSet[model.ContactPerson]) error {
	return applyChangeSet(ctx, s.db, s.batchSize, cs, s.now())
}

// applyChangeSet is the unit of work of one stream. Any failing statement
// rolls back the whole set.
func applyChangeSet[T any](ctx context.Context, db *gorm.DB, batchSize int, cs ChangeSet[T], now time.Time) error {
	if cs.Empty() {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cs.Inserts) > 0 {
			if err := tx.CreateInBatches(cs.Inserts, batchSize).Error; err != nil {
				return fmt.Errorf("insert batch: %w", err)
			}
		}
		for _, p := range cs.Updates {
			if len(p.Fields) == 0 {
				continue
			}
			fields := maps.Clone(p.Fields)
			fields["updated_at"] = now
			if err := tx.Model(new(T)).Where("id = ?", p.ID).Updates(fields).Error; err != nil {
				return fmt.Errorf("update %s: %w", p.ID, err)
			}
		}
		if len(cs.Deletes) > 0 {
			if err := tx.Where("id IN ?", cs.Deletes).Delete(new(T)).Error; err != nil {
				return fmt.Errorf("delete batch: %w", err)
			}
		}
		return nil
	})
}
