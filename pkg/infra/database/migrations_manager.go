package database

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Migration is one schema change, identified by a sortable ID (date-prefixed
// by convention). Migrations self-register from their package init.
type Migration struct {
	ID   string
	Name string
	Up   func(db *gorm.DB) error
	Down func(db *gorm.DB) error
}

var registeredMigrations []Migration

func RegisterMigration(m Migration) {
	for _, existing := range registeredMigrations {
		if existing.ID == m.ID {
			panic(fmt.Sprintf("migration %s registered twice", m.ID))
		}
	}
	registeredMigrations = append(registeredMigrations, m)
}

type MigrationsManager struct {
	db *gorm.DB
}

func NewMigrationsManager(db *gorm.DB) *MigrationsManager {
	return &MigrationsManager{db: db}
}

// ApplyPending runs every registered migration that has no row in the
// version table yet, in ID order. Each migration and its version row commit
// in one transaction, so a failed migration leaves no partial state behind.
func (m *MigrationsManager) ApplyPending() error {
	const versionTable = `
CREATE TABLE IF NOT EXISTS public.migration_version (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if err := m.db.Exec(versionTable).Error; err != nil {
		return fmt.Errorf("ensure migration version table: %w", err)
	}

	applied, err := m.appliedIDs()
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	pending := make([]Migration, 0, len(registeredMigrations))
	for _, mig := range registeredMigrations {
		if _, ok := applied[mig.ID]; !ok {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	for _, mig := range pending {
		if mig.Up == nil {
			return fmt.Errorf("migration %s has no Up function", mig.ID)
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Exec(
				"INSERT INTO public.migration_version (id, name, applied_at) VALUES (?, ?, ?)",
				mig.ID, mig.Name, time.Now(),
			).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s (%s): %w", mig.ID, mig.Name, err)
		}
	}
	return nil
}

func (m *MigrationsManager) appliedIDs() (map[string]struct{}, error) {
	var ids []string
	if err := m.db.Raw("SELECT id FROM public.migration_version").Scan(&ids).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		applied[id] = struct{}{}
	}
	return applied, nil
}
