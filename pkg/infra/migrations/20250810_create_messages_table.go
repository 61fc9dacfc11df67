package migrations

import (
	"github.com/formshield/formshield/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250810_create_messages_table",
		Name: "Create messages table",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE EXTENSION IF NOT EXISTS pgcrypto;
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS messages (
					id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					sender_name  TEXT NOT NULL,
					sender_email TEXT NOT NULL,
					subject      TEXT NOT NULL DEFAULT '',
					message      TEXT NOT NULL,
					is_read      BOOLEAN NOT NULL DEFAULT FALSE,
					created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_messages_sender_email ON messages (sender_email);
			`).Error; err != nil {
				return err
			}
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_messages_is_read ON messages (is_read);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS messages;`).Error
		},
	})
}
