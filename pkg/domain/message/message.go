package message

import (
	"time"

	"github.com/google/uuid"
)

// Message is one stored contact-form submission. Free-text fields hold
// sanitized values; raw input is never persisted.
type Message struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email" gorm:"index"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m Message) TableName() string {
	return "public.messages"
}
