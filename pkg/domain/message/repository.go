package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, entity *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	List(ctx context.Context) ([]Message, error)
	ListByReadStatus(ctx context.Context, isRead bool) ([]Message, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) (*Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
