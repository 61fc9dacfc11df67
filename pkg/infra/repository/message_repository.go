package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formshield/formshield/pkg/domain/message"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) message.Repository {
	return &MessageRepository{
		db: db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, entity *message.Message) error {
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	entity := new(message.Message)
	if err := r.db.WithContext(ctx).First(entity, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("message not found: %w", err)
	}
	return entity, nil
}

func (r *MessageRepository) List(ctx context.Context) ([]message.Message, error) {
	var entities []message.Message
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&entities).Error
	return entities, err
}

func (r *MessageRepository) ListByReadStatus(ctx context.Context, isRead bool) ([]message.Message, error) {
	var entities []message.Message
	err := r.db.WithContext(ctx).
		Where("is_read = ?", isRead).
		Order("created_at desc").
		Find(&entities).Error
	return entities, err
}

func (r *MessageRepository) MarkAsRead(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entity.IsRead = true
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&message.Message{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
