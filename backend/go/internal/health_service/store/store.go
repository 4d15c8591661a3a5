package store

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// StorageError 表示持久化层不可用或违反了约束。调用方应映射为 500。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError 报告 err 链中是否包含 *StorageError。
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store 封装了用户、消息和事实记录的全部数据库操作。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate 创建或更新 users、messages、facts 三张表。
func (s *Store) Migrate(ctx context.Context) error {
	return wrap("migrate", s.DB.WithContext(ctx).AutoMigrate(models.All()...))
}

// Ping 检查底层连接是否可用。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

// --- User Management ---

// CreateUser 创建一个新用户并返回它。
func (s *Store) CreateUser(ctx context.Context) (*models.User, error) {
	user := &models.User{}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, wrap("create user", err)
	}
	return user, nil
}

// --- Conversation History ---

// AppendMessage 追加一轮对话。用户必须已存在，由外键约束保证。
func (s *Store) AppendMessage(ctx context.Context, userID string, role models.SpeakerRole, content string) error {
	if !role.Valid() {
		return wrap("append message", fmt.Errorf("invalid role %q", role))
	}
	msg := &models.Message{UserID: userID, Role: role, Content: content}
	return wrap("append message", s.DB.WithContext(ctx).Create(msg).Error)
}

// ListRecentMessages 返回用户最近的 limit 条消息，按时间从新到旧排序。
func (s *Store) ListRecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, wrap("list recent messages", err)
	}
	return msgs, nil
}

// --- Facts ---

// AppendFact 追加一条事实。不做去重。
func (s *Store) AppendFact(ctx context.Context, userID, content string) error {
	fact := &models.Fact{UserID: userID, Content: content}
	return wrap("append fact", s.DB.WithContext(ctx).Create(fact).Error)
}

// ListFacts 返回用户的全部事实，按写入顺序排列。没有事实时返回空切片而非 nil。
func (s *Store) ListFacts(ctx context.Context, userID string) ([]models.Fact, error) {
	facts := make([]models.Fact, 0)
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&facts).Error
	if err != nil {
		return nil, wrap("list facts", err)
	}
	return facts, nil
}
