package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 代表一个使用健康助手的终端用户。创建后不会被修改或删除。
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Messages []Message `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Facts    []Fact    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate 为新用户生成不透明的 UUID。
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Message 是对话中的一轮（用户输入或助手回复），写入后不可变。
type Message struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string      `gorm:"size:36;not null;index:idx_messages_user_created,priority:1" json:"userId"`
	Role      SpeakerRole `gorm:"type:varchar(16);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `gorm:"index:idx_messages_user_created,priority:2" json:"createdAt"`
}

// Fact 是从用户输入中提取出的长期属性（过敏、居住地、饮食、病症等）。
// 只追加，不去重。
type Fact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- 自定义表名 ---

func (User) TableName() string {
	return "users"
}

func (Message) TableName() string {
	return "messages"
}

func (Fact) TableName() string {
	return "facts"
}

// All 返回需要 AutoMigrate 的全部模型，顺序保证外键依赖先被创建。
func All() []interface{} {
	return []interface{}{&User{}, &Message{}, &Fact{}}
}
