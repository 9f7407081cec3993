package entity

import (
	"encoding/json"
	"time"
)

// PretrainedModel 自动标注用的预训练模型，按蔬果分组归档。
type PretrainedModel struct {
	ID         uint            `gorm:"primaryKey;column:id" json:"id"`
	Name       string          `gorm:"column:name" json:"name"`
	GroupKey   string          `gorm:"column:group_key" json:"group"`
	ModelPath  string          `gorm:"column:model_path" json:"model_path"`
	InputSize  *uint           `gorm:"column:input_size" json:"input_size"`
	ClassNames json.RawMessage `gorm:"column:class_names;type:json" json:"class_names"`
	Device     string          `gorm:"column:device" json:"device"`
	IsActive   bool            `gorm:"column:is_active" json:"is_active"`
	LastUsed   *time.Time      `gorm:"column:last_used" json:"last_used"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PretrainedModel) TableName() string {
	return "pretrained_models"
}
