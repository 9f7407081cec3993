package entity

import "time"

// DeploymentRecord 部署流水，只追加；重复部署产生新记录而不是改历史。
type DeploymentRecord struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	DatasetID    uint      `gorm:"column:dataset_id;index" json:"dataset_id"`
	DatasetName  string    `gorm:"column:dataset_name" json:"dataset_name"`
	DatasetGroup string    `gorm:"column:dataset_group" json:"dataset_group"`
	ModelPath    string    `gorm:"column:model_path" json:"model_path"`
	Metric       string    `gorm:"column:metric" json:"metric"`
	Score        float64   `gorm:"column:score" json:"score"`
	Status       string    `gorm:"column:status" json:"status"`
	DeployedAt   time.Time `gorm:"column:deployed_at;autoCreateTime" json:"deployed_at"`
}

func (DeploymentRecord) TableName() string {
	return "deployment_records"
}
