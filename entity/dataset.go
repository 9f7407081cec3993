package entity

import "time"

// DatasetStatus 数据集生命周期状态
type DatasetStatus string

const (
	DatasetStatusRaw           DatasetStatus = "RAW"
	DatasetStatusAutoAnnotated DatasetStatus = "AUTO_ANNOTATED"
	DatasetStatusValidated     DatasetStatus = "VALIDATED"
	DatasetStatusAugmented     DatasetStatus = "AUGMENTED"
)

type Dataset struct {
	ID         uint          `gorm:"primaryKey;column:id" json:"id"`
	Name       string        `gorm:"column:name" json:"name"`
	GroupKey   string        `gorm:"column:group_key" json:"group"` // 蔬果分组 (固定字典)
	StartDate  time.Time     `gorm:"column:start_date" json:"start_date"`
	EndDate    time.Time     `gorm:"column:end_date" json:"end_date"`
	ImageCount uint          `gorm:"column:image_count" json:"image_count"`
	Status     DatasetStatus `gorm:"column:status" json:"status"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Dataset) TableName() string {
	return "datasets"
}

// DatasetGroups 固定的蔬果分组字典，来自采集侧的既有约定。
var DatasetGroups = []string{
	"melon, pasteque, concombre, courgette, pg_cucurbit, artichaut",
	"tomate, aubergine, poivron",
	"poireau",
	"radis, choux de bruxelles",
	"haricot",
	"salad",
}

func IsValidDatasetGroup(group string) bool {
	for _, g := range DatasetGroups {
		if g == group {
			return true
		}
	}
	return false
}
