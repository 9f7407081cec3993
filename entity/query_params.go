package entity

// QueryParams 定义通用的查询参数
type QueryParams struct {
	Page     int    `form:"page"`      // 页码
	PageSize int    `form:"page_size"` // 每页数量
	Keyword  string `form:"keyword"`   // 搜索关键字 (模糊匹配名称等)
	Name     string `form:"name"`      // 过滤字段：名称

	// 数据集过滤字段
	GroupKey string         `form:"group"`
	Status   *DatasetStatus `form:"status"`

	// 任务/实例过滤字段
	DatasetID  *uint       `form:"dataset_id"`
	InstanceID *uint       `form:"instance_id"`
	Kind       *TaskKind   `form:"kind"`
	TaskStatus *TaskStatus `form:"task_status"`

	// 预训练模型过滤字段
	IsActive *bool `form:"is_active"`
}

// PageResult 通用的分页返回结构
type PageResult struct {
	Total int64       `json:"total"` // 总条数
	List  interface{} `json:"list"`  // 数据列表
}
