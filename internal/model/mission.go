package model

// Mission 具名任务节点（世界地图上的关卡）。
// 完成事件的 source_unit_id 与 Code 相同时，对应奖杯解锁。
type Mission struct {
	BaseModel
	Code     string `gorm:"size:128;uniqueIndex;not null" json:"code"`
	Name     string `gorm:"size:100;not null" json:"name"`
	World    string `gorm:"size:50" json:"world"`
	TrophyID string `gorm:"size:64;uniqueIndex;not null" json:"trophyId"`
}

func (Mission) TableName() string {
	return "missions"
}
