package models

import "time"

type CommunityQA struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"type:varchar(500);not null" json:"question" validate:"required,max=500"`
	Answer    string    `gorm:"type:text;not null" json:"answer" validate:"required"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CommunityQA) TableName() string {
	return "community_qa"
}
