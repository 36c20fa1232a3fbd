// internal/models/course.go
package models

import (
	"time"
)

// Course is the cached snapshot of one on-chain course listing.
type Course struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	CourseID    uint64 `json:"courseId" gorm:"column:course_id;uniqueIndex;not null"`
	Title       string `json:"title" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	Author      string `json:"author" gorm:"size:42;not null;index:idx_courses_author"`
	Price       Wei    `json:"price" gorm:"not null"`
	// Contract timestamp in Unix seconds, not maintained by gorm.
	CreatedAt int64     `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (Course) TableName() string {
	return "courses"
}
