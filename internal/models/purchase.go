// internal/models/purchase.go
package models

import (
	"time"
)

// Purchase is one buyer's acquisition of one course. Rows form an
// append-only log: the same (course, buyer) pair may appear many times.
type Purchase struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CourseID        uint64    `json:"courseId" gorm:"column:course_id;not null;index:idx_purchases_course_buyer,priority:1"`
	Buyer           string    `json:"buyer" gorm:"size:42;not null;index:idx_purchases_course_buyer,priority:2;index:idx_purchases_buyer"`
	Price           Wei       `json:"price" gorm:"not null"`
	TransactionHash *string   `json:"transactionHash,omitempty" gorm:"column:transaction_hash;size:66"`
	PurchasedAt     time.Time `json:"purchasedAt" gorm:"column:purchased_at;autoCreateTime"`
}

func (Purchase) TableName() string {
	return "purchases"
}
