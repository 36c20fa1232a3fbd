// internal/database/seed.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/coursechain-backend/internal/models"
)

type SeedResult struct {
	Courses   int
	Purchases int
}

// SeedSampleData inserts demo courses and purchases. Existing courses are
// left untouched and purchases are skipped when their transaction hash is
// already recorded, so the seed can be run repeatedly.
func SeedSampleData(db *gorm.DB) (*SeedResult, error) {
	log.Info("Seeding database with sample data...")

	now := time.Now().Unix()
	const day = int64(24 * 60 * 60)

	courses := []models.Course{
		{
			CourseID:    1,
			Title:       "Getting Started with Web3",
			Description: "Blockchain and smart contract fundamentals: Solidity, wallets and ethers tooling.",
			Author:      "0x742d35Cc6634C0532925a3b8D65aEd2934C12D5e",
			Price:       models.RequireWei("100000000000000000"),
			CreatedAt:   now,
		},
		{
			CourseID:    2,
			Title:       "DeFi Protocols in Depth",
			Description: "How lending, AMM and staking protocols work, and how to build on top of them.",
			Author:      "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			Price:       models.RequireWei("200000000000000000"),
			CreatedAt:   now - day,
		},
		{
			CourseID:    3,
			Title:       "Building an NFT Marketplace",
			Description: "Contracts and frontend for a complete NFT trading marketplace, from scratch.",
			Author:      "0x742d35Cc6634C0532925a3b8D65aEd2934C12D5e",
			Price:       models.RequireWei("150000000000000000"),
			CreatedAt:   now - 2*day,
		},
		{
			CourseID:    4,
			Title:       "Advanced Solidity",
			Description: "Gas optimization, security practices and complex contract design.",
			Author:      "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
			Price:       models.RequireWei("250000000000000000"),
			CreatedAt:   now - 3*day,
		},
		{
			CourseID:    5,
			Title:       "Layer 2 Scaling Explained",
			Description: "Rollups and sidechains compared: Polygon, Arbitrum, Optimism and friends.",
			Author:      "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			Price:       models.RequireWei("180000000000000000"),
			CreatedAt:   now - 4*day,
		},
	}

	purchases := []models.Purchase{
		{
			CourseID:        1,
			Buyer:           "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			Price:           models.RequireWei("100000000000000000"),
			TransactionHash: txHash("0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"),
		},
		{
			CourseID:        2,
			Buyer:           "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			Price:           models.RequireWei("200000000000000000"),
			TransactionHash: txHash("0x2345678901abcdef2345678901abcdef2345678901abcdef2345678901abcdef"),
		},
		{
			CourseID:        3,
			Buyer:           "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			Price:           models.RequireWei("150000000000000000"),
			TransactionHash: txHash("0x3456789012abcdef3456789012abcdef3456789012abcdef3456789012abcdef"),
		},
	}

	result := &SeedResult{}
	err := WithTransaction(db, func(tx *gorm.DB) error {
		for i := range courses {
			course := courses[i]
			course.Author = models.NormalizeAddress(course.Author)
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "course_id"}},
				DoNothing: true,
			}).Create(&course)
			if res.Error != nil {
				return fmt.Errorf("failed to seed course %d: %w", course.CourseID, res.Error)
			}
			result.Courses += int(res.RowsAffected)
		}

		for i := range purchases {
			purchase := purchases[i]
			purchase.Buyer = models.NormalizeAddress(purchase.Buyer)

			var existing int64
			if err := tx.Model(&models.Purchase{}).
				Where("transaction_hash = ?", *purchase.TransactionHash).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("failed to check seeded purchase: %w", err)
			}
			if existing > 0 {
				continue
			}

			if err := tx.Create(&purchase).Error; err != nil {
				return fmt.Errorf("failed to seed purchase for course %d: %w", purchase.CourseID, err)
			}
			result.Purchases++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"courses":   result.Courses,
		"purchases": result.Purchases,
	}).Info("Sample data seeding completed")
	return result, nil
}

func txHash(hash string) *string {
	return &hash
}
