// internal/repository/course_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/coursechain-backend/internal/models"
)

var ErrCourseNotFound = errors.New("course not found in cache")

// CourseRepository is the relational cache of courses and purchases.
// Address predicates always compare on the lowercase form.
type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// UpsertCourse inserts the course or overwrites every contract-sourced
// column of the row with the same course_id.
func (r *CourseRepository) UpsertCourse(ctx context.Context, course *models.Course) error {
	course.Author = models.NormalizeAddress(course.Author)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "author", "price", "created_at", "updated_at",
		}),
	}).Create(course).Error
	if err != nil {
		return fmt.Errorf("failed to upsert course %d: %w", course.CourseID, err)
	}
	return nil
}

func (r *CourseRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("course_id DESC").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) FindCourse(ctx context.Context, courseID uint64) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("course_id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to find course %d: %w", courseID, err)
	}
	return &course, nil
}

func (r *CourseRepository) ListCoursesByAuthor(ctx context.Context, author string) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	if err := r.db.WithContext(ctx).
		Where("author = ?", models.NormalizeAddress(author)).
		Order("created_at DESC").
		Order("course_id DESC").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses by author: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

func (r *CourseRepository) InsertPurchase(ctx context.Context, purchase *models.Purchase) error {
	purchase.Buyer = models.NormalizeAddress(purchase.Buyer)

	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return fmt.Errorf("failed to record purchase of course %d: %w", purchase.CourseID, err)
	}
	return nil
}

func (r *CourseRepository) HasPurchase(ctx context.Context, courseID uint64, buyer string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("course_id = ? AND buyer = ?", courseID, models.NormalizeAddress(buyer)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}

// ListPurchasedCourses joins the locally recorded purchases of buyer with
// the cached courses, most recent purchase first. A course bought twice
// appears twice.
func (r *CourseRepository) ListPurchasedCourses(ctx context.Context, buyer string) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("courses.*").
		Joins("INNER JOIN purchases ON purchases.course_id = courses.course_id").
		Where("purchases.buyer = ?", models.NormalizeAddress(buyer)).
		Order("purchases.purchased_at DESC").
		Order("purchases.id DESC").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchased courses: %w", err)
	}
	return courses, nil
}
