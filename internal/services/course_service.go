// internal/services/course_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coursechain-backend/internal/metrics"
	"github.com/javajoker/coursechain-backend/internal/models"
	"github.com/javajoker/coursechain-backend/internal/repository"
)

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrLedgerUnavailable = errors.New("course contract unavailable")
)

// CourseStore is the relational cache the service reads first.
type CourseStore interface {
	UpsertCourse(ctx context.Context, course *models.Course) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	FindCourse(ctx context.Context, courseID uint64) (*models.Course, error)
	ListCoursesByAuthor(ctx context.Context, author string) ([]models.Course, error)
	CountCourses(ctx context.Context) (int64, error)
	InsertPurchase(ctx context.Context, purchase *models.Purchase) error
	HasPurchase(ctx context.Context, courseID uint64, buyer string) (bool, error)
	ListPurchasedCourses(ctx context.Context, buyer string) ([]models.Course, error)
}

// CourseLedger is the read-only view of the on-chain course contract,
// the source of truth for courses and purchase membership.
type CourseLedger interface {
	GetCourse(ctx context.Context, courseID uint64) (*ContractCourse, error)
	GetCourseCount(ctx context.Context) (uint64, error)
	GetUserPurchasedCourses(ctx context.Context, user string) ([]uint64, error)
	HasUserPurchasedCourse(ctx context.Context, courseID uint64, user string) (bool, error)
}

// ContractCourse is a course listing as returned by the contract.
type ContractCourse struct {
	Title       string
	Description string
	Author      string
	Price       decimal.Decimal
	CreatedAt   int64
}

type RecordPurchaseRequest struct {
	CourseID        uint64 `json:"courseId" validate:"required"`
	Buyer           string `json:"buyer" validate:"required,max=42"`
	TransactionHash string `json:"transactionHash" validate:"required,max=66"`
	Price           string `json:"price" validate:"required,wei_amount"`
}

// Purchase converts a validated request into a purchase row.
func (r *RecordPurchaseRequest) Purchase() (*models.Purchase, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", r.Price, err)
	}

	hash := strings.TrimSpace(r.TransactionHash)
	return &models.Purchase{
		CourseID:        r.CourseID,
		Buyer:           models.NormalizeAddress(r.Buyer),
		Price:           models.NewWei(price),
		TransactionHash: &hash,
	}, nil
}

type SyncReport struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// CourseService keeps the course cache eventually consistent with the
// contract. Contract failures never surface to callers: each operation
// degrades to its cache-only answer instead. Store failures propagate.
type CourseService struct {
	store  CourseStore
	ledger CourseLedger
	log    *logrus.Entry
}

// NewCourseService wires the service. ledger may be nil when no contract
// client could be built; the service then runs in cache-only mode.
func NewCourseService(store CourseStore, ledger CourseLedger) *CourseService {
	s := &CourseService{
		store:  store,
		ledger: ledger,
		log:    logrus.WithField("component", "course_service"),
	}

	if ledger == nil {
		metrics.LedgerAvailable.Set(0)
		s.log.Warn("Course contract not configured, serving from cache only")
	} else {
		metrics.LedgerAvailable.Set(1)
	}
	return s
}

func (s *CourseService) contract() (CourseLedger, bool) {
	return s.ledger, s.ledger != nil
}

func (s *CourseService) LedgerAvailable() bool {
	_, ok := s.contract()
	return ok
}

func (s *CourseService) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	return s.store.ListCourses(ctx)
}

// GetCourseByID serves the cached row, syncing it from the contract on a
// miss. ErrCourseNotFound is returned when neither has it.
func (s *CourseService) GetCourseByID(ctx context.Context, courseID uint64) (*models.Course, error) {
	course, err := s.store.FindCourse(ctx, courseID)
	if err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return course, nil
	}
	if !errors.Is(err, repository.ErrCourseNotFound) {
		return nil, err
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	course, err = s.SyncCourseFromContract(ctx, courseID)
	if err != nil {
		if errors.Is(err, ErrLedgerUnavailable) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// SyncCourseFromContract reads one course from the contract and upserts it
// into the cache. Contract failures are reported as ErrLedgerUnavailable
// and leave the cache untouched.
func (s *CourseService) SyncCourseFromContract(ctx context.Context, courseID uint64) (*models.Course, error) {
	ledger, ok := s.contract()
	if !ok {
		return nil, s.ledgerFailure("getCourse", "course not synced", nil)
	}

	data, err := ledger.GetCourse(ctx, courseID)
	if err != nil {
		return nil, s.ledgerFailure("getCourse", "course not synced", err)
	}
	metrics.LedgerCalls.WithLabelValues("getCourse", metrics.OutcomeSuccess).Inc()

	course := &models.Course{
		CourseID:    courseID,
		Title:       data.Title,
		Description: data.Description,
		Author:      models.NormalizeAddress(data.Author),
		Price:       models.NewWei(data.Price),
		CreatedAt:   data.CreatedAt,
	}
	if err := s.store.UpsertCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCoursesByAuthor(ctx context.Context, author string) ([]models.Course, error) {
	return s.store.ListCoursesByAuthor(ctx, author)
}

// GetUserPurchasedCourses lists the courses the contract says user owns,
// in contract order. Without the contract it falls back to the purchases
// recorded locally, most recent first; the two answers may differ.
func (s *CourseService) GetUserPurchasedCourses(ctx context.Context, user string) ([]models.Course, error) {
	ledger, ok := s.contract()
	if !ok {
		s.ledgerFailure("getUserPurchasedCourses", "using recorded purchases", nil)
		return s.store.ListPurchasedCourses(ctx, user)
	}

	courseIDs, err := ledger.GetUserPurchasedCourses(ctx, user)
	if err != nil {
		s.ledgerFailure("getUserPurchasedCourses", "using recorded purchases", err)
		return s.store.ListPurchasedCourses(ctx, user)
	}
	metrics.LedgerCalls.WithLabelValues("getUserPurchasedCourses", metrics.OutcomeSuccess).Inc()

	courses := make([]models.Course, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		course, err := s.GetCourseByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, ErrCourseNotFound) {
				s.log.WithField("course_id", courseID).Warn("Purchased course could not be resolved, skipping")
				continue
			}
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

func (s *CourseService) HasUserPurchasedCourse(ctx context.Context, courseID uint64, user string) (bool, error) {
	ledger, ok := s.contract()
	if !ok {
		s.ledgerFailure("hasUserPurchasedCourse", "checking recorded purchases", nil)
		return s.store.HasPurchase(ctx, courseID, user)
	}

	purchased, err := ledger.HasUserPurchasedCourse(ctx, courseID, user)
	if err != nil {
		s.ledgerFailure("hasUserPurchasedCourse", "checking recorded purchases", err)
		return s.store.HasPurchase(ctx, courseID, user)
	}
	metrics.LedgerCalls.WithLabelValues("hasUserPurchasedCourse", metrics.OutcomeSuccess).Inc()
	return purchased, nil
}

// RecordPurchase appends a purchase to the cache. Nothing is sent on-chain
// and duplicates are kept.
func (s *CourseService) RecordPurchase(ctx context.Context, purchase *models.Purchase) error {
	purchase.Buyer = models.NormalizeAddress(purchase.Buyer)
	if err := s.store.InsertPurchase(ctx, purchase); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"course_id": purchase.CourseID,
		"buyer":     purchase.Buyer,
	}).Info("Purchase recorded")
	return nil
}

// GetCourseCount returns the contract's course count, or the number of
// cached courses when the contract cannot be reached. The latter is only
// an approximation.
func (s *CourseService) GetCourseCount(ctx context.Context) (int64, error) {
	ledger, ok := s.contract()
	if !ok {
		s.ledgerFailure("getCourseCount", "counting cached courses", nil)
		return s.store.CountCourses(ctx)
	}

	count, err := ledger.GetCourseCount(ctx)
	if err == nil && count > math.MaxInt64 {
		err = fmt.Errorf("course count %d out of range", count)
	}
	if err != nil {
		s.ledgerFailure("getCourseCount", "counting cached courses", err)
		return s.store.CountCourses(ctx)
	}
	metrics.LedgerCalls.WithLabelValues("getCourseCount", metrics.OutcomeSuccess).Inc()
	return int64(count), nil
}

// SyncAllCourses refreshes courses 1..count from the contract one at a
// time. A course that fails is logged and skipped; there is no atomicity
// across courses. Without the contract this is a no-op.
func (s *CourseService) SyncAllCourses(ctx context.Context) SyncReport {
	var report SyncReport

	ledger, ok := s.contract()
	if !ok {
		s.ledgerFailure("getCourseCount", "skipping sync", nil)
		return report
	}

	count, err := ledger.GetCourseCount(ctx)
	if err != nil {
		s.ledgerFailure("getCourseCount", "skipping sync", err)
		return report
	}
	metrics.LedgerCalls.WithLabelValues("getCourseCount", metrics.OutcomeSuccess).Inc()

	start := time.Now()
	for courseID := uint64(1); courseID <= count; courseID++ {
		report.Total++
		if _, err := s.SyncCourseFromContract(ctx, courseID); err != nil {
			report.Failed++
			metrics.SyncedCourses.WithLabelValues("failed").Inc()
			s.log.WithError(err).WithField("course_id", courseID).Warn("Failed to sync course, skipping")
			continue
		}
		report.Synced++
		metrics.SyncedCourses.WithLabelValues("synced").Inc()
	}
	metrics.SyncDuration.Observe(time.Since(start).Seconds())

	s.log.WithFields(logrus.Fields{
		"total":    report.Total,
		"synced":   report.Synced,
		"failed":   report.Failed,
		"duration": time.Since(start).Milliseconds(),
	}).Info("Synced courses from contract")
	return report
}

// ledgerFailure records a contract call that failed (cause != nil) or was
// skipped because no contract is configured, and returns it wrapped in
// ErrLedgerUnavailable.
func (s *CourseService) ledgerFailure(method, fallback string, cause error) error {
	outcome := metrics.OutcomeError
	if cause == nil {
		outcome = metrics.OutcomeUnavailable
		cause = errors.New("contract client not configured")
	}
	metrics.LedgerCalls.WithLabelValues(method, outcome).Inc()

	s.log.WithError(cause).WithField("method", method).Warnf("Course contract unavailable, %s", fallback)
	return fmt.Errorf("%w: %s: %v", ErrLedgerUnavailable, method, cause)
}
