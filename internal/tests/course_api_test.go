// internal/tests/course_api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/coursechain-backend/internal/config"
	"github.com/javajoker/coursechain-backend/internal/database"
	"github.com/javajoker/coursechain-backend/internal/models"
	"github.com/javajoker/coursechain-backend/internal/router"
	"github.com/javajoker/coursechain-backend/internal/services"
)

const buyer = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"

var errRPC = errors.New("connection refused")

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetCourse(ctx context.Context, courseID uint64) (*services.ContractCourse, error) {
	args := m.Called(ctx, courseID)
	course, _ := args.Get(0).(*services.ContractCourse)
	return course, args.Error(1)
}

func (m *mockLedger) GetCourseCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockLedger) GetUserPurchasedCourses(ctx context.Context, user string) ([]uint64, error) {
	args := m.Called(ctx, user)
	ids, _ := args.Get(0).([]uint64)
	return ids, args.Error(1)
}

func (m *mockLedger) HasUserPurchasedCourse(ctx context.Context, courseID uint64, user string) (bool, error) {
	args := m.Called(ctx, courseID, user)
	return args.Bool(0), args.Error(1)
}

type CourseAPITestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	ledger *mockLedger
	router *gin.Engine
	stop   func()
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         ":memory:",
			MaxOpenConns: 1,
			LogLevel:     "silent",
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			SyncPerMinute:     60,
		},
	}
}

func (suite *CourseAPITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.cfg = testConfig()

	db, err := database.Initialize(suite.cfg.Database)
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db

	suite.ledger = new(mockLedger)
	suite.router, suite.stop = router.Initialize(db, suite.cfg, suite.ledger)
}

func (suite *CourseAPITestSuite) TearDownTest() {
	suite.ledger.AssertExpectations(suite.T())
	suite.stop()
	database.Close(suite.db)
}

func (suite *CourseAPITestSuite) request(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (suite *CourseAPITestSuite) seedCourse(id uint64, createdAt int64) {
	suite.Require().NoError(suite.db.Create(&models.Course{
		CourseID:    id,
		Title:       "Course",
		Description: "cached",
		Author:      buyer,
		Price:       models.RequireWei("100000000000000000"),
		CreatedAt:   createdAt,
	}).Error)
}

func (suite *CourseAPITestSuite) TestHealth() {
	w, response := suite.request(http.MethodGet, "/health", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", response["status"])
	assert.Equal(suite.T(), "available", response["ledger"])
}

func (suite *CourseAPITestSuite) TestHealthWithoutLedger() {
	r, stop := router.Initialize(suite.db, suite.cfg, nil)
	defer stop()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"ledger":"unavailable"`)
}

func (suite *CourseAPITestSuite) TestMetricsEndpoint() {
	suite.request(http.MethodGet, "/health", nil)

	w, _ := suite.request(http.MethodGet, "/metrics", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "coursechain_ledger_available")
}

func (suite *CourseAPITestSuite) TestListCourses() {
	w, response := suite.request(http.MethodGet, "/api/courses", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), response["success"].(bool))
	assert.Empty(suite.T(), response["data"])

	suite.seedCourse(1, 100)
	suite.seedCourse(2, 200)

	_, response = suite.request(http.MethodGet, "/api/courses", nil)
	data := response["data"].([]interface{})
	suite.Require().Len(data, 2)
	assert.EqualValues(suite.T(), 2, data[0].(map[string]interface{})["courseId"])
}

func (suite *CourseAPITestSuite) TestGetCourseSyncsOnMiss() {
	suite.ledger.On("GetCourse", mock.Anything, uint64(7)).Return(&services.ContractCourse{
		Title:       "Solidity 101",
		Description: "Smart contracts",
		Author:      "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Price:       decimal.RequireFromString("100000000000000000"),
		CreatedAt:   1700000000,
	}, nil).Once()

	w, response := suite.request(http.MethodGet, "/api/courses/7", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), "Solidity 101", data["title"])
	assert.Equal(suite.T(), buyer, data["author"])
	assert.Equal(suite.T(), "100000000000000000", data["price"])

	// served from the cache the second time
	w, _ = suite.request(http.MethodGet, "/api/courses/7", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *CourseAPITestSuite) TestGetCourseNotFoundWhenLedgerFails() {
	suite.ledger.On("GetCourse", mock.Anything, uint64(8)).Return(nil, errRPC)

	w, response := suite.request(http.MethodGet, "/api/courses/8", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "Course not found", response["error"])
	assert.NotContains(suite.T(), w.Body.String(), "connection refused")
}

func (suite *CourseAPITestSuite) TestCourseCountFallsBackToCache() {
	suite.seedCourse(1, 100)
	suite.ledger.On("GetCourseCount", mock.Anything).Return(uint64(0), errRPC)

	w, response := suite.request(http.MethodGet, "/api/courses/count", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.EqualValues(suite.T(), 1, response["data"].(map[string]interface{})["count"])
}

func (suite *CourseAPITestSuite) TestSyncCourses() {
	suite.ledger.On("GetCourseCount", mock.Anything).Return(uint64(2), nil)
	suite.ledger.On("GetCourse", mock.Anything, uint64(1)).Return(&services.ContractCourse{
		Title: "One", Author: buyer, Price: decimal.NewFromInt(1), CreatedAt: 1,
	}, nil)
	suite.ledger.On("GetCourse", mock.Anything, uint64(2)).Return(nil, errRPC)

	w, response := suite.request(http.MethodPost, "/api/courses/sync", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Courses synced successfully", response["message"])

	var count int64
	suite.db.Model(&models.Course{}).Count(&count)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *CourseAPITestSuite) TestPurchaseFlowWithLedgerDown() {
	suite.seedCourse(2, 200)
	suite.seedCourse(4, 400)
	suite.ledger.On("HasUserPurchasedCourse", mock.Anything, mock.Anything, mock.Anything).Return(false, errRPC)
	suite.ledger.On("GetUserPurchasedCourses", mock.Anything, mock.Anything).Return(nil, errRPC)

	for _, id := range []int{2, 4} {
		w, response := suite.request(http.MethodPost, "/api/courses/purchase", map[string]interface{}{
			"courseId":        id,
			"buyer":           "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			"transactionHash": fmt.Sprintf("0x%064x", id),
			"price":           "100000000000000000",
		})
		suite.Require().Equal(http.StatusOK, w.Code)
		assert.Equal(suite.T(), "Purchase recorded successfully", response["message"])
	}

	_, response := suite.request(http.MethodGet, "/api/courses/purchased/2/"+buyer, nil)
	assert.Equal(suite.T(), true, response["data"].(map[string]interface{})["hasPurchased"])

	_, response = suite.request(http.MethodGet, "/api/courses/purchased/3/"+buyer, nil)
	assert.Equal(suite.T(), false, response["data"].(map[string]interface{})["hasPurchased"])

	_, response = suite.request(http.MethodGet, "/api/courses/purchased/0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266", nil)
	data := response["data"].([]interface{})
	suite.Require().Len(data, 2)
	assert.EqualValues(suite.T(), 4, data[0].(map[string]interface{})["courseId"])
	assert.EqualValues(suite.T(), 2, data[1].(map[string]interface{})["courseId"])
}

func (suite *CourseAPITestSuite) TestLargePricesRoundTrip() {
	const price = "12345678901234567891"
	const hash = "0xABCDEF1234567890abcdef1234567890ABCDEF1234567890abcdef1234567890"
	suite.ledger.On("GetCourse", mock.Anything, uint64(9)).Return(&services.ContractCourse{
		Title:     "Expensive",
		Author:    buyer,
		Price:     decimal.RequireFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935"),
		CreatedAt: 1700000000,
	}, nil).Once()

	w, response := suite.request(http.MethodGet, "/api/courses/9", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(),
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
		response["data"].(map[string]interface{})["price"])

	w, _ = suite.request(http.MethodGet, "/api/courses/9", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(),
		`"price":"115792089237316195423570985008687907853269984665640564039457584007913129639935"`)

	w, _ = suite.request(http.MethodPost, "/api/courses/purchase", map[string]interface{}{
		"courseId":        9,
		"buyer":           buyer,
		"transactionHash": hash,
		"price":           price,
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var purchase models.Purchase
	suite.Require().NoError(suite.db.Where("course_id = ?", 9).First(&purchase).Error)
	assert.Equal(suite.T(), price, purchase.Price.String())
	suite.Require().NotNil(purchase.TransactionHash)
	assert.Equal(suite.T(), hash, *purchase.TransactionHash)

	raw, err := json.Marshal(purchase)
	suite.Require().NoError(err)
	assert.Contains(suite.T(), string(raw), `"price":"12345678901234567891"`)
}

func (suite *CourseAPITestSuite) TestPurchasedCoursesFollowLedgerOrder() {
	suite.seedCourse(1, 100)
	suite.seedCourse(3, 300)
	suite.ledger.On("GetUserPurchasedCourses", mock.Anything, buyer).Return([]uint64{1, 3}, nil)

	w, response := suite.request(http.MethodGet, "/api/courses/purchased/"+buyer, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	data := response["data"].([]interface{})
	suite.Require().Len(data, 2)
	assert.EqualValues(suite.T(), 1, data[0].(map[string]interface{})["courseId"])
	assert.EqualValues(suite.T(), 3, data[1].(map[string]interface{})["courseId"])
}

func (suite *CourseAPITestSuite) TestCoursesByAuthor() {
	suite.seedCourse(1, 100)

	_, response := suite.request(http.MethodGet, "/api/courses/author/0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266", nil)
	assert.Len(suite.T(), response["data"], 1)
}

func (suite *CourseAPITestSuite) TestRateLimit() {
	cfg := testConfig()
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1
	r, stop := router.Initialize(suite.db, cfg, suite.ledger)
	defer stop()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(suite.T(), []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCourseAPITestSuite(t *testing.T) {
	suite.Run(t, new(CourseAPITestSuite))
}
