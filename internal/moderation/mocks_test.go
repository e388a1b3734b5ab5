package moderation_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"beatflow/backend/internal/models"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateReport(report *models.ModerationReport) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) GetReportByID(id string) (*models.ModerationReport, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModerationReport), args.Error(1)
}

func (m *MockStorage) UpdateReportState(id string, state models.ReportState) error {
	args := m.Called(id, state)
	return args.Error(0)
}

func (m *MockStorage) FindStaleCheckingReports(olderThan time.Time, limit int) ([]models.ModerationReport, error) {
	args := m.Called(olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ModerationReport), args.Error(1)
}

func (m *MockStorage) CountAcceptedReportsByAuthor(authorID string) (int64, error) {
	args := m.Called(authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) FindContentText(contentType models.ContentType, id string) (string, bool, error) {
	args := m.Called(contentType, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) DeleteContent(contentType models.ContentType, id string) error {
	args := m.Called(contentType, id)
	return args.Error(0)
}

// MockLocker mocks the processing lock.
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, reportID string) (bool, error) {
	args := m.Called(reportID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, reportID string) error {
	args := m.Called(reportID)
	return args.Error(0)
}

// MockCache mocks the verdict cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Lookup(ctx context.Context, text string, contentType models.ContentType, contentID string) *models.Verdict {
	args := m.Called(text, contentType, contentID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Verdict)
}

func (m *MockCache) Store(ctx context.Context, text string, contentType models.ContentType, contentID string, verdict models.Verdict) {
	m.Called(text, contentType, contentID, verdict)
}

// MockQuota mocks the quota guard.
type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Allow(ctx context.Context) bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockQuota) RecordSuccess(ctx context.Context) int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// MockClassifier mocks the classifier gateway.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) models.Verdict {
	args := m.Called(text)
	return args.Get(0).(models.Verdict)
}

// MockSuspender mocks the account-suspension collaborator.
type MockSuspender struct {
	mock.Mock
}

func (m *MockSuspender) Suspend(ctx context.Context, authorID string) error {
	args := m.Called(authorID)
	return args.Error(0)
}

// MockNotifier mocks the operator alert channel.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySuspension(authorID string, acceptedCount int) {
	m.Called(authorID, acceptedCount)
}
