package mocks

import (
	"context"
	"sync"

	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/service"
)

// MockClassifier returns canned moderation and sentiment results
type MockClassifier struct {
	mu              sync.Mutex
	Result          models.ClassifierResult
	SentimentResult models.SentimentResult
	Requests        []models.ClassifyRequest
}

var _ service.Classifier = (*MockClassifier)(nil)

// NewMockClassifier returns a classifier that is unavailable by default
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{Result: models.Unavailable(context.DeadlineExceeded)}
}

func (m *MockClassifier) Classify(ctx context.Context, req models.ClassifyRequest) models.ClassifierResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return m.Result
}

func (m *MockClassifier) Sentiment(ctx context.Context, content string) models.SentimentResult {
	return m.SentimentResult
}

// Calls returns how many classifications were requested
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockNotifier records rejection notices instead of sending them
type MockNotifier struct {
	mu      sync.Mutex
	Notices []models.RejectionNotice
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, notice models.RejectionNotice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, notice)
}

// Sent returns a copy of the recorded notices
func (m *MockNotifier) Sent() []models.RejectionNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RejectionNotice(nil), m.Notices...)
}
