package deal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"venturelens/backend/internal/funding"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SaveAll(ctx context.Context, records []funding.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, limit int) ([]Deal, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Deal), args.Error(1)
}

func (m *mockRepo) Stats(ctx context.Context) (*Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}

func TestHandler_List(t *testing.T) {
	repo := new(mockRepo)
	repo.On("List", mock.Anything, 100).Return([]Deal{
		{ID: "d1", StartupName: "Acme Robotics", AmountUSD: 5_000_000},
	}, nil)

	handler := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest("GET", "/deals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Robotics")
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestHandler_List_LimitParam(t *testing.T) {
	repo := new(mockRepo)
	repo.On("List", mock.Anything, 5).Return([]Deal(nil), nil)

	handler := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest("GET", "/deals?limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
	repo.AssertExpectations(t)
}

func TestHandler_List_Error(t *testing.T) {
	repo := new(mockRepo)
	repo.On("List", mock.Anything, 100).Return(nil, assert.AnError)

	handler := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest("GET", "/deals", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestHandler_Stats(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Stats", mock.Anything).Return(&Stats{
		TotalDeals:     3,
		TotalAmountUSD: 9_000_000,
		LargestDeal:    5_000_000,
	}, nil)

	handler := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	handler.Stats(rec, httptest.NewRequest("GET", "/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_deals":3`)
}
