package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHoldings struct {
	mock.Mock
}

func (m *MockHoldings) Item(ctx context.Context, draftID, itemID uuid.UUID) (*models.PoolItem, error) {
	args := m.Called(ctx, draftID, itemID)
	item, _ := args.Get(0).(*models.PoolItem)
	return item, args.Error(1)
}

func (m *MockHoldings) Category(ctx context.Context, draftID uuid.UUID, name string) (*models.Category, error) {
	args := m.Called(ctx, draftID, name)
	cat, _ := args.Get(0).(*models.Category)
	return cat, args.Error(1)
}

func (m *MockHoldings) CountHeld(ctx context.Context, draftID, participantID uuid.UUID, category string, asOf int) (int, error) {
	args := m.Called(ctx, draftID, participantID, category, asOf)
	return args.Int(0), args.Error(1)
}

func TestCategoryCapChecker(t *testing.T) {
	ctx := context.Background()
	draftID, participant, itemID := uuid.New(), uuid.New(), uuid.New()

	t.Run("unknown item is denied", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(nil, nil)

		got, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 3)
		require.NoError(t, err)
		assert.False(t, got.Admitted)
		assert.Contains(t, got.Reason, "not in this draft's pool")
	})

	t.Run("open category is always admitted", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(&models.PoolItem{ID: itemID}, nil)

		got, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 3)
		require.NoError(t, err)
		assert.True(t, got.Admitted)
		h.AssertNotCalled(t, "CountHeld", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("uncapped category is admitted", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(&models.PoolItem{ID: itemID, Category: "ACC"}, nil)
		h.On("Category", ctx, draftID, "ACC").Return(&models.Category{Name: "ACC", MaxPerParticipant: 0}, nil)

		got, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 3)
		require.NoError(t, err)
		assert.True(t, got.Admitted)
	})

	t.Run("below cap is admitted", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(&models.PoolItem{ID: itemID, Category: "SEC"}, nil)
		h.On("Category", ctx, draftID, "SEC").Return(&models.Category{Name: "SEC", MaxPerParticipant: 2}, nil)
		h.On("CountHeld", ctx, draftID, participant, "SEC", 5).Return(1, nil)

		got, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 5)
		require.NoError(t, err)
		assert.True(t, got.Admitted)
	})

	t.Run("at cap is denied with reason", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(&models.PoolItem{ID: itemID, Category: "SEC"}, nil)
		h.On("Category", ctx, draftID, "SEC").Return(&models.Category{Name: "SEC", MaxPerParticipant: 2}, nil)
		h.On("CountHeld", ctx, draftID, participant, "SEC", 5).Return(2, nil)

		got, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 5)
		require.NoError(t, err)
		assert.False(t, got.Admitted)
		assert.Equal(t, "category SEC limit reached (2/2)", got.Reason)
	})

	t.Run("lookup errors propagate", func(t *testing.T) {
		h := &MockHoldings{}
		h.On("Item", ctx, draftID, itemID).Return(nil, errors.New("boom"))

		_, err := NewCategoryCapChecker(h).IsAdmissible(ctx, draftID, participant, itemID, 5)
		assert.ErrorContains(t, err, "boom")
	})
}
