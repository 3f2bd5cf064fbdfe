//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/usecase/queries"
	"order-pipeline/tests/common/builder"
	queriesmock "order-pipeline/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrderQueriesGetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("returns the view", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockOrderReadStore(ctrl)
		view := builder.NewOrderBuilder().BuildView()
		store.EXPECT().FindByID(ctx, "t1", id).Return(view, nil)

		got, err := queries.NewOrderQueries(store).GetByID(ctx, "t1", id)
		require.NoError(t, err)
		assert.Same(t, view, got)
	})

	t.Run("maps a missing row to ErrOrderNotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockOrderReadStore(ctrl)
		store.EXPECT().FindByID(ctx, "t1", id).
			Return(nil, infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil))

		_, err := queries.NewOrderQueries(store).GetByID(ctx, "t1", id)
		assert.ErrorIs(t, err, queries.ErrOrderNotFound)
	})

	t.Run("passes other failures through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockOrderReadStore(ctrl)
		dbErr := errors.New("connection reset")
		store.EXPECT().FindByID(ctx, "t1", id).Return(nil, dbErr)

		_, err := queries.NewOrderQueries(store).GetByID(ctx, "t1", id)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, queries.ErrOrderNotFound)
	})
}

func TestOrderQueriesGetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the view for the key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockOrderReadStore(ctrl)
		view := builder.NewOrderBuilder().BuildView()
		store.EXPECT().FindByIdempotencyKey(ctx, "t1", "key-1").Return(view, nil)

		got, err := queries.NewOrderQueries(store).GetByIdempotencyKey(ctx, "t1", "key-1")
		require.NoError(t, err)
		assert.Same(t, view, got)
	})

	t.Run("maps a missing row to ErrOrderNotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockOrderReadStore(ctrl)
		store.EXPECT().FindByIdempotencyKey(ctx, "t1", "key-1").
			Return(nil, infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil))

		_, err := queries.NewOrderQueries(store).GetByIdempotencyKey(ctx, "t1", "key-1")
		assert.ErrorIs(t, err, queries.ErrOrderNotFound)
	})
}

func TestNewOrderView(t *testing.T) {
	b := builder.NewOrderBuilder()
	b.Adjustments = nil
	view := b.BuildView()

	assert.NotNil(t, view.Adjustments, "nil adjustments encode as []")
	assert.NotNil(t, view.Items[1].Options, "nil options encode as []")
	assert.Equal(t, "placed", view.Status)
	assert.Equal(t, b.TenantID, view.TenantID)
}
