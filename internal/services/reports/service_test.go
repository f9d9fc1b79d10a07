package reports

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/adapters/memory"
	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

func seeded(t *testing.T, n int) *Service {
	t.Helper()
	store := memory.New()
	for i := 0; i < n; i++ {
		_, err := store.Save(context.Background(), domain.Report{URL: fmt.Sprintf("https://site%d.example", i)})
		require.NoError(t, err)
	}
	return New(store)
}

func TestList_Pagination(t *testing.T) {
	svc := seeded(t, 25)

	page, err := svc.List(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Equal(t, domain.Pagination{Page: 3, Limit: 10, Total: 25, Pages: 3}, page.Pagination)
	require.Len(t, page.Data, 5)
	require.Equal(t, "https://site4.example", page.Data[0].URL)
}

func TestList_NormalizesParams(t *testing.T) {
	svc := seeded(t, 3)

	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultLimit},
		{-2, -5, 1, 1},
		{1, 1000, 1, MaxLimit},
		{math.MaxInt, 0, math.MaxInt, DefaultLimit},
		{math.MaxInt / 7, 7, math.MaxInt / 7, 7},
	}
	for _, tc := range cases {
		got, err := svc.List(context.Background(), tc.page, tc.limit)
		require.NoError(t, err)
		require.Equal(t, tc.wantPage, got.Pagination.Page)
		require.Equal(t, tc.wantLimit, got.Pagination.Limit)
	}
}

func TestList_PageBeyondEnd(t *testing.T) {
	svc := seeded(t, 3)

	got, err := svc.List(context.Background(), math.MaxInt, 10)
	require.NoError(t, err)
	require.NotNil(t, got.Data)
	require.Empty(t, got.Data)
	require.Equal(t, domain.Pagination{Page: math.MaxInt, Limit: 10, Total: 3, Pages: 1}, got.Pagination)

	got, err = svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Empty(t, got.Data)
}

func TestList_EmptyStoreHasOnePage(t *testing.T) {
	got, err := seeded(t, 0).List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, got.Data)
	require.Equal(t, 1, got.Pagination.Pages)
	require.Equal(t, 0, got.Pagination.Total)
}

func TestGet_NotFound(t *testing.T) {
	_, err := seeded(t, 1).Get(context.Background(), "missing")
	require.True(t, errors.Is(err, ports.ErrReportNotFound))
}
