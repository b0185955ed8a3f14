package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanDev5200/web-aspirasi/internal/models"
	"github.com/deanDev5200/web-aspirasi/internal/repository"
)

func newStore(t *testing.T) repository.SubmissionStore {
	t.Helper()
	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "aspirasi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureIndexes(context.Background()))
	return store
}

func newAspirasiService(t *testing.T) *AspirasiService {
	t.Helper()
	jakarta := time.FixedZone("WIB", 7*3600)
	return NewAspirasiService(newStore(t), jakarta)
}

// fixedClock pins the service clock so timestamps are predictable.
func fixedClock(s *AspirasiService, t time.Time) {
	s.now = func() time.Time { return t }
}

func requireValidation(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestCreateAndList(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateInput{Nama: " Ani ", Kelas: "XI A", Aspirasi: " Perbaiki kantin "})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ani", created.Nama)
	assert.Equal(t, "Perbaiki kantin", created.Aspirasi)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.False(t, created.IsAnonymous)
	assert.NotEmpty(t, created.FormattedDate)

	page, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 50, Total: 1, Pages: 1}, page.Pagination)
}

func TestCreateValidation(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"blank aspirasi", CreateInput{Nama: "Ani", Aspirasi: ""}},
		{"whitespace aspirasi", CreateInput{Nama: "Ani", Aspirasi: "   "}},
		{"blank aspirasi anonymous", CreateInput{Aspirasi: "", IsAnonymous: true}},
		{"blank nama", CreateInput{Nama: " ", Aspirasi: "Perbaiki kantin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.in)
			verr := requireValidation(t, err)
			assert.Equal(t, "Nama dan aspirasi harus diisi", verr.Msg)
		})
	}

	n, err := s.store.Count(ctx, models.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateAnonymizes(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Nama: "Budi", Kelas: "XII IPA", Aspirasi: "Tambah jam olahraga", IsAnonymous: true},
		{Aspirasi: "Tambah tempat sampah", IsAnonymous: true},
	} {
		a, err := s.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.AnonymousName, a.Nama)
		assert.Equal(t, models.PlaceholderKelas, a.Kelas)
		assert.True(t, a.IsAnonymous)

		stored, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AnonymousName, stored.Nama)
		assert.Equal(t, models.PlaceholderKelas, stored.Kelas)
	}
}

func TestCreateDefaultsKelas(t *testing.T) {
	s := newAspirasiService(t)

	a, err := s.Create(context.Background(), CreateInput{Nama: "Ani", Aspirasi: "WiFi lambat"})
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderKelas, a.Kelas)
}

func TestTimestampsAreMonotonic(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()
	fixedClock(s, time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC))

	var prev time.Time
	for i := 0; i < 5; i++ {
		a, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: "sama"})
		require.NoError(t, err)
		assert.True(t, a.Timestamp.After(prev), "timestamp %d not after previous", i)
		prev = a.Timestamp
	}

	page, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)
	for i := 1; i < len(page.Data); i++ {
		assert.True(t, page.Data[i-1].Timestamp.After(page.Data[i].Timestamp))
	}
}

func TestFormattedDateUsesLocation(t *testing.T) {
	s := newAspirasiService(t)
	fixedClock(s, time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC))

	a, err := s.Create(context.Background(), CreateInput{Nama: "Ani", Aspirasi: "Perbaiki kantin"})
	require.NoError(t, err)
	assert.Equal(t, "15 Maret 2024 pukul 10.30", a.FormattedDate)
}

func TestListPagination(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: "aspirasi"})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, ListParams{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 3, Total: 7, Pages: 3}, page.Pagination)

	page, err = s.List(ctx, ListParams{Page: 3, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	page, err = s.List(ctx, ListParams{Page: -1, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 50, page.Pagination.Limit)
	assert.Len(t, page.Data, 7)
}

func TestListDateRangeIsInclusive(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	at := func(ts time.Time) {
		fixedClock(s, ts)
		_, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: ts.String()})
		require.NoError(t, err)
	}
	at(time.Date(2024, 1, 9, 23, 59, 59, 999e6, time.UTC))
	at(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	at(time.Date(2024, 1, 12, 23, 59, 59, 999e6, time.UTC))
	at(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC))

	page, err := s.List(ctx, ListParams{StartDate: "2024-01-10", EndDate: "2024-01-12"})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].Timestamp.Equal(time.Date(2024, 1, 12, 23, 59, 59, 999e6, time.UTC)))
	assert.True(t, page.Data[1].Timestamp.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestListFiltersAndSearch(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	kantin, err := s.Create(ctx, CreateInput{Nama: "Ani", Kelas: "XI A", Aspirasi: "Perbaiki kantin"})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{Nama: "Budi", Aspirasi: "WiFi lambat"})
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, kantin.ID, models.StatusResolved)
	require.NoError(t, err)

	page, err := s.List(ctx, ListParams{Search: "KANTIN"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, kantin.ID, page.Data[0].ID)

	page, err = s.List(ctx, ListParams{Status: "resolved"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, kantin.ID, page.Data[0].ID)
}

func TestListRejectsBadParams(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	for _, p := range []ListParams{
		{StartDate: "kemarin"},
		{EndDate: "2024-13-01"},
		{Status: "archived"},
	} {
		_, err := s.List(ctx, p)
		requireValidation(t, err)
	}
}

func TestGetMissing(t *testing.T) {
	s := newAspirasiService(t)

	_, err := s.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()
	a, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: "Perbaiki kantin"})
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, a.ID, models.StatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewed, updated.Status)
	assert.True(t, updated.Timestamp.Equal(a.Timestamp))
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))

	_, err = s.UpdateStatus(ctx, a.ID, models.Status("archived"))
	requireValidation(t, err)

	stored, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewed, stored.Status)

	_, err = s.UpdateStatus(ctx, "missing", models.StatusResolved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()
	a, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: "Perbaiki kantin"})
	require.NoError(t, err)
	kept, err := s.Create(ctx, CreateInput{Nama: "Budi", Aspirasi: "WiFi lambat"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))

	for _, id := range []string{a.ID, "missing"} {
		assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound, id)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	page, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, kept.ID, page.Data[0].ID)
}

func TestStats(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()

	a, err := s.Create(ctx, CreateInput{Nama: "Ani", Aspirasi: "satu"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Aspirasi: "dua", IsAnonymous: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{Nama: "Cici", Aspirasi: "tiga"})
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, a.ID, models.StatusReviewed)
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, b.ID, models.StatusResolved)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 3, Pending: 1, Reviewed: 1, Resolved: 1, Anonymous: 1}, *stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.Reviewed+stats.Resolved)
}

type failingStore struct {
	repository.SubmissionStore
	err error
}

func (f failingStore) Count(context.Context, models.Filter) (int, error) {
	return 0, f.err
}

func TestStatsPropagatesStoreError(t *testing.T) {
	boom := errors.New("store down")
	s := NewAspirasiService(failingStore{err: boom}, nil)

	_, err := s.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestImport(t *testing.T) {
	s := newAspirasiService(t)
	ctx := context.Background()
	ts := time.Date(2023, 11, 2, 8, 15, 0, 0, time.UTC)

	items := []LegacyItem{
		{Nama: "Ani", Kelas: "XI A", Aspirasi: "Perbaiki kantin", Timestamp: ts},
		{Nama: models.AnonymousName, Aspirasi: "Tambah tempat sampah", Timestamp: ts.Add(time.Hour)},
		{Nama: "Ani", Kelas: "XI A", Aspirasi: "Perbaiki kantin", Timestamp: ts},
		{Nama: "Budi", Aspirasi: "", Timestamp: ts},
		{Nama: "Cici", Aspirasi: "Tanpa waktu"},
	}

	report, err := s.Import(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Migrated: 2, Skipped: 1, Failed: 2}, *report)

	page, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].IsAnonymous)
	assert.Equal(t, models.PlaceholderKelas, page.Data[0].Kelas)
	assert.True(t, page.Data[1].Timestamp.Equal(ts))
	assert.Equal(t, models.StatusPending, page.Data[1].Status)

	again, err := s.Import(ctx, items[:2])
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Skipped: 2}, *again)
}
