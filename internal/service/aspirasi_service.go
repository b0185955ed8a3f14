package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/metrics"
	"github.com/deanDev5200/web-aspirasi/internal/models"
	"github.com/deanDev5200/web-aspirasi/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50

	dateLayout = "2006-01-02"
)

const msgRequired = "Nama dan aspirasi harus diisi"

type ListParams struct {
	Page      int
	Limit     int
	Search    string
	StartDate string
	EndDate   string
	Status    string
}

type CreateInput struct {
	Nama        string `json:"nama"`
	Kelas       string `json:"kelas"`
	Aspirasi    string `json:"aspirasi"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// LegacyItem is one entry of a pre-server export.
type LegacyItem struct {
	Nama      string    `json:"nama"`
	Kelas     string    `json:"kelas"`
	Aspirasi  string    `json:"aspirasi"`
	Timestamp time.Time `json:"timestamp"`
}

type ImportReport struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type AspirasiService struct {
	store repository.SubmissionStore
	loc   *time.Location
	now   func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewAspirasiService(store repository.SubmissionStore, loc *time.Location) *AspirasiService {
	if loc == nil {
		loc = time.UTC
	}
	return &AspirasiService{store: store, loc: loc, now: time.Now}
}

func (s *AspirasiService) List(ctx context.Context, p ListParams) (*models.Page, error) {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}

	f, err := buildFilter(p)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.Find(ctx, f, (p.Page-1)*p.Limit, p.Limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].WithFormattedDate(s.loc)
	}

	return &models.Page{
		Data: items,
		Pagination: models.Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: (total + p.Limit - 1) / p.Limit,
		},
	}, nil
}

func (s *AspirasiService) Get(ctx context.Context, id string) (*models.Aspirasi, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	out := a.WithFormattedDate(s.loc)
	return &out, nil
}

func (s *AspirasiService) Create(ctx context.Context, in CreateInput) (*models.Aspirasi, error) {
	nama := strings.TrimSpace(in.Nama)
	kelas := strings.TrimSpace(in.Kelas)
	body := strings.TrimSpace(in.Aspirasi)

	if body == "" || (nama == "" && !in.IsAnonymous) {
		return nil, invalid(msgRequired)
	}
	if in.IsAnonymous {
		nama = models.AnonymousName
		kelas = models.PlaceholderKelas
	}
	if kelas == "" {
		kelas = models.PlaceholderKelas
	}

	ts := s.tick()
	a := &models.Aspirasi{
		Nama:        nama,
		Kelas:       kelas,
		Aspirasi:    body,
		Timestamp:   ts,
		Status:      models.StatusPending,
		IsAnonymous: in.IsAnonymous,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	metrics.RecordSubmission(a.IsAnonymous)

	out := a.WithFormattedDate(s.loc)
	return &out, nil
}

func (s *AspirasiService) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Aspirasi, error) {
	if !status.Valid() {
		return nil, invalid("Invalid status")
	}
	a, err := s.store.UpdateStatus(ctx, id, status, s.tick())
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	metrics.RecordStatusChange(string(status))

	out := a.WithFormattedDate(s.loc)
	return &out, nil
}

func (s *AspirasiService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	metrics.RecordDeletion()
	return nil
}

// Stats runs the five counts concurrently. They are not taken from one
// snapshot, so under concurrent writes the parts may not add up to Total.
func (s *AspirasiService) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	anon := true

	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int, f models.Filter) {
		g.Go(func() error {
			n, err := s.store.Count(ctx, f)
			*dst = n
			return err
		})
	}
	count(&st.Total, models.Filter{})
	count(&st.Pending, models.Filter{Status: models.StatusPending})
	count(&st.Reviewed, models.Filter{Status: models.StatusReviewed})
	count(&st.Resolved, models.Filter{Status: models.StatusResolved})
	count(&st.Anonymous, models.Filter{Anonymous: &anon})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Import stores legacy items with their original timestamps. Items already
// present (same nama, aspirasi and timestamp) are skipped; invalid items and
// items the store rejects are counted as failed and the import continues.
func (s *AspirasiService) Import(ctx context.Context, items []LegacyItem) (*ImportReport, error) {
	report := &ImportReport{}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		nama := strings.TrimSpace(item.Nama)
		body := strings.TrimSpace(item.Aspirasi)
		kelas := strings.TrimSpace(item.Kelas)
		if nama == "" || body == "" || item.Timestamp.IsZero() {
			logger.Warnf("import: item %d: missing nama, aspirasi or timestamp", i)
			report.Failed++
			continue
		}
		if kelas == "" {
			kelas = models.PlaceholderKelas
		}
		ts := item.Timestamp.UTC().Truncate(time.Millisecond)

		exists, err := s.store.Exists(ctx, nama, body, ts)
		if err != nil {
			logger.Errorf("import: item %d: %v", i, err)
			report.Failed++
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		a := &models.Aspirasi{
			Nama:        nama,
			Kelas:       kelas,
			Aspirasi:    body,
			Timestamp:   ts,
			Status:      models.StatusPending,
			IsAnonymous: nama == models.AnonymousName,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := s.store.Create(ctx, a); err != nil {
			logger.Errorf("import: item %d: %v", i, err)
			report.Failed++
			continue
		}
		report.Migrated++
	}

	metrics.RecordImport(report.Migrated, report.Skipped, report.Failed)
	logger.Infof("import: %d migrated, %d skipped, %d failed", report.Migrated, report.Skipped, report.Failed)
	return report, nil
}

// tick returns the current time at millisecond resolution, strictly after
// any value it returned before.
func (s *AspirasiService) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now
	return now
}

func buildFilter(p ListParams) (models.Filter, error) {
	f := models.Filter{Search: strings.TrimSpace(p.Search)}

	if p.StartDate != "" {
		from, err := parseStart(p.StartDate)
		if err != nil {
			return f, invalid("Invalid startDate")
		}
		f.From = &from
	}
	if p.EndDate != "" {
		day, err := time.Parse(dateLayout, p.EndDate)
		if err != nil {
			return f, invalid("Invalid endDate")
		}
		to := day.Add(24*time.Hour - time.Millisecond)
		f.To = &to
	}
	if p.Status != "" {
		status := models.Status(p.Status)
		if !status.Valid() {
			return f, invalid("Invalid status")
		}
		f.Status = status
	}
	return f, nil
}

// parseStart accepts a calendar day (midnight UTC) or a full RFC 3339 time.
func parseStart(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
