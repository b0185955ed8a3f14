package repository

import (
	"context"
	"time"

	"github.com/deanDev5200/web-aspirasi/internal/db"
	"github.com/deanDev5200/web-aspirasi/internal/models"
	"github.com/deanDev5200/web-aspirasi/internal/oxidb"
)

// textSearchBatch is the first hit limit asked of the text index. When the
// index fills it, the search is repeated with twice the limit, so totals are
// never cut short.
const textSearchBatch = 10000

type OxiAspirasiRepo struct {
	pool        *db.Pool
	searchBatch int
}

func NewOxiAspirasiRepo(pool *db.Pool) *OxiAspirasiRepo {
	return &OxiAspirasiRepo{pool: pool, searchBatch: textSearchBatch}
}

func (r *OxiAspirasiRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateIndex(ctx, AspirasiCollection, "timestamp"); err != nil {
		return err
	}
	if err := c.CreateCompositeIndex(ctx, AspirasiCollection, []string{"status", "timestamp"}); err != nil {
		return err
	}
	return c.CreateTextIndex(ctx, AspirasiCollection, []string{"nama", "kelas", "aspirasi"})
}

func (r *OxiAspirasiRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *OxiAspirasiRepo) Create(ctx context.Context, a *models.Aspirasi) error {
	c := r.pool.Get()
	result, err := c.Insert(ctx, AspirasiCollection, aspirasiToDoc(a))
	if err != nil {
		return err
	}
	a.ID = extractID(result)
	return nil
}

func (r *OxiAspirasiRepo) FindByID(ctx context.Context, id string) (*models.Aspirasi, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	c := r.pool.Get()
	doc, err := c.FindOne(ctx, AspirasiCollection, map[string]any{"_id": n})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return docToAspirasi(doc), nil
}

func (r *OxiAspirasiRepo) Find(ctx context.Context, f models.Filter, skip, limit int) ([]models.Aspirasi, int, error) {
	c := r.pool.Get()
	query, empty, err := r.buildQuery(ctx, c, f)
	if err != nil {
		return nil, 0, err
	}
	if empty {
		return []models.Aspirasi{}, 0, nil
	}

	total, err := c.Count(ctx, AspirasiCollection, query)
	if err != nil {
		return nil, 0, err
	}

	docs, err := c.Find(ctx, AspirasiCollection, query, &oxidb.FindOptions{
		Sort:  map[string]any{"timestamp": -1},
		Skip:  &skip,
		Limit: &limit,
	})
	if err != nil {
		return nil, 0, err
	}

	items := make([]models.Aspirasi, 0, len(docs))
	for _, d := range docs {
		items = append(items, *docToAspirasi(d))
	}
	return items, total, nil
}

func (r *OxiAspirasiRepo) Count(ctx context.Context, f models.Filter) (int, error) {
	c := r.pool.Get()
	query, empty, err := r.buildQuery(ctx, c, f)
	if err != nil || empty {
		return 0, err
	}
	return c.Count(ctx, AspirasiCollection, query)
}

func (r *OxiAspirasiRepo) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Aspirasi, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	n, _ := parseID(id)
	c := r.pool.Get()
	_, err = c.UpdateOne(ctx, AspirasiCollection,
		map[string]any{"_id": n},
		map[string]any{"$set": map[string]any{
			"status":    string(status),
			"updatedAt": toMillis(updatedAt),
		}})
	if err != nil {
		return nil, err
	}
	current.Status = status
	current.UpdatedAt = fromMillis(toMillis(updatedAt))
	return current, nil
}

func (r *OxiAspirasiRepo) Delete(ctx context.Context, id string) (bool, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil || current == nil {
		return false, err
	}
	n, _ := parseID(id)
	c := r.pool.Get()
	if _, err := c.DeleteOne(ctx, AspirasiCollection, map[string]any{"_id": n}); err != nil {
		return false, err
	}
	return true, nil
}

func (r *OxiAspirasiRepo) Exists(ctx context.Context, nama, aspirasi string, ts time.Time) (bool, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(ctx, AspirasiCollection, map[string]any{
		"$and": []any{
			map[string]any{"nama": nama},
			map[string]any{"aspirasi": aspirasi},
			map[string]any{"timestamp": toMillis(ts)},
		},
	})
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *OxiAspirasiRepo) Close() error {
	return nil
}

// buildQuery translates f into an OxiDB query. A search with no text-index
// hits reports empty so callers can skip the round trip.
func (r *OxiAspirasiRepo) buildQuery(ctx context.Context, c *oxidb.Client, f models.Filter) (map[string]any, bool, error) {
	var ids []any
	if f.Search != "" {
		hits, err := r.searchAll(ctx, c, f.Search)
		if err != nil {
			return nil, false, err
		}
		for _, h := range hits {
			if id, ok := h["_id"]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, true, nil
		}
	}
	return buildQuery(f, ids), false, nil
}

func (r *OxiAspirasiRepo) searchAll(ctx context.Context, c *oxidb.Client, search string) ([]map[string]any, error) {
	limit := r.searchBatch
	for {
		hits, err := c.TextSearch(ctx, AspirasiCollection, search, limit)
		if err != nil {
			return nil, err
		}
		if len(hits) < limit {
			return hits, nil
		}
		limit *= 2
	}
}

func buildQuery(f models.Filter, ids []any) map[string]any {
	conditions := []any{}

	if ids != nil {
		conditions = append(conditions, map[string]any{"_id": map[string]any{"$in": ids}})
	}
	if f.From != nil {
		conditions = append(conditions, map[string]any{"timestamp": map[string]any{"$gte": toMillis(*f.From)}})
	}
	if f.To != nil {
		conditions = append(conditions, map[string]any{"timestamp": map[string]any{"$lte": toMillis(*f.To)}})
	}
	if f.Status != "" {
		conditions = append(conditions, map[string]any{"status": string(f.Status)})
	}
	if f.Anonymous != nil {
		conditions = append(conditions, map[string]any{"isAnonymous": *f.Anonymous})
	}

	if len(conditions) == 0 {
		return map[string]any{}
	}
	if len(conditions) == 1 {
		return conditions[0].(map[string]any)
	}
	return map[string]any{"$and": conditions}
}

func aspirasiToDoc(a *models.Aspirasi) map[string]any {
	return map[string]any{
		"nama":        a.Nama,
		"kelas":       a.Kelas,
		"aspirasi":    a.Aspirasi,
		"timestamp":   toMillis(a.Timestamp),
		"status":      string(a.Status),
		"isAnonymous": a.IsAnonymous,
		"createdAt":   toMillis(a.CreatedAt),
		"updatedAt":   toMillis(a.UpdatedAt),
	}
}

func docToAspirasi(doc map[string]any) *models.Aspirasi {
	normalizeID(doc)
	anon, _ := doc["isAnonymous"].(bool)
	return &models.Aspirasi{
		ID:          asString(doc["_id"]),
		Nama:        asString(doc["nama"]),
		Kelas:       asString(doc["kelas"]),
		Aspirasi:    asString(doc["aspirasi"]),
		Timestamp:   fromMillis(asInt64(doc["timestamp"])),
		Status:      models.Status(asString(doc["status"])),
		IsAnonymous: anon,
		CreatedAt:   fromMillis(asInt64(doc["createdAt"])),
		UpdatedAt:   fromMillis(asInt64(doc["updatedAt"])),
	}
}
