package newsletter

import (
	"context"
	"math"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize applies when a caller does not specify one
const DefaultPageSize = 10

// ByID scopes a query to one primary key.
func ByID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	}
}

// ByOwner scopes a query to rows belonging to one account. Every tenant
// table carries a user_id column for exactly this filter.
func ByOwner(userID uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID)
	}
}

// Page is the result of a FindPage call
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	PageNo     int `json:"page_no"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether a later page exists
func (p *Page[T]) HasNext() bool {
	return p.PageNo < p.TotalPages
}

// HasPrevious reports whether an earlier page exists
func (p *Page[T]) HasPrevious() bool {
	return p.PageNo > 1 && p.TotalPages > 0
}

// Scoped is the fixed query surface every entity gains on top of its base
// repository. It bakes in three behaviors: logical deletion, implicit
// active-only filtering, and pagination. A physical delete is never exposed.
type Scoped[T any] interface {
	FindPage(ctx context.Context, pageNo, pageSize int, orderBy string, criteria ...repository.SelectCriteria) (*Page[T], error)
	FindActive(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error)
	// FindIncludingDeleted bypasses the active filter for audits. No HTTP
	// route mounts it.
	FindIncludingDeleted(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ImportMany(ctx context.Context, records []T, scope ...repository.SelectCriteria) ([]T, int, error)
}

// ScopedHandlers parameterizes the decorator per model, mirroring the base
// repository's ModelHandlers.
type ScopedHandlers[T any] struct {
	NewRecord func() T
	GetID     func(T) uuid.UUID
	SetID     func(T, uuid.UUID)
	// DedupeColumn and GetDedupeValue define the natural key ImportMany
	// checks against existing active rows (e.g. "email" for subscribers).
	// Leave unset for entities without a bulk-insert path.
	DedupeColumn   string
	GetDedupeValue func(T) string
}

// ScopedRepository composes the scoped query surface once over a Bun-backed
// base repository. The Bun soft_delete tag makes every default select filter
// `deleted_at IS NULL`; the decorator builds on that rather than repeating
// the predicate per entity.
type ScopedRepository[T any] struct {
	repository.Repository[T]
	db       *bun.DB
	handlers ScopedHandlers[T]
}

var _ Scoped[*Subscriber] = (*ScopedRepository[*Subscriber])(nil)

// NewScopedRepository decorates a base repository with the scoped surface.
func NewScopedRepository[T any](db *bun.DB, base repository.Repository[T], handlers ScopedHandlers[T]) *ScopedRepository[T] {
	return &ScopedRepository[T]{
		Repository: base,
		db:         db,
		handlers:   handlers,
	}
}

// DB exposes the underlying handle for entity-specific raw queries.
func (s *ScopedRepository[T]) DB() *bun.DB {
	return s.db
}

// FindPage runs the filtered count and the filtered page fetch concurrently.
// pageNo and pageSize are normalized to >= 1 before use, orderBy defaults to
// newest-first by creation time, and totalPages is 0 for an empty result set.
func (s *ScopedRepository[T]) FindPage(ctx context.Context, pageNo, pageSize int, orderBy string, criteria ...repository.SelectCriteria) (*Page[T], error) {
	if pageNo < 1 {
		pageNo = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if orderBy == "" {
		orderBy = "created_at DESC"
	}

	var records []T
	var total int

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q := s.db.NewSelect().Model(&records)
		for _, c := range criteria {
			q.Apply(c)
		}
		return q.
			Order(orderBy).
			Limit(pageSize).
			Offset((pageNo - 1) * pageSize).
			Scan(gctx)
	})

	g.Go(func() error {
		q := s.db.NewSelect().Model(s.handlers.NewRecord())
		for _, c := range criteria {
			q.Apply(c)
		}
		count, err := q.Count(gctx)
		if err != nil {
			return err
		}
		total = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to paginate records")
	}

	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	if records == nil {
		records = []T{}
	}

	return &Page[T]{
		Data:       records,
		Total:      total,
		PageNo:     pageNo,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// FindActive lists rows matching the caller's criteria. The soft-delete
// filter is implicit and ANDed with whatever the caller supplies.
func (s *ScopedRepository[T]) FindActive(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error) {
	var records []T

	q := s.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list records")
	}

	if records == nil {
		records = []T{}
	}

	return records, nil
}

// FindIncludingDeleted bypasses the active-only filter. It exists for audit
// and operational tooling; request handlers never call it.
func (s *ScopedRepository[T]) FindIncludingDeleted(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error) {
	var records []T

	q := s.db.NewSelect().Model(&records).WhereAllWithDeleted()
	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list records")
	}

	return records, nil
}

// SoftDelete marks the row as deleted. Bun turns the delete into
// `UPDATE ... SET deleted_at = now() WHERE ... AND deleted_at IS NULL`,
// so repeat calls are no-ops and the first deletion time wins.
func (s *ScopedRepository[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	record := s.handlers.NewRecord()
	s.handlers.SetID(record, id)

	if _, err := s.db.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to soft delete record")
	}

	return nil
}

// ImportMany inserts the subset of records whose natural key is not already
// held by an active row. The existence check and the insert run in one
// transaction so concurrent imports cannot race duplicates in. Within a
// batch the first occurrence of a key wins; the skipped count covers both
// in-batch and in-store duplicates. Skips are defined behavior, not errors.
func (s *ScopedRepository[T]) ImportMany(ctx context.Context, records []T, scope ...repository.SelectCriteria) ([]T, int, error) {
	if len(records) == 0 {
		return []T{}, 0, nil
	}

	if s.handlers.DedupeColumn == "" || s.handlers.GetDedupeValue == nil {
		return nil, 0, errors.New("bulk insert requires a natural key", errors.CategoryInternal)
	}

	candidates := make([]T, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	skipped := 0

	for _, record := range records {
		key := s.handlers.GetDedupeValue(record)
		if key == "" {
			skipped++
			continue
		}
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, record)
	}

	if len(candidates) == 0 {
		return []T{}, skipped, nil
	}

	keys := make([]string, 0, len(candidates))
	for key := range seen {
		keys = append(keys, key)
	}

	var inserted []T

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing []string

		q := tx.NewSelect().
			Model(s.handlers.NewRecord()).
			Column(s.handlers.DedupeColumn).
			Where("? IN (?)", bun.Ident(s.handlers.DedupeColumn), bun.In(keys))
		for _, c := range scope {
			q.Apply(c)
		}

		if err := q.Scan(ctx, &existing); err != nil {
			return err
		}

		taken := make(map[string]struct{}, len(existing))
		for _, key := range existing {
			taken[key] = struct{}{}
		}

		remainder := make([]T, 0, len(candidates))
		for _, record := range candidates {
			if _, dup := taken[s.handlers.GetDedupeValue(record)]; dup {
				skipped++
				continue
			}
			if s.handlers.GetID(record) == uuid.Nil {
				s.handlers.SetID(record, uuid.New())
			}
			remainder = append(remainder, record)
		}

		if len(remainder) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().Model(&remainder).Exec(ctx); err != nil {
			return err
		}

		inserted = remainder
		return nil
	})

	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "bulk insert failed")
	}

	if inserted == nil {
		inserted = []T{}
	}

	return inserted, skipped, nil
}
