package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-shortlink/core"
)

// LinkStore persists short links through bun. The two partial unique indexes
// on (tenant_id, code) and (tenant_id, canonical_url) are the concurrency
// arbiter; InsertIfAbsent translates their violations into the store
// sentinels.
type LinkStore struct {
	db   *bun.DB
	repo repository.Repository[*linkRecord]
}

func (s *LinkStore) InsertIfAbsent(ctx context.Context, link core.ShortLink) (core.ShortLink, error) {
	if s == nil || s.repo == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: link store is not configured")
	}
	if strings.TrimSpace(link.TenantID) == "" {
		return core.ShortLink{}, fmt.Errorf("sqlstore: tenant id is required")
	}
	if strings.TrimSpace(link.Code) == "" {
		return core.ShortLink{}, fmt.Errorf("sqlstore: code is required")
	}
	if strings.TrimSpace(link.CanonicalURL) == "" {
		return core.ShortLink{}, fmt.Errorf("sqlstore: canonical url is required")
	}

	record := newLinkRecord(link, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.ShortLink{}, mapLinkInsertError(err)
	}
	return created.toDomain(), nil
}

func (s *LinkStore) FindByTenantAndCode(ctx context.Context, tenantID, code string) (core.ShortLink, error) {
	return s.findOne(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.SelectBy("code", "=", strings.TrimSpace(code)),
	)
}

func (s *LinkStore) FindByTenantAndCanonicalURL(ctx context.Context, tenantID, canonicalURL string) (core.ShortLink, error) {
	return s.findOne(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.SelectBy("canonical_url", "=", canonicalURL),
	)
}

func (s *LinkStore) FindByID(ctx context.Context, id string) (core.ShortLink, error) {
	if s == nil || s.repo == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: link store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNoRows(err) {
			return core.ShortLink{}, fmt.Errorf("%w: id=%s", core.ErrLinkNotFound, id)
		}
		return core.ShortLink{}, err
	}
	return record.toDomain(), nil
}

func (s *LinkStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateByID(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("active = ?", active)
	})
}

func (s *LinkStore) SoftDelete(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("deleted_at = ?", time.Now().UTC())
	})
}

// IncrementClickCount bumps the counter in place. No cache invalidation
// rides on this; the read path tolerates a stale count for a cache TTL.
func (s *LinkStore) IncrementClickCount(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("click_count = click_count + 1")
	})
}

// PurgeExpired hard-deletes soft-deleted and time-expired rows older than
// cutoff. The maintenance sweeper is the only caller.
func (s *LinkStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: link store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*linkRecord)(nil)).
		WhereAllWithDeleted().
		Where("(deleted_at IS NOT NULL AND deleted_at < ?) OR (expires_at IS NOT NULL AND expires_at < ?)", cutoff, cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ListByTenant returns a page of live links for a tenant, newest first.
func (s *LinkStore) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]core.ShortLink, int, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("sqlstore: link store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := s.repo.List(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, err
	}
	out := make([]core.ShortLink, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, total, nil
}

func (s *LinkStore) findOne(ctx context.Context, criteria ...repository.SelectCriteria) (core.ShortLink, error) {
	if s == nil || s.repo == nil {
		return core.ShortLink{}, fmt.Errorf("sqlstore: link store is not configured")
	}
	criteria = append(criteria,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.SelectPaginate(1, 0),
	)
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return core.ShortLink{}, err
	}
	if len(records) == 0 {
		return core.ShortLink{}, core.ErrLinkNotFound
	}
	return records[0].toDomain(), nil
}

func (s *LinkStore) updateByID(ctx context.Context, id string, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: link store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: link id is required")
	}
	query := s.db.NewUpdate().
		Model((*linkRecord)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Where("deleted_at IS NULL")
	query = apply(query)

	result, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", core.ErrLinkNotFound, trimmedID)
	}
	return nil
}

func isNoRows(err error) bool {
	return err != nil && (errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "no rows"))
}
