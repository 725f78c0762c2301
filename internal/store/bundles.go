package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dcos/dcos-test-utils/internal/models"
	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/filter"
)

const bundlesTable = "diagnostics_bundles"

type BundleStore struct {
	db Querier
}

func NewBundleStore(db Querier) *BundleStore {
	return &BundleStore{db: db}
}

// Save stores or updates a downloaded bundle.
func (s *BundleStore) Save(ctx context.Context, b models.Bundle) error {
	if b.DownloadedAt.IsZero() {
		b.DownloadedAt = time.Now().UTC()
	}
	query, args, err := sq.Insert(bundlesTable).
		Columns("id", "cluster", "path", "size", "downloaded_at").
		Values(b.ID, b.Cluster, b.Path, b.Size, b.DownloadedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET cluster = EXCLUDED.cluster, path = EXCLUDED.path, size = EXCLUDED.size, downloaded_at = EXCLUDED.downloaded_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *BundleStore) Get(ctx context.Context, id string) (*models.Bundle, error) {
	query, args, err := sq.Select("id", "cluster", "path", "size", "downloaded_at").
		From(bundlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Bundle
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.Cluster, &b.Path, &b.Size, &b.DownloadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewResourceNotFoundError("bundle", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BundleFilterFields are the fields of bundle filter expressions.
var BundleFilterFields = filter.Fields{
	"id":            "id",
	"cluster":       "cluster",
	"path":          "path",
	"size":          "size",
	"downloaded_at": "downloaded_at",
}

// List returns the bundles of cluster, every bundle when cluster is empty,
// most recent first.
func (s *BundleStore) List(ctx context.Context, cluster string) ([]models.Bundle, error) {
	return s.Search(ctx, cluster, nil)
}

// Search is List restricted to bundles matching cond. A nil cond matches
// every bundle.
func (s *BundleStore) Search(ctx context.Context, cluster string, cond sq.Sqlizer) ([]models.Bundle, error) {
	builder := sq.Select("id", "cluster", "path", "size", "downloaded_at").From(bundlesTable)
	if cluster != "" {
		builder = builder.Where(sq.Eq{"cluster": cluster})
	}
	if cond != nil {
		builder = builder.Where(cond)
	}
	query, args, err := builder.OrderBy("downloaded_at DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bundles: %w", err)
	}
	defer rows.Close()

	bundles := []models.Bundle{}
	for rows.Next() {
		var b models.Bundle
		if err := rows.Scan(&b.ID, &b.Cluster, &b.Path, &b.Size, &b.DownloadedAt); err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}
