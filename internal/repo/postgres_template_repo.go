package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/codeman/internal/model"
	"github.com/xxxsen/codeman/internal/pkg/dbutil"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

var templateColumns = []string{
	"id", "title", "description", "tags_json", "codeurl", "language", "created_at", "updated_at",
}

// PostgresTemplateRepo stores templates in the templates table. Timestamps are unix millis.
type PostgresTemplateRepo struct {
	db *sql.DB
}

func NewPostgresTemplateRepo(db *sql.DB) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{db: db}
}

// Create retries once with a fresh id if the generated one collides.
func (r *PostgresTemplateRepo) Create(ctx context.Context, tpl *model.Template) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	tagsJSON, _ := json.Marshal(cloneTags(tpl.Tags))
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		id := newID()
		err = r.insert(ctx, map[string]interface{}{
			"id":          id,
			"title":       tpl.Title,
			"description": tpl.Description,
			"tags_json":   string(tagsJSON),
			"codeurl":     tpl.CodeURL,
			"language":    tpl.Language,
			"created_at":  now.UnixMilli(),
			"updated_at":  now.UnixMilli(),
		})
		if err == nil {
			tpl.ID = id
			tpl.CreatedAt = now
			tpl.UpdatedAt = now
			return nil
		}
		if !dbutil.IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *PostgresTemplateRepo) insert(ctx context.Context, data map[string]interface{}) error {
	sqlStr, args, err := builder.BuildInsert("templates", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PostgresTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	sqlStr, args, err := builder.BuildSelect("templates", map[string]interface{}{"id": id}, templateColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanTemplate(rows)
}

func (r *PostgresTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	where := map[string]interface{}{
		"_orderby": "created_at desc, id desc",
	}
	sqlStr, args, err := builder.BuildSelect("templates", where, templateColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Template, 0)
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *tpl)
	}
	return items, rows.Err()
}

// Update writes the patch and reads the row back in one statement.
func (r *PostgresTemplateRepo) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	sqlStr, args, err := buildUpdateReturning(id, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func buildUpdateReturning(id string, patch model.TemplatePatch, now time.Time) (string, []interface{}, error) {
	tagsJSON, _ := json.Marshal(cloneTags(patch.Tags))
	update := map[string]interface{}{
		"title":       patch.Title,
		"description": patch.Description,
		"tags_json":   string(tagsJSON),
		"updated_at":  now.UnixMilli(),
	}
	if patch.CodeURL != "" {
		update["codeurl"] = patch.CodeURL
		update["language"] = patch.Language
	}
	sqlStr, args, err := builder.BuildUpdate("templates", map[string]interface{}{"id": id}, update)
	if err != nil {
		return "", nil, err
	}
	sqlStr += " RETURNING " + strings.Join(templateColumns, ", ")
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	return sqlStr, args, nil
}

func (r *PostgresTemplateRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("templates", map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostgresTemplateRepo) ListCodeURLs(ctx context.Context) ([]string, error) {
	sqlStr, args, err := builder.BuildSelect("templates", nil, []string{"codeurl"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Rebind(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	urls := make([]string, 0)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

type templateScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(s templateScanner) (*model.Template, error) {
	var tpl model.Template
	var tagsJSON string
	var createdAt, updatedAt int64
	if err := s.Scan(
		&tpl.ID,
		&tpl.Title,
		&tpl.Description,
		&tagsJSON,
		&tpl.CodeURL,
		&tpl.Language,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &tpl.Tags)
	if tpl.Tags == nil {
		tpl.Tags = []string{}
	}
	tpl.CreatedAt = time.UnixMilli(createdAt).UTC()
	tpl.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &tpl, nil
}
