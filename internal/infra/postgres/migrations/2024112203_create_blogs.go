package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2024112203_create_blogs.sql
var createBlogsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, createBlogsSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, `DROP TABLE IF EXISTS blogs; DROP TABLE IF EXISTS categories`)
		},
	)
}
