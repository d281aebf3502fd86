package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
)

func dbcFor(ctx context.Context, tx *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: tx}
}
