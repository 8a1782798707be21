package in

import (
	"context"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// ArchiveService defines secure archive use cases.
type ArchiveService interface {
	Create(ctx context.Context, opts domain.ArchiveOptions) (*domain.ArchiveResult, error)
	SetDefaultPassword(ctx context.Context, password []byte) error
	ClearDefaultPassword(ctx context.Context) error
}
