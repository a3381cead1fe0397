package ports

import (
	"context"

	"camwall/internal/core/domain"
)

type CameraRepository interface {
	Save(ctx context.Context, camera *domain.Camera) error
	GetByPosition(ctx context.Context, pos domain.Position) (*domain.Camera, error)
	Delete(ctx context.Context, pos domain.Position) error
	List(ctx context.Context) ([]*domain.Camera, error)
}
