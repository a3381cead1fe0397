package memory

import (
	"context"
	"sort"
	"sync"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
)

type MemoryCameraRepository struct {
	cameras map[domain.Position]*domain.Camera
	mu      sync.RWMutex
}

func NewMemoryCameraRepository() ports.CameraRepository {
	return &MemoryCameraRepository{
		cameras: make(map[domain.Position]*domain.Camera),
	}
}

func (r *MemoryCameraRepository) Save(ctx context.Context, camera *domain.Camera) error {
	if !camera.Position.Valid() {
		return domain.ErrInvalidPosition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *camera
	r.cameras[camera.Position] = &cp
	return nil
}

func (r *MemoryCameraRepository) GetByPosition(ctx context.Context, pos domain.Position) (*domain.Camera, error) {
	if !pos.Valid() {
		return nil, domain.ErrInvalidPosition
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	camera, exists := r.cameras[pos]
	if !exists {
		return nil, domain.ErrCameraNotFound
	}

	cp := *camera
	return &cp, nil
}

func (r *MemoryCameraRepository) Delete(ctx context.Context, pos domain.Position) error {
	if !pos.Valid() {
		return domain.ErrInvalidPosition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cameras[pos]; !exists {
		return domain.ErrCameraNotFound
	}

	delete(r.cameras, pos)
	return nil
}

func (r *MemoryCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Camera, 0, len(r.cameras))
	for _, camera := range r.cameras {
		cp := *camera
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
