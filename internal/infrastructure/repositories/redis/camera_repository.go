package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"camwall/internal/core/domain"
	"camwall/internal/core/ports"
)

// RedisCameraRepository persists camera assignments so the wall survives a
// process restart without re-reading the config file.
type RedisCameraRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisCameraRepository(client *redis.Client) ports.CameraRepository {
	return &RedisCameraRepository{
		client: client,
		prefix: "camwall:camera:",
	}
}

func (r *RedisCameraRepository) cameraKey(pos domain.Position) string {
	return r.prefix + strconv.Itoa(int(pos))
}

func (r *RedisCameraRepository) Save(ctx context.Context, camera *domain.Camera) error {
	if !camera.Position.Valid() {
		return domain.ErrInvalidPosition
	}

	data, err := json.Marshal(camera)
	if err != nil {
		return fmt.Errorf("failed to marshal camera: %w", err)
	}

	if err := r.client.Set(ctx, r.cameraKey(camera.Position), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set camera in Redis: %w", err)
	}
	return nil
}

func (r *RedisCameraRepository) GetByPosition(ctx context.Context, pos domain.Position) (*domain.Camera, error) {
	if !pos.Valid() {
		return nil, domain.ErrInvalidPosition
	}

	data, err := r.client.Get(ctx, r.cameraKey(pos)).Result()
	if err == redis.Nil {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera from Redis: %w", err)
	}

	var camera domain.Camera
	if err := json.Unmarshal([]byte(data), &camera); err != nil {
		return nil, fmt.Errorf("failed to unmarshal camera: %w", err)
	}
	return &camera, nil
}

func (r *RedisCameraRepository) Delete(ctx context.Context, pos domain.Position) error {
	if !pos.Valid() {
		return domain.ErrInvalidPosition
	}

	deleted, err := r.client.Del(ctx, r.cameraKey(pos)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete camera from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrCameraNotFound
	}
	return nil
}

func (r *RedisCameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	out := make([]*domain.Camera, 0, domain.MaxPositions)
	for pos := domain.Position(0); pos < domain.MaxPositions; pos++ {
		camera, err := r.GetByPosition(ctx, pos)
		if err == domain.ErrCameraNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, camera)
	}
	return out, nil
}
