package ports

import (
	"context"
	"encoding/json"

	"github.com/petland/petcare-console/internal/core/domain"
)

// ResourceGateway performs authenticated CRUD calls against the PetLand API.
// Bodies are passed through as raw JSON.
type ResourceGateway interface {
	List(ctx context.Context, res domain.Resource) (json.RawMessage, error)
	Get(ctx context.Context, res domain.Resource, id string) (json.RawMessage, error)
	Create(ctx context.Context, res domain.Resource, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, res domain.Resource, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, res domain.Resource, id string) error
}
