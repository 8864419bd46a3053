// Package store persists assembled models so they can be fetched again by
// id.
//
// Two backends are provided: [FileStore] keeps one JSON document per model
// in a directory, [MongoStore] keeps one document per model in a MongoDB
// collection. Both assign a UUID to models saved without an id.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/graph"
)

// Store persists model snapshots.
type Store interface {
	// Save stores m and returns its id, assigning one if m.ID is empty.
	Save(ctx context.Context, m *graph.Model) (string, error)

	// Load returns the model with the given id. A missing model yields a
	// NOT_FOUND error.
	Load(ctx context.Context, id string) (*graph.Model, error)

	// List returns up to limit summaries, newest first. A limit of zero
	// or less means no limit.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes a model. Deleting a missing model is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Summary describes a stored model without its graphs.
type Summary struct {
	ID         string    `json:"id" bson:"_id"`
	View       string    `json:"view" bson:"view"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	GraphCount int       `json:"graphs" bson:"graph_count"`
}

// prepare assigns an id and creation time to a model about to be saved.
func prepare(m *graph.Model) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := perrors.ValidateModelID(m.ID); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id string) error {
	return perrors.New(perrors.ErrCodeNotFound, "model %s not found", id)
}

func summarize(m *graph.Model) Summary {
	return Summary{ID: m.ID, View: m.View, CreatedAt: m.CreatedAt, GraphCount: len(m.Graphs)}
}
