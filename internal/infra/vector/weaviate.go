package vector

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/bryanwahyu/automaton-rca/internal/domain/knowledge"
)

const defaultClass = "InfraSpec"

// Index stores artifact chunks in a Weaviate class. Vectors come from the
// caller; the class vectorizer stays "none".
type Index struct {
	client *weaviate.Client
	class  string
}

func New(host, scheme, class string) (*Index, error) {
	if class == "" {
		class = defaultClass
	}
	if scheme == "" {
		scheme = "http"
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Index{client: client, class: class}, nil
}

// EnsureSchema creates the chunk class when it does not exist yet. The
// getter errors on a missing class, which is the create signal.
func (i *Index) EnsureSchema(ctx context.Context) error {
	if _, err := i.client.Schema().ClassGetter().WithClassName(i.class).Do(ctx); err == nil {
		return nil
	}
	class := &models.Class{
		Class:       i.class,
		Description: "Infrastructure and security artifact chunks for retrieval",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "source_file", DataType: []string{"text"}},
			{Name: "file_type", DataType: []string{"text"}},
			{Name: "chunk_index", DataType: []string{"int"}},
		},
	}
	if err := i.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", i.class, err)
	}
	return nil
}

// Upsert writes one chunk under a deterministic id, so re-ingesting the same
// artifact never duplicates it. An id conflict means the chunk is already
// indexed and counts as success.
func (i *Index) Upsert(ctx context.Context, c knowledge.Chunk, vector []float32) error {
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fmt.Sprintf("%s#%d", c.SourceFile, c.Index)))
	_, err := i.client.Data().Creator().
		WithClassName(i.class).
		WithID(id.String()).
		WithProperties(map[string]interface{}{
			"content":     c.Content,
			"source_file": c.SourceFile,
			"file_type":   c.FileType,
			"chunk_index": c.Index,
		}).
		WithVector(vector).
		Do(ctx)
	if err != nil {
		var clientErr *fault.WeaviateClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusUnprocessableEntity {
			return nil
		}
		return fmt.Errorf("index chunk %s#%d: %w", c.SourceFile, c.Index, err)
	}
	return nil
}

// Ready probes the instance readiness endpoint.
func (i *Index) Ready(ctx context.Context) bool {
	ok, err := i.client.Misc().ReadyChecker().Do(ctx)
	return err == nil && ok
}
