package vectordb

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"askbase/internal/domain/ports"
)

// entryIDField is the payload field carrying the KB entry id. Qdrant point
// ids are numeric; the stable string id lives in the payload.
const entryIDField = "entry_id"

// QdrantBuilder maintains one collection per knowledge base in a Qdrant
// server, recreating it wholesale on every build so a snapshot never mixes
// generations. With Distance_Cosine the server normalizes vectors itself.
type QdrantBuilder struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
}

// NewQdrantBuilder connects to a Qdrant gRPC endpoint (host:port).
func NewQdrantBuilder(addr, collection string) (*QdrantBuilder, error) {
	if collection == "" {
		collection = "askbase_kb"
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}
	return &QdrantBuilder{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
	}, nil
}

// Close releases the gRPC connection.
func (b *QdrantBuilder) Close() error {
	return b.conn.Close()
}

// Build recreates the collection and upserts every entry, then returns a
// read-only index view over it.
func (b *QdrantBuilder) Build(ctx context.Context, entries []ports.IndexEntry) (ports.VectorIndex, error) {
	if len(entries) == 0 {
		return &QdrantIndex{points: b.points, collection: b.collection}, nil
	}

	if err := b.recreateCollection(ctx, uint64(len(entries[0].Vector))); err != nil {
		return nil, err
	}

	batch := make([]*qdrantclient.PointStruct, 0, len(entries))
	for i, e := range entries {
		batch = append(batch, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Num{Num: uint64(i + 1)},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: e.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				entryIDField: {Kind: &qdrantclient.Value_StringValue{StringValue: e.ID}},
			},
		})
	}

	if _, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: b.collection,
		Points:         batch,
	}); err != nil {
		return nil, fmt.Errorf("upserting %d points: %w", len(batch), err)
	}

	return &QdrantIndex{points: b.points, collection: b.collection, size: len(entries)}, nil
}

func (b *QdrantBuilder) recreateCollection(ctx context.Context, dim uint64) error {
	existing, err := b.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, col := range existing.GetCollections() {
		if col.GetName() == b.collection {
			if _, err := b.collections.Delete(ctx, &qdrantclient.DeleteCollection{
				CollectionName: b.collection,
			}); err != nil {
				return fmt.Errorf("deleting stale collection: %w", err)
			}
			break
		}
	}

	if _, err := b.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: b.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     dim,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// QdrantIndex implements ports.VectorIndex over a Qdrant collection.
type QdrantIndex struct {
	points     qdrantclient.PointsClient
	collection string
	size       int
}

// Search queries the collection for the k nearest points.
func (idx *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]ports.Hit, error) {
	resp, err := idx.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: idx.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{entryIDField},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching qdrant: %w", err)
	}

	hits := make([]ports.Hit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		id, ok := point.Payload[entryIDField]
		if !ok {
			continue
		}
		hits = append(hits, ports.Hit{
			EntryID: id.GetStringValue(),
			Score:   float64(point.GetScore()),
		})
	}
	return hits, nil
}

// Len reports how many entries the last build indexed.
func (idx *QdrantIndex) Len() int {
	return idx.size
}
