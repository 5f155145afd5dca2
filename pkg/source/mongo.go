package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// MongoOptions configures [NewMongo].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string

	// Timeout bounds connecting and each lookup. Zero means 10s.
	Timeout time.Duration
}

// Mongo loads pathways stored as documents whose _id is the pathway id and
// whose remaining fields use the pathway JSON layout.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongo connects and pings the primary.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Mongo{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		timeout: opts.Timeout,
	}, nil
}

// Load fetches the document with _id == id.
func (m *Mongo) Load(ctx context.Context, id string) (*pathway.Graph, error) {
	if err := errors.ValidatePathwayID(id); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var raw bson.Raw
	err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "pathway %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %q: %w", id, err)
	}
	return DecodeDocument(raw, id)
}

// DecodeDocument converts a stored document into a validated pathway.
// The document goes through relaxed extended JSON, which leaves strings,
// arrays and embedded documents in their plain JSON form.
func DecodeDocument(raw bson.Raw, id string) (*pathway.Graph, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "convert pathway %q", id)
	}
	g, err := pathway.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return withID(g, id), nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ Source = (*Mongo)(nil)
