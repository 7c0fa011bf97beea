package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/config"
	"github.com/mamadbah2/briquette/internal/domain/models"
)

// DefaultListLimit is applied by callers that do not choose a limit.
const DefaultListLimit = 200

// ErrStoreUnavailable is returned when no usable store connection exists.
var ErrStoreUnavailable = errors.New("document store unavailable")

// StoreWriteError wraps a failed insert.
type StoreWriteError struct {
	Collection string
	Err        error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write to %s failed: %v", e.Collection, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// ReadPolicy controls how List reacts to retrieval errors other than unavailability.
type ReadPolicy int

const (
	// BestEffort logs the error and returns an empty result.
	BestEffort ReadPolicy = iota
	// Strict returns the error to the caller.
	Strict
)

// ParseReadPolicy maps the configuration value onto a ReadPolicy.
func ParseReadPolicy(value string) (ReadPolicy, error) {
	switch value {
	case "", config.ReadPolicyBestEffort:
		return BestEffort, nil
	case config.ReadPolicyStrict:
		return Strict, nil
	default:
		return BestEffort, fmt.Errorf("unknown read policy %q", value)
	}
}

// Repository defines the document operations the services rely on.
type Repository interface {
	Create(ctx context.Context, collection string, record any) (string, error)
	List(ctx context.Context, collection string, filter bson.M, limit int64) ([]models.Document, error)
}

// Status describes the store connection for diagnostics.
type Status struct {
	Available      bool
	URLConfigured  bool
	DatabaseName   string
	Collections    []string
	CollectionsErr error
}

// MongoDBRepository is the Repository backed by a single process-wide MongoDB client.
// A repository without a client is "unavailable": every call fails fast with
// ErrStoreUnavailable instead of blocking or retrying.
type MongoDBRepository struct {
	client        *mongo.Client
	db            *mongo.Database
	urlConfigured bool
	readPolicy    ReadPolicy
	logger        *zap.Logger
}

// NewMongoDBRepository connects to MongoDB. It never fails: a missing or invalid
// connection string leaves the repository in the unavailable state.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) *MongoDBRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy, err := ParseReadPolicy(cfg.ReadPolicy)
	if err != nil {
		logger.Warn("falling back to best-effort reads", zap.Error(err))
	}

	r := &MongoDBRepository{
		urlConfigured: cfg.URI != "",
		readPolicy:    policy,
		logger:        logger,
	}

	if cfg.URI == "" {
		logger.Warn("DATABASE_URL not set, document store unavailable")
		return r
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		logger.Error("failed to connect to mongodb, document store unavailable", zap.Error(err))
		return r
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		// The client stays: the server may come up later and diagnostics report the error.
		logger.Warn("mongodb ping failed", zap.Error(err))
	}

	r.client = client
	r.db = client.Database(cfg.DBName)
	logger.Info("mongodb repository ready", zap.String("database", cfg.DBName))
	return r
}

// NewUnavailable returns a repository with no connection.
func NewUnavailable(logger *zap.Logger) *MongoDBRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoDBRepository{logger: logger}
}

// Available reports whether a client exists.
func (r *MongoDBRepository) Available() bool {
	return r != nil && r.db != nil
}

// Create inserts record as a new document in collection and returns the
// store-assigned identifier as a string.
func (r *MongoDBRepository) Create(ctx context.Context, collection string, record any) (string, error) {
	if !r.Available() {
		return "", ErrStoreUnavailable
	}

	res, err := r.db.Collection(collection).InsertOne(ctx, record)
	if err != nil {
		return "", &StoreWriteError{Collection: collection, Err: err}
	}

	return fmt.Sprint(publicID(res.InsertedID)), nil
}

// List returns up to limit documents of collection matching filter, in the
// store's natural order. A limit of 0 means no limit.
func (r *MongoDBRepository) List(ctx context.Context, collection string, filter bson.M, limit int64) ([]models.Document, error) {
	if !r.Available() {
		return nil, ErrStoreUnavailable
	}
	if filter == nil {
		filter = bson.M{}
	}

	findOptions := options.Find()
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.db.Collection(collection).Find(ctx, filter, findOptions)
	if err != nil {
		return r.readFailed(collection, fmt.Errorf("find in %s: %w", collection, err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	docs := make([]models.Document, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return r.readFailed(collection, fmt.Errorf("decode %s document: %w", collection, err))
		}
		docs = append(docs, models.Document(doc))
	}
	if err := cursor.Err(); err != nil {
		return r.readFailed(collection, fmt.Errorf("iterate %s: %w", collection, err))
	}

	return docs, nil
}

func (r *MongoDBRepository) readFailed(collection string, err error) ([]models.Document, error) {
	if r.readPolicy == Strict {
		return nil, err
	}
	r.logger.Warn("read failed, returning empty result", zap.String("collection", collection), zap.Error(err))
	return []models.Document{}, nil
}

// Status gathers connectivity details. It does not return an error; problems
// listing collections are reported in Status.CollectionsErr.
func (r *MongoDBRepository) Status(ctx context.Context) Status {
	status := Status{URLConfigured: r.urlConfigured}
	if !r.Available() {
		return status
	}

	status.Available = true
	status.DatabaseName = r.db.Name()

	names, err := r.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		status.CollectionsErr = err
		return status
	}
	if len(names) > 10 {
		names = names[:10]
	}
	status.Collections = names
	return status
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.client.Disconnect(closeCtx)
}
