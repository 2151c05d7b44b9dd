package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// transactionDocument is the stored shape of a transaction; the ID is the native object id
type transactionDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Amount      float64            `bson:"amount"`
	Date        time.Time          `bson:"date"`
	Description string             `bson:"description"`
}

// newTransactionDocument converts tx to its stored shape, truncating the date to
// the millisecond precision MongoDB keeps
func newTransactionDocument(tx *entity.Transaction) (transactionDocument, error) {
	oid, err := primitive.ObjectIDFromHex(tx.ID)
	if err != nil {
		return transactionDocument{}, fmt.Errorf("invalid object id %q: %w", tx.ID, err)
	}

	return transactionDocument{
		ID:          oid,
		Amount:      tx.Amount,
		Date:        tx.Date.UTC().Truncate(time.Millisecond),
		Description: tx.Description,
	}, nil
}

func (d *transactionDocument) toEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:          d.ID.Hex(),
		Amount:      d.Amount,
		Date:        d.Date.UTC(),
		Description: d.Description,
	}
}

// MongoTransactionRepository implements the transaction repository interface on a MongoDB collection.
// MongoDB stores dates with millisecond precision.
type MongoTransactionRepository struct {
	coll *mongo.Collection
}

// NewMongoTransactionRepository creates a repository backed by the given collection
func NewMongoTransactionRepository(coll *mongo.Collection) *MongoTransactionRepository {
	return &MongoTransactionRepository{coll: coll}
}

// List returns all transactions ordered by date, most recent first
func (r *MongoTransactionRepository) List(ctx context.Context) ([]*entity.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	txs := make([]*entity.Transaction, 0, len(docs))
	for i := range docs {
		txs = append(txs, docs[i].toEntity())
	}
	return txs, nil
}

// FindByID retrieves a transaction by its unique identifier
func (r *MongoTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	var doc transactionDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoError("retrieve", id, err)
	}

	return doc.toEntity(), nil
}

// Create inserts a new transaction; the unique _id index rejects duplicates.
// On success tx holds the stored values, so it matches a later FindByID.
func (r *MongoTransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	doc, err := newTransactionDocument(tx)
	if err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateID, tx.ID)
		}
		return fmt.Errorf("failed to store transaction %s: %w", tx.ID, err)
	}

	*tx = *doc.toEntity()
	return nil
}

// Update replaces the mutable fields of an existing transaction in a single document operation
func (r *MongoTransactionRepository) Update(ctx context.Context, id string, fields entity.Fields) (*entity.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	update := bson.M{"$set": bson.M{
		"amount":      fields.Amount,
		"date":        fields.Date.UTC().Truncate(time.Millisecond),
		"description": fields.Description,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc transactionDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, mongoError("update", id, err)
	}

	return doc.toEntity(), nil
}

// Delete removes a transaction
func (r *MongoTransactionRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	return nil
}

// EnsureIndexes creates the date index used to order listings
func (r *MongoTransactionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create date index: %w", err)
	}
	return nil
}

func mongoError(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return fmt.Errorf("failed to %s transaction %s: %w", op, id, err)
}
