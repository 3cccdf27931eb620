package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
)

const (
	portfolioCollection = "portfolio"
	runsCollection      = "workflow_runs"
	portfolioDocumentID = "portfolio"
)

// portfolioDocument wraps the dataset under a fixed id so Save is a whole-document replace.
type portfolioDocument struct {
	ID                   string `bson:"_id"`
	models.PortfolioData `bson:",inline"`
}

// MongoDBRepository stores the portfolio document and the workflow run log in MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// Load fetches the persisted portfolio document.
func (r *MongoDBRepository) Load(ctx context.Context) (*models.PortfolioData, error) {
	var doc portfolioDocument
	err := r.collection(portfolioCollection).FindOne(ctx, bson.M{"_id": portfolioDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return &doc.PortfolioData, nil
}

// Save replaces the whole portfolio document, inserting it on first write.
func (r *MongoDBRepository) Save(ctx context.Context, data *models.PortfolioData) error {
	if data == nil {
		return errors.New("portfolio data must not be nil")
	}
	doc := portfolioDocument{ID: portfolioDocumentID, PortfolioData: *data}
	_, err := r.collection(portfolioCollection).ReplaceOne(ctx,
		bson.M{"_id": portfolioDocumentID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

// SaveWorkflowRun appends a workflow execution record.
func (r *MongoDBRepository) SaveWorkflowRun(ctx context.Context, run models.WorkflowRun) error {
	_, err := r.collection(runsCollection).InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to insert workflow run: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

var (
	_ repository.PortfolioRepository = (*MongoDBRepository)(nil)
	_ repository.RunRepository       = (*MongoDBRepository)(nil)
)
