package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

const (
	entityDocument = "DOCUMENT"
	entityKeyword  = "KEYWORD"

	documentPrefix = "DOC#"
	keywordPrefix  = "KEYWORD#"

	// BatchWriteItem accepts at most 25 requests
	maxBatchWrite    = 25
	maxBatchAttempts = 5
)

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// documentItem represents the DynamoDB item structure for a document.
// The full document lives in Payload; the other attributes serve keys and filters.
type documentItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"` // For document lookups by ID
	GSI1SK     string `dynamodbav:"GSI1SK"` // Always "METADATA" for documents
	EntityType string `dynamodbav:"EntityType"`
	DocumentID string `dynamodbav:"DocumentID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	Kind       string `dynamodbav:"Kind"`
	Category   string `dynamodbav:"Category,omitempty"`
	Title      string `dynamodbav:"Title"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Version    int    `dynamodbav:"Version"`
	Payload    string `dynamodbav:"Payload"`
}

// keywordItem represents one keyword index entry
type keywordItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	OwnerID    string  `dynamodbav:"OwnerID"`
	Keyword    string  `dynamodbav:"Keyword"`
	Frequency  int     `dynamodbav:"Frequency"`
	Importance float64 `dynamodbav:"Importance"`
	Payload    string  `dynamodbav:"Payload"`
}

// DocumentRepository implements ports.DocumentRepository and
// ports.KeywordRepository on a single DynamoDB table
type DocumentRepository struct {
	client    Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(client Client, tableName, indexName string, logger *zap.Logger) *DocumentRepository {
	if indexName == "" {
		indexName = "GSI1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

func userKey(owner string) string { return fmt.Sprintf("USER#%s", owner) }

func documentKey(id string) string { return documentPrefix + id }

// Put persists a document
func (r *DocumentRepository) Put(ctx context.Context, doc *entities.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewStorageError("put document", err)
	}

	id := doc.ID.String()
	item := documentItem{
		PK:         userKey(doc.Owner()),
		SK:         documentKey(id),
		GSI1PK:     fmt.Sprintf("DOCID#%s", id),
		GSI1SK:     "METADATA",
		EntityType: entityDocument,
		DocumentID: id,
		OwnerID:    doc.Owner(),
		Kind:       string(doc.Kind),
		Category:   doc.Metadata.Category,
		Title:      doc.Title,
		CreatedAt:  doc.Metadata.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  doc.Metadata.UpdatedAt.Format(time.RFC3339Nano),
		Version:    doc.Metadata.Version,
		Payload:    string(payload),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewStorageError("put document", fmt.Errorf("failed to marshal document: %w", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save document to DynamoDB",
			zap.Error(err),
			zap.String("documentID", id),
		)
		return pkgerrors.NewStorageError("put document", err)
	}

	r.logger.Debug("Saved document to DynamoDB",
		zap.String("documentID", id),
		zap.String("PK", item.PK),
		zap.String("SK", item.SK),
	)
	return nil
}

// GetByID retrieves a document through the id index
func (r *DocumentRepository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	item, err := r.lookup(ctx, id.String())
	if err != nil {
		return nil, err
	}
	return decodeDocument(item.Payload)
}

func (r *DocumentRepository) lookup(ctx context.Context, id string) (*documentItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("DOCID#%s", id))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewStorageError("get document", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewStorageError("get document", fmt.Errorf("failed to query document: %w", err))
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("document")
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.NewStorageError("get document", fmt.Errorf("failed to unmarshal document: %w", err))
	}
	return &item, nil
}

// ListByOwner retrieves all documents of an owner, following pagination
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	items, err := r.queryOwner(ctx, ownerID, documentPrefix)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}

	docs := make([]*entities.Document, 0, len(items))
	for _, raw := range items {
		var item documentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal document item", zap.Error(err))
			continue
		}
		doc, err := decodeDocument(item.Payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document. Absent documents are ignored.
func (r *DocumentRepository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	item, err := r.lookup(ctx, id.String())
	if pkgerrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
	}); err != nil {
		return pkgerrors.NewStorageError("delete document", err)
	}
	return nil
}

// ListKeywords retrieves the owner's keyword entries
func (r *DocumentRepository) ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error) {
	items, err := r.queryOwner(ctx, ownerID, keywordPrefix)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list keywords", err)
	}

	entries := make([]*entities.KeywordEntry, 0, len(items))
	for _, raw := range items {
		var item keywordItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, pkgerrors.NewStorageError("list keywords", err)
		}
		var entry entities.KeywordEntry
		if err := json.Unmarshal([]byte(item.Payload), &entry); err != nil {
			return nil, pkgerrors.NewStorageError("decode keyword", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// SaveKeywords writes upserts and deletes removals in batches
func (r *DocumentRepository) SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error {
	requests := make([]types.WriteRequest, 0, len(upserts)+len(removals))

	for _, e := range upserts {
		payload, err := json.Marshal(e)
		if err != nil {
			return pkgerrors.NewStorageError("save keywords", err)
		}
		av, err := attributevalue.MarshalMap(keywordItem{
			PK:         userKey(ownerID),
			SK:         keywordPrefix + e.Keyword,
			EntityType: entityKeyword,
			OwnerID:    ownerID,
			Keyword:    e.Keyword,
			Frequency:  e.Frequency,
			Importance: e.Importance,
			Payload:    string(payload),
		})
		if err != nil {
			return pkgerrors.NewStorageError("save keywords", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, keyword := range removals {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: userKey(ownerID)},
				"SK": &types.AttributeValueMemberS{Value: keywordPrefix + keyword},
			},
		}})
	}

	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		if err := r.batchWrite(ctx, requests[start:end]); err != nil {
			r.logger.Error("Failed to write keyword batch",
				zap.String("ownerID", ownerID),
				zap.Int("batchStart", start),
				zap.Error(err),
			)
			return pkgerrors.NewStorageError("save keywords", err)
		}
	}
	return nil
}

// batchWrite sends one batch and resubmits unprocessed requests a bounded number of times
func (r *DocumentRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: requests}

	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("%d keyword writes left unprocessed", len(pending[r.tableName]))
}

// queryOwner returns every item under the owner's partition whose sort key has prefix
func (r *DocumentRepository) queryOwner(ctx context.Context, ownerID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userKey(ownerID))).
		And(expression.KeyBeginsWith(expression.Key("SK"), prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// Ping issues a cheap query against the table
func (r *DocumentRepository) Ping(ctx context.Context) error {
	if _, err := r.queryOwner(ctx, "__ping__", documentPrefix); err != nil {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return nil
}

func decodeDocument(payload string) (*entities.Document, error) {
	var doc entities.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, pkgerrors.NewStorageError("decode document", err)
	}
	return &doc, nil
}
