// Package dynamodb implements the container client on DynamoDB. Documents
// live in a single table keyed by (pk, id): pk is the canonical joined form
// of the partition key, hierarchical components in declared order, and id is
// the internal document id. The concurrency tag is a uuid stored in the
// _etag attribute and rotated on every write; preconditions become
// condition expressions on that attribute.
package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"partdocs/application/ports"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/partition"
)

const (
	attrPartition = "pk"
	attrID        = "id"
	attrETag      = "_etag"
)

// API is the subset of the DynamoDB client the container uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Container implements ports.ContainerClient on a DynamoDB table
type Container struct {
	api       API
	tableName string
	logger    *zap.Logger
}

// NewContainer creates a DynamoDB-backed container client
func NewContainer(api API, tableName string, logger *zap.Logger) *Container {
	return &Container{
		api:       api,
		tableName: tableName,
		logger:    logger,
	}
}

// CreateItem implements ports.ContainerClient
func (c *Container) CreateItem(ctx context.Context, doc ports.Document, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	etag := uuid.New().String()
	item, err := c.marshalItem(doc, documentID, key, etag)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("create", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:                 aws.String(c.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := c.api.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, pkgerrors.NewConflictError("item already exists").WithCause(err)
		}
		return nil, pkgerrors.NewDatabaseError("create", err)
	}

	c.logger.Debug("Item created",
		zap.String("documentID", documentID),
		zap.String("partition", key.String()),
	)
	return withETag(doc, etag), nil
}

// ReadItem implements ports.ContainerClient
func (c *Container) ReadItem(ctx context.Context, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.primaryKey(documentID, key),
		ConsistentRead: aws.Bool(opts.ConsistentRead),
	}

	result, err := c.api.GetItem(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("read", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("item")
	}

	return c.unmarshalItem(result.Item)
}

// ReplaceItem implements ports.ContainerClient
func (c *Container) ReplaceItem(ctx context.Context, doc ports.Document, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	etag := uuid.New().String()
	item, err := c.marshalItem(doc, documentID, key, etag)
	if err != nil {
		return nil, err
	}

	condition := expression.AttributeExists(expression.Name(attrID))
	if opts.IfMatch != "" {
		condition = condition.And(expression.Name(attrETag).Equal(expression.Value(opts.IfMatch)))
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("replace", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:                 aws.String(c.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := c.api.PutItem(ctx, input); err != nil {
		return nil, c.mutationFailure("replace", err, opts)
	}

	return withETag(doc, etag), nil
}

// DeleteItem implements ports.ContainerClient
func (c *Container) DeleteItem(ctx context.Context, documentID string, key partition.Key, opts ports.RequestOptions) error {
	condition := expression.AttributeExists(expression.Name(attrID))
	if opts.IfMatch != "" {
		condition = condition.And(expression.Name(attrETag).Equal(expression.Value(opts.IfMatch)))
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("delete", err)
	}

	input := &dynamodb.DeleteItemInput{
		TableName:                 aws.String(c.tableName),
		Key:                       c.primaryKey(documentID, key),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := c.api.DeleteItem(ctx, input); err != nil {
		return c.mutationFailure("delete", err, opts)
	}
	return nil
}

// QueryItems implements ports.ContainerClient, following pagination to
// exhaustion
func (c *Container) QueryItems(ctx context.Context, key partition.Key, opts ports.RequestOptions) ([]ports.Document, error) {
	keyCondition := expression.Key(attrPartition).Equal(expression.Value(key.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query", err)
	}

	var docs []ports.Document
	var startKey map[string]types.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(c.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		}

		result, err := c.api.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query", err)
		}

		for _, item := range result.Items {
			doc, err := c.unmarshalItem(item)
			if err != nil {
				c.logger.Warn("Failed to unmarshal queried item", zap.Error(err))
				continue
			}
			docs = append(docs, doc)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return docs, nil
}

// primaryKey builds the table key for a point operation
func (c *Container) primaryKey(documentID string, key partition.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartition: &types.AttributeValueMemberS{Value: key.String()},
		attrID:        &types.AttributeValueMemberS{Value: documentID},
	}
}

// marshalItem converts a document into a table item carrying the partition
// attribute and the rotated concurrency tag
func (c *Container) marshalItem(doc ports.Document, documentID string, key partition.Key, etag string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]interface{}(doc))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal", err)
	}
	item[attrPartition] = &types.AttributeValueMemberS{Value: key.String()}
	item[attrID] = &types.AttributeValueMemberS{Value: documentID}
	item[attrETag] = &types.AttributeValueMemberS{Value: etag}
	return item, nil
}

// unmarshalItem converts a table item back into a document, dropping the
// physical partition attribute
func (c *Container) unmarshalItem(item map[string]types.AttributeValue) (ports.Document, error) {
	var doc map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal", err)
	}
	delete(doc, attrPartition)
	return ports.Document(doc), nil
}

// withETag returns a copy of the document carrying the new concurrency tag
func withETag(doc ports.Document, etag string) ports.Document {
	out := make(ports.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[ports.FieldETag] = etag
	return out
}

// mutationFailure translates a failed conditional write. DynamoDB does not
// report which clause of the condition failed, so an IfMatch request maps
// to a precondition failure and an unconditional one to not-found.
func (c *Container) mutationFailure(operation string, err error, opts ports.RequestOptions) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		if opts.IfMatch != "" {
			return pkgerrors.NewPreconditionFailedError("etag mismatch").WithCause(err)
		}
		return pkgerrors.NewNotFoundError("item").WithCause(err)
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
