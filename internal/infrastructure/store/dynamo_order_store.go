package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/config"
	"github.com/example/commerce-policy/internal/domain/order"
)

// CustomerIndex is the GSI on customer_id used by ListByCustomer.
const CustomerIndex = "customer_id-index"

// maxUpdateAttempts bounds the read-mutate-write retries in Update.
const maxUpdateAttempts = 5

// DynamoAPI is the subset of the DynamoDB client used by DynamoOrderStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoOrderStore stores orders in DynamoDB, one item per order.
// Every write is conditional on the version read, so concurrent transitions
// on one order never both commit. Item changes reach the notifier through the
// table's Kinesis stream.
type DynamoOrderStore struct {
	client    DynamoAPI
	tableName string
}

// dynamoOrder represents the DynamoDB item structure
type dynamoOrder struct {
	OrderID       string `dynamodbav:"order_id"`
	Number        string `dynamodbav:"number"`
	CustomerID    string `dynamodbav:"customer_id"`
	CustomerEmail string `dynamodbav:"customer_email"`
	Items         string `dynamodbav:"items"`
	Totals        string `dynamodbav:"totals"`
	PromoCode     string `dynamodbav:"promo_code"`
	Status        string `dynamodbav:"status"`
	History       string `dynamodbav:"history"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
	Version       int    `dynamodbav:"version"`
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain. A non-empty Endpoint points it at DynamoDB Local or LocalStack.
func NewDynamoClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func NewDynamoOrderStore(client DynamoAPI, tableName string) *DynamoOrderStore {
	return &DynamoOrderStore{client: client, tableName: tableName}
}

func (s *DynamoOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if result.Item == nil {
		return nil, apperr.NewNotFoundError("order", id)
	}

	var item dynamoOrder
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return item.toOrder()
}

// Save writes a new order (Version 0) or replaces one whose stored version
// still equals o.Version.
func (s *DynamoOrderStore) Save(ctx context.Context, o *order.Order) error {
	if err := s.put(ctx, o); err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *DynamoOrderStore) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	orders := make([]*order.Order, 0)
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(CustomerIndex),
			KeyConditionExpression: aws.String("customer_id = :cid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cid": &types.AttributeValueMemberS{Value: customerID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query orders: %w", err)
		}
		for _, av := range result.Items {
			var item dynamoOrder
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal order: %w", err)
			}
			o, err := item.toOrder()
			if err != nil {
				return nil, err
			}
			orders = append(orders, o)
		}
		if len(result.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

// Update re-reads and re-applies mutate when a concurrent writer wins the
// conditional put, so mutate always decides against the latest state.
func (s *DynamoOrderStore) Update(ctx context.Context, id string, mutate func(o *order.Order) error) (*order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		o, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(o); err != nil {
			return nil, err
		}
		err = s.put(ctx, o)
		if err == nil {
			o.Version++
			return o, nil
		}
		if _, ok := apperr.IsConflictError(err); !ok {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *DynamoOrderStore) put(ctx context.Context, o *order.Order) error {
	item, err := newDynamoOrder(o)
	if err != nil {
		return err
	}
	item.Version = o.Version + 1

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}
	if o.Version == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(order_id)")
	} else {
		input.ConditionExpression = aws.String("version = :expected")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", o.Version)},
		}
	}

	_, err = s.client.PutItem(ctx, input)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return apperr.NewConflictError("order", o.ID, o.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to put order: %w", err)
	}
	return nil
}

func newDynamoOrder(o *order.Order) (*dynamoOrder, error) {
	items, totals, history, err := encodeOrder(o)
	if err != nil {
		return nil, err
	}
	return &dynamoOrder{
		OrderID:       o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		CustomerEmail: o.CustomerEmail,
		Items:         string(items),
		Totals:        string(totals),
		PromoCode:     o.PromoCode,
		Status:        string(o.Status),
		History:       string(history),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     o.UpdatedAt.Format(time.RFC3339Nano),
		Version:       o.Version,
	}, nil
}

func (d *dynamoOrder) toOrder() (*order.Order, error) {
	o := &order.Order{
		ID:            d.OrderID,
		Number:        d.Number,
		CustomerID:    d.CustomerID,
		CustomerEmail: d.CustomerEmail,
		PromoCode:     d.PromoCode,
		Status:        order.Status(d.Status),
		Version:       d.Version,
	}
	if err := json.Unmarshal([]byte(d.Items), &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if err := json.Unmarshal([]byte(d.Totals), &o.Totals); err != nil {
		return nil, fmt.Errorf("decoding totals: %w", err)
	}
	if d.History != "" {
		if err := json.Unmarshal([]byte(d.History), &o.History); err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
	}
	var err error
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, d.CreatedAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return o, nil
}
