package dynamostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrymomot/session/core/session"
)

const defaultTableName = "sessions"

const createRetries = 8

// batchDeleteSize is the DynamoDB BatchWriteItem request limit.
const batchDeleteSize = 25

// Client is the subset of the DynamoDB API the store depends on. It is
// satisfied by *dynamodb.Client.
type Client interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Store persists session records in a DynamoDB table keyed by the session ID.
// The expires_at attribute holds epoch seconds, so the table's native TTL can
// be pointed at it; since DynamoDB evicts lazily, reads filter by deadline
// and DeleteExpired sweeps explicitly.
type Store struct {
	client Client
	table  string
}

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides the "sessions" table name.
func WithTableName(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// New creates a DynamoDB-backed session store.
func New(client Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		table:  defaultTableName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) item(rec *session.Record) (map[string]types.AttributeValue, error) {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return nil, errors.Join(session.ErrEncode, err)
	}
	item := map[string]types.AttributeValue{
		"id":   &types.AttributeValueMemberS{Value: rec.ID.String()},
		"data": &types.AttributeValueMemberB{Value: data},
	}
	if !rec.ExpiresAt.IsZero() {
		item["expires_at"] = &types.AttributeValueMemberN{
			Value: strconv.FormatInt(rec.ExpiresAt.Unix(), 10),
		}
	}
	return item, nil
}

// Save upserts the record under its ID.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	item, err := s.item(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamostore: save: %w", err)
	}
	return nil
}

// Create writes the record only if its ID is vacant, regenerating the ID when
// the conditional write fails. The record's ID field reflects the ID actually
// used.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	for range createRetries {
		item, err := s.item(rec)
		if err != nil {
			return err
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				id, err := session.NewID()
				if err != nil {
					return err
				}
				rec.ID = id
				continue
			}
			return fmt.Errorf("dynamostore: create: %w", err)
		}
		return nil
	}
	return session.ErrIDCollision
}

// Load fetches the record for the given ID with a consistent read. Both a
// missing item and an expired one yield (nil, nil).
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: load: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	rec := session.Record{ID: id}

	if attr, ok := out.Item["expires_at"].(*types.AttributeValueMemberN); ok {
		secs, err := strconv.ParseInt(attr.Value, 10, 64)
		if err != nil {
			return nil, errors.Join(session.ErrDecode, err)
		}
		rec.ExpiresAt = time.Unix(secs, 0)
		if rec.Expired(time.Now()) {
			return nil, nil
		}
	}

	attr, ok := out.Item["data"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("%w: missing data attribute", session.ErrDecode)
	}
	if err := json.Unmarshal(attr.Value, &rec.Data); err != nil {
		return nil, errors.Join(session.ErrDecode, err)
	}
	return &rec, nil
}

// Delete removes the record. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(id),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: delete: %w", err)
	}
	return nil
}

// DeleteExpired scans for records whose deadline has passed and removes them
// in batches of 25, the BatchWriteItem limit.
func (s *Store) DeleteExpired(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.table),
			ProjectionExpression: aws.String("id"),
			FilterExpression:     aws.String("expires_at <= :now"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":now": &types.AttributeValueMemberN{Value: now},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("dynamostore: scan expired: %w", err)
		}

		for batch := range slices.Chunk(out.Items, batchDeleteSize) {
			requests := make([]types.WriteRequest, 0, len(batch))
			for _, item := range batch {
				requests = append(requests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: item},
				})
			}
			_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.table: requests},
			})
			if err != nil {
				return fmt.Errorf("dynamostore: batch delete: %w", err)
			}
		}

		startKey = out.LastEvaluatedKey
		if startKey == nil {
			return nil
		}
	}
}

func (s *Store) key(id session.ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id.String()},
	}
}
