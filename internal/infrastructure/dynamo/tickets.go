package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-ticket-auth/internal/domain"
)

// TicketRepo provides typed DynamoDB operations for the tickets table.
// The partition key is the SHA-256 hash of the ticket secret; the plaintext
// secret never reaches this layer.
type TicketRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTicketRepo(client *dynamodb.Client, tableName string) *TicketRepo {
	return &TicketRepo{client: client, tableName: tableName}
}

func (r *TicketRepo) Put(ctx context.Context, t *domain.Ticket) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put ticket: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

// Get looks up a ticket row by secret hash. The exact-match key lookup is the
// whole comparison; no byte-by-byte matching happens in application code.
func (r *TicketRepo) Get(ctx context.Context, secretHash string) (*domain.Ticket, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("secret_hash", secretHash),
	})
	if err != nil {
		return nil, fmt.Errorf("get ticket: %v: %w", err, domain.ErrStorage)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("ticket not found: %w", domain.ErrNotFound)
	}
	var t domain.Ticket
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
