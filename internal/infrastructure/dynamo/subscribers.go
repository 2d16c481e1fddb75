package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-newsletter-signup/internal/domain"
)

// SubscriberRepo provides typed DynamoDB operations for the subscribers table.
// PK: email (normalized).
type SubscriberRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewSubscriberRepo(client API, tableName string) *SubscriberRepo {
	return &SubscriberRepo{client: client, tableName: tableName, now: time.Now}
}

func (r *SubscriberRepo) Find(ctx context.Context, email string) (*domain.Subscriber, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(partitionKey, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, unavailable(err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("subscriber not found: %w", domain.ErrNotFound)
	}
	var s domain.Subscriber
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, fmt.Errorf("unmarshal subscriber: %w", err)
	}
	return &s, nil
}

// Insert writes a new subscriber. The conditional put fails with
// domain.ErrDuplicateKey when the email is already present.
func (r *SubscriberRepo) Insert(ctx context.Context, s *domain.Subscriber) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subscriber: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String(condKeyAbsent),
		ExpressionAttributeNames: map[string]string{pkPlaceholder: partitionKey},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("subscriber %s: %w", s.Email, domain.ErrDuplicateKey)
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// UpdateFields applies a partial update and stamps updated_at. It returns the
// number of matched records (0 or 1); a missing record is not an error.
func (r *SubscriberRepo) UpdateFields(ctx context.Context, email string, fields domain.Fields) (int64, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates[domain.FieldUpdatedAt] = r.now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return 0, err
	}
	ue.Names[pkPlaceholder] = partitionKey
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(partitionKey, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(condKeyPresent),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err)
	}
	return 1, nil
}

// MarkValidated performs the one-way validation transition in a single
// conditional write. Returns false if the record is missing or already validated.
func (r *SubscriberRepo) MarkValidated(ctx context.Context, email string, at time.Time) (bool, error) {
	atAV, err := attributevalue.Marshal(at)
	if err != nil {
		return false, fmt.Errorf("marshal validation date: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(partitionKey, email),
		UpdateExpression:    aws.String("SET #validated = :true, #vdate = :at, #updated = :at REMOVE #token, #tokenAt"),
		ConditionExpression: aws.String(condStillPending),
		ExpressionAttributeNames: map[string]string{
			pkPlaceholder: partitionKey,
			"#validated":  domain.FieldEmailValidated,
			"#vdate":      domain.FieldValidationDate,
			"#updated":    domain.FieldUpdatedAt,
			"#token":      domain.FieldValidationToken,
			"#tokenAt":    domain.FieldTokenCreatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":at":    atAV,
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(err)
	}
	return true, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(partitionKey, email),
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Scan reads every subscriber, following pagination to the end.
func (r *SubscriberRepo) Scan(ctx context.Context) ([]domain.Subscriber, error) {
	var subs []domain.Subscriber
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(true),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, unavailable(err)
		}
		var page []domain.Subscriber
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal subscribers: %w", err)
		}
		subs = append(subs, page...)
	}
	return subs, nil
}

// Ping checks that the table is reachable.
func (r *SubscriberRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}
