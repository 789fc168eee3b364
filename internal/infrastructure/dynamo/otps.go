package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/selorg/ops-api/internal/domain"
)

const phoneCreatedAtIndex = "phone-created_at-index"

// OTPRepo provides typed DynamoDB operations for the otps table.
// PK: otp_id. GSI: phone-created_at-index for most-recent-first queries.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// FindCurrent returns the most recent record for phone that matches code
// exactly, is unused, and has not expired. Returns ErrNotFound when nothing
// matches.
func (r *OTPRepo) FindCurrent(ctx context.Context, phone, code string, now int64) (*domain.OTPRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(phoneCreatedAtIndex),
		KeyConditionExpression: aws.String("phone = :p"),
		// "code" collides with a DynamoDB reserved word, hence the alias.
		FilterExpression:         aws.String("#code = :c AND is_used = :f AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{"#code": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: phone},
			":c":   &types.AttributeValueMemberS{Value: code},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var rec domain.OTPRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent returns up to limit records for phone, newest first, regardless of
// state. Callers filter for unused-and-unexpired themselves.
func (r *OTPRepo) Recent(ctx context.Context, phone string, limit int32) ([]domain.OTPRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(phoneCreatedAtIndex),
		KeyConditionExpression: aws.String("phone = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: phone},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var recs []domain.OTPRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// MarkUsed flips is_used on the record, conditional on it still being unused.
// Returns false (and no error) when a concurrent verification got there
// first — the caller must treat that as a failed verification.
func (r *OTPRepo) MarkUsed(ctx context.Context, otpID string) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET is_used = :t"),
		ConditionExpression: aws.String("is_used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteUnused removes unused records for phone so a newly issued code
// supersedes them. Best effort: the delete and the subsequent insert are not
// transactional.
func (r *OTPRepo) DeleteUnused(ctx context.Context, phone string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(phoneCreatedAtIndex),
		KeyConditionExpression: aws.String("phone = :p"),
		FilterExpression:       aws.String("is_used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: phone},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		idAttr, ok := item["otp_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("otp_id", idAttr.Value),
		})
		if err != nil {
			slog.Warn("failed to delete superseded otp", "otp_id", idAttr.Value, "phone", phone, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
