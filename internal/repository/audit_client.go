package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"eip-explainer/internal/domain"
)

const (
	pkPrefixTopic = "TOPIC#"
	pkNoTopic     = "TOPIC#-"
	skPrefixEvent = "EVT#"
	maxTopicBytes = 128
	ttlDuration   = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by AuditClient.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// AuditClient appends transition records to a DynamoDB table. Records are
// never read back by the service; interaction state stays with the caller.
type AuditClient struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*AuditClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &AuditClient{api: api, tableName: tableName, now: time.Now}, nil
}

// topicPK groups records by topic; callbacks without a topic share one partition.
func topicPK(topicID string) string {
	if topicID == "" {
		return pkNoTopic
	}
	if len(topicID) > maxTopicBytes {
		cut := maxTopicBytes
		for cut > 0 && !utf8.RuneStart(topicID[cut]) {
			cut--
		}
		topicID = topicID[:cut]
	}
	return pkPrefixTopic + topicID
}

// eventSK orders records by time and keeps concurrent callbacks apart.
func eventSK(ts time.Time, correlationID string) string {
	return skPrefixEvent + ts.UTC().Format(time.RFC3339Nano) + "#" + correlationID
}

// NewTransitionRecord fills the keys and TTL for one callback.
func (c *AuditClient) NewTransitionRecord(correlationID, topicID string, from, to domain.Stage, outcome domain.Outcome, latency time.Duration) domain.TransitionRecord {
	now := c.now().UTC()
	return domain.TransitionRecord{
		PK:            topicPK(topicID),
		SK:            eventSK(now, correlationID),
		CorrelationID: correlationID,
		TopicID:       topicID,
		FromStage:     from,
		ToStage:       to,
		Outcome:       outcome,
		LatencyMillis: latency.Milliseconds(),
		OccurredAt:    now,
		TTL:           now.Add(ttlDuration).Unix(),
	}
}

// RecordTransition writes rec, refusing to overwrite an existing item.
func (c *AuditClient) RecordTransition(ctx context.Context, rec domain.TransitionRecord) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: RecordTransition: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                transitionItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordTransition: %w", err)
	}
	return nil
}

func transitionItem(rec domain.TransitionRecord) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: rec.PK},
		"SK":            &types.AttributeValueMemberS{Value: rec.SK},
		"correlationId": &types.AttributeValueMemberS{Value: rec.CorrelationID},
		"fromStage":     &types.AttributeValueMemberS{Value: string(rec.FromStage)},
		"toStage":       &types.AttributeValueMemberS{Value: string(rec.ToStage)},
		"outcome":       &types.AttributeValueMemberS{Value: string(rec.Outcome)},
		"latencyMs":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.LatencyMillis)},
		"occurredAt":    &types.AttributeValueMemberS{Value: rec.OccurredAt.Format(time.RFC3339Nano)},
		"ttl":           &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.TTL)},
	}
	if rec.TopicID != "" {
		item["topicId"] = &types.AttributeValueMemberS{Value: rec.TopicID}
	}
	return item
}
