package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"limpopo-ai/internal/domain"
)

const (
	pkPrefixBusiness = "BUSINESS#"
	skPrefixDesc     = "DESC#"
	defaultListLimit = 10
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores generated business descriptions in a single DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func businessPK(slug string) string {
	return pkPrefixBusiness + slug
}

func descSK(ts time.Time) string {
	return skPrefixDesc + ts.UTC().Format(time.RFC3339Nano)
}

// SaveDescription writes a new description record. Records are never overwritten.
func (c *Client) SaveDescription(ctx context.Context, d domain.Description) error {
	if d.BusinessSlug == "" {
		return errors.New("repository: SaveDescription: business slug is required")
	}
	if d.ID == "" {
		return errors.New("repository: SaveDescription: id is required")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                descriptionItem(d),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveDescription: %w", err)
	}
	return nil
}

// ListDescriptions returns up to limit descriptions for a business, newest first.
func (c *Client) ListDescriptions(ctx context.Context, slug string, limit int) ([]domain.Description, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, errors.New("repository: ListDescriptions: business slug is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: businessPK(slug)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixDesc},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListDescriptions query: %w", err)
	}

	descs := make([]domain.Description, 0, len(out.Items))
	for _, item := range out.Items {
		d, err := itemToDescription(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListDescriptions unmarshal: %w", err)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func descriptionItem(d domain.Description) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: businessPK(d.BusinessSlug)},
		"SK":           &types.AttributeValueMemberS{Value: descSK(d.CreatedAt)},
		"id":           &types.AttributeValueMemberS{Value: d.ID},
		"businessName": &types.AttributeValueMemberS{Value: d.BusinessName},
		"businessType": &types.AttributeValueMemberS{Value: d.BusinessType},
		"location":     &types.AttributeValueMemberS{Value: d.Location},
		"text":         &types.AttributeValueMemberS{Value: d.Text},
		"model":        &types.AttributeValueMemberS{Value: d.Model},
		"createdAt":    &types.AttributeValueMemberS{Value: d.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

func itemToDescription(item map[string]types.AttributeValue) (domain.Description, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Description{}, err
	}
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.Description{}, err
	}
	text, err := strAttr(item, "text")
	if err != nil {
		return domain.Description{}, err
	}
	created, err := strAttr(item, "createdAt")
	if err != nil {
		return domain.Description{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.Description{}, fmt.Errorf("repository: parse attribute %q: %w", "createdAt", err)
	}
	name, _ := strAttr(item, "businessName") // optional
	kind, _ := strAttr(item, "businessType") // optional
	location, _ := strAttr(item, "location") // optional
	model, _ := strAttr(item, "model")       // optional

	return domain.Description{
		ID:           id,
		BusinessSlug: strings.TrimPrefix(pk, pkPrefixBusiness),
		BusinessName: name,
		BusinessType: kind,
		Location:     location,
		Text:         text,
		Model:        model,
		CreatedAt:    createdAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
