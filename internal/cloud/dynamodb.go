package cloud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

// SiteAlertsIndex is the GSI keyed by siteId with createdAt as sort key.
const SiteAlertsIndex = "siteId-createdAt-index"

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBClient keeps the alert log in a DynamoDB table. It satisfies
// repository.AlertStore so the API can run its alert feed off DynamoDB.
type DynamoDBClient struct {
	svc   dynamoAPI
	table string
}

func NewDynamoDBClient(ctx context.Context, region, table string) (*DynamoDBClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &DynamoDBClient{svc: dynamodb.NewFromConfig(cfg), table: table}, nil
}

var _ repository.AlertStore = (*DynamoDBClient)(nil)

type alertItem struct {
	AlertID   string `dynamodbav:"alertId"`
	SiteID    int64  `dynamodbav:"siteId"`
	Severity  string `dynamodbav:"severity"`
	Category  string `dynamodbav:"category"`
	Message   string `dynamodbav:"message"`
	Resolved  bool   `dynamodbav:"resolved"`
	CreatedAt int64  `dynamodbav:"createdAt"`
}

func toItem(a *domain.Alert) alertItem {
	return alertItem{
		AlertID:   a.ID,
		SiteID:    a.SiteID,
		Severity:  string(a.Severity),
		Category:  string(a.Category),
		Message:   a.Message,
		Resolved:  a.Resolved,
		CreatedAt: a.CreatedAt.UnixMilli(),
	}
}

func (i alertItem) toAlert() domain.Alert {
	return domain.Alert{
		ID:        i.AlertID,
		SiteID:    i.SiteID,
		Severity:  domain.Severity(i.Severity),
		Category:  domain.Category(i.Category),
		Message:   i.Message,
		Resolved:  i.Resolved,
		CreatedAt: time.UnixMilli(i.CreatedAt).UTC(),
	}
}

func (c *DynamoDBClient) CreateAlert(ctx context.Context, a *domain.Alert) error {
	item, err := attributevalue.MarshalMap(toItem(a))
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(alertId)"),
	})
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// ListAlerts queries the site index when a site is given and scans the table
// otherwise. Results are newest first.
func (c *DynamoDBClient) ListAlerts(ctx context.Context, q repository.AlertQuery) ([]domain.Alert, error) {
	var items []alertItem
	if q.SiteID != 0 {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(c.table),
			IndexName:              aws.String(SiteAlertsIndex),
			KeyConditionExpression: aws.String("siteId = :sid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sid": &types.AttributeValueMemberN{Value: strconv.FormatInt(q.SiteID, 10)},
			},
			ScanIndexForward: aws.Bool(false),
		}
		if !q.IncludeResolved {
			in.FilterExpression = aws.String("resolved = :open")
			in.ExpressionAttributeValues[":open"] = &types.AttributeValueMemberBOOL{Value: false}
		}
		p := dynamodb.NewQueryPaginator(c.svc, in)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to query alerts: %w", err)
			}
			var batch []alertItem
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
			}
			items = append(items, batch...)
		}
	} else {
		in := &dynamodb.ScanInput{TableName: aws.String(c.table)}
		if !q.IncludeResolved {
			in.FilterExpression = aws.String("resolved = :open")
			in.ExpressionAttributeValues = map[string]types.AttributeValue{
				":open": &types.AttributeValueMemberBOOL{Value: false},
			}
		}
		p := dynamodb.NewScanPaginator(c.svc, in)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to scan alerts: %w", err)
			}
			var batch []alertItem
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
			}
			items = append(items, batch...)
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	out := make([]domain.Alert, len(items))
	for i, it := range items {
		out[i] = it.toAlert()
	}
	return out, nil
}

func (c *DynamoDBClient) ResolveAlert(ctx context.Context, id string) (*domain.Alert, error) {
	res, err := c.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"alertId": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET resolved = :yes"),
		ConditionExpression: aws.String("attribute_exists(alertId)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":yes": &types.AttributeValueMemberBOOL{Value: true},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	var item alertItem
	if err := attributevalue.UnmarshalMap(res.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}
	a := item.toAlert()
	return &a, nil
}
