// Package dynamo implements domain.SubscriptionStore on a single DynamoDB
// table. Subscriber profiles and their locations share a partition:
//
//	PK = SUBSCRIBER#<email>
//	SK = PROFILE                       (one per subscriber)
//	SK = CITY#US#<STATE>#<CITY>        (one per saved location)
//
// State and city are uppercased in the sort key, so a location is identified
// case-insensitively while the item keeps the casing the subscriber typed.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
)

const profileSK = "PROFILE"

// Store is a DynamoDB-backed subscription store.
type Store struct {
	client *dynamodb.Client
	table  string
	logger *slog.Logger
}

// NewStore creates a Store on the given table.
func NewStore(client *dynamodb.Client, table string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		table:  table,
		logger: logger,
	}
}

func subscriberPK(email string) string {
	return "SUBSCRIBER#" + email
}

func citySK(city, state string) string {
	return "CITY#" + domain.DefaultCountry + "#" + domain.NormalizeKeyPart(state) + "#" + domain.NormalizeKeyPart(city)
}

type profileRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Email     string `dynamodbav:"Email"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

type subscriptionRecord struct {
	PK        string  `dynamodbav:"PK"`
	SK        string  `dynamodbav:"SK"`
	Email     string  `dynamodbav:"Email"`
	City      string  `dynamodbav:"City"`
	State     string  `dynamodbav:"State"`
	Country   string  `dynamodbav:"Country"`
	Lat       float64 `dynamodbav:"Lat"`
	Lon       float64 `dynamodbav:"Lon"`
	CreatedAt string  `dynamodbav:"CreatedAt"`
}

// SubscriberExists reports whether the profile item is present.
func (s *Store) SubscriberExists(ctx context.Context, email string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: subscriberPK(email)},
			"SK": &types.AttributeValueMemberS{Value: profileSK},
		},
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, fmt.Errorf("get subscriber profile: %w", err)
	}
	return len(out.Item) > 0, nil
}

// CreateSubscriber writes the profile item with a conditional put. Losing the
// creation race to a concurrent writer is reported as success, so the original
// CreatedAt is never overwritten.
func (s *Store) CreateSubscriber(ctx context.Context, email string) error {
	item, err := attributevalue.MarshalMap(profileRecord{
		PK:        subscriberPK(email),
		SK:        profileSK,
		Email:     email,
		CreatedAt: domain.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal subscriber profile: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.logger.Debug("subscriber profile already exists", "email", email)
			return nil
		}
		return fmt.Errorf("create subscriber profile: %w", err)
	}
	return nil
}

// UpsertSubscription writes the location item, silently replacing an existing
// one with the same normalized key.
func (s *Store) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = domain.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(subscriptionRecord{
		PK:        subscriberPK(sub.Email),
		SK:        citySK(sub.City, sub.State),
		Email:     sub.Email,
		City:      sub.City,
		State:     sub.State,
		Country:   sub.Country,
		Lat:       sub.Lat,
		Lon:       sub.Lon,
		CreatedAt: createdAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes the location item; deleting an absent item is a
// no-op in DynamoDB, matching the store contract.
func (s *Store) DeleteSubscription(ctx context.Context, email, city, state string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: subscriberPK(email)},
			"SK": &types.AttributeValueMemberS{Value: citySK(city, state)},
		},
	})
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// ListSubscriptions queries the subscriber's partition for location items.
// Results come back in sort-key order: state, then city.
func (s *Store) ListSubscriptions(ctx context.Context, email string) ([]domain.Subscription, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: subscriberPK(email)},
			":prefix": &types.AttributeValueMemberS{Value: "CITY#"},
		},
	})

	var subs []domain.Subscription
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query subscriptions: %w", err)
		}

		for _, item := range page.Items {
			var rec subscriptionRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal subscription: %w", err)
			}
			subs = append(subs, rec.toDomain())
		}
	}
	return subs, nil
}

// ListSubscribers scans for profile items and returns their emails. The scan
// runs once per digest cycle, so a table-wide pass is acceptable here.
func (s *Store) ListSubscribers(ctx context.Context) ([]string, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("SK = :profile"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":profile": &types.AttributeValueMemberS{Value: profileSK},
		},
	})

	var emails []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan subscribers: %w", err)
		}

		for _, item := range page.Items {
			var rec profileRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal subscriber profile: %w", err)
			}
			emails = append(emails, rec.Email)
		}
	}
	return emails, nil
}

func (r subscriptionRecord) toDomain() domain.Subscription {
	sub := domain.Subscription{
		Email:   r.Email,
		City:    r.City,
		State:   r.State,
		Country: r.Country,
		Lat:     r.Lat,
		Lon:     r.Lon,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		sub.CreatedAt = t
	}
	return sub
}
