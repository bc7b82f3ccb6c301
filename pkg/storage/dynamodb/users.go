package dynamodb

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// CreateUser stores a new profile. It fails with a conflict if the user exists.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return nil, storage.Unavailable(err, "failed to marshal user")
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Users),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, apperr.New(apperr.ErrConflict, "user %s already exists", user.UserId)
		}
		return nil, storage.Unavailable(err, "failed to put user")
	}

	return user, nil
}

// GetUser retrieves a profile by user ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	found, err := s.getItem(ctx, s.Tables.Users, itemKey(userKey, userID), "user", &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.ErrNotFound, "user %s not found", userID)
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of upd and returns the updated profile.
func (s *Store) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	sets := []string{"updated_at = :updated_at"}
	values := map[string]types.AttributeValue{}

	updatedAt, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return nil, storage.Unavailable(err, "failed to marshal timestamp")
	}
	values[":updated_at"] = updatedAt

	names := map[string]string{}
	field := func(attr string, v *string) {
		if v == nil {
			return
		}
		names["#"+attr] = attr
		sets = append(sets, "#"+attr+" = :"+attr)
		values[":"+attr] = strAV(*v)
	}
	field("name", upd.Name)
	field("location", upd.Location)
	field("profile_photo", upd.ProfilePhoto)
	field("availability", upd.Availability)
	if upd.ProfileVisibility != nil {
		v := string(*upd.ProfileVisibility)
		field("profile_visibility", &v)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Tables.Users),
		Key:                       itemKey(userKey, userID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			return nil, apperr.New(apperr.ErrNotFound, "user %s not found", userID)
		}
		return nil, storage.Unavailable(err, "failed to update user")
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &user); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal user")
	}
	return &user, nil
}

// ListPublicUsers returns up to limit public profiles whose ban is not in
// effect. A ban past its banned_until no longer hides the user, which the
// scan filter cannot compare, so BanActive runs on each page.
func (s *Store) ListPublicUsers(ctx context.Context, limit int) ([]models.User, error) {
	users := []models.User{}
	if limit <= 0 {
		return users, nil
	}

	now := time.Now().UTC()
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.Tables.Users),
		FilterExpression: aws.String("profile_visibility = :public AND (is_banned = :false OR attribute_exists(banned_until))"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":public": strAV(string(models.VisibilityPublic)),
			":false":  boolAV(false),
		},
	}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, storage.Unavailable(err, "failed to scan users")
		}

		var page []models.User
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, storage.Unavailable(err, "failed to unmarshal users")
		}
		for i := range page {
			if !page[i].BanActive(now) {
				users = append(users, page[i])
			}
		}

		if len(users) >= limit || len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// SetRating stores an aggregate rating unless a rating computed at or after
// computedAt is already stored.
func (s *Store) SetRating(ctx context.Context, userID string, avg float64, count int, computedAt time.Time) error {
	avgAV, err := attributevalue.Marshal(avg)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal rating")
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Users),
		Key:                 itemKey(userKey, userID),
		UpdateExpression:    aws.String("SET rating_avg = :avg, rating_count = :count, rating_computed_at = :ts"),
		ConditionExpression: aws.String("attribute_exists(user_id) AND (attribute_not_exists(rating_computed_at) OR rating_computed_at < :ts)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":avg":   avgAV,
			":count": numAV(int64(count)),
			":ts":    numAV(computedAt.UnixNano()),
		},
	})
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return storage.Unavailable(err, "failed to set rating")
	}

	// Either the user is gone or a fresher rating already landed.
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return nil
}
