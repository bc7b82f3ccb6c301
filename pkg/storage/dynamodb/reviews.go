package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// CreateReview stores a review. It fails with a conflict if the review ID exists.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	item, err := attributevalue.MarshalMap(review)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal review")
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Reviews),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(review_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperr.New(apperr.ErrConflict, "review %s already exists", review.ReviewId)
		}
		return storage.Unavailable(err, "failed to put review")
	}
	return nil
}

// GetReview retrieves a review by its ID.
func (s *Store) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	var review models.Review
	found, err := s.getItem(ctx, s.Tables.Reviews, itemKey(reviewKey, reviewID), "review", &review)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.ErrNotFound, "review %s not found", reviewID)
	}
	return &review, nil
}

// ListReviewsByReviewee returns every review targeting the user.
func (s *Store) ListReviewsByReviewee(ctx context.Context, userID string) ([]models.Review, error) {
	return s.listReviews(ctx, "reviewee_id", userID)
}

// ListReviewsByReviewer returns every review written by the user.
func (s *Store) ListReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error) {
	return s.listReviews(ctx, "reviewer_id", userID)
}

func (s *Store) listReviews(ctx context.Context, attr, userID string) ([]models.Review, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Reviews),
		IndexName:              aws.String(attr + "-index"),
		KeyConditionExpression: aws.String(attr + " = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": strAV(userID),
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to query reviews by %s", attr)
	}

	reviews := []models.Review{}
	if err := attributevalue.UnmarshalListOfMaps(items, &reviews); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal reviews")
	}
	return reviews, nil
}

// SetReviewApproval sets the moderation approval flag of a review.
func (s *Store) SetReviewApproval(ctx context.Context, reviewID string, approved bool) error {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return storage.Unavailable(err, "failed to marshal timestamp")
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Reviews),
		Key:                 itemKey(reviewKey, reviewID),
		UpdateExpression:    aws.String("SET is_approved = :approved, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(review_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":approved": boolAV(approved),
			":now":      now,
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperr.New(apperr.ErrNotFound, "review %s not found", reviewID)
		}
		return storage.Unavailable(err, "failed to update review approval")
	}
	return nil
}

// AddHelpfulVote records voterID's helpful vote on a review and returns the
// new total. Voters are kept in a string set on the review item.
func (s *Store) AddHelpfulVote(ctx context.Context, reviewID, voterID string) (int64, error) {
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Reviews),
		Key:                 itemKey(reviewKey, reviewID),
		UpdateExpression:    aws.String("ADD helpful_votes :one, helpful_voters :voters"),
		ConditionExpression: aws.String("attribute_exists(review_id) AND NOT contains(helpful_voters, :voter)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":    numAV(1),
			":voters": &types.AttributeValueMemberSS{Value: []string{voterID}},
			":voter":  strAV(voterID),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err == nil {
		return counterValue(result.Attributes, "helpful_votes")
	}
	if !isConditionFailed(err) {
		return 0, storage.Unavailable(err, "failed to add helpful vote")
	}

	if _, err := s.GetReview(ctx, reviewID); err != nil {
		return 0, err
	}
	return 0, apperr.New(apperr.ErrConflict, "user %s already marked review %s helpful", voterID, reviewID)
}
