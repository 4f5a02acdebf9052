package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quillpost/blog-api/internal/core/domain"
)

const collectionOTP = "otp"

type OTPRepository struct {
	col *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{col: db.Collection(collectionOTP)}
}

type otpDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Code      string    `bson:"otp"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *OTPRepository) Create(ctx context.Context, rec *domain.OTPRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := otpDocument{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    rec.UserID,
		Code:      rec.Code,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	rec.ID = doc.ID
	return nil
}

func (r *OTPRepository) FindMatch(ctx context.Context, userID, code string) (*domain.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc otpDocument
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "otp": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	return &domain.OTPRecord{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Code:      doc.Code,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (r *OTPRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete otp: %w", err)
	}
	return res.DeletedCount, nil
}
