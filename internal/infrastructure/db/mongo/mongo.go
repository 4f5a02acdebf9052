package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	otpExpiryIndex = "otp_expiry"
	// Name the server gave the expiry index before it was named explicitly.
	legacyOTPExpiryIndex = "created_at_1"
)

// Config selects the deployment and database holding users, posts and codes.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Connect opens a client, pings the primary and returns the configured database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the unique account indexes, the post listing indexes
// and the OTP lookup and expiry indexes. otpTTL <= 0 skips the expiry index.
func EnsureIndexes(ctx context.Context, db *mongo.Database, otpTTL time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndex)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
	}
	if _, err := db.Collection(collectionUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	posts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "title", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	}
	if _, err := db.Collection(collectionPosts).Indexes().CreateMany(ctx, posts); err != nil {
		return fmt.Errorf("blog post indexes: %w", err)
	}

	otp := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "otp", Value: 1}}},
	}
	missing, err := syncOTPExpiry(ctx, db, otpTTL)
	if err != nil {
		return err
	}
	if missing {
		otp = append(otp, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(otpTTL.Seconds())).SetName(otpExpiryIndex),
		})
	}
	if _, err := db.Collection(collectionOTP).Indexes().CreateMany(ctx, otp); err != nil {
		return fmt.Errorf("otp indexes: %w", err)
	}
	return nil
}

// syncOTPExpiry brings an existing expiry index in line with ttl and reports
// whether it still has to be created. createIndexes refuses to change the
// options of an existing index, so a new TTL is applied with collMod.
func syncOTPExpiry(ctx context.Context, db *mongo.Database, ttl time.Duration) (bool, error) {
	secs := int32(ttl.Seconds())
	indexes := db.Collection(collectionOTP).Indexes()

	specs, err := indexes.ListSpecifications(ctx)
	if err != nil {
		return false, fmt.Errorf("list otp indexes: %w", err)
	}
	for _, spec := range specs {
		if spec.Name != otpExpiryIndex && spec.Name != legacyOTPExpiryIndex {
			continue
		}
		if ttl <= 0 || spec.Name == legacyOTPExpiryIndex {
			if _, err := indexes.DropOne(ctx, spec.Name); err != nil {
				return false, fmt.Errorf("drop otp index %s: %w", spec.Name, err)
			}
			continue
		}
		if spec.ExpireAfterSeconds != nil && *spec.ExpireAfterSeconds == secs {
			return false, nil
		}
		cmd := bson.D{
			{Key: "collMod", Value: collectionOTP},
			{Key: "index", Value: bson.D{
				{Key: "name", Value: otpExpiryIndex},
				{Key: "expireAfterSeconds", Value: secs},
			}},
		}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return false, fmt.Errorf("update otp expiry: %w", err)
		}
		return false, nil
	}
	return ttl > 0, nil
}

// Ping runs the server ping command against db.
func Ping(ctx context.Context, db *mongo.Database) error {
	return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}
