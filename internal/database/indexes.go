package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	serialIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "baseSpecs.serialNumber", Value: 1}},
		Options: options.Index().
			SetName("serial_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"baseSpecs.serialNumber": bson.M{"$exists": true},
			}),
	}

	nameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("name_index"),
	}

	log.Debug().Msg("EnsureProductIndexes: creating product indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{serialIndex, nameIndex})
	if err != nil {
		log.Warn().Err(err).Msg("EnsureProductIndexes: index error")
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	trackingIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "trackingId", Value: 1}},
		Options: options.Index().
			SetName("trackingId_unique").
			SetUnique(true),
	}

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	log.Debug().Msg("EnsureOrderIndexes: creating order indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{trackingIndex, userIndex})
	if err != nil {
		log.Warn().Err(err).Msg("EnsureOrderIndexes: index error")
		return err
	}
	return nil
}

// EnsureShipmentIndexes keeps shipments one-to-one with orders via a unique
// index on the order reference.
func EnsureShipmentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("shipments").Indexes()

	orderIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("orderId_unique").
			SetUnique(true),
	}

	log.Debug().Msg("EnsureShipmentIndexes: creating orderId_unique index")
	_, err := indexes.CreateOne(ctx, orderIndex)
	if err != nil {
		log.Warn().Err(err).Msg("EnsureShipmentIndexes: index error")
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"email": bson.M{"$exists": true, "$gt": ""},
			}),
	}

	phoneIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().
			SetName("phone_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"phone": bson.M{"$exists": true, "$gt": ""},
			}),
	}

	log.Debug().Msg("EnsureUserIndexes: creating user indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{emailIndex, phoneIndex})
	if err != nil {
		log.Warn().Err(err).Msg("EnsureUserIndexes: index error")
		return err
	}
	return nil
}
