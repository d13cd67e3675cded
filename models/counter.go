package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter is a per-key monotonic sequence document.
// One document exists per calendar year, keyed "ticket_<year>".
type Counter struct {
	ID  string `bson:"id" json:"id"`
	Seq int64  `bson:"seq" json:"seq"`
}

// NextTicketID atomically increments the current year's counter and returns
// a ticket id of the form REQ-<year>-<6-digit-seq>. The increment and read
// happen in a single FindOneAndUpdate with upsert, so concurrent callers
// never see the same sequence number.
func NextTicketID(ctx context.Context, collection *mongo.Collection) (string, error) {
	year := time.Now().Year()
	key := fmt.Sprintf("ticket_%d", year)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter Counter
	err := collection.FindOneAndUpdate(
		ctx,
		bson.M{"id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("REQ-%d-%06d", year, counter.Seq), nil
}
