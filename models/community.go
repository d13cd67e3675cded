package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProjectStatus enum
type ProjectStatus string

const (
	Planning         ProjectStatus = "Planning"
	Active           ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
	Cancelled        ProjectStatus = "Cancelled"
)

func ValidProjectStatus(s string) bool {
	switch ProjectStatus(s) {
	case Planning, Active, ProjectCompleted, Cancelled:
		return true
	}
	return false
}

// CommunityProject is a citizen-organized cleanup initiative.
// The organizer is always a participant and cannot leave.
type CommunityProject struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Ward          string               `bson:"ward" json:"ward"`
	Location      GeoLocation          `bson:"location" json:"location"`
	WasteType     WasteType            `bson:"wasteType" json:"wasteType"`
	Organizer     primitive.ObjectID   `bson:"organizer" json:"organizer"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"`
	Status        ProjectStatus        `bson:"status" json:"status"`
	TargetDate    *time.Time           `bson:"targetDate,omitempty" json:"targetDate,omitempty"`
	CompletedDate *time.Time           `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	Photos        []Photo              `bson:"photos" json:"photos"`
	Notes         []Note               `bson:"notes" json:"notes"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether the given user is a current participant
func (p *CommunityProject) HasParticipant(id primitive.ObjectID) bool {
	for _, participant := range p.Participants {
		if participant == id {
			return true
		}
	}
	return false
}

// EnsureProjectIndexes creates the ward/status and geo indexes
func EnsureProjectIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ward", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
