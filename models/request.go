package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WasteType enum
type WasteType string

const (
	Sewage     WasteType = "sewage"
	Household  WasteType = "household"
	Industrial WasteType = "industrial"
	OtherWaste WasteType = "other"
)

// RequestStatus enum
type RequestStatus string

const (
	Open       RequestStatus = "Open"
	Assigned   RequestStatus = "Assigned"
	OnTheWay   RequestStatus = "On the Way"
	InProgress RequestStatus = "In Progress"
	Completed  RequestStatus = "Completed"
	Rejected   RequestStatus = "Rejected"
)

func ValidWasteType(s string) bool {
	switch WasteType(s) {
	case Sewage, Household, Industrial, OtherWaste:
		return true
	}
	return false
}

func ValidRequestStatus(s string) bool {
	switch RequestStatus(s) {
	case Open, Assigned, OnTheWay, InProgress, Completed, Rejected:
		return true
	}
	return false
}

// Photo is an uploaded image reference on the image host
type Photo struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
}

// GeoLocation is a GeoJSON point plus the free-text address
type GeoLocation struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
}

// Note is an append-only audit/progress entry
type Note struct {
	By        primitive.ObjectID `bson:"by,omitempty" json:"by,omitempty"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty"`
	Text      string             `bson:"text" json:"text"`
	Photos    []Photo            `bson:"photos,omitempty" json:"photos,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Feedback struct {
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Request represents a citizen's desludging service ticket
type Request struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TicketID          string              `bson:"ticketId" json:"ticketId"`
	Citizen           *primitive.ObjectID `bson:"citizen,omitempty" json:"citizen,omitempty"`
	FullName          string              `bson:"fullName,omitempty" json:"fullName,omitempty"`
	MobileNumber      string              `bson:"mobileNumber,omitempty" json:"mobileNumber,omitempty"`
	Ward              string              `bson:"ward,omitempty" json:"ward,omitempty"`
	Location          GeoLocation         `bson:"location" json:"location"`
	WasteType         WasteType           `bson:"wasteType" json:"wasteType"`
	PreferredTimeSlot string              `bson:"preferredTimeSlot,omitempty" json:"preferredTimeSlot,omitempty"`
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
	Photos            []Photo             `bson:"photos" json:"photos"`
	Status            RequestStatus       `bson:"status" json:"status"`
	AssignedOperator  *primitive.ObjectID `bson:"assignedOperator,omitempty" json:"assignedOperator,omitempty"`
	Notes             []Note              `bson:"notes" json:"notes"`
	Feedback          *Feedback           `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EnsureRequestIndexes creates the unique ticket index plus the query indexes
func EnsureRequestIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticketId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ward", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
