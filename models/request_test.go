package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidWasteType(t *testing.T) {
	for _, valid := range []string{"sewage", "household", "industrial", "other"} {
		if !ValidWasteType(valid) {
			t.Errorf("Expected %q to be a valid waste type", valid)
		}
	}
	for _, invalid := range []string{"", "Sewage", "nuclear"} {
		if ValidWasteType(invalid) {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestValidRequestStatus(t *testing.T) {
	for _, valid := range []string{"Open", "Assigned", "On the Way", "In Progress", "Completed", "Rejected"} {
		if !ValidRequestStatus(valid) {
			t.Errorf("Expected %q to be a valid status", valid)
		}
	}
	for _, invalid := range []string{"", "open", "Closed"} {
		if ValidRequestStatus(invalid) {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestValidProjectStatus(t *testing.T) {
	for _, valid := range []string{"Planning", "Active", "Completed", "Cancelled"} {
		if !ValidProjectStatus(valid) {
			t.Errorf("Expected %q to be a valid project status", valid)
		}
	}
	if ValidProjectStatus("Open") {
		t.Error("Expected request-only status to be rejected for projects")
	}
}

func TestHasParticipant(t *testing.T) {
	organizer := primitive.NewObjectID()
	member := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	project := CommunityProject{
		Organizer:    organizer,
		Participants: []primitive.ObjectID{organizer, member},
	}

	if !project.HasParticipant(organizer) {
		t.Error("Expected organizer to be a participant")
	}
	if !project.HasParticipant(member) {
		t.Error("Expected member to be a participant")
	}
	if project.HasParticipant(outsider) {
		t.Error("Expected outsider not to be a participant")
	}
}
