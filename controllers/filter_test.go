package controllers

import (
	"testing"
	"time"

	"desludge-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildRequestFilterCitizenScoped(t *testing.T) {
	citizenID := primitive.NewObjectID()
	actor := Actor{ID: citizenID, Role: models.RoleCitizen}

	// a citizen cannot widen visibility with filters
	filter := buildRequestFilter(actor, requestListQuery{Ward: "Ward 7", Status: "Completed"})

	if filter["citizen"] != citizenID {
		t.Errorf("Expected citizen filter %v, got %v", citizenID, filter["citizen"])
	}
	if filter["ward"] != "Ward 7" {
		t.Errorf("Expected ward filter to pass through, got %v", filter["ward"])
	}
	if filter["status"] != "Completed" {
		t.Errorf("Expected status filter to pass through, got %v", filter["status"])
	}
}

func TestBuildRequestFilterWardAdminPinnedToWard(t *testing.T) {
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleWardAdmin, Ward: "Ward 3"}

	// a ward admin asking for another ward still only sees their own
	filter := buildRequestFilter(actor, requestListQuery{Ward: "Ward 9"})

	if filter["ward"] != "Ward 3" {
		t.Errorf("Expected ward admin pinned to Ward 3, got %v", filter["ward"])
	}
	if _, exists := filter["citizen"]; exists {
		t.Error("Ward admin filter should not be citizen-scoped")
	}
}

func TestBuildRequestFilterSuperAdminUnrestricted(t *testing.T) {
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}

	filter := buildRequestFilter(actor, requestListQuery{Ward: "Ward 9", Assigned: "true"})

	if filter["ward"] != "Ward 9" {
		t.Errorf("Expected supplied ward filter, got %v", filter["ward"])
	}
	if _, exists := filter["citizen"]; exists {
		t.Error("Super admin filter should not be citizen-scoped")
	}
	assigned, ok := filter["assignedOperator"].(bson.M)
	if !ok || assigned["$exists"] != true {
		t.Errorf("Expected assignedOperator existence filter, got %v", filter["assignedOperator"])
	}
}

func TestBuildRequestFilterDateRange(t *testing.T) {
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}

	filter := buildRequestFilter(actor, requestListQuery{
		StartDate: "2024-01-01",
		EndDate:   "2024-06-30",
	})

	createdAt, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatalf("Expected createdAt range filter, got %v", filter["createdAt"])
	}

	start := createdAt["$gte"].(time.Time)
	end := createdAt["$lte"].(time.Time)
	if !start.Before(end) {
		t.Errorf("Expected start %v before end %v", start, end)
	}
}

func TestAnalyticsMatchWardAdminOverridesSuppliedWard(t *testing.T) {
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleWardAdmin, Ward: "Ward 5"}

	match := analyticsMatch(actor, "Ward 1", "", "")
	if match["ward"] != "Ward 5" {
		t.Errorf("Expected analytics scoped to Ward 5, got %v", match["ward"])
	}

	super := Actor{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	match = analyticsMatch(super, "Ward 1", "", "")
	if match["ward"] != "Ward 1" {
		t.Errorf("Expected supplied ward for super admin, got %v", match["ward"])
	}
}

func TestSLABreachFilter(t *testing.T) {
	now := time.Now()
	filter := slaBreachFilter(bson.M{"ward": "Ward 2"}, now)

	if filter["ward"] != "Ward 2" {
		t.Errorf("Expected ward carried into SLA filter, got %v", filter["ward"])
	}

	status, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("Expected status filter, got %v", filter["status"])
	}
	nin := status["$nin"].([]string)
	if len(nin) != 2 || nin[0] != "Completed" || nin[1] != "Rejected" {
		t.Errorf("Expected terminal statuses excluded, got %v", nin)
	}

	createdAt, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatalf("Expected createdAt filter, got %v", filter["createdAt"])
	}
	cutoff := createdAt["$lt"].(time.Time)
	if got := now.Sub(cutoff); got != 24*time.Hour {
		t.Errorf("Expected 24h cutoff, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := parseDate("2024-03-15"); !ok {
		t.Error("Expected plain date to parse")
	}
	if _, ok := parseDate("2024-03-15T10:30:00Z"); !ok {
		t.Error("Expected RFC3339 timestamp to parse")
	}
	if _, ok := parseDate("not-a-date"); ok {
		t.Error("Expected garbage to fail parsing")
	}
}
