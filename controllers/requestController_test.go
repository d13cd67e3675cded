package controllers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"desludge-be/config"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateRequestStampsTicketID(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	_, token := seedUser(t, "citizen-create", models.RoleCitizen, "Ward 1")

	form := url.Values{}
	form.Set("fullName", "Asha Rao")
	form.Set("mobileNumber", "9876543210")
	form.Set("ward", "Ward 1")
	form.Set("address", "14 Canal Road")
	form.Set("wasteType", "sewage")
	form.Set("description", "Septic tank overflowing")

	req := httptest.NewRequest(http.MethodPost, "/api/requests/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	year := time.Now().Year()
	body := w.Body.String()
	if !strings.Contains(body, "REQ-") {
		t.Fatalf("Expected ticket id in response, got %s", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stored models.Request
	if err := config.GetCollection("requests").FindOne(ctx, bson.M{"fullName": "Asha Rao"}).Decode(&stored); err != nil {
		t.Fatalf("Expected request persisted: %v", err)
	}

	wantPrefix := "REQ-" + time.Now().Format("2006") + "-"
	if !strings.HasPrefix(stored.TicketID, wantPrefix) {
		t.Errorf("Expected ticket id prefix %s for year %d, got %s", wantPrefix, year, stored.TicketID)
	}
	if stored.Status != models.Open {
		t.Errorf("Expected new request status Open, got %s", stored.Status)
	}
	if stored.WasteType != models.Sewage {
		t.Errorf("Expected waste type sewage, got %s", stored.WasteType)
	}
}

func TestCreateRequestRejectsInvalidWasteType(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	_, token := seedUser(t, "citizen-badwaste", models.RoleCitizen, "Ward 1")

	form := url.Values{}
	form.Set("wasteType", "nuclear")

	req := httptest.NewRequest(http.MethodPost, "/api/requests/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid waste type, got %d", w.Code)
	}
}

func TestCreateRequestRejectsTooManyPhotos(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	_, token := seedUser(t, "citizen-photos", models.RoleCitizen, "Ward 1")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("fullName", "Photo Heavy")
	writer.WriteField("ward", "Ward 1")
	writer.WriteField("wasteType", "sewage")
	for i := 0; i < 6; i++ {
		part, err := writer.CreateFormFile("photos", fmt.Sprintf("photo%d.jpg", i))
		if err != nil {
			t.Fatalf("Failed to build multipart form: %v", err)
		}
		part.Write([]byte("not-a-real-jpeg"))
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/requests/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for 6 photos, got %d: %s", w.Code, w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := config.GetCollection("requests").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("Failed to count requests: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no request persisted after rejection, got %d", count)
	}
}

func TestCreateRequestWithoutAuthLeavesCitizenEmpty(t *testing.T) {
	setupTestDB(t)

	// mounted without auth middleware for anonymous submission
	r := gin.New()
	r.POST("/api/requests/", CreateRequest)

	form := url.Values{}
	form.Set("fullName", "Walk In")
	form.Set("mobileNumber", "9000000000")
	form.Set("ward", "Ward 5")
	form.Set("wasteType", "household")

	req := httptest.NewRequest(http.MethodPost, "/api/requests/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 without auth, got %d: %s", w.Code, w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stored models.Request
	if err := config.GetCollection("requests").FindOne(ctx, bson.M{"fullName": "Walk In"}).Decode(&stored); err != nil {
		t.Fatalf("Expected request persisted: %v", err)
	}
	if stored.Citizen != nil {
		t.Errorf("Expected no citizen reference on anonymous request, got %s", stored.Citizen.Hex())
	}
}

func TestGetRequestsCitizenSeesOnlyOwn(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	aliceID, aliceToken := seedUser(t, "alice", models.RoleCitizen, "Ward 1")
	bobID, _ := seedUser(t, "bob", models.RoleCitizen, "Ward 1")

	seedRequest(t, models.Request{TicketID: "REQ-2024-000001", Citizen: &aliceID, Ward: "Ward 1"})
	seedRequest(t, models.Request{TicketID: "REQ-2024-000002", Citizen: &bobID, Ward: "Ward 1"})
	seedRequest(t, models.Request{TicketID: "REQ-2024-000003", Citizen: &bobID, Ward: "Ward 2"})

	code, body := doJSON(t, r, http.MethodGet, "/api/requests/", aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	if total := body["total"].(float64); total != 1 {
		t.Errorf("Expected citizen to see 1 request, got %v", total)
	}

	data := body["data"].([]interface{})
	for _, item := range data {
		ticket := item.(map[string]interface{})["ticketId"].(string)
		if ticket != "REQ-2024-000001" {
			t.Errorf("Citizen received a request belonging to another citizen: %s", ticket)
		}
	}
}

func TestGetRequestsWardAdminPinnedToWard(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, _ := seedUser(t, "carol", models.RoleCitizen, "Ward 1")
	_, adminToken := seedUser(t, "ward3admin", models.RoleWardAdmin, "Ward 3")

	seedRequest(t, models.Request{TicketID: "REQ-2024-000010", Citizen: &citizenID, Ward: "Ward 3"})
	seedRequest(t, models.Request{TicketID: "REQ-2024-000011", Citizen: &citizenID, Ward: "Ward 9"})

	// asking for Ward 9 must not escape the admin's own ward
	code, body := doJSON(t, r, http.MethodGet, "/api/requests/?ward=Ward+9", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}

	data := body["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("Expected 1 request in admin's ward, got %d", len(data))
	}
	if ward := data[0].(map[string]interface{})["ward"].(string); ward != "Ward 3" {
		t.Errorf("Ward admin received request outside their ward: %s", ward)
	}
}

func TestAssignOperatorSetsStatusAndNote(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, _ := seedUser(t, "dave", models.RoleCitizen, "Ward 2")
	operatorID, _ := seedUser(t, "op-eve", models.RoleOperator, "Ward 2")
	_, adminToken := seedUser(t, "superadmin", models.RoleSuperAdmin, "")

	request := seedRequest(t, models.Request{TicketID: "REQ-2024-000020", Citizen: &citizenID, Ward: "Ward 2"})

	code, body := doJSON(t, r, http.MethodPut, "/api/requests/"+request.ID.Hex()+"/assign", adminToken,
		map[string]string{"operatorId": operatorID.Hex()})
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, body)
	}

	updated := body["request"].(map[string]interface{})
	if updated["status"] != "Assigned" {
		t.Errorf("Expected status Assigned, got %v", updated["status"])
	}

	notes := updated["notes"].([]interface{})
	if len(notes) != 1 {
		t.Fatalf("Expected 1 audit note, got %d", len(notes))
	}
	text := notes[0].(map[string]interface{})["text"].(string)
	if !strings.Contains(text, operatorID.Hex()) {
		t.Errorf("Expected audit note to name the operator, got %q", text)
	}
}

func TestAssignOperatorForbiddenForOperator(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, _ := seedUser(t, "frank", models.RoleCitizen, "Ward 2")
	operatorID, operatorToken := seedUser(t, "op-grace", models.RoleOperator, "Ward 2")

	request := seedRequest(t, models.Request{TicketID: "REQ-2024-000021", Citizen: &citizenID, Ward: "Ward 2"})

	code, _ := doJSON(t, r, http.MethodPut, "/api/requests/"+request.ID.Hex()+"/assign", operatorToken,
		map[string]string{"operatorId": operatorID.Hex()})
	if code != http.StatusForbidden {
		t.Errorf("Expected 403 for operator calling assign, got %d", code)
	}
}

func TestUpdateStatusLastWriteWins(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, _ := seedUser(t, "henry", models.RoleCitizen, "Ward 2")
	_, opToken := seedUser(t, "op-iris", models.RoleOperator, "Ward 2")

	request := seedRequest(t, models.Request{TicketID: "REQ-2024-000030", Citizen: &citizenID, Ward: "Ward 2"})

	// no transition validation: Completed straight from Open, then back
	for _, status := range []string{"Completed", "On the Way"} {
		code, body := doJSON(t, r, http.MethodPut, "/api/requests/"+request.ID.Hex()+"/status", opToken,
			map[string]string{"status": status})
		if code != http.StatusOK {
			t.Fatalf("Expected 200 setting status %q, got %d: %v", status, code, body)
		}
		if got := body["request"].(map[string]interface{})["status"]; got != status {
			t.Errorf("Expected status %q, got %v", status, got)
		}
	}

	code, _ := doJSON(t, r, http.MethodPut, "/api/requests/"+request.ID.Hex()+"/status", opToken,
		map[string]string{"status": "Vanished"})
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", code)
	}
}

func TestAddFeedbackOnlyWhenCompleted(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, citizenToken := seedUser(t, "judy", models.RoleCitizen, "Ward 4")

	request := seedRequest(t, models.Request{TicketID: "REQ-2024-000040", Citizen: &citizenID, Ward: "Ward 4"})

	payload := map[string]interface{}{"rating": 4, "comment": "quick service"}

	code, _ := doJSON(t, r, http.MethodPost, "/api/requests/"+request.ID.Hex()+"/feedback", citizenToken, payload)
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 before completion, got %d", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := config.GetCollection("requests").UpdateOne(ctx,
		bson.M{"_id": request.ID},
		bson.M{"$set": bson.M{"status": models.Completed}})
	if err != nil {
		t.Fatalf("Failed to complete request: %v", err)
	}

	code, body := doJSON(t, r, http.MethodPost, "/api/requests/"+request.ID.Hex()+"/feedback", citizenToken, payload)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 after completion, got %d: %v", code, body)
	}

	feedback := body["request"].(map[string]interface{})["feedback"].(map[string]interface{})
	if rating := feedback["rating"].(float64); rating != 4 {
		t.Errorf("Expected rating 4 persisted, got %v", rating)
	}

	// feedback is write-once
	code, _ = doJSON(t, r, http.MethodPost, "/api/requests/"+request.ID.Hex()+"/feedback", citizenToken, payload)
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 on second feedback submission, got %d", code)
	}
}

func TestAddFeedbackRejectsOutOfRangeRating(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	citizenID, citizenToken := seedUser(t, "kate", models.RoleCitizen, "Ward 4")
	request := seedRequest(t, models.Request{
		TicketID: "REQ-2024-000041",
		Citizen:  &citizenID,
		Status:   models.Completed,
	})

	code, _ := doJSON(t, r, http.MethodPost, "/api/requests/"+request.ID.Hex()+"/feedback", citizenToken,
		map[string]interface{}{"rating": 6})
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for rating 6, got %d", code)
	}
}

func TestGetRequestByIDNotFound(t *testing.T) {
	setupTestDB(t)
	r := testRouter()

	_, token := seedUser(t, "liam", models.RoleCitizen, "Ward 1")

	code, _ := doJSON(t, r, http.MethodGet, "/api/requests/"+primitive.NewObjectID().Hex(), token, nil)
	if code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing request, got %d", code)
	}
}
