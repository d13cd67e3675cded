package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"desludge-be/config"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateRequest handles citizen submission of a new desludging request.
// Accepts multipart form data with up to 5 photo files. The requester
// reference stays empty when no authenticated user is attached, so the
// route can also be mounted without auth for anonymous submission.
func CreateRequest(c *gin.Context) {
	var citizen *primitive.ObjectID
	if actor, ok := currentActor(c); ok {
		citizen = &actor.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wasteType := c.DefaultPostForm("wasteType", string(models.Household))
	if !models.ValidWasteType(wasteType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waste type"})
		return
	}

	lng, _ := strconv.ParseFloat(c.DefaultPostForm("lng", "0"), 64)
	lat, _ := strconv.ParseFloat(c.DefaultPostForm("lat", "0"), 64)

	// upload photos (if any) to Cloudinary
	var photos []models.Photo
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["photos"]
		if len(files) > 0 {
			uploaded, err := uploadPhotos(ctx, files, "desludging-requests", 5)
			if err != nil {
				if errors.Is(err, errTooManyPhotos) {
					c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
					return
				}
				log.Println("Error uploading request photos:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				return
			}
			photos = uploaded
		}
	}

	// A request must never be persisted without a ticket id
	ticketID, err := models.NextTicketID(ctx, config.GetCollection("counters"))
	if err != nil {
		log.Println("Error generating ticket id:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if photos == nil {
		photos = []models.Photo{}
	}

	request := models.Request{
		ID:           primitive.NewObjectID(),
		TicketID:     ticketID,
		Citizen:      citizen,
		FullName:     c.PostForm("fullName"),
		MobileNumber: c.PostForm("mobileNumber"),
		Ward:         c.PostForm("ward"),
		Location: models.GeoLocation{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
			Address:     c.PostForm("address"),
		},
		WasteType:         models.WasteType(wasteType),
		PreferredTimeSlot: c.PostForm("preferredTimeSlot"),
		Description:       c.PostForm("description"),
		Photos:            photos,
		Status:            models.Open,
		Notes:             []models.Note{},
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if _, err := config.GetCollection("requests").InsertOne(ctx, request); err != nil {
		log.Println("Error inserting request:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Request created", "request": request})
}

type requestListQuery struct {
	Ward      string
	Status    string
	WasteType string
	Assigned  string
	StartDate string
	EndDate   string
}

// parseDate accepts RFC3339 timestamps or plain dates
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// buildRequestFilter turns the supplied query into a Mongo predicate and then
// applies caller scoping last, so a citizen only ever matches their own
// requests and a ward admin never escapes their ward via the ward filter.
func buildRequestFilter(actor Actor, q requestListQuery) bson.M {
	filter := bson.M{}

	if q.Ward != "" {
		filter["ward"] = q.Ward
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.WasteType != "" {
		filter["wasteType"] = q.WasteType
	}
	if q.Assigned == "true" {
		filter["assignedOperator"] = bson.M{"$exists": true}
	}

	if q.StartDate != "" || q.EndDate != "" {
		createdAt := bson.M{}
		if t, ok := parseDate(q.StartDate); ok {
			createdAt["$gte"] = t
		}
		if t, ok := parseDate(q.EndDate); ok {
			createdAt["$lte"] = t
		}
		if len(createdAt) > 0 {
			filter["createdAt"] = createdAt
		}
	}

	// caller scoping wins over any supplied filter
	switch actor.Role {
	case models.RoleCitizen:
		filter["citizen"] = actor.ID
	case models.RoleWardAdmin:
		if actor.Ward != "" {
			filter["ward"] = actor.Ward
		}
	}

	return filter
}

// userSummary fetches minimal contact info for a referenced user
func userSummary(ctx context.Context, id *primitive.ObjectID) map[string]interface{} {
	if id == nil {
		return nil
	}

	summary := map[string]interface{}{"id": *id}

	var user models.User
	if err := config.GetCollection("users").FindOne(ctx, bson.M{"_id": *id}).Decode(&user); err == nil {
		summary["name"] = user.Name
		summary["email"] = user.Email
		summary["phone"] = user.Phone
	}

	return summary
}

// GetRequests lists requests with filtering and pagination. Citizens see only
// their own submissions; ward admins are scoped to their ward.
func GetRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := buildRequestFilter(actor, requestListQuery{
		Ward:      c.Query("ward"),
		Status:    c.Query("status"),
		WasteType: c.Query("wasteType"),
		Assigned:  c.Query("assigned"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})

	requestCollection := config.GetCollection("requests")

	total, err := requestCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := requestCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Enrich with citizen and operator contact info
	type RequestWithRefs struct {
		models.Request
		Citizen          map[string]interface{} `json:"citizen,omitempty"`
		AssignedOperator map[string]interface{} `json:"assignedOperator,omitempty"`
	}

	data := make([]RequestWithRefs, 0, len(requests))
	for _, r := range requests {
		data = append(data, RequestWithRefs{
			Request:          r,
			Citizen:          userSummary(ctx, r.Citizen),
			AssignedOperator: userSummary(ctx, r.AssignedOperator),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  data,
	})
}

// findRequest loads a request by path id, writing the error response itself
// when the id is malformed or the document is absent
func findRequest(c *gin.Context, ctx context.Context) (*models.Request, bool) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request ID"})
		return nil, false
	}

	var request models.Request
	err = config.GetCollection("requests").FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return nil, false
	}

	return &request, true
}

// GetRequestByID retrieves a single request with populated references
func GetRequestByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, ok := findRequest(c, ctx)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                request.ID,
		"ticketId":          request.TicketID,
		"citizen":           userSummary(ctx, request.Citizen),
		"fullName":          request.FullName,
		"mobileNumber":      request.MobileNumber,
		"ward":              request.Ward,
		"location":          request.Location,
		"wasteType":         request.WasteType,
		"preferredTimeSlot": request.PreferredTimeSlot,
		"description":       request.Description,
		"photos":            request.Photos,
		"status":            request.Status,
		"assignedOperator":  userSummary(ctx, request.AssignedOperator),
		"notes":             request.Notes,
		"feedback":          request.Feedback,
		"createdAt":         request.CreatedAt,
		"updatedAt":         request.UpdatedAt,
	})
}

// updateRequest applies the given update plus an audit note and returns the
// refreshed document
func updateRequest(ctx context.Context, id primitive.ObjectID, set bson.M, note models.Note) (*models.Request, error) {
	set["updatedAt"] = time.Now()

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"notes": note},
	}

	requestCollection := config.GetCollection("requests")
	if _, err := requestCollection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return nil, err
	}

	var updated models.Request
	if err := requestCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AssignOperator assigns an operator to a request and moves it to Assigned
func AssignOperator(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		OperatorID string `json:"operatorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	operatorID, err := primitive.ObjectIDFromHex(input.OperatorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid operator ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, ok := findRequest(c, ctx)
	if !ok {
		return
	}

	note := models.Note{
		By:        actor.ID,
		Role:      actor.Role,
		Text:      fmt.Sprintf("Assigned to operator %s", input.OperatorID),
		CreatedAt: time.Now(),
	}

	updated, err := updateRequest(ctx, request.ID, bson.M{
		"assignedOperator": operatorID,
		"status":           models.Assigned,
	}, note)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Operator assigned", "request": updated})
}

// UpdateStatus overwrites the request status. Transitions are not validated
// against a state graph; only enum membership is checked.
func UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !models.ValidRequestStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, ok := findRequest(c, ctx)
	if !ok {
		return
	}

	note := models.Note{
		By:        actor.ID,
		Role:      actor.Role,
		Text:      fmt.Sprintf("Status updated to %s", input.Status),
		CreatedAt: time.Now(),
	}

	updated, err := updateRequest(ctx, request.ID, bson.M{
		"status": models.RequestStatus(input.Status),
	}, note)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "request": updated})
}

// AddNote appends a progress note, optionally with photos
func AddNote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, ok := findRequest(c, ctx)
	if !ok {
		return
	}

	var photos []models.Photo
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["photos"]
		if len(files) > 0 {
			uploaded, err := uploadPhotos(ctx, files, "desludging-notes", 4)
			if err != nil {
				if errors.Is(err, errTooManyPhotos) {
					c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
					return
				}
				log.Println("Error uploading note photos:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				return
			}
			photos = uploaded
		}
	}

	note := models.Note{
		By:        actor.ID,
		Role:      actor.Role,
		Text:      c.PostForm("text"),
		Photos:    photos,
		CreatedAt: time.Now(),
	}

	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	requestCollection := config.GetCollection("requests")
	if _, err := requestCollection.UpdateOne(ctx, bson.M{"_id": request.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	var updated models.Request
	if err := requestCollection.FindOne(ctx, bson.M{"_id": request.ID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note added", "request": updated})
}

// AddFeedback stores the citizen's rating. Only allowed once the request is
// Completed, and only once.
func AddFeedback(c *gin.Context) {
	var input struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, ok := findRequest(c, ctx)
	if !ok {
		return
	}

	if request.Status != models.Completed {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Can give feedback only after completion"})
		return
	}

	if request.Feedback != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Feedback already submitted"})
		return
	}

	feedback := models.Feedback{
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}

	requestCollection := config.GetCollection("requests")
	update := bson.M{"$set": bson.M{"feedback": feedback, "updatedAt": time.Now()}}
	if _, err := requestCollection.UpdateOne(ctx, bson.M{"_id": request.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	var updated models.Request
	if err := requestCollection.FindOne(ctx, bson.M{"_id": request.ID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feedback saved", "request": updated})
}
