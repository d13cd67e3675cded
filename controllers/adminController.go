package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"desludge-be/config"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// analyticsMatch builds the base predicate for analytics queries. A ward
// admin is always pinned to their own ward; the supplied ward filter only
// applies to broader admins.
func analyticsMatch(actor Actor, ward, startDate, endDate string) bson.M {
	match := bson.M{}

	if startDate != "" || endDate != "" {
		createdAt := bson.M{}
		if t, ok := parseDate(startDate); ok {
			createdAt["$gte"] = t
		}
		if t, ok := parseDate(endDate); ok {
			createdAt["$lte"] = t
		}
		if len(createdAt) > 0 {
			match["createdAt"] = createdAt
		}
	}

	if actor.Role == models.RoleWardAdmin && actor.Ward != "" {
		match["ward"] = actor.Ward
	} else if ward != "" {
		match["ward"] = ward
	}

	return match
}

// slaBreachFilter matches requests older than 24 hours that have not reached
// a terminal status
func slaBreachFilter(base bson.M, now time.Time) bson.M {
	filter := bson.M{
		"status":    bson.M{"$nin": []string{string(models.Completed), string(models.Rejected)}},
		"createdAt": bson.M{"$lt": now.Add(-24 * time.Hour)},
	}
	for k, v := range base {
		if k != "createdAt" {
			filter[k] = v
		}
	}
	return filter
}

// groupCount runs a group-and-count pipeline over requests, sorted by count
// descending
func groupCount(ctx context.Context, match bson.M, field string) ([]bson.M, error) {
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := config.GetCollection("requests").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetAnalytics computes point-in-time dashboard aggregates over requests
func GetAnalytics(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	match := analyticsMatch(actor, c.Query("ward"), c.Query("startDate"), c.Query("endDate"))
	requestCollection := config.GetCollection("requests")

	requestsPerWard, err := groupCount(ctx, match, "ward")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	requestsPerStatus, err := groupCount(ctx, match, "status")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	requestsPerWasteType, err := groupCount(ctx, match, "wasteType")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Most active operators: top 10 by assigned request count
	operatorMatch := bson.M{"assignedOperator": bson.M{"$exists": true}}
	for k, v := range match {
		operatorMatch[k] = v
	}
	operatorPipeline := []bson.M{
		{"$match": operatorMatch},
		{"$group": bson.M{"_id": "$assignedOperator", "count": bson.M{"$sum": 1}}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "operator",
		}},
		{"$unwind": "$operator"},
		{"$project": bson.M{
			"name":  "$operator.name",
			"email": "$operator.email",
			"count": 1,
		}},
		{"$sort": bson.M{"count": -1}},
		{"$limit": 10},
	}

	operatorCursor, err := requestCollection.Aggregate(ctx, operatorPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer operatorCursor.Close(ctx)

	var activeOperators []bson.M
	if err := operatorCursor.All(ctx, &activeOperators); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Average completion time in hours for completed requests
	completionMatch := bson.M{"status": string(models.Completed)}
	for k, v := range match {
		completionMatch[k] = v
	}
	completionPipeline := []bson.M{
		{"$match": completionMatch},
		{"$project": bson.M{
			"completionTime": bson.M{
				"$divide": []interface{}{
					bson.M{"$subtract": []interface{}{"$updatedAt", "$createdAt"}},
					1000 * 60 * 60, // milliseconds to hours
				},
			},
		}},
		{"$group": bson.M{
			"_id":     nil,
			"avgTime": bson.M{"$avg": "$completionTime"},
		}},
	}

	completionCursor, err := requestCollection.Aggregate(ctx, completionPipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer completionCursor.Close(ctx)

	var completionResults []bson.M
	if err := completionCursor.All(ctx, &completionResults); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	avgCompletionTime := 0.0
	if len(completionResults) > 0 {
		if v, ok := completionResults[0]["avgTime"].(float64); ok {
			avgCompletionTime = v
		}
	}

	slaBreachCount, err := requestCollection.CountDocuments(ctx, slaBreachFilter(match, time.Now()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	totalRequests, err := requestCollection.CountDocuments(ctx, match)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requestsPerWard":      requestsPerWard,
		"requestsPerStatus":    requestsPerStatus,
		"requestsPerWasteType": requestsPerWasteType,
		"activeOperators":      activeOperators,
		"avgCompletionTime":    avgCompletionTime,
		"slaBreachCount":       slaBreachCount,
		"totalRequests":        totalRequests,
	})
}

// GetDashboardSummary returns the headline counters for the admin landing page
func GetDashboardSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scope := bson.M{}
	if actor.Role == models.RoleWardAdmin && actor.Ward != "" {
		scope["ward"] = actor.Ward
	}

	requestCollection := config.GetCollection("requests")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	todayFilter := bson.M{"createdAt": bson.M{"$gte": today}}
	for k, v := range scope {
		todayFilter[k] = v
	}
	todayRequests, err := requestCollection.CountDocuments(ctx, todayFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	pendingFilter := bson.M{"status": bson.M{"$in": []string{
		string(models.Open), string(models.Assigned),
		string(models.OnTheWay), string(models.InProgress),
	}}}
	for k, v := range scope {
		pendingFilter[k] = v
	}
	pendingRequests, err := requestCollection.CountDocuments(ctx, pendingFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	completedFilter := bson.M{
		"status":    string(models.Completed),
		"updatedAt": bson.M{"$gte": today},
	}
	for k, v := range scope {
		completedFilter[k] = v
	}
	completedToday, err := requestCollection.CountDocuments(ctx, completedFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	slaBreaches, err := requestCollection.CountDocuments(ctx, slaBreachFilter(scope, now))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"todayRequests":   todayRequests,
		"pendingRequests": pendingRequests,
		"completedToday":  completedToday,
		"slaBreaches":     slaBreaches,
	})
}

// GetWards returns the distinct non-empty wards seen across requests
func GetWards(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	values, err := config.GetCollection("requests").Distinct(ctx, "ward", bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	wards := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			wards = append(wards, s)
		}
	}

	c.JSON(http.StatusOK, wards)
}

// GetOperators lists all operator accounts sorted by name
func GetOperators(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"name": 1, "email": 1, "phone": 1, "ward": 1, "createdAt": 1})

	cursor, err := config.GetCollection("users").Find(ctx, bson.M{"role": models.RoleOperator}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	var operators []models.User
	if err := cursor.All(ctx, &operators); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, operators)
}

// CreateOperator creates an operator account. Super admin only (route-gated).
func CreateOperator(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Phone    string `json:"phone"`
		Ward     string `json:"ward"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userCollection := config.GetCollection("users")

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		log.Println("Error checking existing operator:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
		return
	}

	operator := models.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Phone:     input.Phone,
		Role:      models.RoleOperator,
		Ward:      input.Ward,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := operator.HashPassword(); err != nil {
		log.Println("Error hashing operator password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	result, err := userCollection.InsertOne(ctx, operator)
	if err != nil {
		log.Println("Error inserting operator:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Operator created successfully",
		"operator": gin.H{
			"id":    result.InsertedID,
			"name":  operator.Name,
			"email": operator.Email,
			"phone": operator.Phone,
			"ward":  operator.Ward,
		},
	})
}
