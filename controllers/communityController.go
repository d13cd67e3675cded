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

// CreateProject creates a community cleanup project. The creator becomes the
// organizer and the first participant.
func CreateProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title := c.PostForm("title")
	description := c.PostForm("description")
	ward := c.PostForm("ward")
	if title == "" || description == "" || ward == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title, description and ward are required"})
		return
	}

	wasteType := c.DefaultPostForm("wasteType", string(models.Household))
	if !models.ValidWasteType(wasteType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid waste type"})
		return
	}

	lng, _ := strconv.ParseFloat(c.DefaultPostForm("lng", "0"), 64)
	lat, _ := strconv.ParseFloat(c.DefaultPostForm("lat", "0"), 64)

	var targetDate *time.Time
	if s := c.PostForm("targetDate"); s != "" {
		if t, ok := parseDate(s); ok {
			targetDate = &t
		}
	}

	var photos []models.Photo
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["photos"]
		if len(files) > 0 {
			uploaded, err := uploadPhotos(ctx, files, "community-projects", 5)
			if err != nil {
				if errors.Is(err, errTooManyPhotos) {
					c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
					return
				}
				log.Println("Error uploading project photos:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				return
			}
			photos = uploaded
		}
	}
	if photos == nil {
		photos = []models.Photo{}
	}

	project := models.CommunityProject{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Ward:        ward,
		Location: models.GeoLocation{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
			Address:     c.PostForm("address"),
		},
		WasteType:    models.WasteType(wasteType),
		Organizer:    actor.ID,
		Participants: []primitive.ObjectID{actor.ID}, // organizer is first participant
		Status:       models.Planning,
		TargetDate:   targetDate,
		Photos:       photos,
		Notes:        []models.Note{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if _, err := config.GetCollection("communityprojects").InsertOne(ctx, project); err != nil {
		log.Println("Error inserting project:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Community project created", "project": project})
}

// GetProjects lists community projects with filtering and pagination.
// Projects are public; no ward scoping applies.
func GetProjects(c *gin.Context) {
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

	filter := bson.M{}
	if ward := c.Query("ward"); ward != "" {
		filter["ward"] = ward
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if wasteType := c.Query("wasteType"); wasteType != "" {
		filter["wasteType"] = wasteType
	}

	projectCollection := config.GetCollection("communityprojects")

	total, err := projectCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := projectCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	var projects []models.CommunityProject
	if err := cursor.All(ctx, &projects); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	type ProjectWithRefs struct {
		models.CommunityProject
		Organizer map[string]interface{} `json:"organizer"`
	}

	data := make([]ProjectWithRefs, 0, len(projects))
	for _, p := range projects {
		organizer := p.Organizer
		data = append(data, ProjectWithRefs{
			CommunityProject: p,
			Organizer:        userSummary(ctx, &organizer),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"page":  page,
		"limit": limit,
		"data":  data,
	})
}

// findProject loads a project by path id, writing the error response itself
func findProject(c *gin.Context, ctx context.Context) (*models.CommunityProject, bool) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project ID"})
		return nil, false
	}

	var project models.CommunityProject
	err = config.GetCollection("communityprojects").FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return nil, false
	}

	return &project, true
}

// GetProjectByID retrieves a single project with populated references
func GetProjectByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	project, ok := findProject(c, ctx)
	if !ok {
		return
	}

	organizer := project.Organizer
	participants := make([]map[string]interface{}, 0, len(project.Participants))
	for _, p := range project.Participants {
		id := p
		participants = append(participants, userSummary(ctx, &id))
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            project.ID,
		"title":         project.Title,
		"description":   project.Description,
		"ward":          project.Ward,
		"location":      project.Location,
		"wasteType":     project.WasteType,
		"organizer":     userSummary(ctx, &organizer),
		"participants":  participants,
		"status":        project.Status,
		"targetDate":    project.TargetDate,
		"completedDate": project.CompletedDate,
		"photos":        project.Photos,
		"notes":         project.Notes,
		"createdAt":     project.CreatedAt,
		"updatedAt":     project.UpdatedAt,
	})
}

// refreshProject re-reads a project after an update
func refreshProject(ctx context.Context, id primitive.ObjectID) (*models.CommunityProject, error) {
	var project models.CommunityProject
	err := config.GetCollection("communityprojects").FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// JoinProject adds the caller to the participant list. Joining twice is
// rejected; the participant list never contains duplicates.
func JoinProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	project, ok := findProject(c, ctx)
	if !ok {
		return
	}

	if project.HasParticipant(actor.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Already joined this project"})
		return
	}

	// $addToSet keeps the list duplicate-free even under concurrent joins
	update := bson.M{
		"$addToSet": bson.M{"participants": actor.ID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	if _, err := config.GetCollection("communityprojects").UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	updated, err := refreshProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined project", "project": updated})
}

// LeaveProject removes the caller from the participant list. The organizer
// can never leave.
func LeaveProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	project, ok := findProject(c, ctx)
	if !ok {
		return
	}

	if project.Organizer == actor.ID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Organizer cannot leave the project"})
		return
	}

	update := bson.M{
		"$pull": bson.M{"participants": actor.ID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := config.GetCollection("communityprojects").UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	updated, err := refreshProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully left project", "project": updated})
}

// UpdateProjectStatus changes project status. Organizer only; completing the
// project stamps the completion date.
func UpdateProjectStatus(c *gin.Context) {
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

	if !models.ValidProjectStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	project, ok := findProject(c, ctx)
	if !ok {
		return
	}

	if project.Organizer != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only organizer can update project status"})
		return
	}

	set := bson.M{
		"status":    models.ProjectStatus(input.Status),
		"updatedAt": time.Now(),
	}
	if models.ProjectStatus(input.Status) == models.ProjectCompleted {
		set["completedDate"] = time.Now()
	}

	note := models.Note{
		By:        actor.ID,
		Role:      actor.Role,
		Text:      fmt.Sprintf("Project status updated to %s", input.Status),
		CreatedAt: time.Now(),
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"notes": note},
	}
	if _, err := config.GetCollection("communityprojects").UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	updated, err := refreshProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project status updated", "project": updated})
}

// AddProjectNote appends a note. Participants only.
func AddProjectNote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	project, ok := findProject(c, ctx)
	if !ok {
		return
	}

	if !project.HasParticipant(actor.ID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only participants can add notes"})
		return
	}

	var photos []models.Photo
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["photos"]
		if len(files) > 0 {
			uploaded, err := uploadPhotos(ctx, files, "community-notes", 4)
			if err != nil {
				if errors.Is(err, errTooManyPhotos) {
					c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
					return
				}
				log.Println("Error uploading project note photos:", err)
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
	if _, err := config.GetCollection("communityprojects").UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	updated, err := refreshProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note added to project", "project": updated})
}
