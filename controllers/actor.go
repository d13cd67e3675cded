package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"desludge-be/config"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errTooManyPhotos marks an upload batch exceeding the per-request file limit
var errTooManyPhotos = errors.New("too many photos")

// Actor is the authenticated caller as set by the auth middleware.
// Every role and ownership check in the handlers goes through this one
// extraction so the per-route checks cannot drift.
type Actor struct {
	ID   primitive.ObjectID
	Role string
	Ward string
	Name string
}

func currentActor(c *gin.Context) (Actor, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return Actor{}, false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return Actor{}, false
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return Actor{}, false
	}

	actor := Actor{ID: objID}
	if role, exists := c.Get("user_role"); exists {
		actor.Role, _ = role.(string)
	}
	if ward, exists := c.Get("user_ward"); exists {
		actor.Ward, _ = ward.(string)
	}
	if name, exists := c.Get("user_name"); exists {
		actor.Name, _ = name.(string)
	}

	return actor, true
}

// uploadPhotos sends each multipart file to the image host and collects the
// stored references. Batches over the limit are rejected outright. Uploads
// run sequentially; the first failure aborts the batch (already uploaded
// files are left behind on the host).
func uploadPhotos(ctx context.Context, files []*multipart.FileHeader, folder string, max int) ([]models.Photo, error) {
	if len(files) > max {
		return nil, fmt.Errorf("%w: limit is %d", errTooManyPhotos, max)
	}

	photos := make([]models.Photo, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}

		url, publicID, err := config.UploadImage(ctx, f, folder)
		f.Close()
		if err != nil {
			return nil, err
		}

		photos = append(photos, models.Photo{URL: url, PublicID: publicID})
	}

	return photos, nil
}
