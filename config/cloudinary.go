package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var cld *cloudinary.Cloudinary

// ConnectCloudinary initializes the image host client from CLOUDINARY_URL
func ConnectCloudinary() {
	url := os.Getenv("CLOUDINARY_URL")
	if url == "" {
		panic("Please define the CLOUDINARY_URL environment variable")
	}

	c, err := cloudinary.NewFromURL(url)
	if err != nil {
		panic(fmt.Sprintf("Failed to create Cloudinary client: %v", err))
	}
	cld = c

	fmt.Println("Connected to Cloudinary")
}

// UploadImage streams a file to the given Cloudinary folder and returns
// the secure URL and public id of the stored asset
func UploadImage(ctx context.Context, file io.Reader, folder string) (string, string, error) {
	if cld == nil {
		return "", "", fmt.Errorf("cloudinary client not initialized")
	}

	resp, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", "", err
	}

	return resp.SecureURL, resp.PublicID, nil
}
