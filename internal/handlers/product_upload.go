package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	publicRootDir    = "./public"
	maxImageSize     = 5 << 20
	maxProductImages = 5
)

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// productFormInput carries the parsed multipart fields. The Set flags
// distinguish "absent" from zero values so updates can be partial.
type productFormInput struct {
	Name             string
	NameSet          bool
	Description      string
	DescriptionSet   bool
	Price            float64
	PriceSet         bool
	OriginalPrice    float64
	OriginalPriceSet bool
	Category         string
	CategorySet      bool
	Stock            int
	StockSet         bool
	ImagePaths       []string
	ImagesSet        bool
}

func parseProductForm(c *gin.Context) (productFormInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		log.Println("[UPLOAD] [ERROR] parse multipart failed:", err)
		return productFormInput{}, fmt.Errorf("invalid form data")
	}

	input := productFormInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}

	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}

	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.ToLower(strings.TrimSpace(value))
		input.CategorySet = true
	}

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return productFormInput{}, fmt.Errorf("price must be a number")
		}
		input.Price = parsed
		input.PriceSet = true
	}

	if value, ok := c.GetPostForm("originalPrice"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return productFormInput{}, fmt.Errorf("originalPrice must be a number")
		}
		input.OriginalPrice = parsed
		input.OriginalPriceSet = true
	}

	if value, ok := c.GetPostForm("stock"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return productFormInput{}, fmt.Errorf("stock must be an integer")
		}
		input.Stock = parsed
		input.StockSet = true
	}

	form := c.Request.MultipartForm
	if form != nil && len(form.File["images"]) > 0 {
		files := form.File["images"]
		if len(files) > maxProductImages {
			return productFormInput{}, fmt.Errorf("too many images (max %d)", maxProductImages)
		}

		paths := make([]string, 0, len(files))
		for _, file := range files {
			path, err := saveUpload(file, "products")
			if err != nil {
				return productFormInput{}, err
			}
			paths = append(paths, path)
		}
		input.ImagePaths = paths
		input.ImagesSet = true
	}

	return input, nil
}

// saveUpload validates and stores one uploaded image under the public
// uploads directory, returning the relative path stored in the document.
func saveUpload(file *multipart.FileHeader, subdir string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	in, err := file.Open()
	if err != nil {
		log.Printf("[UPLOAD] saveUpload: failed to open upload %s: %v", file.Filename, err)
		return "", err
	}
	defer in.Close()

	// Sniff the actual content; the extension alone is caller-controlled.
	mime, err := mimetype.DetectReader(in)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("file content is not an image: %s", mime.String())
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	filename := primitive.NewObjectID().Hex() + extension

	dir := filepath.Join(publicRootDir, "uploads", subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] saveUpload: failed to create directory %s: %v", dir, err)
		return "", err
	}

	fullPath := filepath.Join(dir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] saveUpload: failed to create file %s: %v", fullPath, err)
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] saveUpload: failed to save file %s: %v", fullPath, err)
		return "", err
	}

	return filepath.ToSlash(filepath.Join("uploads", subdir, filename)), nil
}
