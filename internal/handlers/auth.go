package handlers

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":             user.ID.Hex(),
		"name":           user.Name,
		"email":          user.Email,
		"profilePicture": user.ProfilePicture,
	}
}

// Signup handles POST /api/users/signup. The body is either JSON or a
// multipart form carrying an optional profilePicture file.
func Signup(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/signup"
		defer handlePanic(c, route)

		var req signupRequest
		var pictureFile *multipart.FileHeader

		contentType := c.GetHeader("Content-Type")
		if strings.Contains(contentType, "multipart/form-data") {
			if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid form data")
				return
			}
			req.Name = strings.TrimSpace(c.PostForm("name"))
			req.Email = strings.TrimSpace(c.PostForm("email"))
			req.Password = c.PostForm("password")

			if file, err := c.FormFile("profilePicture"); err == nil {
				pictureFile = file
			}

			if req.Name == "" || req.Email == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, route, "name, email and password are required")
				return
			}
			if len(req.Password) < 6 {
				respondError(c, http.StatusBadRequest, route, "password must be at least 6 characters")
				return
			}
		} else {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, route, err)
				return
			}
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			log.Println("[AUTH] [ERROR] signup db error:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			log.Println("[AUTH] [ERROR] signup email exists:", email)
			respondError(c, http.StatusConflict, route, "email already registered")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] signup password hash failed:", err)
			respondError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		// The file is only written once the signup is certain to proceed,
		// so a rejected request leaves no orphan upload behind.
		profilePicture := ""
		if pictureFile != nil {
			path, err := saveUpload(pictureFile, "profiles")
			if err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			profilePicture = path
		}

		now := time.Now()
		user := models.User{
			Name:           strings.TrimSpace(req.Name),
			Email:          email,
			PasswordHash:   string(hash),
			ProfilePicture: profilePicture,
			Cart:           []models.CartEntry{},
			Addresses:      []models.Address{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Println("[AUTH] [ERROR] signup insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		user.ID, _ = res.InsertedID.(primitive.ObjectID)
		accessToken, err := issueUserToken(user.ID, email, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] signup token generation failed:", err)
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"success":     true,
			"accessToken": accessToken,
			"user":        userResponse(user),
		})
	}
}

// Login handles POST /api/users/login.
func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials:", email)
			respondError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials:", email)
			respondError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}

		now := time.Now()
		_, _ = db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{"lastLoginAt": now},
		})

		accessToken, err := issueUserToken(user.ID, user.Email, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user login succeeded:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"accessToken": accessToken,
			"user":        userResponse(user),
		})
	}
}

// GetMe handles GET /api/users/me.
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/me"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] get me failed:", err)
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             user.ID.Hex(),
			"name":           user.Name,
			"email":          user.Email,
			"profilePicture": user.ProfilePicture,
			"addresses":      user.Addresses,
			"lastLoginAt":    user.LastLoginAt,
			"createdAt":      user.CreatedAt,
			"updatedAt":      user.UpdatedAt,
		})
	}
}

func issueUserToken(userID primitive.ObjectID, email, secret string, accessTTL time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"email":  email,
		"exp":    time.Now().Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
