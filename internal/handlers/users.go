package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/models"
)

/* =========================
   LOOKUP HELPERS
========================= */

func findUserByPhone(ctx context.Context, db *mongo.Database, phone string) (models.User, error) {
	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"phone": normalizePhone(phone)}).Decode(&user)
	return user, err
}

// resolveOrCreateUser finds a customer by normalized phone or creates a bare
// customer account so the order has an owner.
func resolveOrCreateUser(ctx context.Context, db *mongo.Database, name, phone, email string) (models.User, error) {
	normalized := normalizePhone(phone)

	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"phone": normalized}).Decode(&user)
	if err == nil {
		return user, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	now := time.Now()
	user = models.User{
		Name:      strings.TrimSpace(name),
		Phone:     normalized,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		UserType:  models.UserTypeCustomer,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		// A concurrent create for the same phone wins; fall back to lookup.
		if mongo.IsDuplicateKeyError(err) {
			err = db.Collection("users").FindOne(ctx, bson.M{"phone": normalized}).Decode(&user)
			return user, err
		}
		return models.User{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}

	log.Info().Str("userId", user.ID.Hex()).Msg("customer account created")
	return user, nil
}

/* =========================
   STAFF / CUSTOMER CRUD
========================= */

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	UserType string `json:"userType" binding:"required"`
}

func CreateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users"
		defer handlePanic(c, route)

		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userType := models.UserType(req.UserType)
		switch userType {
		case models.UserTypeAdmin, models.UserTypeSales, models.UserTypeLogistics, models.UserTypeCustomer:
		default:
			respondWithError(c, http.StatusBadRequest, route, "invalid userType")
			return
		}

		// Staff accounts log in, so they need credentials.
		if userType != models.UserTypeCustomer && strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "password required for staff accounts")
			return
		}

		now := time.Now()
		user := models.User{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     normalizePhone(req.Phone),
			UserType:  userType,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if password := strings.TrimSpace(req.Password); password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "password hashing failed")
				return
			}
			user.PasswordHash = string(hash)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "email or phone already in use")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			user.ID = id
		}

		log.Info().Str("userId", user.ID.Hex()).Str("userType", req.UserType).Msg("user created")
		c.JSON(http.StatusCreated, user)
	}
}

func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users"
		defer handlePanic(c, route)

		filter := bson.M{}
		if userType := strings.TrimSpace(c.Query("userType")); userType != "" {
			filter["userType"] = userType
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

func GetUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
