package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type createShipmentRequest struct {
	OrderID        string `json:"orderId" binding:"required"`
	DriverName     string `json:"driverName"`
	DriverPhone    string `json:"driverPhone"`
	DriverEmail    string `json:"driverEmail"`
	RecipientName  string `json:"recipientName"`
	RecipientPhone string `json:"recipientPhone"`
	Note           string `json:"note"`
}

/* =========================
   CREATE / UPSERT SHIPMENT
========================= */

// CreateShipment creates the delivery record for an order, or updates the
// existing one. The unique index on orderId keeps shipments one-to-one with
// orders, and first creation moves the order to Shipped.
func CreateShipment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/logistics"
		defer handlePanic(c, route)

		var req createShipmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		driver, oneTimePassword, err := resolveOrCreateDriver(ctx, db, req.DriverName, req.DriverPhone, req.DriverEmail)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var existing models.Shipment
		err = db.Collection("shipments").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&existing)
		switch {
		case err == mongo.ErrNoDocuments:
			shipment, err := insertShipment(ctx, db, order, driver, req)
			if err != nil {
				if mongo.IsDuplicateKeyError(err) {
					// Lost a race against a concurrent create for the same
					// order; the unique index kept the record one-to-one.
					respondWithError(c, http.StatusConflict, route, "shipment already exists for this order")
					return
				}
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			response := gin.H{"shipment": shipment}
			if oneTimePassword != "" {
				response["driverOneTimePassword"] = oneTimePassword
			}
			c.JSON(http.StatusCreated, response)
			return

		case err != nil:
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		set := bson.M{"updatedAt": time.Now()}
		if driver != nil {
			set["driverId"] = driver.ID
			set["driverName"] = driver.Name
			set["driverPhone"] = driver.Phone
		}
		if name := strings.TrimSpace(req.RecipientName); name != "" {
			set["recipientName"] = name
		}
		if phone := strings.TrimSpace(req.RecipientPhone); phone != "" {
			set["recipientPhone"] = normalizePhone(phone)
		}

		var updated models.Shipment
		err = db.Collection("shipments").FindOneAndUpdate(
			ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": set},
			findAfter(),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		response := gin.H{"shipment": updated}
		if oneTimePassword != "" {
			response["driverOneTimePassword"] = oneTimePassword
		}
		c.JSON(http.StatusOK, response)
	}
}

func insertShipment(ctx context.Context, db *mongo.Database, order models.Order, driver *models.User, req createShipmentRequest) (models.Shipment, error) {
	now := time.Now()
	shipment := models.Shipment{
		OrderID:    order.ID,
		TrackingID: order.TrackingID,
		Status:     models.ShipmentStatusReceived,
		Timeline: []models.TimelineEntry{{
			Status: models.ShipmentStatusReceived,
			Note:   strings.TrimSpace(req.Note),
			At:     now,
		}},
		RecipientName:  strings.TrimSpace(req.RecipientName),
		RecipientPhone: normalizePhone(req.RecipientPhone),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if driver != nil {
		shipment.DriverID = &driver.ID
		shipment.DriverName = driver.Name
		shipment.DriverPhone = driver.Phone
	}

	res, err := db.Collection("shipments").InsertOne(ctx, shipment)
	if err != nil {
		return models.Shipment{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		shipment.ID = id
	}

	// First shipment for the order flips it to Shipped.
	if CanTransitionOrder(order.Status, models.OrderStatusShipped) {
		_, err = db.Collection("orders").UpdateOne(ctx,
			bson.M{"_id": order.ID},
			bson.M{"$set": bson.M{
				"status":    models.OrderStatusShipped,
				"shippedAt": now,
				"updatedAt": now,
			}})
		if err != nil {
			return models.Shipment{}, err
		}
	}

	log.Info().
		Str("orderId", order.ID.Hex()).
		Str("shipmentId", shipment.ID.Hex()).
		Msg("shipment created")
	return shipment, nil
}

// resolveOrCreateDriver finds a logistics user by phone or email, creating
// one with a random one-time password when no match exists. The plaintext is
// returned exactly once to the caller and only the hash is stored.
func resolveOrCreateDriver(ctx context.Context, db *mongo.Database, name, phone, email string) (*models.User, string, error) {
	phone = normalizePhone(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	if phone == "" && email == "" {
		return nil, "", nil
	}

	filter := bson.M{"userType": models.UserTypeLogistics}
	or := []bson.M{}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	filter["$or"] = or

	var driver models.User
	err := db.Collection("users").FindOne(ctx, filter).Decode(&driver)
	if err == nil {
		return &driver, "", nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, "", err
	}

	oneTimePassword, err := randomPassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(oneTimePassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	driver = models.User{
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		Email:        email,
		PasswordHash: string(hash),
		UserType:     models.UserTypeLogistics,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := db.Collection("users").InsertOne(ctx, driver)
	if err != nil {
		return nil, "", err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		driver.ID = id
	}

	log.Info().Str("driverId", driver.ID.Hex()).Msg("driver account created")
	return &driver, oneTimePassword, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

/* =========================
   SHIPMENT STATUS
========================= */

type updateShipmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateShipmentStatus advances the delivery timeline. Repeating the current
// status is a no-op so the timeline never records duplicates. Reaching
// Delivered closes the linked order in the same transaction.
func UpdateShipmentStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/logistics/order/:orderId/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		var req updateShipmentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		newStatus, ok := parseShipmentStatus(req.Status)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "unknown status: "+req.Status)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var updated models.Shipment
		unchanged := false
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var shipment models.Shipment
			err := db.Collection("shipments").FindOne(sessCtx, bson.M{"orderId": orderID}).Decode(&shipment)
			if err == mongo.ErrNoDocuments {
				return nil, errShipmentNotFound
			}
			if err != nil {
				return nil, err
			}

			if shipment.Status == newStatus {
				unchanged = true
				updated = shipment
				return nil, nil
			}

			if !CanTransitionShipment(shipment.Status, newStatus) {
				return nil, illegalTransitionError{
					From: shipment.Status.String(),
					To:   newStatus.String(),
				}
			}

			now := time.Now()
			entry := models.TimelineEntry{
				Status: newStatus,
				Note:   strings.TrimSpace(req.Note),
				At:     now,
			}

			err = db.Collection("shipments").FindOneAndUpdate(
				sessCtx,
				bson.M{"_id": shipment.ID},
				bson.M{
					"$set":  bson.M{"status": newStatus, "updatedAt": now},
					"$push": bson.M{"timeline": entry},
				},
				findAfter(),
			).Decode(&updated)
			if err != nil {
				return nil, err
			}

			// Delivery closes the order. This is the canonical Delivered
			// path; deliveredAt is only stamped once.
			if newStatus == models.ShipmentStatusDelivered {
				_, err = db.Collection("orders").UpdateOne(
					sessCtx,
					bson.M{"_id": orderID, "status": bson.M{"$ne": models.OrderStatusDelivered}},
					bson.M{"$set": bson.M{
						"status":      models.OrderStatusDelivered,
						"isDelivered": true,
						"deliveredAt": now,
						"updatedAt":   now,
					}})
				if err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, errShipmentNotFound) {
				respondWithError(c, http.StatusNotFound, route, "shipment not found")
				return
			}
			var transErr illegalTransitionError
			if errors.As(err, &transErr) {
				respondWithError(c, http.StatusBadRequest, route, transErr.Error())
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if unchanged {
			c.JSON(http.StatusOK, gin.H{"message": "status unchanged", "shipment": updated})
			return
		}

		log.Info().
			Str("orderId", orderID.Hex()).
			Str("status", newStatus.String()).
			Msg("shipment status updated")
		c.JSON(http.StatusOK, gin.H{"message": "status updated", "shipment": updated})
	}
}

var errShipmentNotFound = errors.New("shipment not found")

/* =========================
   GET SHIPMENT
========================= */

func GetShipment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/logistics/order/:orderId"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var shipment models.Shipment
		err = db.Collection("shipments").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&shipment)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "shipment not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, shipment)
	}
}
