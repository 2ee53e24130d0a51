package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backoffice/internal/models"
	"backoffice/internal/notify"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	ProductID         string                    `json:"product" binding:"required"`
	Quantity          int                       `json:"qty" binding:"required"`
	Price             float64                   `json:"price"`
	VariantSelections []variantSelectionRequest `json:"variantSelections"`
}

type variantSelectionRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type createOrderCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest   `json:"orderItems" binding:"required"`
	Customer        createOrderCustomerRequest `json:"customer" binding:"required"`
	ReferralPhone   string                     `json:"referralPhone"`
	ShippingAddress models.ShippingAddress     `json:"shippingAddress"`
	TaxPrice        float64                    `json:"taxPrice"`
	ShippingPrice   float64                    `json:"shippingPrice"`
	DeliveryPaid    bool                       `json:"deliveryPaid"`
	AsInvoice       bool                       `json:"asInvoice"`
}

/* =========================
   CREATE ORDER
========================= */

// CreateOrder captures a sale. Order insert and per-line stock decrement run
// in one session transaction, and the decrement itself is conditional on
// remaining stock, so two concurrent sales cannot both drain the same units.
func CreateOrder(db *mongo.Database, queue notify.Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if len(req.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one item is required")
			return
		}
		if req.TaxPrice < 0 || req.ShippingPrice < 0 {
			respondWithError(c, http.StatusBadRequest, route, "tax and shipping must be zero or greater")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		customer, err := resolveOrCreateUser(ctx, db, req.Customer.Name, req.Customer.Phone, req.Customer.Email)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var referredBy *primitive.ObjectID
		if phone := strings.TrimSpace(req.ReferralPhone); phone != "" {
			if referrer, err := findUserByPhone(ctx, db, phone); err == nil {
				referredBy = &referrer.ID
			}
		}

		status := models.OrderStatusPending
		if req.AsInvoice {
			status = models.OrderStatusInvoice
		}

		now := time.Now()
		order := models.Order{
			TrackingID:      uuid.NewString(),
			UserID:          customer.ID,
			ReferredBy:      referredBy,
			ShippingAddress: req.ShippingAddress,
			Status:          status,
			TaxPrice:        req.TaxPrice,
			ShippingPrice:   req.ShippingPrice,
			DeliveryPaid:    req.DeliveryPaid,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var warnings []string
		var orderID primitive.ObjectID
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			// The callback may run more than once on transient errors.
			warnings = nil
			items := make([]models.OrderItem, 0, len(req.Items))

			for _, line := range req.Items {
				productID, err := primitive.ObjectIDFromHex(line.ProductID)
				if err != nil {
					return nil, validationError("invalid product id: " + line.ProductID)
				}
				if line.Quantity <= 0 {
					return nil, validationError("qty must be greater than zero")
				}

				var product models.Product
				err = db.Collection("products").FindOne(sessCtx, bson.M{"_id": productID}).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: line.ProductID}
				}
				if err != nil {
					return nil, err
				}

				if product.Quantity < line.Quantity {
					return nil, insufficientStockError{
						ProductID: line.ProductID,
						Available: product.Quantity,
						Requested: line.Quantity,
					}
				}

				selections, err := resolveVariantSelections(product, line.VariantSelections)
				if err != nil {
					return nil, err
				}

				price := line.Price
				if price <= 0 {
					price = product.SellingPrice
				}

				items = append(items, models.OrderItem{
					ProductID:         productID,
					Name:              product.Name,
					Quantity:          line.Quantity,
					Price:             price,
					VariantSelections: selections,
				})

				filter := bson.M{
					"_id":      productID,
					"quantity": bson.M{"$gte": line.Quantity},
				}
				update := bson.M{
					"$inc": bson.M{"quantity": -line.Quantity},
					"$set": bson.M{"updatedAt": now},
				}

				res, err := db.Collection("products").UpdateOne(sessCtx, filter, update)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, insufficientStockError{
						ProductID: line.ProductID,
						Available: product.Quantity,
						Requested: line.Quantity,
					}
				}

				remaining := product.Quantity - line.Quantity
				if remaining <= product.ReorderLevel {
					warnings = append(warnings,
						fmt.Sprintf("%s is low on stock (%d left, reorder at %d)",
							product.Name, remaining, product.ReorderLevel))
					_, err = db.Collection("products").UpdateOne(sessCtx,
						bson.M{"_id": productID, "availability": bson.M{"$ne": models.AvailabilityInactive}},
						bson.M{"$set": bson.M{"availability": models.AvailabilityRestocking}})
					if err != nil {
						return nil, err
					}
				}
			}

			order.Items = items
			order.ItemsPrice = computeItemsPrice(items)
			order.TotalPrice = computeTotalPrice(order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.DeliveryPaid)

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				orderID = id
			}
			return nil, nil
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		order.ID = orderID

		// Notification goes through the outbound queue; a broken queue must
		// not fail the sale.
		if queue != nil {
			job := notify.Job{
				Kind:      notify.KindOrderCreated,
				Recipient: customer.Phone,
				Message: fmt.Sprintf("Hello %s, your order %s totalling %.2f has been received.",
					customer.Name, order.TrackingID, order.TotalPrice),
				Reference: order.TrackingID,
			}
			if err := queue.Enqueue(ctx, job); err != nil {
				log.Error().Err(err).Str("trackingId", order.TrackingID).Msg("notification enqueue failed")
			}
		}

		log.Info().
			Str("orderId", order.ID.Hex()).
			Str("trackingId", order.TrackingID).
			Str("customerId", customer.ID.Hex()).
			Float64("total", order.TotalPrice).
			Msg("order created")

		c.JSON(http.StatusCreated, gin.H{
			"order":    order,
			"warnings": warnings,
		})
	}
}

func respondOrderError(c *gin.Context, route string, err error) {
	var stockErr insufficientStockError
	if errors.As(err, &stockErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "insufficient stock",
			"productId": stockErr.ProductID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}
	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "product not found",
			"productId": notFoundErr.ProductID,
		})
		return
	}
	var valErr validationError
	if errors.As(err, &valErr) {
		respondWithError(c, http.StatusBadRequest, route, valErr.Error())
		return
	}
	respondWithError(c, http.StatusInternalServerError, route, "db error")
}

// resolveVariantSelections validates the buyer's picks against the product's
// variants and snapshots the option costs.
func resolveVariantSelections(product models.Product, picks []variantSelectionRequest) ([]models.VariantSelection, error) {
	if len(picks) == 0 {
		return nil, nil
	}

	out := make([]models.VariantSelection, 0, len(picks))
	for _, pick := range picks {
		found := false
		for _, variant := range product.Variants {
			if variant.Name != pick.Name {
				continue
			}
			for _, option := range variant.Options {
				if option.Value == pick.Value {
					out = append(out, models.VariantSelection{
						Name:  pick.Name,
						Value: pick.Value,
						Cost:  option.Cost,
					})
					found = true
					break
				}
			}
		}
		if !found {
			return nil, validationError(fmt.Sprintf("unknown variant selection %s=%s for %s",
				pick.Name, pick.Value, product.Name))
		}
	}
	return out, nil
}

/* =========================
   LIST / GET
========================= */

func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{}
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			status, ok := parseOrderStatus(raw)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalPages := int64(0)
		if total > 0 {
			totalPages = int64(math.Ceil(float64(total) / float64(limit)))
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": orders,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   STATUS TRANSITION
========================= */

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order through its lifecycle. Transitions outside
// the table are rejected; writing the current status again is a no-op.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/status"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		newStatus, ok := parseOrderStatus(req.Status)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "unknown status: "+req.Status)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.Status == newStatus {
			c.JSON(http.StatusOK, gin.H{"message": "status unchanged", "status": order.Status})
			return
		}

		if !CanTransitionOrder(order.Status, newStatus) {
			respondWithError(c, http.StatusBadRequest, route,
				illegalTransitionError{From: order.Status.String(), To: newStatus.String()}.Error())
			return
		}

		now := time.Now()
		set := bson.M{"status": newStatus, "updatedAt": now}
		switch newStatus {
		case models.OrderStatusShipped:
			set["shippedAt"] = now
		case models.OrderStatusDelivered:
			set["isDelivered"] = true
			if order.DeliveredAt == nil {
				set["deliveredAt"] = now
			}
		}

		_, err = db.Collection("orders").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Info().
			Str("orderId", id.Hex()).
			Str("from", order.Status.String()).
			Str("to", newStatus.String()).
			Msg("order status updated")

		c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": newStatus})
	}
}

/* =========================
   APPROVAL
========================= */

type approveSaleRequest struct {
	Note string `json:"note"`
}

// ApproveSale is an idempotent one-way flag.
func ApproveSale(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id/approve"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		// Note body is optional.
		var req approveSaleRequest
		_ = c.ShouldBindJSON(&req)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.IsApproved {
			c.JSON(http.StatusOK, gin.H{
				"message":    "already approved",
				"approvedAt": order.ApprovedAt,
			})
			return
		}

		set := bson.M{
			"isApproved": true,
			"approvedAt": time.Now(),
			"updatedAt":  time.Now(),
		}
		if note := strings.TrimSpace(req.Note); note != "" {
			set["approveNote"] = note
		}
		if value, exists := c.Get("userId"); exists {
			if approver, ok := value.(primitive.ObjectID); ok {
				set["approvedBy"] = approver
			}
		}

		// Conditional on the flag so a concurrent approval cannot overwrite
		// the first approvedAt.
		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{"_id": id, "isApproved": bson.M{"$ne": true}},
			bson.M{"$set": set})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			_ = db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
			c.JSON(http.StatusOK, gin.H{
				"message":    "already approved",
				"approvedAt": order.ApprovedAt,
			})
			return
		}

		log.Info().Str("orderId", id.Hex()).Msg("sale approved")
		c.JSON(http.StatusOK, gin.H{"message": "sale approved"})
	}
}
