package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backoffice/internal/models"
)

type verifyInventoryItemRequest struct {
	ProductID       string   `json:"productId" binding:"required"`
	SelectedSerials []string `json:"selectedSerials" binding:"required"`
}

type verifyInventoryRequest struct {
	Items []verifyInventoryItemRequest `json:"items" binding:"required"`
}

// VerifyInventory assigns concrete serialized units to the order lines and
// moves the order from Pending to Processing. The serial count must equal the
// line quantity; the aggregate stock count was already taken at order
// creation, so only the per-unit assigned flags move here. Runs in one
// transaction so a failed line leaves nothing assigned.
func VerifyInventory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id/verify-inventory"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		var req verifyInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "items required")
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

		var updated models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var order models.Order
			err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				return nil, errOrderNotFound
			}
			if err != nil {
				return nil, err
			}

			if order.Status != models.OrderStatusPending {
				return nil, illegalTransitionError{
					From: order.Status.String(),
					To:   models.OrderStatusProcessing.String(),
				}
			}

			for _, verify := range req.Items {
				productID, err := primitive.ObjectIDFromHex(verify.ProductID)
				if err != nil {
					return nil, validationError("invalid product id: " + verify.ProductID)
				}

				lineIdx := -1
				for i, item := range order.Items {
					if item.ProductID == productID {
						lineIdx = i
						break
					}
				}
				if lineIdx < 0 {
					return nil, validationError("product is not on this order: " + verify.ProductID)
				}
				line := &order.Items[lineIdx]

				serials := dedupSerials(verify.SelectedSerials)
				if len(serials) != line.Quantity {
					return nil, serialCountError{
						ProductID: verify.ProductID,
						Expected:  line.Quantity,
						Got:       len(serials),
					}
				}

				var product models.Product
				err = db.Collection("products").FindOne(sessCtx, bson.M{"_id": productID}).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: verify.ProductID}
				}
				if err != nil {
					return nil, err
				}

				matched, missing, taken := matchSerials(product, serials)
				if len(missing) > 0 {
					return nil, validationError("unknown serials: " + strings.Join(missing, ", "))
				}
				if len(taken) > 0 {
					return nil, validationError("serials already assigned: " + strings.Join(taken, ", "))
				}

				_, err = db.Collection("products").UpdateOne(
					sessCtx,
					bson.M{"_id": productID},
					bson.M{"$set": bson.M{
						"baseSpecs.$[spec].assigned": true,
						"updatedAt":                  time.Now(),
					}},
					options.Update().SetArrayFilters(options.ArrayFilters{
						Filters: []interface{}{bson.M{
							"spec.serialNumber": bson.M{"$in": serials},
							"spec.assigned":     false,
						}},
					}),
				)
				if err != nil {
					return nil, err
				}

				sold := make([]models.BaseSpec, 0, len(matched))
				for _, spec := range matched {
					spec.Assigned = true
					sold = append(sold, spec)
				}
				line.SoldSpecs = sold
			}

			err = db.Collection("orders").FindOneAndUpdate(
				sessCtx,
				bson.M{"_id": orderID},
				bson.M{"$set": bson.M{
					"items":     order.Items,
					"status":    models.OrderStatusProcessing,
					"updatedAt": time.Now(),
				}},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&updated)
			return nil, err
		})
		if err != nil {
			respondVerifyError(c, route, err)
			return
		}

		log.Info().Str("orderId", orderID.Hex()).Msg("inventory verified, order processing")
		c.JSON(http.StatusOK, updated)
	}
}

var errOrderNotFound = errors.New("order not found")

func dedupSerials(raw []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		serial := strings.TrimSpace(s)
		if serial == "" {
			continue
		}
		if _, ok := seen[serial]; ok {
			continue
		}
		seen[serial] = struct{}{}
		out = append(out, serial)
	}
	return out
}

func respondVerifyError(c *gin.Context, route string, err error) {
	if errors.Is(err, errOrderNotFound) {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return
	}
	var countErr serialCountError
	if errors.As(err, &countErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "serial count mismatch",
			"productId": countErr.ProductID,
			"expected":  countErr.Expected,
			"got":       countErr.Got,
		})
		return
	}
	var transErr illegalTransitionError
	if errors.As(err, &transErr) {
		respondWithError(c, http.StatusBadRequest, route, transErr.Error())
		return
	}
	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		respondWithError(c, http.StatusNotFound, route, notFoundErr.Error())
		return
	}
	var valErr validationError
	if errors.As(err, &valErr) {
		respondWithError(c, http.StatusBadRequest, route, valErr.Error())
		return
	}
	log.Error().Err(err).Str("route", route).Msg("inventory verification failed")
	respondWithError(c, http.StatusInternalServerError, route, "db error")
}
