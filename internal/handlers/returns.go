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

type returnOrderRequest struct {
	Reason string `json:"reason"`
}

// ReturnOrder reverses a sale: every line is restocked, sold serialized units
// come back unassigned, a Return document is written and the order (with its
// shipment) is deleted. All of it happens in one transaction, so a failure
// partway restocks nothing.
func ReturnOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/returns/:id/return"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		// Reason body is optional.
		var req returnOrderRequest
		_ = c.ShouldBindJSON(&req)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var receipt models.Return
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var order models.Order
			err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				return nil, errOrderNotFound
			}
			if err != nil {
				return nil, err
			}

			returnItems := make([]models.ReturnItem, 0, len(order.Items))
			for _, item := range order.Items {
				var restocked models.Product
				err := db.Collection("products").FindOneAndUpdate(sessCtx,
					bson.M{"_id": item.ProductID},
					bson.M{
						"$inc": bson.M{"quantity": item.Quantity},
						"$set": bson.M{"updatedAt": time.Now()},
					},
					findAfter(),
				).Decode(&restocked)
				if err == mongo.ErrNoDocuments {
					// Product was deleted after the sale; the return still
					// proceeds, only the restock is skipped.
					log.Warn().
						Str("productId", item.ProductID.Hex()).
						Str("orderId", orderID.Hex()).
						Msg("returned product no longer exists, restock skipped")
				} else if err != nil {
					return nil, err
				} else {
					// Stock may have recovered past the reorder level.
					availability := availabilityFor(restocked.Quantity, restocked.ReorderLevel)
					if availability != restocked.Availability && restocked.Availability != models.AvailabilityInactive {
						_, err = db.Collection("products").UpdateOne(sessCtx,
							bson.M{"_id": item.ProductID},
							bson.M{"$set": bson.M{"availability": availability}})
						if err != nil {
							return nil, err
						}
					}
				}

				if len(item.SoldSpecs) > 0 {
					// The units are back on the shelf: flip their serials to
					// unassigned so the free-spec count moves with quantity.
					_, err = db.Collection("products").UpdateOne(
						sessCtx,
						bson.M{"_id": item.ProductID},
						bson.M{"$set": bson.M{"baseSpecs.$[spec].assigned": false}},
						options.Update().SetArrayFilters(options.ArrayFilters{
							Filters: []interface{}{bson.M{
								"spec.serialNumber": bson.M{"$in": serialNumbers(item.SoldSpecs)},
							}},
						}),
					)
					if err != nil {
						return nil, err
					}
				}

				returnItems = append(returnItems, models.ReturnItem{
					ProductID: item.ProductID,
					Name:      item.Name,
					Quantity:  item.Quantity,
					Price:     item.Price,
					SoldSpecs: item.SoldSpecs,
				})
			}

			receipt = models.Return{
				OrderID:    order.ID,
				TrackingID: order.TrackingID,
				UserID:     order.UserID,
				TotalValue: order.TotalPrice,
				Items:      returnItems,
				Reason:     strings.TrimSpace(req.Reason),
				CreatedAt:  time.Now(),
			}

			res, err := db.Collection("returns").InsertOne(sessCtx, receipt)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				receipt.ID = id
			}

			if _, err := db.Collection("orders").DeleteOne(sessCtx, bson.M{"_id": order.ID}); err != nil {
				return nil, err
			}
			// The shipment is keyed to the order; it goes with it.
			if _, err := db.Collection("shipments").DeleteOne(sessCtx, bson.M{"orderId": order.ID}); err != nil {
				return nil, err
			}
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, errOrderNotFound) {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Info().
			Str("orderId", orderID.Hex()).
			Str("trackingId", receipt.TrackingID).
			Float64("totalValue", receipt.TotalValue).
			Msg("order returned")
		c.JSON(http.StatusOK, receipt)
	}
}

func serialNumbers(specs []models.BaseSpec) []string {
	out := make([]string, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.SerialNumber)
	}
	return out
}

/* =========================
   LIST RETURNS
========================= */

func GetReturns(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/returns"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("returns").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		returns := make([]models.Return, 0)
		if err := cursor.All(ctx, &returns); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, returns)
	}
}
