package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backoffice/internal/models"
)

// StreamNewOrders pushes newly inserted orders to the client as server-sent
// events, backed by a change stream on the orders collection. The stream is
// closed when the client disconnects. Deployments without change stream
// support (standalone mongod) get a 501 instead of a silently dead
// connection.
func StreamNewOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/stream"
		defer handlePanic(c, route)

		ctx := c.Request.Context()

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"operationType": "insert"}}},
		}
		stream, err := db.Collection("orders").Watch(ctx, pipeline,
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			log.Warn().Err(err).Msg("change streams unavailable")
			respondWithError(c, http.StatusNotImplemented, route, "order streaming requires a replica set deployment")
			return
		}
		defer stream.Close(ctx)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Flush()

		for stream.Next(ctx) {
			var event struct {
				FullDocument models.Order `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Warn().Err(err).Msg("order stream decode failed")
				continue
			}

			c.SSEvent("order", event.FullDocument)
			c.Writer.Flush()
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("order stream closed with error")
		}
	}
}
