package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backoffice/internal/models"
)

// These tests run against a real mongod and are skipped unless MONGO_URI is
// set. Order creation, verification and returns use transactions, so the
// deployment must be a replica set (a single-node one is enough).
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set; needs a replica-set mongod")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("backoffice_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func insertProduct(t *testing.T, db *mongo.Database, p models.Product) primitive.ObjectID {
	t.Helper()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := db.Collection("products").InsertOne(context.Background(), p)
	require.NoError(t, err)
	return res.InsertedID.(primitive.ObjectID)
}

func insertOrder(t *testing.T, db *mongo.Database, o models.Order) primitive.ObjectID {
	t.Helper()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.TrackingID == "" {
		o.TrackingID = primitive.NewObjectID().Hex()
	}
	if o.UserID.IsZero() {
		o.UserID = primitive.NewObjectID()
	}
	res, err := db.Collection("orders").InsertOne(context.Background(), o)
	require.NoError(t, err)
	return res.InsertedID.(primitive.ObjectID)
}

func TestApproveSaleSecondCallLeavesApprovedAt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id := insertOrder(t, db, models.Order{Status: models.OrderStatusPending})

	r := newTestRouter()
	r.PATCH("/api/orders/:id/approve", ApproveSale(db))
	path := "/api/orders/" + id.Hex() + "/approve"

	w := doJSON(t, r, http.MethodPatch, path, gin.H{"note": "checked"})
	require.Equal(t, http.StatusOK, w.Code)

	var first models.Order
	require.NoError(t, db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&first))
	require.True(t, first.IsApproved)
	require.NotNil(t, first.ApprovedAt)

	w = doJSON(t, r, http.MethodPatch, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already approved")

	var second models.Order
	require.NoError(t, db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&second))
	assert.True(t, second.ApprovedAt.Equal(*first.ApprovedAt), "second approval must not move approvedAt")
}

func TestCreateOrderRejectsOversell(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	productID := insertProduct(t, db, models.Product{
		Name:         "Laptop",
		Quantity:     2,
		SellingPrice: 1000,
		Availability: models.AvailabilityInStock,
	})

	r := newTestRouter()
	r.POST("/api/orders", CreateOrder(db, nil))

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"orderItems": []gin.H{{"product": productID.Hex(), "qty": 5}},
		"customer":   gin.H{"name": "Ada", "phone": "08012345678"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient stock")

	var product models.Product
	require.NoError(t, db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product))
	assert.Equal(t, 2, product.Quantity, "rejected sale must leave stock untouched")

	count, err := db.Collection("orders").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, count, "rejected sale must not insert an order")
}

func TestCreateOrderDrainingStockFlipsAvailability(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	productID := insertProduct(t, db, models.Product{
		Name:         "Laptop",
		Quantity:     3,
		SellingPrice: 1000,
		ReorderLevel: 1,
		Availability: models.AvailabilityInStock,
	})

	r := newTestRouter()
	r.POST("/api/orders", CreateOrder(db, nil))

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"orderItems": []gin.H{{"product": productID.Hex(), "qty": 3}},
		"customer":   gin.H{"name": "Ada", "phone": "08012345678"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "low on stock")

	var product models.Product
	require.NoError(t, db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product))
	assert.Equal(t, 0, product.Quantity)
	assert.Equal(t, models.AvailabilityRestocking, product.Availability)
}

func TestReturnOrderRestocksAndDeletesOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	productID := insertProduct(t, db, models.Product{
		Name:         "Laptop",
		Quantity:     5,
		SellingPrice: 1000,
		ReorderLevel: 6,
		Availability: models.AvailabilityRestocking,
	})

	orderID := insertOrder(t, db, models.Order{
		Status: models.OrderStatusDelivered,
		Items: []models.OrderItem{{
			ProductID: productID,
			Name:      "Laptop",
			Quantity:  3,
			Price:     1000,
		}},
		ItemsPrice: 3000,
		TotalPrice: 3000,
	})
	_, err := db.Collection("shipments").InsertOne(ctx, models.Shipment{
		OrderID: orderID,
		Status:  models.ShipmentStatusDelivered,
	})
	require.NoError(t, err)

	r := newTestRouter()
	r.POST("/api/returns/:id/return", ReturnOrder(db))

	w := doJSON(t, r, http.MethodPost, "/api/returns/"+orderID.Hex()+"/return", gin.H{"reason": "faulty unit"})
	require.Equal(t, http.StatusOK, w.Code)

	var product models.Product
	require.NoError(t, db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product))
	assert.Equal(t, 8, product.Quantity, "return must restock every line")
	assert.Equal(t, models.AvailabilityInStock, product.Availability,
		"restock past the reorder level must recover availability")

	var receipt models.Return
	require.NoError(t, db.Collection("returns").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&receipt))
	assert.Equal(t, 3000.0, receipt.TotalValue, "return log must carry the order total")
	assert.Equal(t, "faulty unit", receipt.Reason)

	orders, err := db.Collection("orders").CountDocuments(ctx, bson.M{"_id": orderID})
	require.NoError(t, err)
	assert.Zero(t, orders, "returned order must be deleted")

	shipments, err := db.Collection("shipments").CountDocuments(ctx, bson.M{"orderId": orderID})
	require.NoError(t, err)
	assert.Zero(t, shipments, "the order's shipment goes with it")
}

func TestCreateShipmentSecondCallUpdatesExisting(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	orderID := insertOrder(t, db, models.Order{Status: models.OrderStatusProcessing})

	r := newTestRouter()
	r.POST("/api/logistics", CreateShipment(db))

	w := doJSON(t, r, http.MethodPost, "/api/logistics", gin.H{
		"orderId":       orderID.Hex(),
		"driverName":    "Musa",
		"driverPhone":   "08099887766",
		"recipientName": "Ada",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "driverOneTimePassword")

	var order models.Order
	require.NoError(t, db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order))
	assert.Equal(t, models.OrderStatusShipped, order.Status, "first shipment moves the order to Shipped")
	assert.NotNil(t, order.ShippedAt)

	w = doJSON(t, r, http.MethodPost, "/api/logistics", gin.H{
		"orderId":       orderID.Hex(),
		"recipientName": "Chidi",
	})
	require.Equal(t, http.StatusOK, w.Code)

	count, err := db.Collection("shipments").CountDocuments(ctx, bson.M{"orderId": orderID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "shipments stay one-to-one with orders")

	var shipment models.Shipment
	require.NoError(t, db.Collection("shipments").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&shipment))
	assert.Equal(t, "Chidi", shipment.RecipientName)
	assert.Equal(t, models.ShipmentStatusReceived, shipment.Status)
}
