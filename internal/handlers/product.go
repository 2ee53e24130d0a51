package handlers

import (
	"context"
	"math"
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

/* =======================
   REQUEST DTOs
======================= */

type productCreateRequest struct {
	Name         string                  `json:"name" binding:"required"`
	Brand        string                  `json:"brand"`
	Category     string                  `json:"category"`
	Quantity     int                     `json:"quantity"`
	BaseSpecs    []productSpecRequest    `json:"baseSpecs"`
	Variants     []productVariantRequest `json:"variants"`
	CostPrice    float64                 `json:"costPrice"`
	SellingPrice float64                 `json:"sellingPrice" binding:"required"`
	ReorderLevel int                     `json:"reorderLevel"`
}

type productSpecRequest struct {
	SerialNumber string `json:"serialNumber" binding:"required"`
	BaseRAM      string `json:"baseRam"`
	BaseStorage  string `json:"baseStorage"`
	BaseCPU      string `json:"baseCpu"`
}

type productVariantRequest struct {
	Name    string `json:"name" binding:"required"`
	Options []struct {
		Value string  `json:"value" binding:"required"`
		Cost  float64 `json:"cost"`
	} `json:"options" binding:"required"`
}

type productUpdateRequest struct {
	Name         *string  `json:"name"`
	Brand        *string  `json:"brand"`
	Category     *string  `json:"category"`
	CostPrice    *float64 `json:"costPrice"`
	SellingPrice *float64 `json:"sellingPrice"`
	ReorderLevel *int     `json:"reorderLevel"`
	Availability *string  `json:"availability"`
}

/* =======================
   HELPERS
======================= */

func buildProductFromRequest(req productCreateRequest) (models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Product{}, validationError("name required")
	}
	if req.SellingPrice <= 0 {
		return models.Product{}, validationError("sellingPrice must be greater than 0")
	}
	if req.CostPrice < 0 {
		return models.Product{}, validationError("costPrice must be zero or greater")
	}
	if req.ReorderLevel < 0 {
		return models.Product{}, validationError("reorderLevel must be zero or greater")
	}
	if req.Quantity < 0 {
		return models.Product{}, validationError("quantity must be zero or greater")
	}

	specs := make([]models.BaseSpec, 0, len(req.BaseSpecs))
	seen := map[string]struct{}{}
	for _, s := range req.BaseSpecs {
		serial := strings.TrimSpace(s.SerialNumber)
		if serial == "" {
			return models.Product{}, validationError("serialNumber required")
		}
		if _, ok := seen[serial]; ok {
			return models.Product{}, duplicateSerialError{Serial: serial}
		}
		seen[serial] = struct{}{}
		specs = append(specs, models.BaseSpec{
			SerialNumber: serial,
			BaseRAM:      strings.TrimSpace(s.BaseRAM),
			BaseStorage:  strings.TrimSpace(s.BaseStorage),
			BaseCPU:      strings.TrimSpace(s.BaseCPU),
		})
	}

	quantity := req.Quantity
	if len(specs) > 0 {
		// Serialized tracking: the count follows the units.
		quantity = len(specs)
	}

	variants := make([]models.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		options := make([]models.VariantOption, 0, len(v.Options))
		for _, o := range v.Options {
			options = append(options, models.VariantOption{Value: o.Value, Cost: o.Cost})
		}
		variants = append(variants, models.Variant{Name: strings.TrimSpace(v.Name), Options: options})
	}

	now := time.Now()
	return models.Product{
		Name:         name,
		Brand:        strings.TrimSpace(req.Brand),
		Category:     strings.TrimSpace(req.Category),
		Quantity:     quantity,
		BaseSpecs:    specs,
		Variants:     variants,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		ReorderLevel: req.ReorderLevel,
		Availability: availabilityFor(quantity, req.ReorderLevel),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type validationError string

func (e validationError) Error() string {
	return string(e)
}

/* =======================
   CREATE
======================= */

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		product, err := buildProductFromRequest(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "serial number already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Info().Str("productId", product.ID.Hex()).Str("name", product.Name).Msg("product created")
		c.JSON(http.StatusCreated, product)
	}
}

func BulkCreateProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/bulk"
		defer handlePanic(c, route)

		var reqs []productCreateRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if len(reqs) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one product is required")
			return
		}

		docs := make([]interface{}, 0, len(reqs))
		for _, req := range reqs {
			product, err := buildProductFromRequest(req)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			docs = append(docs, product)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertMany(ctx, docs)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "serial number already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Info().Int("count", len(res.InsertedIDs)).Msg("products bulk created")
		c.JSON(http.StatusCreated, gin.H{"created": len(res.InsertedIDs)})
	}
}

/* =======================
   LIST / GET
======================= */

func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if availability := strings.TrimSpace(c.Query("availability")); availability != "" {
			filter["availability"] = availability
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"brand": bson.M{"$regex": search, "$options": "i"}},
				{"baseSpecs.serialNumber": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
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

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": products,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// GetLowStockProducts lists products at or below their reorder level.
func GetLowStockProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/low-stock"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{
			"$expr": bson.M{"$lte": []string{"$quantity", "$reorderLevel"}},
		}

		cursor, err := db.Collection("products").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "quantity", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

/* =======================
   UPDATE / DELETE
======================= */

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		set := bson.M{"updatedAt": time.Now()}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			set["name"] = name
		}
		if req.Brand != nil {
			set["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.Category != nil {
			set["category"] = strings.TrimSpace(*req.Category)
		}
		if req.CostPrice != nil {
			if *req.CostPrice < 0 {
				respondWithError(c, http.StatusBadRequest, route, "costPrice must be zero or greater")
				return
			}
			set["costPrice"] = *req.CostPrice
		}
		if req.SellingPrice != nil {
			if *req.SellingPrice <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "sellingPrice must be greater than 0")
				return
			}
			set["sellingPrice"] = *req.SellingPrice
		}
		if req.ReorderLevel != nil {
			if *req.ReorderLevel < 0 {
				respondWithError(c, http.StatusBadRequest, route, "reorderLevel must be zero or greater")
				return
			}
			set["reorderLevel"] = *req.ReorderLevel
		}
		if req.Availability != nil {
			switch *req.Availability {
			case models.AvailabilityInStock, models.AvailabilityRestocking, models.AvailabilityInactive:
				set["availability"] = *req.Availability
			default:
				respondWithError(c, http.StatusBadRequest, route, "invalid availability")
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		log.Info().Str("productId", id.Hex()).Msg("product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

/* =======================
   SERIALIZED UNITS
======================= */

// AddProductSpecs appends serialized units to a product and bumps quantity by
// the number of new units, keeping the count equal to the unassigned specs.
func AddProductSpecs(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/specs"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req struct {
			Specs []productSpecRequest `json:"specs" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Specs) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "specs required")
			return
		}

		specs := make([]models.BaseSpec, 0, len(req.Specs))
		seen := map[string]struct{}{}
		for _, s := range req.Specs {
			serial := strings.TrimSpace(s.SerialNumber)
			if serial == "" {
				respondWithError(c, http.StatusBadRequest, route, "serialNumber required")
				return
			}
			if _, ok := seen[serial]; ok {
				respondWithError(c, http.StatusConflict, route, duplicateSerialError{Serial: serial}.Error())
				return
			}
			seen[serial] = struct{}{}
			specs = append(specs, models.BaseSpec{
				SerialNumber: serial,
				BaseRAM:      strings.TrimSpace(s.BaseRAM),
				BaseStorage:  strings.TrimSpace(s.BaseStorage),
				BaseCPU:      strings.TrimSpace(s.BaseCPU),
			})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Reject serials already present on this product before pushing.
		serials := make([]string, 0, len(specs))
		for _, s := range specs {
			serials = append(serials, s.SerialNumber)
		}
		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"_id":                    id,
			"baseSpecs.serialNumber": bson.M{"$in": serials},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, "serial number already exists")
			return
		}

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{
				"$push": bson.M{"baseSpecs": bson.M{"$each": specs}},
				"$inc":  bson.M{"quantity": len(specs)},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "serial number already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Stock may have recovered past the reorder level.
		availability := availabilityFor(updated.Quantity, updated.ReorderLevel)
		if availability != updated.Availability && updated.Availability != models.AvailabilityInactive {
			_, err = db.Collection("products").UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$set": bson.M{"availability": availability}})
			if err == nil {
				updated.Availability = availability
			}
		}

		log.Info().Str("productId", id.Hex()).Int("added", len(specs)).Msg("serialized units added")
		c.JSON(http.StatusOK, updated)
	}
}
