package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/blog-seo-optimizer/backend/logging"
	"github.com/blog-seo-optimizer/backend/middleware"
	"github.com/blog-seo-optimizer/backend/optimizer"
	"github.com/blog-seo-optimizer/backend/stats"
)

const (
	serviceName    = "Blog SEO Optimizer API"
	serviceVersion = "1.0.0"
)

var (
	logger       *zap.Logger
	seoOptimizer *optimizer.Optimizer
	storage      *stats.Storage
	rateLimiter  *middleware.RateLimiter
)

func loadEnv() {
	// Try .env.development first (local development), then regular .env
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			// No .env file, plain environment variables are fine
			return
		}
	}
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())

	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(logger))
	r.Use(rateLimiter.RateLimit())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := r.Group("/api")
	{
		api.POST("/optimize", optimizeContent)
		api.GET("/health", healthCheck)
		api.GET("/features", getFeatures)
		api.GET("/statistics", getStatistics)
	}

	return r
}

func main() {
	loadEnv()
	setupGinMode()

	var err error
	logger, err = logging.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	storage, err = stats.NewStorage(dataDir)
	if err != nil {
		logger.Fatal("failed to initialize statistics storage", zap.Error(err))
	}
	defer storage.Flush()

	seoOptimizer = optimizer.New(os.Getenv("SITE_BASE_URL"))
	rateLimiter = middleware.NewRateLimiter(2, 5) // 2 requests per second, burst of 5

	r := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	logger.Info("server starting",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
		zap.String("port", port),
	)
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// optimizeRequest uses pointers for the required fields so that an absent
// key is distinguishable from a zero value.
type optimizeRequest struct {
	HTMLCode     *string  `json:"html_code"`
	FocusKeyword *string  `json:"focus_keyword"`
	SEOScore     *int     `json:"seo_score"`
	Categories   []string `json:"categories"`
	Tags         []string `json:"tags"`
	Image        string   `json:"image"`
	Schema       string   `json:"schema"`
}

// missingField reports the first required field that is absent or empty, in
// the documented validation order.
func (r optimizeRequest) missingField() (string, bool) {
	if r.HTMLCode == nil || strings.TrimSpace(*r.HTMLCode) == "" {
		return "html_code", true
	}
	if r.FocusKeyword == nil || strings.TrimSpace(*r.FocusKeyword) == "" {
		return "focus_keyword", true
	}
	if r.SEOScore == nil {
		return "seo_score", true
	}
	return "", false
}

func optimizeContent(c *gin.Context) {
	start := time.Now()

	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if field, missing := req.missingField(); missing {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required field: " + field,
		})
		return
	}

	result, err := seoOptimizer.Optimize(optimizer.Request{
		HTMLCode:     *req.HTMLCode,
		FocusKeyword: *req.FocusKeyword,
		SEOScore:     *req.SEOScore,
		Categories:   req.Categories,
		Tags:         req.Tags,
		Image:        req.Image,
		Schema:       req.Schema,
	})
	if err != nil {
		logger.Error("optimization failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
		)
		storage.RecordFailure()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Optimization failed",
		})
		return
	}

	storage.RecordOptimization(result.Improvement, float64(time.Since(start).Microseconds())/1000.0)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func getFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features": []gin.H{
			{
				"name":        "Title Tag Optimization",
				"description": "Optimize title tags with focus keywords (55-60 characters)",
				"icon":        "⚡",
			},
			{
				"name":        "Meta Description",
				"description": "Generate SEO-friendly meta descriptions (140-160 characters)",
				"icon":        "📝",
			},
			{
				"name":        "Keyword Density",
				"description": "Optimize keyword density to 1.5-2.5%",
				"icon":        "🎯",
			},
			{
				"name":        "Image Alt Text",
				"description": "Add SEO-friendly alt text to images",
				"icon":        "🖼️",
			},
			{
				"name":        "Link Optimization",
				"description": "Add internal and external links",
				"icon":        "🔗",
			},
			{
				"name":        "Schema Markup",
				"description": "Add structured data markup",
				"icon":        "📊",
			},
		},
	})
}

func getStatistics(c *gin.Context) {
	current := storage.GetCurrentStats()

	response := gin.H{
		"optimizations":       current.Optimizations,
		"failures":            current.Failures,
		"average_improvement": current.AverageImprovement(),
		"average_duration_ms": current.AverageDurationMs(),
	}

	// Full per-month breakdown only in development mode
	if os.Getenv(logging.EnvDevMode) == "true" {
		months := gin.H{}
		for _, month := range storage.GetAllMonths() {
			if m, ok := storage.GetMonthlyStats(month); ok {
				months[month] = m
			}
		}
		response["months"] = months
	}

	c.JSON(http.StatusOK, response)
}
