package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/soltrace-engine/internal/heuristics"
	"github.com/rawblock/soltrace-engine/internal/intel"
	"github.com/rawblock/soltrace-engine/internal/report"
	"github.com/rawblock/soltrace-engine/internal/solana"
	"github.com/rawblock/soltrace-engine/pkg/models"
)

// APIHandler serves the latest analysis run. State is one report per
// process; every POST /analyze replaces it wholesale. The fetcher and
// crawler are optional collection helpers; their endpoints answer 503 when
// the backing service is not configured.
type APIHandler struct {
	pipeline *heuristics.Pipeline
	fetcher  *solana.Client
	crawler  *intel.Crawler

	mu     sync.RWMutex
	latest *heuristics.Result
	rep    *report.Report
}

// IntelFeed is one raw intel payload submitted for ingestion.
type IntelFeed struct {
	Source  string `json:"source"`
	Payload string `json:"payload"`
}

// AnalyzeRequest is the batch input of one analysis run.
type AnalyzeRequest struct {
	ParsedTransactions []models.ParsedTransaction `json:"parsedTransactions"`
	Transactions       []models.Transaction       `json:"transactions"`
	IntelFeeds         []IntelFeed                `json:"intelFeeds"`
}

// SetupRouter wires the HTTP surface around a validated pipeline.
func SetupRouter(pipeline *heuristics.Pipeline) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// (comma-separated; empty or "*" allows everything).
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{pipeline: pipeline}
	if endpoint := os.Getenv("SOLANA_RPC_ENDPOINT"); endpoint != "" {
		handler.fetcher = solana.New(endpoint)
	}
	if base := os.Getenv("FIRECRAWL_BASE_URL"); base != "" {
		handler.crawler = intel.NewCrawler(base, os.Getenv("FIRECRAWL_API_KEY"))
	}

	api := r.Group("/api/v1")
	api.GET("/health", handler.handleHealth)
	api.Use(AuthMiddleware())
	{
		api.POST("/analyze", NewRateLimiter(analyzeRatePerMin(), 5).Middleware(), handler.handleAnalyze)
		api.GET("/report", handler.handleReport)
		api.GET("/report/text", handler.handleReportText)
		api.GET("/clusters", handler.handleClusters)
		api.GET("/flags", handler.handleFlags)
		api.GET("/correlations", handler.handleCorrelations)
		api.GET("/accounts/:address", handler.handleAccount)
		api.GET("/fetch/:address", handler.handleFetch)
		api.POST("/intel/scrape", handler.handleScrape)
	}

	return r
}

// analyzeRatePerMin reads ANALYZE_RATE_PER_MIN, defaulting to 30.
func analyzeRatePerMin() int {
	if raw := os.Getenv("ANALYZE_RATE_PER_MIN"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return 30
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analyze request", "details": err.Error()})
		return
	}

	agent := intel.NewAgent()
	for _, feed := range req.IntelFeeds {
		agent.Ingest(feed.Source, feed.Payload)
	}
	consolidated, err := agent.Consolidate()
	if err != nil {
		if errors.Is(err, intel.ErrNoSignals) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No intel signals ingested"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := h.pipeline.Run(req.ParsedTransactions, req.Transactions, consolidated)
	rep := report.Build(result, consolidated)

	h.mu.Lock()
	h.latest = result
	h.rep = &rep
	h.mu.Unlock()

	c.JSON(http.StatusOK, rep)
}

func (h *APIHandler) handleReport(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis run yet"})
		return
	}
	c.JSON(http.StatusOK, h.rep)
}

func (h *APIHandler) handleReportText(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rep == nil {
		c.String(http.StatusNotFound, "no analysis run yet")
		return
	}
	c.String(http.StatusOK, report.RenderText(*h.rep))
}

func (h *APIHandler) handleClusters(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis run yet"})
		return
	}
	c.JSON(http.StatusOK, h.latest.Correlation.Clusters)
}

func (h *APIHandler) handleFlags(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis run yet"})
		return
	}
	c.JSON(http.StatusOK, h.latest.Correlation.Flags)
}

func (h *APIHandler) handleCorrelations(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis run yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hits":          h.latest.Hits,
		"highValueHits": h.latest.HighValueHits,
	})
}

// handleFetch pulls recent confirmed transactions for one address so a
// client can assemble an analyze batch without its own RPC access.
func (h *APIHandler) handleFetch(c *gin.Context) {
	if h.fetcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SOLANA_RPC_ENDPOINT not configured"})
		return
	}

	address := solana.NormalizeAddress(c.Param("address"))
	if !solana.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address format"})
		return
	}

	limit := 25
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer in 1..1000"})
			return
		}
		limit = parsed
	}

	records, err := h.fetcher.FetchTransactions(c.Request.Context(), address, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "transactions": records})
}

type scrapeURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// handleScrape fetches one page through the crawler and returns the parsed
// intel signal for inclusion in a later analyze request.
func (h *APIHandler) handleScrape(c *gin.Context) {
	if h.crawler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "FIRECRAWL_BASE_URL not configured"})
		return
	}

	var req scrapeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scrape request", "details": err.Error()})
		return
	}

	signal, err := h.crawler.Scrape(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signal)
}

func (h *APIHandler) handleAccount(c *gin.Context) {
	address := solana.NormalizeAddress(c.Param("address"))
	if !solana.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address format"})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis run yet"})
		return
	}
	metrics, ok := h.latest.Metrics[address]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not in latest batch"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":        address,
		"metrics":        metrics,
		"counterparties": metrics.UniqueCounterparties(),
		"score":          h.latest.AccountScores[address],
	})
}
