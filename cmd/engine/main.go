package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/internal/api"
	"github.com/rawblock/soltrace-engine/internal/heuristics"
)

func main() {
	log.Println("Starting RawBlock SolTrace Correlation Engine (Microservice: sol-forensic-correlation)...")

	// ─── Configuration ──────────────────────────────────────────────────
	// All thresholds come from environment variables with documented
	// defaults. Use a .env file for local development:
	// cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	cfg := heuristics.DefaultConfig()
	cfg.SimilarityThreshold = envFloat("SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.RoundTripRatio = envDecimal("ROUND_TRIP_RATIO", cfg.RoundTripRatio)
	cfg.HubThreshold = envInt("HUB_THRESHOLD", cfg.HubThreshold)
	cfg.HubRequiresOutflow = envBool("HUB_REQUIRES_OUTFLOW", cfg.HubRequiresOutflow)
	cfg.HighValueLamports = envInt64("HIGH_VALUE_LAMPORTS", cfg.HighValueLamports)
	cfg.ProgramTouchBias = envInt("PROGRAM_TOUCH_BIAS", cfg.ProgramTouchBias)
	cfg.MinSharedInbound = envInt64("MIN_SHARED_INBOUND", cfg.MinSharedInbound)
	cfg.KeepSingletons = envBool("KEEP_SINGLETONS", cfg.KeepSingletons)
	cfg.Linkage = heuristics.LinkagePolicy(getEnvOrDefault("LINKAGE_POLICY", string(cfg.Linkage)))

	pipeline, err := heuristics.NewPipeline(cfg, nil, nil)
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	r := api.SetupRouter(pipeline)

	port := getEnvOrDefault("PORT", "5340")

	log.Printf("Engine running on :%s (linkage policy: %s)\n", port, cfg.Linkage)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
		log.Fatalf("FATAL: %s=%q is not a valid float", key, os.Getenv(key))
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
		log.Fatalf("FATAL: %s=%q is not a valid integer", key, os.Getenv(key))
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
		log.Fatalf("FATAL: %s=%q is not a valid integer", key, os.Getenv(key))
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
		log.Fatalf("FATAL: %s=%q is not a valid boolean", key, os.Getenv(key))
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if parsed, err := decimal.NewFromString(val); err == nil {
			return parsed
		}
		log.Fatalf("FATAL: %s=%q is not a valid decimal", key, os.Getenv(key))
	}
	return fallback
}
