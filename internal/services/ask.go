package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skvorcmen/RLT-test/internal/clients/openai"
	"github.com/Skvorcmen/RLT-test/internal/clients/redis"
	"github.com/Skvorcmen/RLT-test/internal/logger"
)

var (
	ErrEmptyQuestion  = errors.New("question must not be empty")
	ErrUnsafeSQL      = errors.New("generated SQL failed validation")
	ErrAskUnavailable = errors.New("natural-language querying is not configured")
)

// schemaPrompt describes the two tables to the model and pins the contract:
// one aggregate SELECT returning a single number.
const schemaPrompt = `You are an expert in SQL and PostgreSQL. Translate the user's question about video statistics into a single SQL query.

## Database schema

### Table: videos
Latest cumulative statistics per video.
- id (BIGINT, PRIMARY KEY) - video identifier
- creator_id (BIGINT, NOT NULL) - creator identifier
- video_created_at (TIMESTAMP, NOT NULL) - video publication time
- views_count (BIGINT, NOT NULL, DEFAULT 0) - latest total views
- likes_count (BIGINT, NOT NULL, DEFAULT 0) - latest total likes
- comments_count (BIGINT, NOT NULL, DEFAULT 0) - latest total comments
- reports_count (BIGINT, NOT NULL, DEFAULT 0) - latest total reports
- created_at, updated_at (TIMESTAMP, NOT NULL) - bookkeeping fields

### Table: video_snapshots
Hourly measurements per video.
- id (BIGINT, PRIMARY KEY) - snapshot identifier
- video_id (BIGINT, NOT NULL, FOREIGN KEY -> videos.id) - owning video
- views_count, likes_count, comments_count, reports_count (BIGINT, NOT NULL, DEFAULT 0) - cumulative counts at measurement time
- delta_views_count, delta_likes_count, delta_comments_count, delta_reports_count (BIGINT, NOT NULL, DEFAULT 0) - increment since the previous snapshot
- created_at (TIMESTAMP, NOT NULL) - measurement time
- updated_at (TIMESTAMP, NOT NULL) - bookkeeping field

## Rules

1. The query must return ONE NUMBER (an aggregate: COUNT, SUM, AVG, MAX, MIN).
2. Use SELECT statements only. Never use DROP, DELETE, UPDATE, INSERT, ALTER, TRUNCATE or CREATE.
3. Questions about growth or increments use SUM(delta_...) over video_snapshots.
4. Questions about totals use the videos table.
5. Comparisons against a calendar date use the DATE() function or DATE literals, e.g. DATE(created_at) = DATE '2025-11-28'.

## Examples

Question: "How many videos are in the system?"
SQL: SELECT COUNT(*) FROM videos;

Question: "How many videos did creator 123 publish between 2025-11-01 and 2025-11-05 inclusive?"
SQL: SELECT COUNT(*) FROM videos WHERE creator_id = 123 AND video_created_at BETWEEN DATE '2025-11-01' AND DATE '2025-11-05';

Question: "How many videos passed 100000 views overall?"
SQL: SELECT COUNT(*) FROM videos WHERE views_count > 100000;

Question: "By how many views did all videos grow on 2025-11-28?"
SQL: SELECT COALESCE(SUM(delta_views_count), 0) FROM video_snapshots WHERE DATE(created_at) = DATE '2025-11-28';

Question: "How many distinct videos gained views on 2025-11-27?"
SQL: SELECT COUNT(DISTINCT video_id) FROM video_snapshots WHERE DATE(created_at) = DATE '2025-11-27' AND delta_views_count > 0;

## Task

Translate the following question into a SQL query. Return ONLY the SQL, no explanations.`

type AskResult struct {
	Question string  `json:"question"`
	SQL      string  `json:"sql"`
	Value    float64 `json:"value"`
	Cached   bool    `json:"cached"`
}

// AskService answers natural-language questions about the stored statistics
// by generating one scalar SELECT, validating it and running it.
type AskService interface {
	Ask(ctx context.Context, question string) (*AskResult, error)
}

type askService struct {
	db       *gorm.DB
	log      *logger.Logger
	llm      openai.Client
	cache    redis.Cache
	cacheTTL time.Duration
}

func NewAskService(db *gorm.DB, log *logger.Logger, llm openai.Client, cache redis.Cache, cacheTTL time.Duration) AskService {
	return &askService{
		db:       db,
		log:      log.With("service", "AskService"),
		llm:      llm,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (s *askService) Ask(ctx context.Context, question string) (*AskResult, error) {
	if s.llm == nil {
		return nil, ErrAskUnavailable
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	cacheKey := askCacheKey(question)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn("Ask cache read failed", "error", err)
		} else if ok {
			if value, pErr := strconv.ParseFloat(cached, 64); pErr == nil {
				return &AskResult{Question: question, Value: value, Cached: true}, nil
			}
		}
	}

	raw, err := s.llm.GenerateText(ctx, schemaPrompt, question)
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}

	sqlQuery := extractSQL(raw)
	if sqlQuery == "" {
		return nil, fmt.Errorf("no SQL in model response")
	}
	if !validateSQL(sqlQuery) {
		s.log.Warn("Rejected generated SQL", "sql", sqlQuery)
		return nil, ErrUnsafeSQL
	}

	value, err := s.runScalar(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("execute generated sql: %w", err)
	}

	if s.cache != nil {
		if cErr := s.cache.Set(ctx, cacheKey, strconv.FormatFloat(value, 'f', -1, 64), s.cacheTTL); cErr != nil {
			s.log.Warn("Ask cache write failed", "error", cErr)
		}
	}

	return &AskResult{Question: question, SQL: sqlQuery, Value: value}, nil
}

// runScalar executes the query and returns the first column of the first row
// as a number. An empty result counts as zero.
func (s *askService) runScalar(ctx context.Context, query string) (float64, error) {
	row := s.db.WithContext(ctx).Raw(query).Row()
	if row == nil {
		return 0, fmt.Errorf("no result row")
	}

	var value sql.NullFloat64
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	if !value.Valid {
		return 0, nil
	}
	return value.Float64, nil
}

// extractSQL strips markdown fencing and the trailing semicolon from a model
// reply, leaving the bare statement.
func extractSQL(response string) string {
	sqlText := strings.TrimSpace(response)

	if strings.HasPrefix(sqlText, "```") {
		lines := strings.Split(sqlText, "\n")
		if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		sqlText = strings.Join(lines, "\n")
	}

	sqlText = strings.TrimSpace(sqlText)
	sqlText = strings.TrimSuffix(sqlText, ";")
	return strings.TrimSpace(sqlText)
}

// validateSQL accepts aggregate SELECTs only. The denylist is keyword-based
// on purpose: anything that even mentions a mutating verb is thrown away
// rather than parsed.
func validateSQL(sqlText string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if !strings.HasPrefix(upper, "SELECT") {
		return false
	}

	dangerous := []string{"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "TRUNCATE", "CREATE", "EXEC", "GRANT", "REVOKE"}
	for _, keyword := range dangerous {
		if containsKeyword(upper, keyword) {
			return false
		}
	}
	// a second statement smuggled in after a semicolon
	if strings.Contains(strings.TrimSuffix(upper, ";"), ";") {
		return false
	}
	return true
}

// containsKeyword matches whole words so that e.g. column names merely
// containing a denylisted substring do not trip validation.
func containsKeyword(upper, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(upper[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordChar(upper[start-1])
		afterOK := end == len(upper) || !isWordChar(upper[end])
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func askCacheKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(question)))
	return "ask:" + hex.EncodeToString(sum[:8])
}
