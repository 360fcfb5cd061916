package services

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"wavely/internal/logging"
	"wavely/internal/models"
)

// Category 毒性分类
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryHate       Category = "hate"
	CategoryHarassment Category = "harassment"
	CategoryProfanity  Category = "profanity"
)

const (
	// SeverityThreshold 单项或总分达到该值即判定为违规
	SeverityThreshold = 60
	ReviewThreshold   = 30

	ReviewerAI        = "AI"
	ReasonParseError  = "parse_error"
	ReasonModelError  = "model_error"
	ReasonNoViolation = "no_violation"
)

var (
	// scanOrder 调用和兜底比较的顺序
	scanOrder = []Category{CategoryGeneral, CategoryHate, CategoryHarassment, CategoryProfanity}
	// severityOrder 多项超阈值时的优先级
	severityOrder = []Category{CategoryHate, CategoryHarassment, CategoryGeneral, CategoryProfanity}

	// 权重以十分之一为单位，避免浮点累加误差
	categoryWeights = map[Category]float64{
		CategoryGeneral:    5,
		CategoryHate:       2,
		CategoryHarassment: 2,
		CategoryProfanity:  1,
	}

	rubrics = map[Category]string{
		CategoryGeneral:    rubricGeneral,
		CategoryHate:       rubricHate,
		CategoryHarassment: rubricHarassment,
		CategoryProfanity:  rubricProfanity,
	}
)

// ClassificationResult 单个分类器的输出
type ClassificationResult struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Classifier 按给定的评分标准给文本打分
type Classifier interface {
	Classify(ctx context.Context, rubric, text string) (ClassificationResult, error)
}

// ErrMalformedOutput 分类器输出无法解析
var ErrMalformedOutput = errors.New("classifier returned malformed output")

// Verdict 综合判定结果
type Verdict struct {
	Score       int                               `json:"score"`
	Status      models.ModerationStatus           `json:"status"`
	TopCategory Category                          `json:"top_category"`
	Reason      string                            `json:"reason"`
	ReviewedBy  string                            `json:"reviewed_by"`
	CheckedAt   time.Time                         `json:"checked_at"`
	Categories  map[Category]ClassificationResult `json:"categories"`
}

// ToxicityAggregator 并发调用四个分类器并汇总为一个判定
type ToxicityAggregator struct {
	classifier Classifier
	logger     logging.Logger
	now        func() time.Time
}

func NewToxicityAggregator(classifier Classifier, logger logging.Logger) *ToxicityAggregator {
	return &ToxicityAggregator{classifier: classifier, logger: logger, now: time.Now}
}

// Classify 不返回错误：单个分类器失败时按 0 分降级
func (a *ToxicityAggregator) Classify(ctx context.Context, text string) Verdict {
	results := make([]ClassificationResult, len(scanOrder))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range scanOrder {
		i, category := i, category
		g.Go(func() error {
			results[i] = a.classifyCategory(gctx, category, text)
			return nil
		})
	}
	_ = g.Wait()

	byCategory := make(map[Category]ClassificationResult, len(scanOrder))
	for i, category := range scanOrder {
		byCategory[category] = results[i]
	}

	verdict := Aggregate(byCategory, a.now())
	moderationVerdicts.WithLabelValues(string(verdict.Status)).Inc()
	return verdict
}

func (a *ToxicityAggregator) classifyCategory(ctx context.Context, category Category, text string) ClassificationResult {
	result, err := a.classifier.Classify(ctx, rubrics[category], text)
	if err == nil {
		result.Score = clampScore(result.Score)
		return result
	}

	reason := ReasonModelError
	if errors.Is(err, ErrMalformedOutput) {
		reason = ReasonParseError
	}
	classifierDegradations.WithLabelValues(string(category), reason).Inc()
	a.logger.WithError(err).WithFields(logging.Fields{
		"category": category,
		"reason":   reason,
	}).Warn("Classifier degraded to zero score")
	return ClassificationResult{Score: 0, Reason: reason}
}

// Aggregate 加权求和并选出最主要的违规分类
func Aggregate(results map[Category]ClassificationResult, checkedAt time.Time) Verdict {
	var weighted float64
	for _, category := range scanOrder {
		weighted += results[category].Score * categoryWeights[category]
	}
	score := int(math.Round(weighted / 10))

	top := topCategory(results)
	reason := results[top].Reason
	if reason == "" {
		reason = ReasonNoViolation
	}

	categories := make(map[Category]ClassificationResult, len(results))
	for k, v := range results {
		categories[k] = v
	}

	return Verdict{
		Score:       score,
		Status:      statusFor(score),
		TopCategory: top,
		Reason:      reason,
		ReviewedBy:  ReviewerAI,
		CheckedAt:   checkedAt,
		Categories:  categories,
	}
}

func topCategory(results map[Category]ClassificationResult) Category {
	for _, category := range severityOrder {
		if results[category].Score >= SeverityThreshold {
			return category
		}
	}

	top, best := CategoryGeneral, -1.0
	for _, category := range scanOrder {
		if score := results[category].Score; score > best {
			top, best = category, score
		}
	}
	return top
}

func statusFor(score int) models.ModerationStatus {
	switch {
	case score >= SeverityThreshold:
		return models.ModerationRejected
	case score >= ReviewThreshold:
		return models.ModerationPending
	default:
		return models.ModerationApproved
	}
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(100, math.Max(0, score))
}
