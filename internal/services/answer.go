package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"samarth-chat/internal/models"
)

const (
	imdCitation         = "IMD (sample) - demo dataset"
	agricultureCitation = "Min. of Agriculture (sample) - demo dataset"
	geminiCitation      = "Gemini (generated) - not from the dataset"
	defaultTopCrops     = 3
)

// Suggestions are the example questions offered to users.
var Suggestions = []string{
	"Compare rainfall in Punjab and Haryana",
	"Top 3 crops in Punjab",
	"Average rainfall in India",
	"Most produced crop in Maharashtra",
}

var topNPattern = regexp.MustCompile(`\btop\s+(\d+)\b`)

// Responder answers free-form questions the dataset has no intent for.
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}

// Cache stores answers by question.
type Cache interface {
	Get(ctx context.Context, question string) (*models.AskResponse, bool)
	Set(ctx context.Context, question string, resp *models.AskResponse)
}

type AnswerService struct {
	dataset   Dataset
	responder Responder
	cache     Cache
	logger    *zap.Logger
}

// NewAnswerService builds the service. responder and cache may be nil.
func NewAnswerService(dataset Dataset, responder Responder, cache Cache, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		dataset:   dataset,
		responder: responder,
		cache:     cache,
		logger:    logger,
	}
}

// Ask lets the service stand in for the /ask endpoint in-process.
func (s *AnswerService) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	return s.Answer(ctx, question)
}

// Answer matches the question against the known intents in order:
// rainfall comparison, average rainfall, top crops, then the model
// fallback (when configured) and finally the suggestion list.
func (s *AnswerService) Answer(ctx context.Context, question string) (*models.AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &ValidationError{Fields: map[string]string{"question": "Question is required"}}
	}

	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, question); ok {
			s.logger.Debug("answer cache hit", zap.String("type", resp.Type))
			return resp, nil
		}
	}

	resp, err := s.answer(ctx, question)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, question, resp)
	}
	return resp, nil
}

// answer matches intents on the lower-cased question; the model sees it as typed.
func (s *AnswerService) answer(ctx context.Context, question string) (*models.AskResponse, error) {
	q := strings.ToLower(question)
	rainfall, err := s.dataset.Rainfall(ctx)
	if err != nil {
		return nil, &UpstreamError{Message: "failed to load rainfall data", Err: err}
	}

	if strings.Contains(q, "compare") {
		if states := mentionedStates(q, keys(rainfall)); len(states) >= 2 {
			return compareRainfall(rainfall, states), nil
		}
	}

	if strings.Contains(q, "average") && strings.Contains(q, "rainfall") {
		return averageRainfall(rainfall), nil
	}

	if strings.Contains(q, "top") || strings.Contains(q, "most produced") {
		crops, err := s.dataset.Crops(ctx)
		if err != nil {
			return nil, &UpstreamError{Message: "failed to load crop data", Err: err}
		}
		if states := mentionedStates(q, keys(crops)); len(states) > 0 {
			return topCropsAnswer(crops, states[0], topN(q)), nil
		}
	}

	if s.responder != nil {
		text, err := s.responder.Respond(ctx, question)
		if err == nil && strings.TrimSpace(text) != "" {
			resp := models.NewAskResponse("llm", strings.TrimSpace(text))
			resp.Citation = geminiCitation
			return resp, nil
		}
		s.logger.Warn("model fallback failed", zap.Error(err))
	}

	resp := models.NewAskResponse("fallback",
		"I didn't understand that fully. Try one of these examples: "+strings.Join(Suggestions, "; ")+".")
	resp.Suggestions = Suggestions
	return resp, nil
}

func compareRainfall(rainfall models.Rainfall, states []string) *models.AskResponse {
	parts := make([]string, 0, len(states))
	values := make([]float64, 0, len(states))
	for _, state := range states {
		avg := mean(rainfall[state])
		parts = append(parts, fmt.Sprintf("%s: %.2f mm", state, avg))
		values = append(values, round2(avg))
	}

	resp := models.NewAskResponse("rainfall_compare",
		"Average rainfall — "+strings.Join(parts, ", ")+" (sample IMD data).")
	resp.Labels = states
	resp.Values = values
	resp.Citation = imdCitation
	return resp
}

func averageRainfall(rainfall models.Rainfall) *models.AskResponse {
	var all []float64
	for _, state := range keys(rainfall) {
		all = append(all, rainfall[state]...)
	}

	resp := models.NewAskResponse("info",
		fmt.Sprintf("India's demo average rainfall across states: %.2f mm.", mean(all)))
	resp.Citation = imdCitation
	return resp
}

func topCropsAnswer(crops models.CropProduction, state string, n int) *models.AskResponse {
	top := topCrops(crops[state], n)

	parts := make([]string, 0, len(top))
	labels := make([]string, 0, len(top))
	values := make([]float64, 0, len(top))
	for _, c := range top {
		parts = append(parts, fmt.Sprintf("%s (%d t)", c.Crop, c.Tonnes))
		labels = append(labels, c.Crop)
		values = append(values, float64(c.Tonnes))
	}

	resp := models.NewAskResponse("top_crops", fmt.Sprintf("Top crops in %s: %s", state, strings.Join(parts, ", ")))
	resp.State = state
	resp.Labels = labels
	resp.Values = values
	resp.Citation = agricultureCitation
	return resp
}

// mentionedStates returns the known states named in q, in the order they appear.
func mentionedStates(q string, known []string) []string {
	type hit struct {
		state string
		pos   int
	}
	var hits []hit
	for _, state := range known {
		if pos := strings.Index(q, strings.ToLower(state)); pos >= 0 {
			hits = append(hits, hit{state, pos})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	states := make([]string, len(hits))
	for i, h := range hits {
		states[i] = h.state
	}
	return states
}

func topN(q string) int {
	m := topNPattern.FindStringSubmatch(q)
	if m == nil {
		return defaultTopCrops
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultTopCrops
	}
	return n
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
