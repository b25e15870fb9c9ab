package recommend

import (
	"context"
	"encoding/json"
	"regexp"
	"smartcook/internal/logging"
	"strings"
)

// Recipe is one suggestion returned by the model.
type Recipe struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	PreparationTime string   `json:"preparationTime"`
	Complexity      string   `json:"complexity"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	Image           string   `json:"image,omitempty"`
}

// Placeholder is returned in place of model output that cannot be parsed.
var Placeholder = Recipe{
	Title:           "Error generating recipes",
	Description:     "We encountered an issue generating recipes. Please try again later.",
	PreparationTime: "N/A",
	Complexity:      "N/A",
	Ingredients:     []string{"Could not generate recipe"},
	Instructions:    []string{"Could not generate instructions"},
	Image:           "https://via.placeholder.com/400x300?text=Recipe+Unavailable",
}

var (
	openJSONFence  = regexp.MustCompile("```json\\s*")
	openFence      = regexp.MustCompile("```\\s*")
	closeFenceTail = regexp.MustCompile("\\s*```\\s*$")
)

// CleanResponse strips a surrounding markdown code fence from model output.
func CleanResponse(content string) string {
	if content == "" {
		return "[]"
	}
	switch {
	case strings.Contains(content, "```json"):
		content = replaceFirst(openJSONFence, content)
		content = closeFenceTail.ReplaceAllString(content, "")
	case strings.Contains(content, "```"):
		content = replaceFirst(openFence, content)
		content = closeFenceTail.ReplaceAllString(content, "")
	}
	return content
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// ParseRecipes decodes model output; anything unparseable yields the placeholder.
func ParseRecipes(content string) ([]Recipe, bool) {
	var recipes []Recipe
	if err := json.Unmarshal([]byte(CleanResponse(content)), &recipes); err != nil {
		logging.Get(logging.CategoryLLM).Warn("Failed to parse model response as JSON: %v", err)
		return []Recipe{Placeholder}, false
	}
	return recipes, true
}

// Recommender produces recipe suggestions, consulting an optional cache first.
type Recommender struct {
	provider Provider
	cache    Cache
}

// New creates a Recommender. cache may be nil.
func New(provider Provider, cache Cache) *Recommender {
	return &Recommender{provider: provider, cache: cache}
}

// Recommend validates req and returns suggestions. Only provider failures are errors.
func (r *Recommender) Recommend(ctx context.Context, req Request) ([]Recipe, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	key := req.Key()
	if r.cache != nil {
		recipes, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			logging.Get(logging.CategoryCache).Warn("Recommendation cache read failed: %v", err)
		} else if ok {
			logging.CacheDebug("Recommendation cache hit for %q", key)
			return recipes, nil
		}
	}

	timer := logging.StartTimer(logging.CategoryLLM, "Recommend/"+r.provider.Name())
	content, err := r.provider.Complete(ctx, systemPersona, req.Prompt())
	timer.Stop()
	if err != nil {
		logging.Get(logging.CategoryLLM).Error("Recommendation call failed: %v", err)
		return nil, err
	}
	logging.LLMDebug("Model returned %d bytes", len(content))

	recipes, ok := ParseRecipes(content)
	if ok && r.cache != nil {
		if err := r.cache.Set(ctx, key, recipes); err != nil {
			logging.Get(logging.CategoryCache).Warn("Recommendation cache write failed: %v", err)
		}
	}
	return recipes, nil
}
