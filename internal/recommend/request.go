// Package recommend asks an LLM for recipes that can be cooked from a list of ingredients.
package recommend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidRequest is returned for requests that fail validation.
var ErrInvalidRequest = errors.New("invalid recommendation request")

const (
	systemPersona = "You are a professional chef specialized in creating delicious recipes from available ingredients. You excel at suggesting creative combinations and clear instructions."

	anyValue = "any"
)

var (
	complexities = []string{"any", "easy", "medium", "hard"}
	prepTimes    = []string{"any", "quick", "medium", "long"}

	timeMap = map[string]string{
		"quick":  "under 30 minutes",
		"medium": "between 30 and 60 minutes",
		"long":   "over 60 minutes",
	}
)

// Request is the body of a recommendation call.
type Request struct {
	Ingredients []string `json:"ingredients"`
	Complexity  string   `json:"complexity,omitempty"`
	PrepTime    string   `json:"prepTime,omitempty"`
}

// Normalize fills defaults and validates r.
func (r *Request) Normalize() error {
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: Ingredients are required", ErrInvalidRequest)
	}
	if r.Complexity == "" {
		r.Complexity = anyValue
	}
	if r.PrepTime == "" {
		r.PrepTime = anyValue
	}
	if !slices.Contains(complexities, r.Complexity) {
		return fmt.Errorf("%w: complexity must be one of %v", ErrInvalidRequest, complexities)
	}
	if !slices.Contains(prepTimes, r.PrepTime) {
		return fmt.Errorf("%w: prepTime must be one of %v", ErrInvalidRequest, prepTimes)
	}
	return nil
}

// Key identifies equivalent requests: ingredient order and case do not matter.
func (r Request) Key() string {
	ings := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ings = append(ings, strings.ToLower(strings.TrimSpace(ing)))
	}
	slices.Sort(ings)
	return strings.Join(ings, ",") + "|" + r.Complexity + "|" + r.PrepTime
}

// Prompt renders the user message sent to the model.
func (r Request) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate 3 creative, chef-quality recipes using only these ingredients: %s.\n",
		strings.Join(r.Ingredients, ", "))
	if r.Complexity != "" && r.Complexity != anyValue {
		fmt.Fprintf(&b, "The recipes should be of %s complexity.\n", r.Complexity)
	}
	if t, ok := timeMap[r.PrepTime]; ok {
		fmt.Fprintf(&b, "The recipes should take %s to prepare.\n", t)
	}
	b.WriteString(`For each recipe, provide:
1. A descriptive title
2. A brief description that highlights the main flavors
3. Preparation time
4. Complexity level (easy, medium, or hard)
5. List of ingredients with measurements
6. Step-by-step cooking instructions
7. A suggested image URL that would represent this dish

Format the response as a valid JSON array with objects containing the following fields:
title, description, preparationTime, complexity, ingredients (array), instructions (array), image (URL string)
`)
	return b.String()
}
