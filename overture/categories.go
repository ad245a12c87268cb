// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package overture

import (
	"sort"
	"strings"
)

// categoryTags maps Overture place category codes to OSM tags. The
// table covers the food-and-drink slice of the Overture taxonomy that
// the pipeline queries for; codes missing here fall back to the suffix
// rules in TagsForCategory.
var categoryTags = map[string]map[string]any{
	"restaurant":           {"amenity": "restaurant"},
	"fast_food_restaurant": {"amenity": "fast_food"},
	"cafe":                 {"amenity": "cafe"},
	"coffee_shop":          {"amenity": "cafe", "cuisine": "coffee_shop"},
	"internet_cafe":        {"amenity": "internet_cafe"},
	"tea_room":             {"amenity": "cafe", "cuisine": "tea"},
	"bubble_tea":           {"amenity": "cafe", "cuisine": "bubble_tea"},
	"bar":                  {"amenity": "bar"},
	"pub":                  {"amenity": "pub"},
	"wine_bar":             {"amenity": "bar", "bar": "wine_bar"},
	"cocktail_bar":         {"amenity": "bar", "bar": "cocktail"},
	"sports_bar":           {"amenity": "bar", "bar": "sports_bar"},
	"beer_garden":          {"amenity": "biergarten"},
	"brewery":              {"craft": "brewery"},
	"juice_bar":            {"amenity": "juice_bar"},
	"ice_cream_shop":       {"amenity": "ice_cream"},
	"bakery":               {"shop": "bakery"},
	"donut_shop":           {"shop": "bakery", "cuisine": "donut"},
	"sandwich_shop":        {"amenity": "fast_food", "cuisine": "sandwich"},
	"pizza_restaurant":     {"amenity": "restaurant", "cuisine": "pizza"},
	"food_truck":           {"amenity": "fast_food", "street_vendor": "yes"},
	"diner":                {"amenity": "restaurant", "cuisine": "american;diner"},
	"bistro":               {"amenity": "restaurant", "cuisine": "bistro"},
	"steakhouse":           {"amenity": "restaurant", "cuisine": "steak_house"},
	"seafood_restaurant":   {"amenity": "restaurant", "cuisine": "seafood"},
	"sushi_restaurant":     {"amenity": "restaurant", "cuisine": "sushi"},
	"ramen_restaurant":     {"amenity": "restaurant", "cuisine": "ramen"},
	"barbecue_restaurant":  {"amenity": "restaurant", "cuisine": "barbecue"},
	"breakfast_and_brunch_restaurant": {
		"amenity": "restaurant", "cuisine": "breakfast;brunch",
	},
}

// categoryGroups maps the coarse groups accepted on the command line to
// the parent codes whose subtrees they select.
var categoryGroups = map[string][]string{
	"restaurant": {"restaurant"},
	"bar":        {"bar", "pub"},
	"cafe":       {"cafe", "coffee_shop"},
}

// TagsForCategory returns the OSM tags for an Overture category code.
// Unknown `<cuisine>_restaurant' codes degrade to a plain restaurant
// with the prefix as cuisine; anything else yields no tags.
func TagsForCategory(code string) map[string]any {
	if tags, ok := categoryTags[code]; ok {
		out := make(map[string]any, len(tags))
		for k, v := range tags {
			out[k] = v
		}

		return out
	}

	if cuisine, ok := strings.CutSuffix(code, "_restaurant"); ok && cuisine != "" {
		return map[string]any{"amenity": "restaurant", "cuisine": cuisine}
	}

	return nil
}

// Subcategories expands group names (restaurant, bar, cafe) into every
// category code in the embedded taxonomy that belongs to one of them,
// sorted for stable query generation.
func Subcategories(groups []string) []string {
	want := make(map[string]bool)

	for _, g := range groups {
		for _, parent := range categoryGroups[g] {
			want[parent] = true
		}
	}

	var codes []string

	for code, tags := range categoryTags {
		if want[code] {
			codes = append(codes, code)

			continue
		}

		amenity, _ := tags["amenity"].(string)
		if (want["restaurant"] && (amenity == "restaurant" || amenity == "fast_food")) ||
			(want["bar"] && (amenity == "bar" || amenity == "pub" || amenity == "biergarten")) ||
			(want["cafe"] && amenity == "cafe") {
			codes = append(codes, code)
		}
	}

	sort.Strings(codes)

	return codes
}
