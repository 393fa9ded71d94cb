package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// optionalFloat returns a pointer to a numeric argument, or nil when absent
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetFloat(key, 0)
	return &v
}

// handlePlanOuting implements the plan_outing tool
func handlePlanOuting(itineraries interfaces.ItineraryService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		location, err := request.RequireString("location")
		if err != nil || strings.TrimSpace(location) == "" {
			return errorResult("Error: location parameter is required"), nil
		}

		filters := models.GenerationFilters{
			Location:  location,
			Latitude:  optionalFloat(request, "latitude"),
			Longitude: optionalFloat(request, "longitude"),
			Date:      request.GetString("date", ""),
			StartTime: request.GetString("start_time", ""),
			Duration:  request.GetString("duration", ""),
			Budget:    request.GetString("budget", ""),
			GroupSize: request.GetInt("group_size", 0),
			Interests: request.GetStringSlice("interests", nil),
			Pace:      request.GetString("pace", ""),
			Notes:     request.GetString("notes", ""),
		}

		result, err := itineraries.GenerateItinerary(ctx, filters)
		if err != nil {
			logger.Error().Err(err).Str("location", location).Msg("plan_outing failed")
			return errorResult(fmt.Sprintf("Planning error: %v", err)), nil
		}

		return textResult(formatGenerationResult(result)), nil
	}
}

// handleLookupBusiness implements the lookup_business tool
func handleLookupBusiness(places interfaces.PlacesService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil || strings.TrimSpace(name) == "" {
			return errorResult("Error: name parameter is required"), nil
		}
		location := request.GetString("location", "")

		var bias *models.LocationBias
		lat, lng := optionalFloat(request, "latitude"), optionalFloat(request, "longitude")
		if lat != nil && lng != nil {
			bias = &models.LocationBias{
				Latitude:     *lat,
				Longitude:    *lng,
				RadiusMeters: request.GetFloat("radius_meters", 0),
			}
		}

		place, err := places.LookupBusiness(ctx, name, location, bias)
		if err != nil {
			logger.Error().Err(err).Str("name", name).Msg("lookup_business failed")
			return errorResult(fmt.Sprintf("Lookup error: %v", err)), nil
		}
		if place == nil {
			return textResult(fmt.Sprintf("No matching business found for \"%s\".", name)), nil
		}

		return textResult(formatPlace(place)), nil
	}
}

// handleEnrichStep implements the enrich_step tool
func handleEnrichStep(enricher interfaces.StepEnricher, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		businessName, err := request.RequireString("business_name")
		if err != nil || strings.TrimSpace(businessName) == "" {
			return errorResult("Error: business_name parameter is required"), nil
		}

		step := models.ItineraryStep{
			Time:         request.GetString("time", ""),
			Title:        request.GetString("title", businessName),
			Location:     request.GetString("location", ""),
			BusinessName: businessName,
		}

		enriched, err := enricher.EnrichStep(ctx, step, request.GetString("location_label", ""))
		if err != nil {
			logger.Error().Err(err).Str("business_name", businessName).Msg("enrich_step failed")
			return errorResult(fmt.Sprintf("Enrichment error: %v", err)), nil
		}

		return textResult(formatStep(1, enriched)), nil
	}
}
