package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createPlanOutingTool returns the plan_outing tool definition
func createPlanOutingTool() mcp.Tool {
	return mcp.NewTool("plan_outing",
		mcp.WithDescription("Generate a multi-step outing itinerary with steps verified against Google Places"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("City or neighborhood, e.g. \"Austin, TX\""),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Optional latitude used to bias place lookups"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Optional longitude used to bias place lookups"),
		),
		mcp.WithString("date",
			mcp.Description("Date of the outing"),
		),
		mcp.WithString("start_time",
			mcp.Description("Start time, e.g. 10:00 AM"),
		),
		mcp.WithString("duration",
			mcp.Description("Desired length, e.g. half day"),
		),
		mcp.WithString("budget",
			mcp.Description("Budget description, e.g. $$ or under $50 per person"),
		),
		mcp.WithNumber("group_size",
			mcp.Description("Number of people"),
		),
		mcp.WithArray("interests",
			mcp.WithStringItems(),
			mcp.Description("Interests such as food, museums, live music"),
		),
		mcp.WithString("pace",
			mcp.Description("relaxed, moderate or packed"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form extra requirements"),
		),
	)
}

// createLookupBusinessTool returns the lookup_business tool definition
func createLookupBusinessTool() mcp.Tool {
	return mcp.NewTool("lookup_business",
		mcp.WithDescription("Resolve a business name to its Google Places record"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Business name, e.g. \"Franklin Barbecue\""),
		),
		mcp.WithString("location",
			mcp.Description("Location hint, e.g. \"Austin, TX\""),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Optional latitude for a location bias"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Optional longitude for a location bias"),
		),
		mcp.WithNumber("radius_meters",
			mcp.Description("Bias radius in meters (default from config)"),
		),
	)
}

// createEnrichStepTool returns the enrich_step tool definition
func createEnrichStepTool() mcp.Tool {
	return mcp.NewTool("enrich_step",
		mcp.WithDescription("Validate one itinerary step's business and attach rating, hours, contact details and photo"),
		mcp.WithString("business_name",
			mcp.Required(),
			mcp.Description("Business the step visits"),
		),
		mcp.WithString("title",
			mcp.Description("Step title"),
		),
		mcp.WithString("time",
			mcp.Description("Step time"),
		),
		mcp.WithString("location",
			mcp.Description("Step location text"),
		),
		mcp.WithString("location_label",
			mcp.Description("Outing location used as the lookup hint"),
		),
	)
}
