package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanOptimize      = "meetingpoint.optimize"
	SpanAttachVenues  = "meetingpoint.venues"
	SpanSave          = "meetingpoint.save"
	SpanPublish       = "meetingpoint.publish"
	SpanOracleRequest = "oracle.request"
)

// Attribute keys.
const (
	AttrGroupID       = attribute.Key("squad.group_id")
	AttrMemberCount   = attribute.Key("squad.member_count")
	AttrIterations    = attribute.Key("optimizer.iterations")
	AttrConverged     = attribute.Key("optimizer.converged")
	AttrTravelMode    = attribute.Key("oracle.travel_mode")
	AttrVenueCount    = attribute.Key("venues.count")
	AttrVenueCategory = attribute.Key("venues.category")
)
