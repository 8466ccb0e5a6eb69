package common

const (
	// AppName is the name of the application
	AppName = "job-harvester"

	// FallbackSummary is assigned when summary generation fails for a record.
	FallbackSummary = "Summary generation failed"
)
