// Package lakehouse loads the retail datasets into managed tables and reports on them.
package lakehouse

import "macae/internal/dataset"

// DefaultFilesDir is where the dataset files are expected when no directory is given.
const DefaultFilesDir = "Files"

// Dataset is one source file and the table it is loaded into.
type Dataset struct {
	Table       string
	File        string
	Format      dataset.Format
	Description string
}

// Catalog lists the datasets in load order.
var Catalog = []Dataset{
	{"customer_service_interactions", "customer_service_interactions.json", dataset.FormatJSON, "Service interaction transcripts"},
	{"customer_feedback_comments", "customer_feedback_comments.csv", dataset.FormatCSV, "Feedback surveys with detailed text comments"},
	{"customer_churn_analysis", "customer_churn_analysis.csv", dataset.FormatCSV, "Churn data with cancellation reasons"},
	{"social_media_sentiment_analysis", "social_media_sentiment_analysis.csv", dataset.FormatCSV, "Social posts with sentiment scores and engagement"},
	{"website_activity_log", "website_activity_log.csv", dataset.FormatCSV, "Website sessions with page visit details"},
	{"store_visit_history", "store_visit_history.csv", dataset.FormatCSV, "Physical store visits with outcome descriptions"},
	{"subscription_benefits_utilization", "subscription_benefits_utilization.csv", dataset.FormatCSV, "Loyalty benefit usage with engagement notes"},
}

func TableNames() []string {
	out := make([]string, len(Catalog))
	for i, d := range Catalog {
		out[i] = d.Table
	}
	return out
}
