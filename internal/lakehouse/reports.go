package lakehouse

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"macae/internal/store"
)

// Report is a fixed read-only query over the lakehouse tables.
type Report struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	SQL   string `json:"-"`
}

var Reports = []Report{
	{
		Name:  "service-interactions",
		Title: "Customer Service Interactions for Emily Thompson",
		SQL: `SELECT
    interaction_id,
    "date",
    channel,
    issue_type,
    satisfaction_rating,
    LEFT(transcript, 200) AS transcript_preview
FROM customer_service_interactions
WHERE customer_name = 'Emily Thompson'
ORDER BY "date" DESC`,
	},
	{
		Name:  "churn-reasons",
		Title: "Top Churn Reasons",
		SQL: `SELECT
    LEFT("ReasonForCancellation", 100) AS churn_reason_preview,
    COUNT(*) AS frequency,
    AVG("ChurnRiskScore") AS avg_risk_score
FROM customer_churn_analysis
GROUP BY LEFT("ReasonForCancellation", 100)
ORDER BY frequency DESC
LIMIT 10`,
	},
	{
		Name:  "social-sentiment",
		Title: "Social Media Sentiment Distribution",
		SQL: `SELECT
    "Platform",
    "SentimentLabel",
    COUNT(*) AS post_count,
    AVG("SentimentScore") AS avg_sentiment,
    SUM("Engagement") AS total_engagement
FROM social_media_sentiment_analysis
GROUP BY "Platform", "SentimentLabel"
ORDER BY "Platform", "SentimentLabel"`,
	},
	{
		Name:  "conversion-funnel",
		Title: "Website Conversion Funnel",
		SQL: `SELECT
    "ConversionFlag",
    "CartAbandonment",
    COUNT(*) AS session_count,
    AVG("TimeOnSite") AS avg_time_on_site
FROM website_activity_log
GROUP BY "ConversionFlag", "CartAbandonment"`,
	},
	{
		Name:  "feedback-by-category",
		Title: "Customer Feedback Sentiment by Product Category",
		SQL: `SELECT
    "ProductCategory",
    AVG("Rating") AS avg_rating,
    AVG("SentimentScore") AS avg_sentiment,
    COUNT(*) AS feedback_count
FROM customer_feedback_comments
GROUP BY "ProductCategory"
ORDER BY avg_rating DESC`,
	},
	{
		Name:  "store-visits",
		Title: "Store Visit Satisfaction by Purpose",
		SQL: `SELECT
    "Purpose",
    AVG("SatisfactionRating") AS avg_satisfaction,
    COUNT(*) AS visit_count,
    SUM(CASE WHEN "PurchaseInStore"::text = 'Yes' THEN 1 ELSE 0 END) AS in_store_purchases
FROM store_visit_history
GROUP BY "Purpose"
ORDER BY avg_satisfaction DESC`,
	},
	{
		Name:  "loyalty-engagement",
		Title: "Loyalty Benefit Engagement by Tier",
		SQL: `SELECT
    "LoyaltyTier",
    "EngagementScore",
    COUNT(*) AS member_months,
    AVG("TotalBenefitValue") AS avg_benefit_value,
    SUM("PointsExpired") AS total_points_expired
FROM subscription_benefits_utilization
GROUP BY "LoyaltyTier", "EngagementScore"
ORDER BY "LoyaltyTier", "EngagementScore" DESC`,
	},
}

func FindReport(name string) (Report, bool) {
	for _, r := range Reports {
		if r.Name == name {
			return r, true
		}
	}
	return Report{}, false
}

// Querier runs a read-only query.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*store.Result, error)
}

type ReportResult struct {
	Report Report
	Result *store.Result
}

// RunReports executes reports in order and stops at the first failure.
func RunReports(ctx context.Context, q Querier, reports []Report) ([]ReportResult, error) {
	out := make([]ReportResult, 0, len(reports))
	for _, r := range reports {
		res, err := q.Query(ctx, r.SQL)
		if err != nil {
			return out, fmt.Errorf("report %s: %w", r.Name, err)
		}
		out = append(out, ReportResult{Report: r, Result: res})
	}
	return out, nil
}

// StringRows renders every value of res as text.
func StringRows(res *store.Result) [][]string {
	out := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = FormatValue(v)
		}
	}
	return out
}

// FormatValue renders a query value for display. NULL is printed as "NULL".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(x)
		}
		return FormatValue(dv)
	default:
		return fmt.Sprint(x)
	}
}

// WriteResult prints a titled, column-aligned result table.
func WriteResult(w io.Writer, title string, res *store.Result) error {
	if title != "" {
		fmt.Fprintf(w, "### %s\n", title)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range StringRows(res) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "(%d rows)\n\n", len(res.Rows))
	return nil
}
