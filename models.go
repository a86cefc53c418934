package main

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Submission lifecycle statuses. Transitions are not forward-only: the
// dashboard may move a lead back to pending after marking it converted.
const (
	StatusPending   = "pending"
	StatusContacted = "contacted"
	StatusConverted = "converted"
)

// ReferrerDirect is stored when a visit arrives without a referrer.
const ReferrerDirect = "direct"

// DefaultPage is the page tag recorded when none is supplied.
const DefaultPage = "home"

// VisitRecord is one page-view event. Immutable after creation.
type VisitRecord struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"` // ISO-8601, UTC
	Page       string `json:"page"`
	UserAgent  string `json:"userAgent"`
	Referrer   string `json:"referrer"`
	ScreenSize string `json:"screenSize"` // "WxH"
}

// FormSubmission is one briefing-form submission. Only Status is mutable
// after creation.
type FormSubmission struct {
	ID              string `json:"id"`
	Timestamp       string `json:"timestamp"`
	OwnerName       string `json:"ownerName"`
	BusinessName    string `json:"businessName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Objective       string `json:"objective"`
	StyleReferences string `json:"styleReferences"`
	MustHave        string `json:"mustHave"`
	Status          string `json:"status"`
}

// SatisfactionRating is one satisfaction-modal submission. Fully immutable.
type SatisfactionRating struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	ClientName     string `json:"clientName"`
	BusinessName   string `json:"businessName"`
	Rating         int    `json:"rating"` // 1-5
	Comment        string `json:"comment"`
	WouldRecommend bool   `json:"wouldRecommend"`
}

// AnalyticsData is the root document persisted as a single JSON blob.
// TotalVisitors, TodayVisitors and ConversionRate are redundant caches
// recomputed on every tracking write, never mutated independently.
type AnalyticsData struct {
	Visitors            []VisitRecord        `json:"visitors"`
	FormSubmissions     []FormSubmission     `json:"formSubmissions"`
	SatisfactionRatings []SatisfactionRating `json:"satisfactionRatings"`
	PageViews           map[string]int       `json:"pageViews"`
	TotalVisitors       int                  `json:"totalVisitors"`
	TodayVisitors       int                  `json:"todayVisitors"`
	ConversionRate      float64              `json:"conversionRate"`
}

// EmptyAnalyticsData returns a structurally valid empty aggregate: the
// first-run document and the fallback after a corrupt load.
func EmptyAnalyticsData() AnalyticsData {
	return AnalyticsData{
		Visitors:            []VisitRecord{},
		FormSubmissions:     []FormSubmission{},
		SatisfactionRatings: []SatisfactionRating{},
		PageViews:           map[string]int{},
	}
}

func (d AnalyticsData) PendingSubmissions() int {
	return d.CountByStatus(StatusPending)
}

func (d AnalyticsData) CountByStatus(status string) int {
	count := 0
	for _, s := range d.FormSubmissions {
		if s.Status == status {
			count++
		}
	}
	return count
}

// AverageRating returns the arithmetic mean of all rating values and
// false when there are no ratings.
func (d AnalyticsData) AverageRating() (float64, bool) {
	if len(d.SatisfactionRatings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range d.SatisfactionRatings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(d.SatisfactionRatings)), true
}

func (d AnalyticsData) RecommendCount() int {
	count := 0
	for _, r := range d.SatisfactionRatings {
		if r.WouldRecommend {
			count++
		}
	}
	return count
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// dayOf extracts the UTC calendar day ("2006-01-02") from a stored
// timestamp without fully parsing it. Day comparisons work on the date
// prefix of the string, same as the persisted format guarantees.
func dayOf(timestamp string) string {
	if i := strings.IndexByte(timestamp, 'T'); i >= 0 {
		return timestamp[:i]
	}
	return timestamp
}

func parseTimestamp(timestamp string) (time.Time, error) {
	return time.Parse(time.RFC3339, timestamp)
}

// generateID produces an opaque identifier from a millisecond timestamp
// and a random component. Unique enough for a single deployment; no
// cross-device guarantee.
func generateID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + strconv.FormatInt(rand.Int63n(1<<40), 36)
}
