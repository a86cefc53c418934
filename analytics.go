package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Logf is the logging hook for the store's silent-failure paths. Tests
// inject their own to assert that corruption and write failures were
// reported.
type Logf func(format string, args ...any)

// Analytics owns the load-mutate-save cycle over the persisted document.
//
// Every operation reads the whole document, mutates it in memory and
// writes it back whole. The mutex serializes operations within this
// process; across processes sharing a backend the last save wins and an
// earlier mutation can be lost. That race is a known, accepted property
// of the whole-document design, not something the store detects.
type Analytics struct {
	mu        sync.Mutex
	store     BlobStore
	logf      Logf
	now       func() time.Time
	retention time.Duration
}

const defaultRetention = 30 * 24 * time.Hour

func NewAnalytics(store BlobStore, logf Logf) *Analytics {
	if logf == nil {
		logf = log.Printf
	}
	return &Analytics{
		store:     store,
		logf:      logf,
		now:       time.Now,
		retention: defaultRetention,
	}
}

// load returns the persisted document, or the empty default when the
// slot is absent, unreadable, unparsable or structurally wrong. It
// never fails: the worst case is starting over from empty.
func (a *Analytics) load() AnalyticsData {
	raw, ok, err := a.store.Get()
	if err != nil {
		a.logf("Error loading analytics data: %v", err)
		return EmptyAnalyticsData()
	}
	if !ok {
		return EmptyAnalyticsData()
	}

	var data AnalyticsData
	if err := json.Unmarshal(raw, &data); err != nil {
		a.logf("Error parsing analytics data: %v", err)
		return EmptyAnalyticsData()
	}
	// A parsed document missing any collection is not one of ours.
	if data.Visitors == nil || data.FormSubmissions == nil ||
		data.SatisfactionRatings == nil || data.PageViews == nil {
		a.logf("Analytics data has unexpected shape, starting from empty")
		return EmptyAnalyticsData()
	}
	return data
}

// save writes the document back. Failures are logged and dropped; the
// caller's in-memory copy is unaffected but the write is lost.
func (a *Analytics) save(data AnalyticsData) {
	raw, err := json.Marshal(data)
	if err != nil {
		a.logf("Error serializing analytics data: %v", err)
		return
	}
	if err := a.store.Put(raw); err != nil {
		a.logf("Error saving analytics data: %v", err)
	}
}

// VisitClient carries the client-observable descriptors recorded with a
// visit. No enrichment happens: the fields are stored as received.
type VisitClient struct {
	UserAgent  string
	Referrer   string
	ScreenSize string
}

// TrackVisit appends a visit record and recomputes the derived scalars.
// Blank or arbitrary page tags are accepted as-is after defaulting.
func (a *Analytics) TrackVisit(page string, client VisitClient) VisitRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	if page == "" {
		page = DefaultPage
	}
	referrer := client.Referrer
	if referrer == "" {
		referrer = ReferrerDirect
	}

	now := a.now()
	visit := VisitRecord{
		ID:         generateID(),
		Timestamp:  formatTimestamp(now),
		Page:       page,
		UserAgent:  client.UserAgent,
		Referrer:   referrer,
		ScreenSize: client.ScreenSize,
	}

	data := a.load()
	data.Visitors = append(data.Visitors, visit)
	data.TotalVisitors = len(data.Visitors)

	today := now.UTC().Format("2006-01-02")
	todayCount := 0
	for _, v := range data.Visitors {
		if dayOf(v.Timestamp) == today {
			todayCount++
		}
	}
	data.TodayVisitors = todayCount

	data.PageViews[page]++

	if data.TotalVisitors > 0 {
		data.ConversionRate = float64(len(data.FormSubmissions)) / float64(data.TotalVisitors) * 100
	}

	a.save(data)
	return visit
}

// BriefingForm is the caller-validated briefing input. The store trusts
// it completely; required-field checks belong to the form UI.
type BriefingForm struct {
	OwnerName       string `json:"ownerName"`
	BusinessName    string `json:"businessName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Objective       string `json:"objective"`
	StyleReferences string `json:"styleReferences"`
	MustHave        string `json:"mustHave"`
}

// TrackFormSubmission appends a briefing with status forced to pending
// and returns the created record so the caller can reference its ID.
func (a *Analytics) TrackFormSubmission(form BriefingForm) FormSubmission {
	a.mu.Lock()
	defer a.mu.Unlock()

	submission := FormSubmission{
		ID:              generateID(),
		Timestamp:       formatTimestamp(a.now()),
		OwnerName:       form.OwnerName,
		BusinessName:    form.BusinessName,
		Phone:           form.Phone,
		Email:           form.Email,
		Objective:       form.Objective,
		StyleReferences: form.StyleReferences,
		MustHave:        form.MustHave,
		Status:          StatusPending,
	}

	data := a.load()
	data.FormSubmissions = append(data.FormSubmissions, submission)
	if data.TotalVisitors > 0 {
		data.ConversionRate = float64(len(data.FormSubmissions)) / float64(data.TotalVisitors) * 100
	}

	a.save(data)
	return submission
}

// RatingForm is the caller-validated satisfaction input.
type RatingForm struct {
	ClientName     string `json:"clientName"`
	BusinessName   string `json:"businessName"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
	WouldRecommend bool   `json:"wouldRecommend"`
}

// TrackSatisfaction appends a rating and returns the created record. No
// derived scalar depends on ratings.
func (a *Analytics) TrackSatisfaction(form RatingForm) SatisfactionRating {
	a.mu.Lock()
	defer a.mu.Unlock()

	rating := SatisfactionRating{
		ID:             generateID(),
		Timestamp:      formatTimestamp(a.now()),
		ClientName:     form.ClientName,
		BusinessName:   form.BusinessName,
		Rating:         form.Rating,
		Comment:        form.Comment,
		WouldRecommend: form.WouldRecommend,
	}

	data := a.load()
	data.SatisfactionRatings = append(data.SatisfactionRatings, rating)

	a.save(data)
	return rating
}

// Snapshot returns the freshly loaded aggregate for display. Callers
// treat it as read-only; status changes go through
// UpdateSubmissionStatus.
func (a *Analytics) Snapshot() AnalyticsData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

// UpdateSubmissionStatus sets the status of the submission with the
// given ID. Any of the three values may be set from any other. An
// unknown ID is a silent no-op, not an error.
func (a *Analytics) UpdateSubmissionStatus(id, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := a.load()
	for i := range data.FormSubmissions {
		if data.FormSubmissions[i].ID == id {
			data.FormSubmissions[i].Status = status
			a.save(data)
			return
		}
	}
}

// PruneOldVisits drops visit records older than the retention window.
// Submissions and ratings are never pruned. The derived scalars are
// left to the next tracking write to recompute, matching the rest of
// the caching discipline.
func (a *Analytics) PruneOldVisits() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().Add(-a.retention)

	data := a.load()
	kept := data.Visitors[:0]
	for _, v := range data.Visitors {
		ts, err := parseTimestamp(v.Timestamp)
		if err != nil {
			continue // unparsable timestamps are dropped with the stale records
		}
		if ts.After(cutoff) {
			kept = append(kept, v)
		}
	}
	data.Visitors = kept

	a.save(data)
}
