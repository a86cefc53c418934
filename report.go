package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fixed contact constants. The report builders embed them verbatim and
// the email draft is addressed to AdminEmail; whether anything is
// actually sent is the host environment's business.
const (
	AdminPhone = "+55 (93) 98415-5558"
	AdminEmail = "allyssonoliveira454@gmail.com"
)

const siteName = "Bex Sites"

// BuildOperationalReport renders the fixed-template daily snapshot: the
// short text the owner reads in a chat window.
func (a *Analytics) BuildOperationalReport() string {
	data := a.Snapshot()
	now := a.now()
	today := now.UTC().Format("2006-01-02")

	var todayLeads []FormSubmission
	for _, s := range data.FormSubmissions {
		if dayOf(s.Timestamp) == today {
			todayLeads = append(todayLeads, s)
		}
	}

	average := "N/A"
	if avg, ok := data.AverageRating(); ok {
		average = fmt.Sprintf("%.1f", avg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s DAILY SNAPSHOT\n", strings.ToUpper(siteName))
	fmt.Fprintf(&b, "Date: %s\n\n", today)

	b.WriteString("VISITS\n")
	fmt.Fprintf(&b, "- Total: %d\n", data.TotalVisitors)
	fmt.Fprintf(&b, "- Today: %d\n", data.TodayVisitors)
	fmt.Fprintf(&b, "- Conversion rate: %.1f%%\n\n", data.ConversionRate)

	b.WriteString("BRIEFINGS\n")
	fmt.Fprintf(&b, "- Total: %d\n", len(data.FormSubmissions))
	fmt.Fprintf(&b, "- Today: %d\n", len(todayLeads))
	fmt.Fprintf(&b, "- Pending: %d\n\n", data.PendingSubmissions())

	b.WriteString("SATISFACTION\n")
	fmt.Fprintf(&b, "- Ratings: %d\n", len(data.SatisfactionRatings))
	fmt.Fprintf(&b, "- Average: %s/5\n", average)
	fmt.Fprintf(&b, "- Would recommend: %d\n", data.RecommendCount())

	if len(todayLeads) > 0 {
		b.WriteString("\nNEW LEADS TODAY\n")
		for _, s := range todayLeads {
			fmt.Fprintf(&b, "- %s - %s\n", s.BusinessName, s.Phone)
		}
	}

	fmt.Fprintf(&b, "\n---\n%s | %s | %s", siteName, AdminPhone, AdminEmail)
	return b.String()
}

// BuildEmailReport renders the long-form report as a subject and body.
// The latest-submissions and latest-ratings blocks keep append order
// (oldest of the last five first); newest-first is the dashboard's own
// presentation choice over the same snapshot.
func (a *Analytics) BuildEmailReport() (subject, body string) {
	data := a.Snapshot()
	today := a.now().UTC().Format("2006-01-02")

	subject = fmt.Sprintf("[%s] Daily Report - %s", siteName, today)

	average := "N/A"
	if avg, ok := data.AverageRating(); ok {
		average = fmt.Sprintf("%.1f", avg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s REPORT\n", strings.ToUpper(siteName))
	fmt.Fprintf(&b, "Date: %s\n\n", today)

	writeSection(&b, "VISIT SUMMARY")
	fmt.Fprintf(&b, "Total visitors: %d\n", data.TotalVisitors)
	fmt.Fprintf(&b, "Visitors today: %d\n", data.TodayVisitors)
	fmt.Fprintf(&b, "Conversion rate: %.1f%%\n\n", data.ConversionRate)

	writeSection(&b, "BRIEFINGS")
	fmt.Fprintf(&b, "Total submissions: %d\n", len(data.FormSubmissions))
	fmt.Fprintf(&b, "Pending: %d\n", data.CountByStatus(StatusPending))
	fmt.Fprintf(&b, "Contacted: %d\n", data.CountByStatus(StatusContacted))
	fmt.Fprintf(&b, "Converted: %d\n\n", data.CountByStatus(StatusConverted))

	writeSection(&b, "CLIENT SATISFACTION")
	fmt.Fprintf(&b, "Total ratings: %d\n", len(data.SatisfactionRatings))
	fmt.Fprintf(&b, "Average: %s/5\n\n", average)

	writeSection(&b, "LATEST SUBMISSIONS")
	for _, s := range lastN(data.FormSubmissions, 5) {
		fmt.Fprintf(&b, "%s (%s)\n", s.BusinessName, s.OwnerName)
		fmt.Fprintf(&b, "Phone: %s\n", s.Phone)
		fmt.Fprintf(&b, "Email: %s\n", s.Email)
		fmt.Fprintf(&b, "Objective: %s\n", s.Objective)
		fmt.Fprintf(&b, "Status: %s\n", s.Status)
		fmt.Fprintf(&b, "Date: %s\n---\n", formatReportTime(s.Timestamp))
	}
	b.WriteString("\n")

	writeSection(&b, "LATEST RATINGS")
	for _, r := range lastN(data.SatisfactionRatings, 5) {
		fmt.Fprintf(&b, "%s - %s\n", r.ClientName, r.BusinessName)
		fmt.Fprintf(&b, "Rating: %s\n", strings.Repeat("⭐", r.Rating))
		fmt.Fprintf(&b, "Comment: %s\n", r.Comment)
		fmt.Fprintf(&b, "Would recommend: %s\n---\n", yesNo(r.WouldRecommend))
	}

	return subject, strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, title string) {
	b.WriteString("==================\n")
	b.WriteString(title)
	b.WriteString("\n==================\n")
}

// lastN returns the trailing n elements in append order.
func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatReportTime(timestamp string) string {
	ts, err := parseTimestamp(timestamp)
	if err != nil {
		return timestamp
	}
	return ts.UTC().Format("2006-01-02 15:04")
}

// WriteReportFile writes the operational report under outputDir, one
// file per day.
func WriteReportFile(content, outputDir string, reportDate time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.txt", sanitizeFilename(siteName), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// WriteEmailDraftFile writes the email report as an .eml draft addressed
// to AdminEmail, ready to open in a mail client.
func WriteEmailDraftFile(subject, body, outputDir string, reportDate time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.eml", sanitizeFilename(siteName), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(buildEML(subject, AdminEmail, body)), 0644)
}

func buildEML(subject, to, body string) string {
	headers := []string{
		"MIME-Version: 1.0",
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
	}

	var out strings.Builder
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	plain := normalizeCRLF(body)
	out.WriteString(plain)
	if !strings.HasSuffix(plain, "\r\n") {
		out.WriteString("\r\n")
	}
	return out.String()
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(s)
}

func normalizeCRLF(s string) string {
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}
