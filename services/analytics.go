package services

import (
	"civicbridge-be/models"
)

// TrendingIssue is the issue with the current maximum upvote count.
type TrendingIssue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	UpvoteCount int    `json:"upvoteCount"`
}

// Summary holds the analytics snapshot over the full issue collection.
type Summary struct {
	TotalIssues        int            `json:"totalIssues"`
	OpenIssues         int            `json:"openIssues"`
	ResolvedIssues     int            `json:"resolvedIssues"`
	AvgResolutionTime  *float64       `json:"avgResolutionTimeMs,omitempty"`
	MostCommonCategory string         `json:"mostCommonCategory,omitempty"`
	Trending           *TrendingIssue `json:"trendingIssue,omitempty"`
}

// Summarize recomputes all analytics fields from scratch over the given
// issues. avgResolutionTimeMs averages resolvedAt-createdAt over issues
// that were resolved at least once and is omitted when there are none.
// Category ties break toward the first encountered; trending ties break
// toward the most recently created issue.
func Summarize(issues []models.Issue) Summary {
	summary := Summary{TotalIssues: len(issues)}

	var resolutionTotalMs float64
	var resolutionCount int
	categoryCounts := map[string]int{}
	categoryOrder := []string{}

	var trending *models.Issue
	for i := range issues {
		issue := &issues[i]

		if issue.Status.Open() {
			summary.OpenIssues++
		} else {
			summary.ResolvedIssues++
		}

		if issue.ResolvedAt != nil {
			resolutionTotalMs += float64(issue.ResolvedAt.Sub(issue.CreatedAt).Milliseconds())
			resolutionCount++
		}

		if _, seen := categoryCounts[issue.Category]; !seen {
			categoryOrder = append(categoryOrder, issue.Category)
		}
		categoryCounts[issue.Category]++

		if trending == nil ||
			len(issue.Upvotes) > len(trending.Upvotes) ||
			(len(issue.Upvotes) == len(trending.Upvotes) && issue.CreatedAt.After(trending.CreatedAt)) {
			trending = issue
		}
	}

	if resolutionCount > 0 {
		avg := resolutionTotalMs / float64(resolutionCount)
		summary.AvgResolutionTime = &avg
	}

	best := -1
	for _, category := range categoryOrder {
		if categoryCounts[category] > best {
			best = categoryCounts[category]
			summary.MostCommonCategory = category
		}
	}

	if trending != nil {
		summary.Trending = &TrendingIssue{
			ID:          trending.ID.Hex(),
			Title:       trending.Title,
			Category:    trending.Category,
			UpvoteCount: len(trending.Upvotes),
		}
	}

	return summary
}
