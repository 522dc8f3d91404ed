package controllers

import (
	"context"
	"net/http"
	"time"

	"civicbridge-be/config"
	"civicbridge-be/models"
	"civicbridge-be/services"
	"civicbridge-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func issueStore() *store.MongoIssueStore {
	return store.NewMongoIssueStore(config.GetCollection("issues"))
}

func geocoder() *services.GeocodeClient {
	return services.NewGeocodeClient(config.Get().NominatimBaseURL)
}

// currentUser extracts the authenticated user's id and role set by the
// auth middleware.
func currentUser(c *gin.Context) (primitive.ObjectID, models.UserRole, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, "", false
	}
	userID, err := primitive.ObjectIDFromHex(userIDVal.(string))
	if err != nil {
		return primitive.NilObjectID, "", false
	}

	role := models.Resident
	if roleVal, exists := c.Get("role"); exists {
		if r, ok := roleVal.(string); ok {
			role = models.UserRole(r)
		}
	}
	return userID, role, true
}

// userRef is the embedded creator/actor reference in responses.
type userRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// fetchUsers loads the referenced users in one query.
func fetchUsers(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]models.User {
	users := map[primitive.ObjectID]models.User{}
	if len(ids) == 0 {
		return users
	}

	cursor, err := config.GetCollection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return users
	}
	defer cursor.Close(ctx)

	var results []models.User
	if err := cursor.All(ctx, &results); err != nil {
		return users
	}
	for _, u := range results {
		users[u.ID] = u
	}
	return users
}

// CreateIssue handles a resident's new issue submission
func CreateIssue(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if role != models.Resident {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only residents can submit issues"})
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required,max=200"`
		Description string   `json:"description" binding:"required,max=1000"`
		Category    string   `json:"category" binding:"required"`
		Severity    string   `json:"severity" binding:"required"`
		Image       *string  `json:"image,omitempty"`
		Lat         *float64 `json:"lat,omitempty"`
		Lng         *float64 `json:"lng,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	severity := models.IssueSeverity(input.Severity)
	if !severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
		return
	}

	// Coordinates come as a pair or not at all
	if (input.Lat == nil) != (input.Lng == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Latitude and longitude must be provided together"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	location := models.Location{Lat: input.Lat, Lng: input.Lng}
	if location.HasCoordinates() {
		// Best effort: a failed lookup leaves city/state null and the
		// listing backfill picks the issue up later.
		geo := geocoder().ReverseGeocode(ctx, *input.Lat, *input.Lng)
		location.City = geo.City
		location.State = geo.State
	}

	now := time.Now()
	issue := models.Issue{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    severity,
		Image:       input.Image,
		Location:    location,
		Status:      models.Submitted,
		StatusHistory: []models.StatusHistoryEntry{
			{
				Status:    models.Submitted,
				UpdatedBy: userID,
				Note:      "Issue submitted",
				Timestamp: now,
			},
		},
		Upvotes:     []primitive.ObjectID{},
		SatisfiedBy: []primitive.ObjectID{},
		CreatedBy:   userID,
		CreatedAt:   now,
	}

	if err := issueStore().Create(ctx, &issue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"issue": gin.H{
			"id":        issue.ID.Hex(),
			"title":     issue.Title,
			"status":    issue.Status,
			"createdAt": issue.CreatedAt,
		},
	})
}

// GetAllIssues handles the filtered, sorted listing and runs the location
// backfill sweep over the result before responding
func GetAllIssues(c *gin.Context) {
	conf := config.Get()

	filter := store.Filter{
		Category: c.Query("category"),
		Severity: c.Query("severity"),
		Status:   c.Query("status"),
	}

	var sortBy store.Sort
	switch c.DefaultQuery("sort", "newest") {
	case "oldest":
		sortBy = store.Oldest
	case "upvotes":
		sortBy = store.MostUpvoted
	default:
		sortBy = store.Newest
	}

	// The paced backfill can hold this request for a few seconds on top of
	// the query itself, so the timeout is generous.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	issues, err := issueStore().Find(ctx, filter, sortBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	backfiller := services.NewBackfiller(
		issueStore(),
		geocoder(),
		conf.BackfillMaxPerRequest,
		time.Duration(conf.BackfillPauseMs)*time.Millisecond,
	)
	backfiller.Sweep(ctx, issues)

	creatorIDs := make([]primitive.ObjectID, 0, len(issues))
	for _, issue := range issues {
		creatorIDs = append(creatorIDs, issue.CreatedBy)
	}
	creators := fetchUsers(ctx, creatorIDs)

	type issueListItem struct {
		ID          string               `json:"id"`
		Title       string               `json:"title"`
		Description string               `json:"description"`
		Category    string               `json:"category"`
		Severity    models.IssueSeverity `json:"severity"`
		Image       *string              `json:"image"`
		Location    models.Location      `json:"location"`
		Status      models.IssueStatus   `json:"status"`
		UpvoteCount int                  `json:"upvoteCount"`
		ResolvedAt  *time.Time           `json:"resolvedAt"`
		CreatedBy   *userRef             `json:"createdBy"`
		CreatedAt   time.Time            `json:"createdAt"`
	}

	response := make([]issueListItem, 0, len(issues))
	for _, issue := range issues {
		item := issueListItem{
			ID:          issue.ID.Hex(),
			Title:       issue.Title,
			Description: issue.Description,
			Category:    issue.Category,
			Severity:    issue.Severity,
			Image:       issue.Image,
			Location:    issue.Location,
			Status:      issue.Status,
			UpvoteCount: len(issue.Upvotes),
			ResolvedAt:  issue.ResolvedAt,
			CreatedAt:   issue.CreatedAt,
		}
		if creator, found := creators[issue.CreatedBy]; found {
			item.CreatedBy = &userRef{ID: creator.ID.Hex(), Name: creator.Name}
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}

// GetIssue retrieves one issue with creator and history actor names populated
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issue, err := issueStore().GetByID(ctx, issueID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	actorIDs := []primitive.ObjectID{issue.CreatedBy}
	for _, entry := range issue.StatusHistory {
		actorIDs = append(actorIDs, entry.UpdatedBy)
	}
	actors := fetchUsers(ctx, actorIDs)

	type historyEntry struct {
		Status    models.IssueStatus `json:"status"`
		UpdatedBy *userRef           `json:"updatedBy"`
		Note      string             `json:"note"`
		Timestamp time.Time          `json:"timestamp"`
	}

	history := make([]historyEntry, 0, len(issue.StatusHistory))
	for _, entry := range issue.StatusHistory {
		h := historyEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		}
		if actor, found := actors[entry.UpdatedBy]; found {
			h.UpdatedBy = &userRef{ID: actor.ID.Hex(), Name: actor.Name}
		}
		history = append(history, h)
	}

	upvotes := make([]string, 0, len(issue.Upvotes))
	for _, id := range issue.Upvotes {
		upvotes = append(upvotes, id.Hex())
	}
	satisfiedBy := make([]string, 0, len(issue.SatisfiedBy))
	for _, id := range issue.SatisfiedBy {
		satisfiedBy = append(satisfiedBy, id.Hex())
	}

	var createdBy *userRef
	if creator, found := actors[issue.CreatedBy]; found {
		createdBy = &userRef{ID: creator.ID.Hex(), Name: creator.Name, Email: creator.Email}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              issue.ID.Hex(),
		"title":           issue.Title,
		"description":     issue.Description,
		"category":        issue.Category,
		"severity":        issue.Severity,
		"image":           issue.Image,
		"location":        issue.Location,
		"status":          issue.Status,
		"statusHistory":   history,
		"upvoteCount":     len(issue.Upvotes),
		"upvotes":         upvotes,
		"satisfiedBy":     satisfiedBy,
		"resolvedAt":      issue.ResolvedAt,
		"resolutionImage": issue.ResolutionImage,
		"createdBy":       createdBy,
		"createdAt":       issue.CreatedAt,
	})
}

// UpdateIssueStatus moves an issue through the workflow (officials only)
func UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	actorID, role, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if role != models.Official {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only officials can update issue status"})
		return
	}

	var input struct {
		Status          string  `json:"status" binding:"required"`
		Note            string  `json:"note,omitempty"`
		ResolutionImage *string `json:"resolutionImage,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lifecycle := services.NewLifecycle(issueStore())
	issue, err := lifecycle.UpdateStatus(ctx, issueID, actorID, models.IssueStatus(input.Status), input.Note, input.ResolutionImage)
	switch err {
	case nil:
	case services.ErrInvalidStatus:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid status is required"})
		return
	case store.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue": gin.H{
			"id":            issue.ID.Hex(),
			"status":        issue.Status,
			"resolvedAt":    issue.ResolvedAt,
			"statusHistory": issue.StatusHistory,
		},
	})
}

// UpvoteIssue adds the user's upvote; a repeat call changes nothing
func UpvoteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engagement := services.NewEngagement(issueStore())
	issue, err := engagement.ToggleUpvote(ctx, issueID, userID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"upvoteCount":  len(issue.Upvotes),
		"userHasVoted": true,
	})
}

// ToggleSatisfaction flips the user's satisfaction mark on a resolved issue
func ToggleSatisfaction(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engagement := services.NewEngagement(issueStore())
	issue, satisfied, err := engagement.ToggleSatisfaction(ctx, issueID, userID)
	switch err {
	case nil:
	case store.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	case services.ErrInvalidState:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Can only mark satisfaction for resolved issues"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update satisfaction"})
		return
	}

	satisfiedBy := make([]string, 0, len(issue.SatisfiedBy))
	for _, id := range issue.SatisfiedBy {
		satisfiedBy = append(satisfiedBy, id.Hex())
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"satisfied":   satisfied,
		"satisfiedBy": satisfiedBy,
	})
}
