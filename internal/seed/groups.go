package seed

import (
	"fmt"

	"scribble/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInGroup is a community every fresh install starts with.
type BuiltInGroup struct {
	Title       string
	Slug        string
	Description string
}

// BuiltInGroups defines the default communities.
var BuiltInGroups = []BuiltInGroup{
	{Title: "Announcements", Slug: "announcements", Description: "News about the site."},
	{Title: "Books", Slug: "books", Description: "Books, writing, and reading lists."},
	{Title: "Movies", Slug: "movies", Description: "Film discussion and recommendations."},
	{Title: "Music", Slug: "music", Description: "Music discovery and discussion."},
	{Title: "Programming", Slug: "programming", Description: "Software development discussions."},
	{Title: "Travel", Slug: "travel", Description: "Trips, places and travel notes."},
	{Title: "Food", Slug: "food", Description: "Food, cooking, and recipes."},
	{Title: "Pets", Slug: "pets", Description: "Cats, dogs and everything in between."},
}

// Groups upserts the built-in groups by slug and returns them.
func Groups(db *gorm.DB) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(BuiltInGroups))
	for _, item := range BuiltInGroups {
		group := models.Group{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "updated_at"}),
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("seed built-in group %s: %w", item.Slug, err)
		}
		// Some drivers do not report the id of an upserted row.
		if group.ID == 0 {
			if err := db.Where("slug = ?", item.Slug).First(&group).Error; err != nil {
				return nil, fmt.Errorf("reload group %s: %w", item.Slug, err)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}
