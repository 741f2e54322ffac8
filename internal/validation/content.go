package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	PostTextMaxLength    = 10000
	CommentTextMaxLength = 2000
	BioMaxLength         = 2000
)

var groupSlugRegex = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

// ValidatePostText requires a non-blank body within the length limit.
func ValidatePostText(text string) error {
	return validateText(text, PostTextMaxLength)
}

// ValidateCommentText requires a non-blank comment within the length limit.
func ValidateCommentText(text string) error {
	return validateText(text, CommentTextMaxLength)
}

// ValidateBio checks an optional profile bio.
func ValidateBio(bio string) error {
	if len([]rune(bio)) > BioMaxLength {
		return fmt.Errorf("must not exceed %d characters", BioMaxLength)
	}
	return nil
}

func validateText(text string, limit int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("this field is required")
	}
	if len([]rune(text)) > limit {
		return fmt.Errorf("must not exceed %d characters", limit)
	}
	return nil
}

// ValidateGroupSlug validates group slug format.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-50 characters of lowercase letters, numbers, underscores and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}
	return nil
}
