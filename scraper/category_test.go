package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Ultimate Weight Loss Blueprint", "Health & Fitness"},
		{"Dieting Made Simple", "Health & Fitness"},
		{"Passive Income Machine", "Business & Investing"},
		{"Digital Marketing Mastery", "Business & Investing"},
		{"Text Chemistry: Make Him Love You", "Relationships"},
		{"Success Mindset Secrets", "Self-Help"},
		{"Best Apps For Creators", "Software & Technology"},
		{"DIY Woodworking Plans", "Hobbies & Crafts"},
		{"The Lost Ways 2", "General"},
		{"Happy Dog Training", "General"},
		{"", "General"},
		// priority: health rules come before business rules
		{"Health Business Bundle", "Health & Fitness"},
		// priority: relationship before self-help
		{"Love and Success", "Relationships"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.title))
		})
	}
}

func TestCategorizeIsPure(t *testing.T) {
	title := "Fitness Software Toolkit"
	first := Categorize(title)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Categorize(title))
	}
}
