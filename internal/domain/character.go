package domain

import (
	"strings"
	"time"
)

// Character is a selectable farm character image.
type Character struct {
	ID               int64     `json:"id"`
	StoryMakerID     string    `json:"storyMakerId"`
	ImageBase64      string    `json:"imageBase64"`
	OriginalFileName string    `json:"originalFileName,omitempty"`
	Description      string    `json:"description,omitempty"`
	AnalyzedByAI     bool      `json:"analyzedByAI"`
	SelectionCount   int       `json:"selectionCount"`
	ThreadID         string    `json:"threadId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ImageDataURL returns the stored image as a data URL suitable for vision input.
func (c *Character) ImageDataURL() string {
	return ImageDataURL(c.ImageBase64, c.OriginalFileName)
}

// ImageDataURL wraps raw base64 image data into a data URL. Values that
// already carry a scheme are returned unchanged.
func ImageDataURL(base64Data, fileName string) string {
	if strings.HasPrefix(base64Data, "data:") || strings.HasPrefix(base64Data, "http://") || strings.HasPrefix(base64Data, "https://") {
		return base64Data
	}
	mime := "image/png"
	switch lower := strings.ToLower(fileName); {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		mime = "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		mime = "image/gif"
	}
	return "data:" + mime + ";base64," + base64Data
}

// Story is a generated and saved story.
type Story struct {
	ID               int64     `json:"id"`
	Character        string    `json:"character"`
	CharacterImageID string    `json:"characterImageId"`
	StoryText        string    `json:"storyText"`
	Illustration     string    `json:"illustration,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TableInfo summarises one database table for the debug page.
type TableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}
