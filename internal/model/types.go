// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Script is a user-authored teleprompter script.
type Script struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	WordCount int       `json:"wordCount"`
}

// CountWords splits content on whitespace runs. Word counts are recomputed
// from content whenever it changes, never carried over from input.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// Recording is a read-only projection of a clip held by the media library.
type Recording struct {
	ID        string
	URI       string
	Filename  string
	CreatedAt time.Time
	Duration  time.Duration
}
