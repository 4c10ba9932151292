package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength bounds a todo's text after trimming.
const MaxTextLength = 140

var (
	ErrEmptyText   = errors.New("todo text required")
	ErrTextTooLong = errors.New("todo text cannot exceed 140 characters")
)

type Todo struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateText trims raw input and enforces the 1-140 character bound.
// It runs once at the delivery boundary; the stores trust their input.
func ValidateText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", ErrTextTooLong
	}
	return text, nil
}
