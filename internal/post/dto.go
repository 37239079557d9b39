package post

import "strings"

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type CreatePostDTO struct {
	Body string `json:"body"`
}

func (d CreatePostDTO) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return ValidationError{Msg: "body is required"}
	}
	return nil
}

type UpdatePostDTO struct {
	Body string `json:"body"`
}

func (d UpdatePostDTO) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return ValidationError{Msg: "body is required"}
	}
	return nil
}
