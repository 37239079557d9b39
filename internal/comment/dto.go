package comment

import "strings"

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type CreateCommentDTO struct {
	Body string `json:"body"`
}

func (d CreateCommentDTO) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return ValidationError{Msg: "body is required"}
	}
	return nil
}

// ModerateCommentDTO carries the moderation verdict. Disabled is a pointer
// so an absent field is distinguishable from an explicit false.
type ModerateCommentDTO struct {
	Disabled *bool `json:"disabled"`
}

func (d ModerateCommentDTO) Validate() error {
	if d.Disabled == nil {
		return ValidationError{Msg: "disabled is required"}
	}
	return nil
}
