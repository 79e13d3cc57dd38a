// Package validation normalizes and validates untrusted input at the API
// boundary. Validation never panics; it returns a Result carrying either the
// normalized value or the list of field errors.
package validation

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/blog-comments-api/internal/models"
)

var validStatuses = []interface{}{
	models.CommentStatusPending,
	models.CommentStatusApproved,
	models.CommentStatusRejected,
}

// Result is the outcome of validating a value of type T
type Result[T any] struct {
	Value  T
	Errors models.ValidationErrors
}

// Valid reports whether validation succeeded
func (r Result[T]) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the validation errors as an error, or nil when valid
func (r Result[T]) Err() error {
	if r.Valid() {
		return nil
	}
	return r.Errors
}

// NormalizeComment trims every field and lower-cases the author email
func NormalizeComment(in models.CreateCommentInput) models.CreateCommentInput {
	return models.CreateCommentInput{
		PostID:      strings.TrimSpace(in.PostID),
		AuthorName:  strings.TrimSpace(in.AuthorName),
		AuthorEmail: NormalizeEmail(in.AuthorEmail),
		Content:     strings.TrimSpace(in.Content),
	}
}

// NormalizeEmail is the canonical form used for storage and trust lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateComment normalizes a public submission and validates the result
func ValidateComment(in models.CreateCommentInput) Result[models.CreateCommentInput] {
	c := NormalizeComment(in)
	err := validation.ValidateStruct(&c,
		validation.Field(&c.PostID,
			validation.Required.Error("El post es requerido"),
		),
		validation.Field(&c.Content,
			validation.Required.Error("El comentario es requerido"),
			validation.RuneLength(1, models.MaxCommentLength).Error("El comentario no puede exceder 1000 caracteres"),
		),
		validation.Field(&c.AuthorName,
			validation.Required.Error("El nombre es requerido"),
			validation.RuneLength(1, models.MaxAuthorNameLength).Error("El nombre no puede exceder 100 caracteres"),
		),
		validation.Field(&c.AuthorEmail,
			validation.Required.Error("El email es requerido"),
			validation.RuneLength(0, models.MaxEmailLength).Error("El email no puede exceder 254 caracteres"),
			is.EmailFormat.Error("Email inválido"),
		),
	)
	return Result[models.CreateCommentInput]{Value: c, Errors: toValidationErrors(err)}
}

// ValidateModeration checks a manual moderation request
func ValidateModeration(in models.ModerateInput) Result[models.ModerateInput] {
	m := normalizeModeration(in)
	rules := append([]*validation.FieldRules{
		validation.Field(&m.CommentID,
			validation.Required.Error("ID de comentario inválido"),
		),
	}, moderationRules(&m)...)
	err := validation.ValidateStruct(&m, rules...)
	return Result[models.ModerateInput]{Value: m, Errors: toValidationErrors(err)}
}

// ValidateBulkModeration checks the status and moderator shared by every id
// of a bulk request. Ids are validated one by one when each is moderated.
func ValidateBulkModeration(status models.CommentStatus, moderator string) Result[models.ModerateInput] {
	m := normalizeModeration(models.ModerateInput{Status: status, ModeratorEmail: moderator})
	err := validation.ValidateStruct(&m, moderationRules(&m)...)
	return Result[models.ModerateInput]{Value: m, Errors: toValidationErrors(err)}
}

func normalizeModeration(in models.ModerateInput) models.ModerateInput {
	return models.ModerateInput{
		CommentID:      strings.TrimSpace(in.CommentID),
		Status:         models.CommentStatus(strings.ToUpper(strings.TrimSpace(string(in.Status)))),
		ModeratorEmail: NormalizeEmail(in.ModeratorEmail),
	}
}

func moderationRules(m *models.ModerateInput) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&m.Status,
			validation.Required.Error("El estado es requerido"),
			validation.In(validStatuses...).Error("Estado inválido"),
		),
		validation.Field(&m.ModeratorEmail,
			validation.RuneLength(0, models.MaxEmailLength).Error("El email del moderador no puede exceder 254 caracteres"),
		),
	}
}

// toValidationErrors flattens ozzo errors into a stable, field-sorted list
func toValidationErrors(err error) models.ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return models.ValidationErrors{{Field: "", Message: err.Error()}}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make(models.ValidationErrors, 0, len(fields))
	for _, field := range fields {
		out = append(out, models.ValidationError{
			Field:   field,
			Message: fieldErrs[field].Error(),
		})
	}
	return out
}
