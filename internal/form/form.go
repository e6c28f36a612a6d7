// Package form validates book form input before it is sent to the API and
// converts it into request payloads.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Year bounds accepted for year_of_publication.
const (
	MinYear = 1800
	MaxYear = 2050
)

var (
	isbnPattern = regexp.MustCompile(`^[0-9\-X]+$`)
	yearPattern = regexp.MustCompile(`^\d{4}$`)
)

// BookForm is book input as typed by the user. Every value is text so that
// malformed input can be reported instead of rejected during parsing.
type BookForm struct {
	Title             string `json:"title"               validate:"min=3,max=150"`
	Author            string `json:"author"              validate:"min=3,max=150"`
	Publisher         string `json:"publisher"           validate:"min=3,max=150"`
	ISBN              string `json:"isbn"                validate:"min=10,max=17,isbn_chars"`
	YearOfPublication string `json:"year_of_publication" validate:"len=4,year,year_range"`
	Category          string `json:"category"            validate:"required,category"`
	ImageURL          string `json:"image_url"           validate:"omitempty,url"`
}

// FromBook fills a form with an existing book, the way an edit form starts out.
func FromBook(book *library.Book) *BookForm {
	return &BookForm{
		Title:             book.Title,
		Author:            book.Author,
		Publisher:         book.Publisher,
		ISBN:              book.ISBN,
		YearOfPublication: strconv.Itoa(book.YearOfPublication),
		Category:          book.Category,
		ImageURL:          book.ImageURL,
	}
}

// ValidationError carries the field errors of a rejected form.
type ValidationError struct {
	Errors []library.FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		parts = append(parts, fieldErr.Field+": "+fieldErr.Message)
	}

	return "invalid book form: " + strings.Join(parts, "; ")
}

// Field returns the message for field, if it failed.
func (e *ValidationError) Field(field string) (string, bool) {
	for _, fieldErr := range e.Errors {
		if fieldErr.Field == field {
			return fieldErr.Message, true
		}
	}

	return "", false
}

// messages overrides the generic translations with the wording of the book form.
var messages = map[string]string{
	"title.min":                      "Title is required, min 3 characters",
	"title.max":                      "Title is too long, max 150 characters",
	"author.min":                     "Author is required, min 3 characters",
	"author.max":                     "Author name is too long, max 150 characters",
	"publisher.min":                  "Publisher is required, min 3 characters",
	"publisher.max":                  "Publisher name is too long, max 150 characters",
	"isbn.min":                       "ISBN must be at least 10 characters",
	"isbn.max":                       "ISBN cannot exceed 17 characters",
	"isbn.isbn_chars":                "ISBN can only contain numbers, dashes, and X",
	"year_of_publication.len":        "Year must be 4 digits",
	"year_of_publication.year":       "Year must be a valid 4-digit number",
	"year_of_publication.year_range": fmt.Sprintf("Year must be between %d and %d", MinYear, MaxYear),
	"category.required":              "Category is required",
	"category.category":              "Please select a valid category",
	"image_url.url":                  "Please enter a valid URL",
}

// fieldNames maps JSON field names to BookForm struct fields.
var fieldNames = map[string]string{
	"title":               "Title",
	"author":              "Author",
	"publisher":           "Publisher",
	"isbn":                "ISBN",
	"year_of_publication": "YearOfPublication",
	"category":            "Category",
	"image_url":           "ImageURL",
}

// ErrUnknownField is returned when a partial validation names a field the form does not have.
var ErrUnknownField = errors.New("unknown book form field")

// Validator validates book forms. It is safe for concurrent use.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator creates a validator with the book form rules registered.
func NewValidator() *Validator {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = validate.RegisterValidation("isbn_chars", func(fl validator.FieldLevel) bool {
		return isbnPattern.MatchString(fl.Field().String())
	})

	_ = validate.RegisterValidation("year", func(fl validator.FieldLevel) bool {
		return yearPattern.MatchString(fl.Field().String())
	})

	_ = validate.RegisterValidation("year_range", func(fl validator.FieldLevel) bool {
		year, err := strconv.Atoi(fl.Field().String())

		return err == nil && year >= MinYear && year <= MaxYear
	})

	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return library.IsValidCategory(fl.Field().String())
	})

	return &Validator{validate: validate, translator: translator}
}

// Validate checks every field of form and returns the failures in form order.
func (v *Validator) Validate(form *BookForm) []library.FieldError {
	return v.translate(v.validate.Struct(form))
}

// ValidateFields checks only the named fields (JSON names), as an edit form does.
func (v *Validator) ValidateFields(form *BookForm, fields ...string) ([]library.FieldError, error) {
	names := make([]string, 0, len(fields))

	for _, field := range fields {
		name, ok := fieldNames[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}

		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, nil
	}

	return v.translate(v.validate.StructPartial(form, names...)), nil
}

// CreateRequest validates form and converts it to a create payload.
// Field failures are returned as *ValidationError.
func (v *Validator) CreateRequest(form *BookForm) (*library.CreateBookRequest, error) {
	if fieldErrs := v.Validate(form); len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	year, _ := strconv.Atoi(form.YearOfPublication)

	return &library.CreateBookRequest{
		ISBN:              form.ISBN,
		Title:             form.Title,
		Author:            form.Author,
		Publisher:         form.Publisher,
		YearOfPublication: year,
		Category:          form.Category,
		ImageURL:          strings.TrimSpace(form.ImageURL),
	}, nil
}

// UpdateRequest validates the named fields of form and converts them to a
// partial update payload holding only those fields.
func (v *Validator) UpdateRequest(form *BookForm, fields ...string) (*library.UpdateBookRequest, error) {
	if len(fields) == 0 {
		return nil, constants.ErrNothingToUpdate
	}

	fieldErrs, err := v.ValidateFields(form, fields...)
	if err != nil {
		return nil, err
	}

	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	request := &library.UpdateBookRequest{}

	for _, field := range fields {
		switch field {
		case "title":
			request.Title = &form.Title
		case "author":
			request.Author = &form.Author
		case "publisher":
			request.Publisher = &form.Publisher
		case "isbn":
			request.ISBN = &form.ISBN
		case "year_of_publication":
			year, _ := strconv.Atoi(form.YearOfPublication)
			request.YearOfPublication = &year
		case "category":
			request.Category = &form.Category
		case "image_url":
			imageURL := strings.TrimSpace(form.ImageURL)
			request.ImageURL = &imageURL
		}
	}

	return request, nil
}

func (v *Validator) translate(err error) []library.FieldError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	fieldErrs := make([]library.FieldError, 0, len(errs))

	for _, e := range errs {
		message, ok := messages[e.Field()+"."+e.Tag()]
		if !ok {
			message = e.Translate(v.translator)
		}

		fieldErrs = append(fieldErrs, library.FieldError{Field: e.Field(), Message: message})
	}

	return fieldErrs
}
