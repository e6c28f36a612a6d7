package library

import (
	"time"
)

// Book represents a catalog entry as returned by the library API.
type Book struct {
	ID                string     `json:"id"                   yaml:"id"`
	ISBN              string     `json:"isbn"                 yaml:"isbn"`
	Title             string     `json:"title"                yaml:"title"`
	Author            string     `json:"author"               yaml:"author"`
	Publisher         string     `json:"publisher"            yaml:"publisher"`
	YearOfPublication int        `json:"year_of_publication"  yaml:"year_of_publication"`
	Category          string     `json:"category"             yaml:"category"`
	ImageURL          string     `json:"image_url,omitempty"  yaml:"image_url,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Pagination describes the page a list result belongs to.
type Pagination struct {
	Page      int `json:"page"       yaml:"page"`
	Limit     int `json:"limit"      yaml:"limit"`
	TotalPage int `json:"total_page" yaml:"total_page"`
	TotalItem int `json:"total_item" yaml:"total_item"`
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPage
}

// HasPrevious reports whether a page before the current one exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

// BookList is the data payload of a list call.
type BookList struct {
	Books      []Book     `json:"books"      yaml:"books"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// Clone returns a deep copy so cached lists can be patched without aliasing.
func (l *BookList) Clone() *BookList {
	if l == nil {
		return nil
	}

	books := make([]Book, len(l.Books))
	for i, book := range l.Books {
		books[i] = book.clone()
	}

	return &BookList{Books: books, Pagination: l.Pagination}
}

// IndexOf returns the position of the book with the given ID or -1.
func (l *BookList) IndexOf(id string) int {
	if l == nil {
		return -1
	}

	for i := range l.Books {
		if l.Books[i].ID == id {
			return i
		}
	}

	return -1
}

func (b Book) clone() Book {
	if b.CreatedAt != nil {
		createdAt := *b.CreatedAt
		b.CreatedAt = &createdAt
	}

	if b.UpdatedAt != nil {
		updatedAt := *b.UpdatedAt
		b.UpdatedAt = &updatedAt
	}

	return b
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"   yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// Envelope is the uniform wrapper the API returns for every call.
type Envelope[T any] struct {
	Success bool         `json:"success"          yaml:"success"`
	Message string       `json:"message"          yaml:"message"`
	Data    *T           `json:"data,omitempty"   yaml:"data,omitempty"`
	Error   interface{}  `json:"error,omitempty"  yaml:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// NoBody is set when a 2xx response carried no JSON payload.
	NoBody bool `json:"-" yaml:"-"`
}

// Clone copies the envelope. The data pointer is shared; list envelopes use CloneList.
func (e *Envelope[T]) Clone() *Envelope[T] {
	if e == nil {
		return nil
	}

	out := *e
	if e.Errors != nil {
		out.Errors = append([]FieldError(nil), e.Errors...)
	}

	return &out
}

// CloneList deep-copies a list envelope.
func CloneList(e *Envelope[BookList]) *Envelope[BookList] {
	out := e.Clone()
	if out != nil && out.Data != nil {
		out.Data = out.Data.Clone()
	}

	return out
}

// ListEnvelope is the response of GET /v1/books.
type ListEnvelope = Envelope[BookList]

// BookEnvelope is the response of GET /v1/books/{id}.
type BookEnvelope = Envelope[Book]

// CreateBookRequest is the body of POST /v1/books.
type CreateBookRequest struct {
	ISBN              string `json:"isbn"                yaml:"isbn"`
	Title             string `json:"title"               yaml:"title"`
	Author            string `json:"author"              yaml:"author"`
	Publisher         string `json:"publisher"           yaml:"publisher"`
	YearOfPublication int    `json:"year_of_publication" yaml:"year_of_publication"`
	Category          string `json:"category"            yaml:"category"`
	ImageURL          string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// CreateBookResponse is the data payload of a create call.
type CreateBookResponse struct {
	ID string `json:"id" yaml:"id"`
}

// UpdateBookRequest is the partial body of PUT /v1/books/{id}. Nil fields are left untouched.
type UpdateBookRequest struct {
	ISBN              *string `json:"isbn,omitempty"                yaml:"isbn,omitempty"`
	Title             *string `json:"title,omitempty"               yaml:"title,omitempty"`
	Author            *string `json:"author,omitempty"              yaml:"author,omitempty"`
	Publisher         *string `json:"publisher,omitempty"           yaml:"publisher,omitempty"`
	YearOfPublication *int    `json:"year_of_publication,omitempty" yaml:"year_of_publication,omitempty"`
	Category          *string `json:"category,omitempty"            yaml:"category,omitempty"`
	ImageURL          *string `json:"image_url,omitempty"           yaml:"image_url,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r *UpdateBookRequest) IsEmpty() bool {
	return r == nil || (r.ISBN == nil && r.Title == nil && r.Author == nil && r.Publisher == nil &&
		r.YearOfPublication == nil && r.Category == nil && r.ImageURL == nil)
}

// ApplyTo merges the set fields into book.
func (r *UpdateBookRequest) ApplyTo(book *Book) {
	if r == nil || book == nil {
		return
	}

	if r.ISBN != nil {
		book.ISBN = *r.ISBN
	}

	if r.Title != nil {
		book.Title = *r.Title
	}

	if r.Author != nil {
		book.Author = *r.Author
	}

	if r.Publisher != nil {
		book.Publisher = *r.Publisher
	}

	if r.YearOfPublication != nil {
		book.YearOfPublication = *r.YearOfPublication
	}

	if r.Category != nil {
		book.Category = *r.Category
	}

	if r.ImageURL != nil {
		book.ImageURL = *r.ImageURL
	}
}
