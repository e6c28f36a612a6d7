package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/internal/form"
	"github.com/feildrixliemdra/library-admin/internal/notify"
	"github.com/feildrixliemdra/library-admin/internal/query"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// isTerminal reports whether fd is an interactive terminal.
var isTerminal = term.IsTerminal

// bookField binds a command flag to a form field.
type bookField struct {
	flag  string
	field string
	usage string
	value func(f *form.BookForm) *string
}

var bookFields = []bookField{
	{"title", "title", "book title", func(f *form.BookForm) *string { return &f.Title }},
	{"author", "author", "book author", func(f *form.BookForm) *string { return &f.Author }},
	{"publisher", "publisher", "book publisher", func(f *form.BookForm) *string { return &f.Publisher }},
	{"isbn", "isbn", "ISBN (10-17 characters of digits, '-' and 'X')", func(f *form.BookForm) *string { return &f.ISBN }},
	{"year", "year_of_publication", "year of publication", func(f *form.BookForm) *string { return &f.YearOfPublication }},
	{"category", "category", "category (" + strings.Join(library.CategoryValues(), ", ") + ")", func(f *form.BookForm) *string { return &f.Category }},
	{"image-url", "image_url", "cover image URL", func(f *form.BookForm) *string { return &f.ImageURL }},
}

func addBookFlags(cmd *cobra.Command, bookForm *form.BookForm) {
	for _, field := range bookFields {
		cmd.Flags().StringVar(field.value(bookForm), field.flag, "", field.usage)
	}
}

// changedFields returns the form fields whose flags were set.
func changedFields(cmd *cobra.Command) []string {
	var fields []string

	for _, field := range bookFields {
		if cmd.Flags().Changed(field.flag) {
			fields = append(fields, field.field)
		}
	}

	return fields
}

// NewBooksCommand creates the books command group.
func NewBooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "Manage books",
		Long:    "List, view, create, update and delete books in the catalog",
	}

	cmd.AddCommand(newBooksListCommand())
	cmd.AddCommand(newBooksGetCommand())
	cmd.AddCommand(newBooksCreateCommand())
	cmd.AddCommand(newBooksUpdateCommand())
	cmd.AddCommand(newBooksDeleteCommand())
	cmd.AddCommand(newBooksBrowseCommand())

	return cmd
}

func newBooksListCommand() *cobra.Command {
	var (
		page  int
		limit int
		title string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Long:  "List one page of books, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return constants.ErrInvalidPage
			}

			if limit < 0 || limit > constants.MaxPageSize {
				return constants.ErrInvalidPageSize
			}

			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			key := query.NewListKey(page, app.pageSize(limit), strings.TrimSpace(title))

			envelope, err := app.Cache.Fetch(cmd.Context(), key)
			if err != nil {
				app.Notifier.ShowError(err, "load books")

				return reported(err)
			}

			list := envelope.Data
			if list == nil {
				list = &library.BookList{}
			}

			return writeOutput(cmd.OutOrStdout(), list, func(w io.Writer) error {
				err := renderBookList(w, list)
				if err != nil {
					return err
				}

				renderPager(w, list.Pagination.Page, list.Pagination.TotalPage)

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", constants.DefaultPage, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "books per page (default from config page_size)")
	cmd.Flags().StringVar(&title, "title", "", "filter by title")

	return cmd
}

func newBooksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get BOOK_ID",
		Short: "Get book details",
		Long:  "Display the details of a single book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			envelope, err := app.Cache.Book(cmd.Context(), args[0])
			if err != nil {
				app.Notifier.ShowError(err, "load book")

				return reported(err)
			}

			return writeOutput(cmd.OutOrStdout(), envelope.Data, func(w io.Writer) error {
				return renderBookDetail(w, envelope.Data)
			})
		},
	}
}

func newBooksCreateCommand() *cobra.Command {
	var (
		bookForm form.BookForm
		cover    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a book",
		Long:  "Create a book. Use --cover to upload a cover image before the book is saved.",
		Example: `  library books create --title "The Hobbit" --author "J.R.R. Tolkien" \
    --publisher "Allen & Unwin" --isbn 978-0-261-10221-7 --year 1937 --category novel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			fieldErrs := app.Validator.Validate(&bookForm)
			if len(fieldErrs) > 0 {
				return showInvalidForm(app, &form.ValidationError{Errors: fieldErrs})
			}

			if cover != "" {
				bookForm.ImageURL, err = uploadCover(cmd, app, cover)
				if err != nil {
					return err
				}
			}

			request, err := app.Validator.CreateRequest(&bookForm)
			if err != nil {
				return showInvalidForm(app, err)
			}

			envelope, err := app.Mutations.CreateBook(cmd.Context(), request)
			if err != nil {
				return reported(err)
			}

			return writeOutput(cmd.OutOrStdout(), envelope, func(w io.Writer) error {
				id := ""
				if envelope.Data != nil {
					id = envelope.Data.ID
				}

				_, _ = fmt.Fprintf(w, "Successfully created book '%s' (id: %s)\n", request.Title, id)

				return nil
			})
		},
	}

	addBookFlags(cmd, &bookForm)
	cmd.Flags().StringVar(&cover, "cover", "", "cover image file to upload")

	return cmd
}

func newBooksUpdateCommand() *cobra.Command {
	var (
		bookForm form.BookForm
		cover    string
	)

	cmd := &cobra.Command{
		Use:   "update BOOK_ID",
		Short: "Update a book",
		Long:  "Update a book. Only the fields passed as flags are sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			fields := changedFields(cmd)

			if len(fields) == 0 && cover == "" {
				return constants.ErrNothingToUpdate
			}

			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			fieldErrs, err := app.Validator.ValidateFields(&bookForm, fields...)
			if err != nil {
				return err
			}

			if len(fieldErrs) > 0 {
				return showInvalidForm(app, &form.ValidationError{Errors: fieldErrs})
			}

			if cover != "" {
				bookForm.ImageURL, err = uploadCover(cmd, app, cover)
				if err != nil {
					return err
				}

				if !cmd.Flags().Changed("image-url") {
					fields = append(fields, "image_url")
				}
			}

			request, err := app.Validator.UpdateRequest(&bookForm, fields...)
			if err != nil {
				return showInvalidForm(app, err)
			}

			envelope, err := app.Mutations.UpdateBook(cmd.Context(), id, request)
			if err != nil {
				return reported(err)
			}

			return writeOutput(cmd.OutOrStdout(), envelope, func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "Successfully updated book '%s'\n", id)

				return nil
			})
		},
	}

	addBookFlags(cmd, &bookForm)
	cmd.Flags().StringVar(&cover, "cover", "", "cover image file to upload")

	return cmd
}

func newBooksDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete BOOK_ID",
		Short: "Delete a book",
		Long:  "Delete a book. Asks for confirmation unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if !force {
				confirmed, err := confirmDelete(cmd, id)
				if err != nil {
					return err
				}

				if !confirmed {
					_, _ = io.WriteString(cmd.OutOrStdout(), "Cancelled\n")

					return nil
				}
			}

			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			envelope, err := app.Mutations.DeleteBook(cmd.Context(), id)
			if err != nil {
				return reported(err)
			}

			return writeOutput(cmd.OutOrStdout(), envelope, func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "Successfully deleted book '%s'\n", id)

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

// confirmDelete asks before a delete. Without a terminal there is nobody to ask.
func confirmDelete(cmd *cobra.Command, id string) (bool, error) {
	if !isTerminal(int(os.Stdin.Fd())) {
		return false, constants.ErrConfirmRequiresTTY
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Really delete book '%s'? (y/N): ", id)

	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response = strings.TrimSpace(response)

	return response == "y" || response == "Y", nil
}

// showInvalidForm shows field errors as a warning. Other errors are returned as is.
func showInvalidForm(app *App, err error) error {
	var validationErr *form.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}

	app.Notifier.ShowWarning("Invalid book", notify.FormatValidationErrors(validationErr.Errors))

	return reported(err)
}
