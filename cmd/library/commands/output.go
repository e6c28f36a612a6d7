package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/internal/query"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

const dateLayout = "2006-01-02 15:04"

// outputFormat returns the requested output format.
func outputFormat() (string, error) {
	format := viper.GetString("output")

	switch format {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

// writeOutput encodes data as JSON or YAML, or calls renderTable for table output.
func writeOutput(w io.Writer, data interface{}, renderTable func(io.Writer) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as YAML: %w", err)
		}

		return encoder.Close()
	default:
		return renderTable(w)
	}
}

func renderBooksTable(w io.Writer, books []library.Book) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Author", "Publisher", "Year", "Category", "Updated")

	for _, book := range books {
		err := table.Append([]string{
			book.ID,
			book.Title,
			book.Author,
			book.Publisher,
			strconv.Itoa(book.YearOfPublication),
			library.CategoryLabel(book.Category),
			formatTime(book.UpdatedAt),
		})
		if err != nil {
			return fmt.Errorf("failed to append book to table: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderBookList(w io.Writer, list *library.BookList) error {
	if len(list.Books) == 0 {
		_, _ = fmt.Fprintln(w, "No books found.")
	} else {
		err := renderBooksTable(w, list.Books)
		if err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(w, "Page %d of %d (%d books)\n",
		list.Pagination.Page, list.Pagination.TotalPage, list.Pagination.TotalItem)

	return nil
}

func renderBookDetail(w io.Writer, book *library.Book) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	rows := [][]string{
		{"ID", book.ID},
		{"Title", book.Title},
		{"Author", book.Author},
		{"Publisher", book.Publisher},
		{"ISBN", book.ISBN},
		{"Year", strconv.Itoa(book.YearOfPublication)},
		{"Category", library.CategoryLabel(book.Category)},
		{"Cover", valueOr(book.ImageURL, constants.None)},
		{"Created", formatTime(book.CreatedAt)},
		{"Updated", formatTime(book.UpdatedAt)},
	}

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append %s to table: %w", strings.ToLower(row[0]), err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderPager prints the page items, marking the current page.
func renderPager(w io.Writer, current, total int) {
	items := query.PageItems(current, total)
	if len(items) == 0 {
		return
	}

	parts := make([]string, 0, len(items))

	for _, item := range items {
		switch {
		case item.Ellipsis:
			parts = append(parts, constants.Ellipsis)
		case item.Page == current:
			parts = append(parts, "["+strconv.Itoa(item.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(item.Page))
		}
	}

	_, _ = fmt.Fprintln(w, strings.Join(parts, " "))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return constants.NotAvailable
	}

	return t.Local().Format(dateLayout)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
