package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/internal/query"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

const browsePrompt = "[n]ext [p]rev [#] page /search [r]efresh [q]uit > "

func newBooksBrowseCommand() *cobra.Command {
	var (
		limit int
		title string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse books page by page",
		Long:  "Browse the catalog interactively. Neighbouring pages are loaded in the background.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(int(os.Stdin.Fd())) {
				return constants.ErrBrowseRequiresTTY
			}

			if limit < 0 || limit > constants.MaxPageSize {
				return constants.ErrInvalidPageSize
			}

			app, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			browser := &browser{
				app:   app,
				in:    bufio.NewScanner(cmd.InOrStdin()),
				out:   cmd.OutOrStdout(),
				limit: app.pageSize(limit),
			}

			return browser.run(cmd.Context(), strings.TrimSpace(title))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "books per page (default from config page_size)")
	cmd.Flags().StringVar(&title, "title", "", "initial title filter")

	return cmd
}

// browser is a line-driven paginated view over an observed list.
type browser struct {
	app   *App
	in    *bufio.Scanner
	out   io.Writer
	limit int
}

func (b *browser) run(ctx context.Context, title string) error {
	observer := b.app.Cache.Observe(ctx, query.NewListKey(constants.DefaultPage, b.limit, title))
	defer observer.Close()

	for {
		result, err := observer.Wait(ctx)
		if err != nil {
			return err
		}

		b.render(result)

		key := result.Key
		b.app.Cache.PrefetchAdjacent(ctx, key.Page, key.Limit, key.Title)

		_, _ = io.WriteString(b.out, browsePrompt)

		if !b.in.Scan() {
			_, _ = fmt.Fprintln(b.out)

			return b.in.Err()
		}

		next, quit := b.navigate(strings.TrimSpace(b.in.Text()), result)
		if quit {
			return nil
		}

		switch {
		case next == nil:
			observer.Refetch()
		case *next != key:
			observer.SetKey(ctx, *next)
		}
	}
}

func (b *browser) render(result query.ListResult) {
	if result.Err != nil && result.Data == nil {
		b.app.Notifier.ShowError(result.Err, "load books")

		return
	}

	if result.Data == nil || result.Data.Data == nil {
		_, _ = fmt.Fprintln(b.out, "No books found.")

		return
	}

	list := result.Data.Data

	if result.Key.Title != "" {
		_, _ = fmt.Fprintf(b.out, "Search: %q\n", result.Key.Title)
	}

	err := renderBookList(b.out, list)
	if err != nil {
		b.app.Logger.Warn("failed to render books", map[string]interface{}{"error": err.Error()})
	}

	renderPager(b.out, list.Pagination.Page, list.Pagination.TotalPage)

	switch {
	case result.Err != nil:
		b.app.Notifier.ShowError(result.Err, "refresh books")
	case result.IsPlaceholderData:
		_, _ = fmt.Fprintln(b.out, "(showing previous page while loading)")
	case result.Status == query.StatusStale:
		_, _ = fmt.Fprintln(b.out, "(cached, may be out of date)")
	}
}

// navigate maps an input line to the next key. A nil key asks for a refetch of
// the current one.
func (b *browser) navigate(line string, result query.ListResult) (*query.ListKey, bool) {
	key := result.Key
	pagination := paginationOf(result)

	switch {
	case line == "q" || line == "quit":
		return nil, true
	case line == "r":
		return nil, false
	case line == "n" || line == "":
		if pagination.TotalPage == 0 || pagination.HasNext() {
			key.Page++
		}
	case line == "p":
		if key.Page > 1 {
			key.Page--
		}
	case strings.HasPrefix(line, "/"):
		key = query.NewListKey(constants.DefaultPage, key.Limit, strings.TrimSpace(line[1:]))
	default:
		page, err := strconv.Atoi(line)
		if err != nil || page < 1 || (pagination.TotalPage > 0 && page > pagination.TotalPage) {
			_, _ = fmt.Fprintf(b.out, "Unknown command %q\n", line)

			return &key, false
		}

		key.Page = page
	}

	return &key, false
}

func paginationOf(result query.ListResult) library.Pagination {
	if result.Data == nil || result.Data.Data == nil {
		return library.Pagination{}
	}

	return result.Data.Data.Pagination
}
