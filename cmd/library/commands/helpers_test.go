package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// setupViper resets the global configuration for one test. The config file
// lives in a temporary directory.
func setupViper(t *testing.T, values map[string]interface{}) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)
	viper.Set("cache.type", string(library.CacheTypeNone))
	viper.Set("no_color", true)

	for key, value := range values {
		viper.Set(key, value)
	}

	return configFile
}

// stubTerminal makes isTerminal report interactive for the duration of a test.
func stubTerminal(t *testing.T, interactive bool) {
	t.Helper()

	original := isTerminal
	isTerminal = func(int) bool { return interactive }

	t.Cleanup(func() { isTerminal = original })
}

type commandResult struct {
	out    string
	errOut string
	err    error
}

// runCommand executes cmd under a bare root with args and stdin.
func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) commandResult {
	t.Helper()

	root := &cobra.Command{Use: "library", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)

	var out, errOut bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := root.ExecuteContext(ctx)

	return commandResult{out: out.String(), errOut: errOut.String(), err: err}
}

// fakeAPI is an in-memory books API.
type fakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	books    []library.Book
	requests []string
	bodies   []map[string]interface{}
}

func newFakeAPI(t *testing.T, n int) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}

	for i := 1; i <= n; i++ {
		api.books = append(api.books, library.Book{
			ID:                fmt.Sprintf("b%d", i),
			ISBN:              fmt.Sprintf("978-0-00-%06d", i),
			Title:             fmt.Sprintf("Book %d", i),
			Author:            "Author",
			Publisher:         "Publisher",
			YearOfPublication: 2001,
			Category:          "novel",
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/books", api.list)
	mux.HandleFunc("GET /v1/books/{id}", api.get)
	mux.HandleFunc("POST /v1/books", api.create)
	mux.HandleFunc("PUT /v1/books/{id}", api.update)
	mux.HandleFunc("DELETE /v1/books/{id}", api.remove)

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

func (a *fakeAPI) URL() string {
	return a.server.URL
}

func (a *fakeAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.requests...)
}

func (a *fakeAPI) LastBody() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.bodies) == 0 {
		return nil
	}

	return a.bodies[len(a.bodies)-1]
}

func (a *fakeAPI) record(r *http.Request) {
	request := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		request += "?" + r.URL.Query().Encode()
	}

	a.requests = append(a.requests, request)

	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return
	}

	var body map[string]interface{}
	if json.NewDecoder(r.Body).Decode(&body) == nil {
		a.bodies = append(a.bodies, body)
	}
}

func (a *fakeAPI) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *fakeAPI) notFound(w http.ResponseWriter) {
	a.respond(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Book not found"})
}

func (a *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page = max(page, 1)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	title := strings.ToLower(r.URL.Query().Get("title"))

	var matched []library.Book

	for _, book := range a.books {
		if strings.Contains(strings.ToLower(book.Title), title) {
			matched = append(matched, book)
		}
	}

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))

	a.respond(w, http.StatusOK, library.ListEnvelope{
		Success: true,
		Message: "Books fetched",
		Data: &library.BookList{
			Books: append([]library.Book{}, matched[start:end]...),
			Pagination: library.Pagination{
				Page:      page,
				Limit:     limit,
				TotalPage: (len(matched) + limit - 1) / limit,
				TotalItem: len(matched),
			},
		},
	})
}

func (a *fakeAPI) get(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(r)

	for _, book := range a.books {
		if book.ID == r.PathValue("id") {
			a.respond(w, http.StatusOK, library.BookEnvelope{Success: true, Message: "Book fetched", Data: &book})

			return
		}
	}

	a.notFound(w)
}

func (a *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(r)

	body := a.bodies[len(a.bodies)-1]
	if body["isbn"] == "978-0-00-000001" {
		a.respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"message": "Validation failed",
			"errors":  []library.FieldError{{Field: "isbn", Message: "ISBN already exists"}},
		})

		return
	}

	id := fmt.Sprintf("new-%d", len(a.books)+1)
	a.books = append([]library.Book{{ID: id, Title: fmt.Sprint(body["title"])}}, a.books...)

	a.respond(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Book created",
		"data":    map[string]string{"id": id},
	})
}

func (a *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(r)

	for i := range a.books {
		if a.books[i].ID == r.PathValue("id") {
			a.respond(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Book updated"})

			return
		}
	}

	a.notFound(w)
}

func (a *fakeAPI) remove(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(r)

	for i := range a.books {
		if a.books[i].ID == r.PathValue("id") {
			a.books = append(a.books[:i], a.books[i+1:]...)
			w.WriteHeader(http.StatusNoContent)

			return
		}
	}

	a.notFound(w)
}

func countRequests(requests []string, prefix string) int {
	n := 0

	for _, request := range requests {
		if strings.HasPrefix(request, prefix) {
			n++
		}
	}

	return n
}
