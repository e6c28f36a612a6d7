// Package library provides types, interfaces, and helpers for working with the
// library catalog REST API.
//
// # Overview
//
// The library package defines the domain types (Book, Pagination, Envelope) and
// the BooksClient interface. A concrete implementation is provided by the
// libraryclient package, which wires configuration and transport:
//
//	cli, err := libraryclient.New(&library.Config{APIHost: "https://library.example.com"})
//	if err != nil { log.Fatal(err) }
//
//	env, err := cli.Books().List(ctx, library.NewListParams(1, 10).WithTitle("go"))
//	if err != nil { log.Fatal(err) }
//	for _, book := range env.Data.Books {
//	  fmt.Println(book.Title)
//	}
//
// # Errors
//
// Failed calls return *APIError carrying the HTTP status, the composed message,
// the raw body, and any field-level validation errors. Connectivity failures are
// wrapped in *NetworkError. IsNotFound, IsValidation and IsNetwork branch on
// the common cases.
//
// # Caching
//
// Cache is a small pluggable byte cache with memory, NATS KV, Redis and no-op
// backends. The query layer in this module persists confirmed list and detail
// envelopes through it.
package library
