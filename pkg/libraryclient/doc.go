// Package libraryclient builds a library.Client for a library API host.
//
// Basic usage:
//
//	client, err := libraryclient.New(&library.Config{
//		APIHost: "https://library.example.com",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	books, err := client.Books().List(ctx, library.NewListParams(1, 10))
//
// The host is required; a missing host is reported as library.ErrAPIHostRequired
// and callers are expected to treat it as fatal at startup.
package libraryclient
