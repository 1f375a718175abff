// Package livra provides an HTTP client for the Livra backend API.
//
// # Overview
//
// The backend owns posts, tags and token issuance. This package turns its
// JSON endpoints into typed calls:
//
//   - GET  /posts          paginated summaries, filtered by search text and owner
//   - GET  /posts/{id}     one full post
//   - POST /posts          create a post (bearer token required)
//   - GET  /tags           tag catalog
//   - POST /auth/google    exchange a Google ID token for a Livra access token
//
// # Client Usage
//
//	client, err := livra.NewClient("https://api.livra.example")
//	if err != nil {
//		return err
//	}
//	page, err := client.ListPosts(ctx, livra.ListQuery{Search: "goroutine"})
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept, User-Agent and a fresh X-Request-ID header
//   - Wait on a token-bucket limiter before leaving the process
//   - Fail with *StatusError on non-2xx responses
//
// Decoded payloads are checked with validator tags; a post without an id or
// title is rejected instead of being passed on half-empty.
package livra
