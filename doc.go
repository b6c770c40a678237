// Package authgate provides an HTTP client for a bearer-authenticated API
// whose short-lived access credential is renewed with a refresh credential.
//
// The client attaches the stored access credential to every request. When
// the API answers 401 Unauthorized, concurrent callers share a single
// refresh exchange, then each replays its own request once. When the
// refresh credential is missing or rejected the stored credentials are
// cleared and a session-ended event is broadcast to subscribers.
//
// Example:
//
//	cli, _ := authgate.NewClient(&authgate.ClientOptions{
//		LoginURL:   "https://api.example.com/auth/login",
//		RefreshURL: "https://api.example.com/auth/token/refresh",
//	})
//	cli.OnSessionEnded(func(ctx context.Context, event *session.Event) { /* redirect to login */ })
//	_ = cli.Login(ctx, email, password)
//	resp, _ := cli.Request(ctx, http.MethodGet, "https://api.example.com/api/jobs", nil)
package authgate
