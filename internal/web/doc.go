// Package web serves the portal's HTML pages.
//
// Every page request passes through sessionMiddleware, which turns the
// session cookie into an auth.Identity, and protected route groups are
// wrapped in require(), which either lets the request through, redirects
// an anonymous visitor to the right login page, or renders 403.
//
// The server follows the same lifecycle as the other components:
//
//	srv, err := web.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
//
// Templates and the stylesheet are embedded in the binary.
package web
