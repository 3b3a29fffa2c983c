/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptest

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/acronis/go-appkit/testutil"
)

// TokenEndpointPath is the tenant-scoped token endpoint path pattern, same as in the Microsoft identity platform.
const TokenEndpointPath = "/{tenant}/oauth2/v2.0/token"

const localhostWithDynamicPortAddr = "127.0.0.1:0"

// HTTPServerOption is an option for HTTPServer.
type HTTPServerOption func(s *HTTPServer)

// WithHTTPAddress is an option to set HTTP server address.
func WithHTTPAddress(addr string) HTTPServerOption {
	return func(s *HTTPServer) {
		s.addr.Store(addr)
	}
}

// WithHTTPTokenHandler is an option to set custom handler for POST /{tenant}/oauth2/v2.0/token.
func WithHTTPTokenHandler(handler http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.TokenHandler = handler
	}
}

// WithHTTPApplications is an option to register applications in the default TokenHandler.
func WithHTTPApplications(apps ...Application) HTTPServerOption {
	return func(s *HTTPServer) {
		s.applications = append(s.applications, apps...)
	}
}

// WithHTTPTokenLifetime is an option to set the lifetime of access tokens issued by the default TokenHandler.
func WithHTTPTokenLifetime(lifetime time.Duration) HTTPServerOption {
	return func(s *HTTPServer) {
		s.tokenLifetime = lifetime
	}
}

// WithHTTPMiddleware is an option to wrap the router with a middleware.
func WithHTTPMiddleware(mw func(http.Handler) http.Handler) HTTPServerOption {
	return func(s *HTTPServer) {
		s.middleware = mw
	}
}

// HTTPServer is a mock identity platform server for testing purposes.
type HTTPServer struct {
	*http.Server
	addr                 atomic.Value
	middleware           func(http.Handler) http.Handler
	applications         []Application
	tokenLifetime        time.Duration
	TokenHandler         http.Handler
	Router               *http.ServeMux
	afterListenCallbacks []func()
}

// NewHTTPServer creates a new HTTPServer with provided options.
func NewHTTPServer(options ...HTTPServerOption) *HTTPServer {
	s := &HTTPServer{}
	for _, opt := range options {
		opt(s)
	}

	if s.TokenHandler == nil {
		tokenHandler := &TokenHandler{Applications: s.applications, TokenLifetime: s.tokenLifetime}
		s.TokenHandler = tokenHandler
		s.afterListenCallbacks = append(s.afterListenCallbacks, func() {
			tokenHandler.BaseURL = s.URL()
		})
	}

	s.Router = http.NewServeMux()
	s.Router.Handle(TokenEndpointPath, s.TokenHandler)

	// nolint:gosec // This server is used for testing purposes only.
	s.Server = &http.Server{Handler: s.Router}
	if s.middleware != nil {
		s.Server.Handler = s.middleware(s.Router)
	}

	return s
}

// URL method returns the URL of the server.
func (s *HTTPServer) URL() string {
	if srvURL := s.addr.Load(); srvURL != nil {
		return "http://" + srvURL.(string)
	}
	return ""
}

// TokenURL returns the token endpoint URL for the tenant.
func (s *HTTPServer) TokenURL(tenantID string) string {
	return s.URL() + "/" + tenantID + "/oauth2/v2.0/token"
}

// Start starts the HTTPServer.
func (s *HTTPServer) Start() error {
	addr, ok := s.addr.Load().(string)
	if !ok {
		addr = localhostWithDynamicPortAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	s.addr.Store(ln.Addr().String())

	for _, cb := range s.afterListenCallbacks {
		cb()
	}

	go func() { _ = s.Server.Serve(ln) }()

	return nil
}

// StartAndWaitForReady starts the server waits for the server to start listening.
func (s *HTTPServer) StartAndWaitForReady(timeout time.Duration) error {
	if err := s.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return testutil.WaitListeningServer(s.addr.Load().(string), timeout)
}
