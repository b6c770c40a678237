package mock

import "net/http/httptest"

type HTTPTestServer struct {
	*APIService
	Server *httptest.Server
	URL    string
}

func NewHTTPTestServer(opts ...Option) *HTTPTestServer {
	service := NewAPIService(opts...)
	server := &HTTPTestServer{APIService: service}
	server.Server = httptest.NewServer(service.Handler())
	service.Issuer = server.Server.URL
	server.URL = server.Server.URL
	return server
}

// LoginURL returns the login endpoint URL
func (s *HTTPTestServer) LoginURL() string {
	return s.URL + "/auth/login"
}

// RefreshURL returns the refresh endpoint URL
func (s *HTTPTestServer) RefreshURL() string {
	return s.URL + "/auth/token/refresh"
}

func (s *HTTPTestServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
