package fetch

import "net/http"

// HTTPClient is the transport surface the orchestrator needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultClient returns an http.Client that also serves file:// feed URLs.
// It sets no timeout of its own; attempt deadlines come from the Clock.
func DefaultClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &http.Client{Transport: transport}
}
