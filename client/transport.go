package client

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/freundallein/queued/chassis/codec"
)

const contentTypeMsgpack = "application/msgpack"

// transport performs exactly one request/response round trip per call.
type transport struct {
	base    *url.URL
	apiKey  string
	httpCli *http.Client
}

func newTransport(opts Options) (*transport, error) {
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, &badURLError{url: opts.URL, err: err}
	}
	// Default-secure: only an explicit http scheme gets plaintext.
	if base.Scheme != "http" {
		base.Scheme = "https"
	}
	base.Path = strings.TrimRight(base.Path, "/")
	tlsCfg, err := opts.TLS.config()
	if err != nil {
		return nil, err
	}
	return &transport{
		base:   base,
		apiKey: opts.APIKey,
		httpCli: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
	}, nil
}

// roundTrip sends one request with an optional msgpack body and returns the
// decoded response value. Non-2xx statuses surface as ErrAuthorization (401)
// or *APIError, the body is fully buffered in all cases.
func (t *transport) roundTrip(method, path string, body interface{}) (interface{}, error) {
	fullURL := t.base.String() + path
	var reqBody io.Reader
	if body != nil {
		bin, err := codec.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(bin)
	}
	req, err := http.NewRequest(method, fullURL, reqBody)
	if err != nil {
		return nil, &badURLError{url: fullURL, err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeMsgpack)
	}
	if t.apiKey != "" {
		// Sent verbatim, the caller owns any scheme prefix.
		req.Header.Set("Authorization", t.apiKey)
	}
	resp, err := t.httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// 401 wins over any other status interpretation.
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthorization
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
	if len(respBody) == 0 {
		return nil, nil
	}
	if isMsgpack(resp.Header.Get("Content-Type")) {
		return codec.Decode(respBody)
	}
	return string(respBody), nil
}

func isMsgpack(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/msgpack" || mediaType == "application/x-msgpack"
}

func apiError(status int, contentType string, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var decoded interface{}
	if isMsgpack(contentType) {
		var err error
		decoded, err = codec.Decode(body)
		if err != nil {
			decoded = nil
		}
	} else if len(body) > 0 {
		decoded = string(body)
	}
	if fields, ok := decoded.(map[string]interface{}); ok {
		if value, ok := fields["error"]; ok {
			apiErr.Err = value
		} else {
			apiErr.Err = fields
		}
		apiErr.ErrorDetails = fields["error_details"]
	} else {
		apiErr.Err = decoded
	}
	return apiErr
}

// config builds a tls.Config from the configured material, passed through
// to the http transport unmodified.
func (o TLSOptions) config() (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName:         o.ServerName,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
	if o.CertFile != "" || o.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if o.CAFile != "" {
		pem, err := ioutil.ReadFile(o.CAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("queued: no certificates in CA file %s", o.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
