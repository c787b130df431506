package tests

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

const beaconHeadPath = "/eth/v1/beacon/headers/head"

// HeadHeaderJSON renders a minimal beacon head header response for the given slot string
func HeadHeaderJSON(slot string) string {
	return fmt.Sprintf(`{"data":{"root":"0x00","canonical":true,"header":{"message":{"slot":%q,"proposer_index":"1"}}}}`, slot)
}

// StubBeacon serves a fixed body on the beacon head header route
type StubBeacon struct {
	Server *httptest.Server

	mu       sync.Mutex
	requests int
}

// NewStubBeacon starts a beacon stub returning body with the given status
func NewStubBeacon(status int, body string) *StubBeacon {
	s := &StubBeacon{}
	r := mux.NewRouter()
	r.HandleFunc(beaconHeadPath, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}).Methods(http.MethodGet)
	s.Server = httptest.NewServer(r)
	return s
}

// NewStubBeaconAtSlot starts a beacon stub whose head is at slot
func NewStubBeaconAtSlot(slot uint64) *StubBeacon {
	return NewStubBeacon(http.StatusOK, HeadHeaderJSON(fmt.Sprintf("%d", slot)))
}

func (s *StubBeacon) URL() string {
	return s.Server.URL
}

func (s *StubBeacon) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *StubBeacon) Close() {
	s.Server.Close()
}

// CapturedRequest is one request received by a StubRelay
type CapturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// StubRelay records POSTs on a single route and answers with a fixed status and body
type StubRelay struct {
	Server *httptest.Server

	mu       sync.Mutex
	captured []CapturedRequest
}

// NewStubRelay starts a relay stub accepting POSTs on path
func NewStubRelay(path string, status int, response string) *StubRelay {
	s := &StubRelay{}
	r := mux.NewRouter()
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)

		s.mu.Lock()
		s.captured = append(s.captured, CapturedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.RawQuery,
			Header: req.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}).Methods(http.MethodPost)
	s.Server = httptest.NewServer(r)
	return s
}

func (s *StubRelay) URL() string {
	return s.Server.URL
}

// Requests returns a copy of every captured request in arrival order
func (s *StubRelay) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.captured))
	copy(out, s.captured)
	return out
}

func (s *StubRelay) Close() {
	s.Server.Close()
}
