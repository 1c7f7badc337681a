package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// BlobCID is the content id MockPDS assigns to every uploaded blob
const BlobCID = "bafkreiabchn4hgfzj2wnuz2zqcoakbjqq2hopyytwm4byl4vz2fvkmy4ka"

// MockPDS emulates the XRPC procedures used to publish posts:
// createSession, uploadBlob and createRecord
type MockPDS struct {
	server *httptest.Server
	mu     sync.Mutex

	// Password accepted by createSession
	Password string

	// Did returned for the session
	Did string

	// RejectRecords makes createRecord fail with 400
	RejectRecords bool

	uploads [][]byte
	records []map[string]interface{}
}

// NewMockPDS starts a fake PDS accepting password "app-password"
func NewMockPDS(t *testing.T) *MockPDS {
	p := &MockPDS{
		Password: "app-password",
		Did:      "did:plc:testuser",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", p.handleCreateSession)
	mux.HandleFunc("/xrpc/com.atproto.repo.uploadBlob", p.handleUploadBlob)
	mux.HandleFunc("/xrpc/com.atproto.repo.createRecord", p.handleCreateRecord)

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

// URL returns the PDS host
func (p *MockPDS) URL() string {
	return p.server.URL
}

// Uploads returns the bodies of all uploaded blobs
func (p *MockPDS) Uploads() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.uploads...)
}

// Records returns the createRecord inputs in order
func (p *MockPDS) Records() []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]interface{}(nil), p.records...)
}

// Texts returns the text of every created post in order
func (p *MockPDS) Texts() []string {
	var texts []string
	for _, in := range p.Records() {
		if record, ok := in["record"].(map[string]interface{}); ok {
			text, _ := record["text"].(string)
			texts = append(texts, text)
		}
	}
	return texts
}

func (p *MockPDS) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&in)

	if in.Password != p.Password {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Invalid identifier or password")
		return
	}

	writeJSON(w, map[string]interface{}{
		"accessJwt":  "access-token",
		"refreshJwt": "refresh-token",
		"handle":     in.Identifier,
		"did":        p.Did,
	})
}

func (p *MockPDS) handleUploadBlob(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer access-token" {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "missing token")
		return
	}

	data, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.uploads = append(p.uploads, data)
	p.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"blob": map[string]interface{}{
			"$type":    "blob",
			"ref":      map[string]string{"$link": BlobCID},
			"mimeType": http.DetectContentType(data),
			"size":     len(data),
		},
	})
}

func (p *MockPDS) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer access-token" {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "missing token")
		return
	}
	if p.RejectRecords {
		writeError(w, http.StatusBadRequest, "InvalidRecord", "Record/text must not be longer than 300 graphemes")
		return
	}

	var in map[string]interface{}
	json.NewDecoder(r.Body).Decode(&in)
	p.mu.Lock()
	p.records = append(p.records, in)
	p.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"uri": "at://" + p.Did + "/app.bsky.feed.post/3k2a",
		"cid": BlobCID,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": name, "message": message})
}
