package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gorilla/mux"

	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/domain/entity"
)

func testConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:  "https://s3.example.com",
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "vitrine",
		PublicURL: "https://cdn.example.com/",
		TableName: "vitrine-objects",
	}
}

// appError asserts the handler returned an AppError with the given code and
// message; code 0 means no error is expected at all.
func appError(t *testing.T, err error, code int, message string) {
	t.Helper()
	if code == 0 {
		if err != nil {
			t.Errorf("expected no error, got (%v)", err)
		}
		return
	}
	var aerr *AppError
	if !errors.As(err, &aerr) {
		t.Errorf("expected AppError (%d %q), got (%v)", code, message, err)
		return
	}
	if aerr.Code != code || aerr.Message != message {
		t.Errorf("expected AppError (%d %q), got (%d %q)", code, message, aerr.Code, aerr.Message)
	}
}

func TestInitiateUpload(t *testing.T) {
	tests := []struct {
		body        string
		configured  bool
		wantCode    int
		wantMessage string
	}{
		{`{"fileName":"apps/a.zip","contentType":"application/zip"}`, false, http.StatusInternalServerError, "storage config missing"},
		{`not json`, true, http.StatusBadRequest, `cannot parse JSON from request body: invalid character 'o' in literal null (expecting 'u')`},
		{`{"contentType":"application/zip"}`, true, http.StatusBadRequest, "fileName and contentType are required"},
		{`{"fileName":"apps/a.zip"}`, true, http.StatusBadRequest, "fileName and contentType are required"},
		{`{"fileName":"apps/a.zip","contentType":"application/zip"}`, true, 0, ""},
	}
	for _, tt := range tests {
		cfg := testConfig()
		if !tt.configured {
			cfg = &config.StorageConfig{}
		}
		r := httptest.NewRequest("POST", "/vitrine/v1/uploads/initiate", bytes.NewBufferString(tt.body))
		w := httptest.NewRecorder()
		c := &controller{cfg, &mockPresigner{}, &mockObjectRepository{}}
		appError(t, c.initiateUpload(w, r), tt.wantCode, tt.wantMessage)
	}
}

func TestPresignPart(t *testing.T) {
	tests := []struct {
		body         string
		presignerErr error
		wantCode     int
		wantMessage  string
	}{
		{`{"uploadId":"u1","partNumber":1}`, nil, http.StatusBadRequest, "fileName, uploadId, and partNumber are required"},
		{`{"fileName":"apps/a.zip","partNumber":1}`, nil, http.StatusBadRequest, "fileName, uploadId, and partNumber are required"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","partNumber":0}`, nil, http.StatusBadRequest, "fileName, uploadId, and partNumber are required"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","partNumber":1}`, awserr.New(s3.ErrCodeNoSuchUpload, "no such upload", nil), http.StatusNotFound, "upload ID does not exist"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","partNumber":1}`, nil, 0, ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/vitrine/v1/uploads/part", bytes.NewBufferString(tt.body))
		w := httptest.NewRecorder()
		c := &controller{testConfig(), &mockPresigner{err: tt.presignerErr}, &mockObjectRepository{}}
		appError(t, c.presignPart(w, r), tt.wantCode, tt.wantMessage)
	}
}

func TestCompleteUpload(t *testing.T) {
	tests := []struct {
		body         string
		presignerErr error
		wantCode     int
		wantMessage  string
	}{
		{`{"uploadId":"u1","parts":[{"etag":"a","partNumber":1}]}`, nil, http.StatusBadRequest, "fileName, uploadId, and parts are required"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","parts":[]}`, nil, http.StatusBadRequest, "fileName, uploadId, and parts are required"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","parts":[{"etag":"a","partNumber":1},{"partNumber":2}]}`, nil, http.StatusBadRequest, "part 2 has no etag"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","parts":[{"etag":"a","partNumber":1}]}`, awserr.New(s3.ErrCodeNoSuchUpload, "no such upload", nil), http.StatusNotFound, "upload ID does not exist"},
		{`{"fileName":"apps/a.zip","uploadId":"u1","parts":[{"etag":"a","partNumber":1}]}`, nil, 0, ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/vitrine/v1/uploads/complete", bytes.NewBufferString(tt.body))
		w := httptest.NewRecorder()
		c := &controller{testConfig(), &mockPresigner{err: tt.presignerErr}, &mockObjectRepository{}}
		appError(t, c.completeUpload(w, r), tt.wantCode, tt.wantMessage)
	}
}

func TestCompleteUploadSortsParts(t *testing.T) {
	body := `{"fileName":"apps/a.zip","uploadId":"u1","contentType":"application/zip","size":25,"parts":[
		{"etag":"c","partNumber":3},
		{"etag":"a","partNumber":1},
		{"etag":"b","partNumber":2}]}`
	r := httptest.NewRequest("POST", "/vitrine/v1/uploads/complete", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	presigner := &mockPresigner{}
	objects := &mockObjectRepository{}
	c := &controller{testConfig(), presigner, objects}
	if err := c.completeUpload(w, r); err != nil {
		t.Fatal(err)
	}
	if len(presigner.completedParts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(presigner.completedParts))
	}
	for i, part := range presigner.completedParts {
		if part.PartNumber != int64(i+1) {
			t.Errorf("part at index %d has number %d", i, part.PartNumber)
		}
	}

	var resp CompleteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.PublicUrl != "https://cdn.example.com/apps/a.zip" {
		t.Errorf("unexpected public URL %q", resp.PublicUrl)
	}

	if objects.saved == nil {
		t.Fatal("expected the finished object to be recorded")
	}
	if objects.saved.Key != "apps/a.zip" || objects.saved.Size != 25 || objects.saved.UploadId != "u1" {
		t.Errorf("unexpected recorded object %+v", objects.saved)
	}
	if objects.saved.ContentType != "application/zip" {
		t.Errorf("unexpected recorded content type %q", objects.saved.ContentType)
	}
	if objects.saved.Folder != "apps" {
		t.Errorf("unexpected recorded folder %q", objects.saved.Folder)
	}
}

func TestCompleteUploadIgnoresRegistryFailure(t *testing.T) {
	body := `{"fileName":"apps/a.zip","uploadId":"u1","parts":[{"etag":"a","partNumber":1}]}`
	r := httptest.NewRequest("POST", "/vitrine/v1/uploads/complete", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	c := &controller{testConfig(), &mockPresigner{}, &mockObjectRepository{err: errors.New("table offline")}}
	if err := c.completeUpload(w, r); err != nil {
		t.Errorf("expected registry failure to be swallowed, got (%v)", err)
	}
}

func TestAbortUpload(t *testing.T) {
	tests := []struct {
		body        string
		wantCode    int
		wantMessage string
	}{
		{`{"uploadId":"u1"}`, http.StatusBadRequest, "fileName and uploadId are required"},
		{`{"fileName":"apps/a.zip"}`, http.StatusBadRequest, "fileName and uploadId are required"},
		{`{"fileName":"apps/a.zip","uploadId":"u1"}`, 0, ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/vitrine/v1/uploads/abort", bytes.NewBufferString(tt.body))
		w := httptest.NewRecorder()
		c := &controller{testConfig(), &mockPresigner{}, &mockObjectRepository{}}
		appError(t, c.abortUpload(w, r), tt.wantCode, tt.wantMessage)
	}
}

func TestPresignDirect(t *testing.T) {
	r := httptest.NewRequest("POST", "/vitrine/v1/uploads/presign", bytes.NewBufferString(`{"fileName":"uploads/a.png","contentType":"image/png","size":10}`))
	w := httptest.NewRecorder()
	objects := &mockObjectRepository{}
	c := &controller{testConfig(), &mockPresigner{}, objects}
	if err := c.presignDirect(w, r); err != nil {
		t.Fatal(err)
	}
	var resp PresignResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Url != "https://s3.example.com/put" {
		t.Errorf("unexpected put URL %q", resp.Url)
	}
	if resp.PublicUrl != "https://cdn.example.com/uploads/a.png" {
		t.Errorf("unexpected public URL %q", resp.PublicUrl)
	}

	// Direct uploads must land in the registry too, or the listing only
	// ever shows multipart uploads.
	if objects.saved == nil {
		t.Fatal("expected the presigned object to be recorded")
	}
	if objects.saved.Key != "uploads/a.png" || objects.saved.ContentType != "image/png" || objects.saved.Size != 10 {
		t.Errorf("unexpected recorded object %+v", objects.saved)
	}
	if objects.saved.PublicURL != "https://cdn.example.com/uploads/a.png" {
		t.Errorf("unexpected recorded public URL %q", objects.saved.PublicURL)
	}
	if objects.saved.Status != entity.ObjectStatusUploaded {
		t.Errorf("unexpected recorded status %q", objects.saved.Status)
	}
}

func TestPresignDirectIgnoresRegistryFailure(t *testing.T) {
	r := httptest.NewRequest("POST", "/vitrine/v1/uploads/presign", bytes.NewBufferString(`{"fileName":"uploads/a.png","contentType":"image/png","size":10}`))
	w := httptest.NewRecorder()
	c := &controller{testConfig(), &mockPresigner{}, &mockObjectRepository{err: errors.New("table offline")}}
	if err := c.presignDirect(w, r); err != nil {
		t.Errorf("expected registry failure to be swallowed, got (%v)", err)
	}
}

func TestListObjects(t *testing.T) {
	objects := &mockObjectRepository{listed: []*entity.Object{
		entity.NewObject("apps/a.zip", "application/zip", "apps", "https://cdn.example.com/apps/a.zip", 25, 2),
		entity.NewObject("uploads/b.png", "image/png", "uploads", "https://cdn.example.com/uploads/b.png", 10, 1),
	}}
	r := httptest.NewRequest("GET", "/vitrine/v1/objects", nil)
	w := httptest.NewRecorder()
	c := &controller{testConfig(), &mockPresigner{}, objects}
	if err := c.listObjects(w, r); err != nil {
		t.Fatal(err)
	}
	var resp ListObjectsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(resp.Objects))
	}
	if resp.Objects[0].Key != "apps/a.zip" || resp.Objects[0].Status != entity.ObjectStatusUploaded {
		t.Errorf("unexpected first object %+v", resp.Objects[0])
	}
}

func TestGetObject(t *testing.T) {
	stored := entity.NewObject("apps/a.zip", "application/zip", "apps", "https://cdn.example.com/apps/a.zip", 25, 1)
	tests := []struct {
		key         string
		wantCode    int
		wantMessage string
	}{
		{"apps/missing.zip", http.StatusNotFound, "object does not exist"},
		{"apps/a.zip", 0, ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/vitrine/v1/objects/"+tt.key, nil)
		r = mux.SetURLVars(r, map[string]string{"key": tt.key})
		w := httptest.NewRecorder()
		c := &controller{testConfig(), &mockPresigner{}, &mockObjectRepository{stored: stored}}
		appError(t, c.getObject(w, r), tt.wantCode, tt.wantMessage)
	}
}

func TestDeleteObject(t *testing.T) {
	stored := entity.NewObject("apps/a.zip", "application/zip", "apps", "https://cdn.example.com/apps/a.zip", 25, 1)
	objects := &mockObjectRepository{stored: stored}
	r := httptest.NewRequest("DELETE", "/vitrine/v1/objects/apps/a.zip", nil)
	r = mux.SetURLVars(r, map[string]string{"key": "apps/a.zip"})
	w := httptest.NewRecorder()
	c := &controller{testConfig(), &mockPresigner{}, objects}
	if err := c.deleteObject(w, r); err != nil {
		t.Fatal(err)
	}
	if objects.saved == nil || objects.saved.Status != entity.ObjectStatusDeleted {
		t.Errorf("expected the object to be saved with deleted status, got %+v", objects.saved)
	}

	r = httptest.NewRequest("DELETE", "/vitrine/v1/objects/apps/missing.zip", nil)
	r = mux.SetURLVars(r, map[string]string{"key": "apps/missing.zip"})
	w = httptest.NewRecorder()
	appError(t, c.deleteObject(w, r), http.StatusNotFound, "object does not exist")
}

func TestRouting(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{"OPTIONS", "/vitrine/v1/uploads/initiate", http.StatusOK},
		{"OPTIONS", "/vitrine/v1/objects", http.StatusOK},
		{"GET", "/vitrine/v1/uploads/initiate", http.StatusMethodNotAllowed},
		{"POST", "/vitrine/v1/objects", http.StatusMethodNotAllowed},
		{"POST", "/vitrine/v1/uploads/initiate", http.StatusOK},
		// Keys contain slashes; the object routes must still match them.
		{"GET", "/vitrine/v1/objects/apps/a.zip", http.StatusNotFound},
		{"DELETE", "/vitrine/v1/objects/apps/a.zip", http.StatusNotFound},
	}
	router := mux.NewRouter()
	SetupRoutes(router, testConfig(), &mockPresigner{}, &mockObjectRepository{})
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(`{"fileName":"apps/a.zip","contentType":"application/zip"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != tt.wantCode {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantCode, w.Code)
		}
		if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
			t.Errorf("%s %s: expected CORS origin header, got %q", tt.method, tt.path, origin)
		}
	}
}

type mockPresigner struct {
	err            error
	completedParts []*entity.Part
}

func (p *mockPresigner) CreateMultipart(key, contentType string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "u1", nil
}

func (p *mockPresigner) PresignPart(key, uploadId string, partNumber int64) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://s3.example.com/put", nil
}

func (p *mockPresigner) CompleteMultipart(key, uploadId string, parts []*entity.Part) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.completedParts = parts
	return "https://s3.example.com/" + key, nil
}

func (p *mockPresigner) AbortMultipart(key, uploadId string) error {
	return p.err
}

func (p *mockPresigner) PresignPut(key, contentType string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://s3.example.com/put", nil
}

type mockObjectRepository struct {
	err    error
	stored *entity.Object
	saved  *entity.Object
	listed []*entity.Object
}

func (r *mockObjectRepository) GetByKey(key string) (*entity.Object, error) {
	if r.stored != nil && r.stored.Key == key {
		return r.stored, r.err
	}
	return nil, r.err
}

func (r *mockObjectRepository) Save(object *entity.Object) error {
	if r.err != nil {
		return r.err
	}
	r.saved = object
	return nil
}

func (r *mockObjectRepository) List() ([]*entity.Object, error) {
	return r.listed, r.err
}
