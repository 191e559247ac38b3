package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/internal/application/usecase"
	wsInfra "github.com/pkondrashkov/gallery-api/internal/infrastructure/notification/websocket"
	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/handler"
	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/middleware"
	"github.com/pkondrashkov/gallery-api/pkg/config"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

const (
	testToken        = "test-token"
	minimalPngBase64 = "data:image/png;base64,iVBORw0KGgo="
)

type storedObject struct {
	contentType  string
	data         []byte
	lastModified time.Time
}

// memoryObjectStorage implements port.ObjectStorage over a map. Pages walk
// keys in lexical order with a numeric index cursor.
type memoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]storedObject
	signSeq int
}

func newMemoryObjectStorage() *memoryObjectStorage {
	return &memoryObjectStorage{
		objects: make(map[string]storedObject),
	}
}

func (s *memoryObjectStorage) seed(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{
		contentType:  contentType,
		data:         append([]byte(nil), data...),
		lastModified: time.Now().UTC(),
	}
}

func (s *memoryObjectStorage) has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memoryObjectStorage) ListPage(_ context.Context, prefix string, pageSize int32, cursor string) (port.ObjectPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return port.ObjectPage{}, fmt.Errorf("invalid cursor")
		}
		start = parsed
	}
	if start > len(keys) {
		start = len(keys)
	}

	end := start + int(pageSize)
	if end > len(keys) {
		end = len(keys)
	}

	items := make([]port.ObjectInfo, 0, end-start)
	for _, key := range keys[start:end] {
		obj := s.objects[key]
		items = append(items, port.ObjectInfo{
			Key:          key,
			SizeBytes:    int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}

	nextCursor := ""
	if end < len(keys) {
		nextCursor = strconv.Itoa(end)
	}

	return port.ObjectPage{Items: items, NextCursor: nextCursor}, nil
}

func (s *memoryObjectStorage) ResolveSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signSeq++
	return fmt.Sprintf("https://storage.local/%s?sig=%d", key, s.signSeq), nil
}

func (s *memoryObjectStorage) PutObject(ctx context.Context, key, contentType string, body []byte) (string, error) {
	s.mu.Lock()
	s.objects[key] = storedObject{
		contentType:  contentType,
		data:         append([]byte(nil), body...),
		lastModified: time.Now().UTC(),
	}
	s.mu.Unlock()
	return s.ResolveSignedURL(ctx, key, time.Hour)
}

func (s *memoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// memoryMetadataRepo implements port.ImageMetadataRepository in memory with
// newest-first listing and an offset cursor.
type memoryMetadataRepo struct {
	mu      sync.RWMutex
	records map[string]port.ImageMetadata
}

func newMemoryMetadataRepo() *memoryMetadataRepo {
	return &memoryMetadataRepo{
		records: make(map[string]port.ImageMetadata),
	}
}

func (r *memoryMetadataRepo) Put(_ context.Context, record port.ImageMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key] = record
	return nil
}

func (r *memoryMetadataRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

func (r *memoryMetadataRepo) ListRecent(_ context.Context, query port.ImageListQuery) (port.ImageListPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]port.ImageMetadata, 0, len(r.records))
	for _, record := range r.records {
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UploadedAt.After(items[j].UploadedAt)
	})

	start := 0
	if query.Cursor != "" {
		parsed, err := strconv.Atoi(query.Cursor)
		if err != nil {
			return port.ImageListPage{}, fmt.Errorf("invalid cursor")
		}
		start = parsed
	}
	if start > len(items) {
		start = len(items)
	}

	end := start + query.Limit
	if end > len(items) {
		end = len(items)
	}

	nextCursor := ""
	if end < len(items) {
		nextCursor = strconv.Itoa(end)
	}

	return port.ImageListPage{Items: items[start:end], NextCursor: nextCursor}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryObjectStorage) {
	t.Helper()

	log := logger.New("error")
	storage := newMemoryObjectStorage()
	metadata := newMemoryMetadataRepo()

	hub := wsInfra.NewHub(log)
	go hub.Run()

	loader := usecase.NewLoadImageCatalogUseCase(storage, nil, nil, usecase.LoadImageCatalogConfig{PageSize: 2}, log)
	loadCatalogUC := usecase.NewLoadImageCatalogCachedUseCase(loader, nil, log)
	uploadImageUC := usecase.NewUploadImageUseCase(storage, metadata, nil, hub, nil, nil, usecase.UploadImageConfig{KeyPrefix: "gallery"}, log)
	deleteImageUC := usecase.NewDeleteImageUseCase(storage, metadata, nil, hub, nil, nil, usecase.DeleteImageConfig{KeyPrefix: "gallery"}, log)
	listRecentUploadsUC := usecase.NewListRecentUploadsUseCase(metadata, usecase.ListRecentUploadsConfig{}, log)

	authConfig := middleware.AuthConfig{Enabled: true, BearerToken: testToken}

	galleryAPIHandler := handler.NewGalleryAPIHandler(
		loadCatalogUC,
		uploadImageUC,
		deleteImageUC,
		listRecentUploadsUC,
		"gallery",
		5*1024*1024,
		log,
	)
	websocketHandler := handler.NewWebSocketHandler(hub, []string{"http://localhost:8080"}, authConfig, log)
	authAPIHandler := handler.NewAuthAPIHandler(authConfig, log)

	router := NewRouter(
		galleryAPIHandler,
		websocketHandler,
		authAPIHandler,
		nil,
		config.SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			AuthEnabled:    true,
			AuthToken:      testToken,
		},
		log,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server, storage
}

func TestE2EHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func TestE2EAuthFlow(t *testing.T) {
	server, _ := newTestServer(t)
	client := server.Client()

	statusResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/auth/status", nil, nil)
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected auth status: %d", statusResp.StatusCode)
	}

	var statusPayload map[string]interface{}
	if err := json.NewDecoder(statusResp.Body).Decode(&statusPayload); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	statusResp.Body.Close()

	if statusPayload["auth_enabled"] != true {
		t.Fatalf("expected auth_enabled true, got %v", statusPayload["auth_enabled"])
	}
	if statusPayload["authenticated"] != false {
		t.Fatalf("expected authenticated false, got %v", statusPayload["authenticated"])
	}

	loginBody := bytes.NewBufferString(`{"token":"bad-token"}`)
	loginResp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/auth/login", loginBody, map[string]string{
		"Content-Type": "application/json",
	})
	if loginResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid login, got %d", loginResp.StatusCode)
	}
	loginResp.Body.Close()

	loginBody = bytes.NewBufferString(`{"token":"` + testToken + `"}`)
	loginResp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/auth/login", loginBody, map[string]string{
		"Content-Type": "application/json",
	})
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for valid login, got %d", loginResp.StatusCode)
	}
	loginResp.Body.Close()

	cookies := loginResp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected auth cookie")
	}

	authorizedStatusReq, _ := http.NewRequest(http.MethodGet, server.URL+"/api/v1/auth/status", nil)
	for _, cookie := range cookies {
		authorizedStatusReq.AddCookie(cookie)
	}
	authorizedStatusResp, err := client.Do(authorizedStatusReq)
	if err != nil {
		t.Fatalf("authorized status request failed: %v", err)
	}
	defer authorizedStatusResp.Body.Close()

	var authorizedStatusPayload map[string]interface{}
	if err := json.NewDecoder(authorizedStatusResp.Body).Decode(&authorizedStatusPayload); err != nil {
		t.Fatalf("decode authorized status response: %v", err)
	}
	if authorizedStatusPayload["authenticated"] != true {
		t.Fatalf("expected authenticated true, got %v", authorizedStatusPayload["authenticated"])
	}
}

func TestE2EListImagesFiltersAndPages(t *testing.T) {
	server, storage := newTestServer(t)
	client := server.Client()

	storage.seed("gallery/alpha.jpg", "image/jpeg", []byte("jpg-data"))
	storage.seed("gallery/bravo.txt", "text/plain", []byte("not an image"))
	storage.seed("gallery/charlie.PNG", "image/png", []byte("png-data"))
	storage.seed("gallery/delta.webp", "image/webp", []byte("webp-data"))
	storage.seed("private/echo.jpg", "image/jpeg", []byte("outside prefix"))

	unauthorizedResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/gallery/images", nil, nil)
	if unauthorizedResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", unauthorizedResp.StatusCode)
	}
	unauthorizedResp.Body.Close()

	resp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/gallery/images", nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for image list, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	var payload struct {
		Prefix string `json:"prefix"`
		Count  int    `json:"count"`
		Images []struct {
			Key       string `json:"key"`
			URL       string `json:"url"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode image list: %v", err)
	}

	if payload.Prefix != "gallery" {
		t.Fatalf("expected prefix gallery, got %s", payload.Prefix)
	}
	// The page size is 2, so three images prove pagination across pages. The
	// txt object and the key outside the prefix are excluded.
	expectedKeys := []string{"gallery/alpha.jpg", "gallery/charlie.PNG", "gallery/delta.webp"}
	if payload.Count != len(expectedKeys) || len(payload.Images) != len(expectedKeys) {
		t.Fatalf("expected %d images, got count=%d len=%d", len(expectedKeys), payload.Count, len(payload.Images))
	}
	for i, expected := range expectedKeys {
		if payload.Images[i].Key != expected {
			t.Fatalf("expected image %d to be %s, got %s", i, expected, payload.Images[i].Key)
		}
		if payload.Images[i].URL == "" {
			t.Fatalf("expected signed url for %s", expected)
		}
	}
}

func TestE2EUploadListDelete(t *testing.T) {
	server, storage := newTestServer(t)
	client := server.Client()

	uploadBody := bytes.NewBufferString(`{"file_name":"photo.png","content_type":"image/png","data_base64":"` + minimalPngBase64 + `"}`)
	uploadResp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/gallery/images", uploadBody, map[string]string{
		"Authorization": "Bearer " + testToken,
		"Content-Type":  "application/json",
	})
	if uploadResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for upload, got %d", uploadResp.StatusCode)
	}

	var uploaded struct {
		Key       string `json:"key"`
		URL       string `json:"url"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := json.NewDecoder(uploadResp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	uploadResp.Body.Close()

	if !strings.HasPrefix(uploaded.Key, "gallery/") || !strings.HasSuffix(uploaded.Key, ".png") {
		t.Fatalf("unexpected upload key: %s", uploaded.Key)
	}
	if !storage.has(uploaded.Key) {
		t.Fatal("expected object in storage after upload")
	}

	listResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/gallery/images", nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for image list, got %d", listResp.StatusCode)
	}
	var listPayload struct {
		Count  int `json:"count"`
		Images []struct {
			Key string `json:"key"`
		} `json:"images"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listPayload); err != nil {
		t.Fatalf("decode image list: %v", err)
	}
	listResp.Body.Close()
	if listPayload.Count != 1 || listPayload.Images[0].Key != uploaded.Key {
		t.Fatalf("expected uploaded image in list, got %+v", listPayload)
	}

	uploadsResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/gallery/uploads", nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if uploadsResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for uploads index, got %d", uploadsResp.StatusCode)
	}
	var uploadsPayload struct {
		Items []struct {
			Key         string `json:"key"`
			ContentType string `json:"content_type"`
		} `json:"items"`
	}
	if err := json.NewDecoder(uploadsResp.Body).Decode(&uploadsPayload); err != nil {
		t.Fatalf("decode uploads response: %v", err)
	}
	uploadsResp.Body.Close()
	if len(uploadsPayload.Items) != 1 || uploadsPayload.Items[0].Key != uploaded.Key {
		t.Fatalf("expected uploaded image in index, got %+v", uploadsPayload)
	}
	if uploadsPayload.Items[0].ContentType != "image/png" {
		t.Fatalf("expected content type image/png, got %s", uploadsPayload.Items[0].ContentType)
	}

	deleteResp := doRequest(t, client, http.MethodDelete, server.URL+"/api/v1/gallery/images?key="+uploaded.Key, nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if deleteResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", deleteResp.StatusCode)
	}
	deleteResp.Body.Close()
	if storage.has(uploaded.Key) {
		t.Fatal("expected object removed from storage after delete")
	}

	outsideResp := doRequest(t, client, http.MethodDelete, server.URL+"/api/v1/gallery/images?key=private/echo.jpg", nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if outsideResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for key outside the gallery prefix, got %d", outsideResp.StatusCode)
	}
	outsideResp.Body.Close()
}

func TestE2EUploadValidation(t *testing.T) {
	server, _ := newTestServer(t)
	client := server.Client()

	badTypeBody := bytes.NewBufferString(`{"file_name":"doc.pdf","content_type":"application/pdf","data_base64":"aGVsbG8="}`)
	badTypeResp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/gallery/images", badTypeBody, map[string]string{
		"Authorization": "Bearer " + testToken,
		"Content-Type":  "application/json",
	})
	if badTypeResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported content type, got %d", badTypeResp.StatusCode)
	}
	badTypeResp.Body.Close()

	badDataBody := bytes.NewBufferString(`{"file_name":"x.png","content_type":"image/png","data_base64":"%%%"}`)
	badDataResp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/gallery/images", badDataBody, map[string]string{
		"Authorization": "Bearer " + testToken,
		"Content-Type":  "application/json",
	})
	if badDataResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid base64, got %d", badDataResp.StatusCode)
	}
	badDataResp.Body.Close()

	methodResp := doRequest(t, client, http.MethodPut, server.URL+"/api/v1/gallery/images", nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	if methodResp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PUT, got %d", methodResp.StatusCode)
	}
	methodResp.Body.Close()
}

func doRequest(t *testing.T, client *http.Client, method, url string, body *bytes.Buffer, headers map[string]string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body.Bytes())
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
