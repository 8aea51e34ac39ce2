package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/service/internal/config"
)

const testSecret = "app-test-secret"

// gateway records media created events.
type gateway struct {
	mu     sync.Mutex
	bodies []string
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.bodies = append(g.bodies, r.URL.Path+" "+string(body))
	g.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (g *gateway) events() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.bodies...)
}

func newTestApp(t *testing.T) (*httptest.Server, *gateway) {
	t.Helper()
	gw := &gateway{}
	gwSrv := httptest.NewServer(gw)
	t.Cleanup(gwSrv.Close)

	cfg := &config.Config{
		Port:            "0",
		AppEnv:          "test",
		JWTSecret:       testSecret,
		StorageDriver:   config.DriverMemory,
		StorageEndpoint: "store.internal:9000",
		StorageBucket:   "media-data",
		PathExpiration:  time.Minute,
		ProxyPath:       "/api/media",
		EventGatewayURL: gwSrv.URL,
		MaxUploadBytes:  1 << 20,
	}
	require.NoError(t, cfg.Validate())

	handler, err := newApp(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, gw
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func uploadRequest(t *testing.T, url, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="f"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeData(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestApp(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadRequiresAuthentication(t *testing.T) {
	srv, gw := newTestApp(t)

	resp, err := srv.Client().Do(uploadRequest(t, srv.URL+"/api/v1/media", "image/png", []byte("png")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := uploadRequest(t, srv.URL+"/api/v1/media", "image/png", []byte("png"))
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.Empty(t, gw.events())
}

func TestUploadFetchThroughProxyPath(t *testing.T) {
	srv, gw := newTestApp(t)
	client := srv.Client()

	req := uploadRequest(t, srv.URL+"/api/v1/media", "image/png", []byte("png bytes"))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, resp, &created)
	require.Equal(t, []string{`/v1.0/publish/pubsub/media/media/created {"id":"` + created.ID + `"}`}, gw.events())

	resp, err = client.Get(srv.URL + "/api/v1/media/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m struct {
		Path string `json:"path"`
	}
	decodeData(t, resp, &m)
	require.True(t, strings.HasPrefix(m.Path, "/api/media/media-data/"+created.ID+".png?"), m.Path)

	resp, err = client.Get(srv.URL + m.Path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "png bytes", string(body))

	resp, err = client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(metrics), `media_storage_uploaded_bytes_total 9`)
	require.Contains(t, string(metrics), `route="/api/v1/media/{id}"`)
}

func TestOpenAPICommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"openapi"})
	require.NoError(t, cmd.Execute())

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Equal(t, "/api/v1", doc.BasePath)
	require.Contains(t, doc.Paths, "/media/{id}/url")
	require.Contains(t, doc.Paths, "/media")
}
