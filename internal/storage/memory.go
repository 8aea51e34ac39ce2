package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Query parameters carried by URLs presigned by MemoryStorage.
const (
	memoryExpiresParam   = "X-Expires" // unix milliseconds
	memorySignatureParam = "X-Signature"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStorage keeps objects in process. Presigned URLs are HMAC-signed over
// path and expiry only, and are verified by ServeHTTP.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	bucket string
	base   *url.URL
	secret []byte
	now    func() time.Time
}

// NewMemoryStorage returns an empty store whose presigned URLs point at baseURL.
func NewMemoryStorage(bucket, baseURL string, secret []byte) (*MemoryStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		bucket:  bucket,
		base:    base,
		secret:  secret,
		now:     time.Now,
	}, nil
}

// List returns matching objects sorted by key, like an S3 listing.
func (s *MemoryStorage) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	objects := make([]ObjectInfo, 0, len(keys))
	for _, key := range keys {
		obj := s.objects[key]
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.modified,
		})
	}
	return objects, nil
}

// Put stores a copy of data under key.
func (s *MemoryStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("put object: empty key")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType, modified: s.now().UTC()}
	s.mu.Unlock()
	return nil
}

// PresignGet returns base/bucket/key with expiry and signature parameters.
// The object does not need to exist, matching S3 behaviour.
func (s *MemoryStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("presign object %q: non-positive expiry %s", key, ttl)
	}

	path := "/" + s.bucket + "/" + key
	expires := strconv.FormatInt(s.now().Add(ttl).UnixMilli(), 10)

	q := url.Values{}
	q.Set(memoryExpiresParam, expires)
	q.Set(memorySignatureParam, s.sign(path, expires))

	return &url.URL{
		Scheme:   s.base.Scheme,
		Host:     s.base.Host,
		Path:     path,
		RawQuery: q.Encode(),
	}, nil
}

// ServeHTTP serves objects addressed by presigned URLs. Mount it behind
// http.StripPrefix when the URLs are rewritten onto a proxy path.
func (s *MemoryStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	expires := q.Get(memoryExpiresParam)
	deadline, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		http.Error(w, "missing or malformed expiry", http.StatusForbidden)
		return
	}
	want := s.sign(r.URL.Path, expires)
	if !hmac.Equal([]byte(want), []byte(q.Get(memorySignatureParam))) {
		http.Error(w, "signature does not match", http.StatusForbidden)
		return
	}
	if s.now().UnixMilli() > deadline {
		http.Error(w, "request has expired", http.StatusForbidden)
		return
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || bucket != s.bucket {
		http.NotFound(w, r)
		return
	}

	s.mu.RLock()
	obj, found := s.objects[key]
	s.mu.RUnlock()
	if !found {
		http.NotFound(w, r)
		return
	}

	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.data)
	}
}

func (s *MemoryStorage) sign(path, expires string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(path))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}
