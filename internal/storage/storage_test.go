package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"comproposito/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    map[string]string
	deletes []string
	err     error
}

func (f *fakeObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.puts[aws.ToString(params.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	objects := &fakeObjects{puts: map[string]string{}}
	store := NewS3Storage(objects, "part-files", "https://cdn.example.pt/")

	url, err := store.UploadFile(context.Background(), "initiatives/i1/parts/p1/handle.stl", strings.NewReader("solid"), "model/stl")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.pt/initiatives/i1/parts/p1/handle.stl", url)
	assert.Equal(t, "solid", objects.puts["initiatives/i1/parts/p1/handle.stl"])

	key, ok := KeyFromURL(store, url)
	require.True(t, ok)
	assert.Equal(t, "initiatives/i1/parts/p1/handle.stl", key)

	require.NoError(t, store.DeleteFile(context.Background(), key))
	assert.Equal(t, []string{key}, objects.deletes)

	_, ok = KeyFromURL(store, "https://makerworld.com/en/models/1")
	assert.False(t, ok)

	objects.err = errors.New("access denied")
	_, err = store.UploadFile(context.Background(), "k", strings.NewReader(""), "model/stl")
	assert.ErrorContains(t, err, "access denied")
}

func TestS3StorageDefaultPublicURL(t *testing.T) {
	store := NewS3Storage(&fakeObjects{}, "part-files", "")
	assert.Equal(t, "https://part-files.s3.amazonaws.com/a.stl", store.PublicURL("a.stl"))
}

func TestSupabaseStorage(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotUpsert, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotAuth, gotUpsert = r.Header.Get("Authorization"), r.Header.Get("x-upsert")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStorage("proj", "secret", "resources")
	store.baseURL = srv.URL

	url, err := store.UploadFile(context.Background(), "a/wheel.stl", strings.NewReader("solid"), "model/stl")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/object/public/resources/a/wheel.stl", url)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/object/resources/a/wheel.stl", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "solid", gotBody)

	require.NoError(t, store.DeleteFile(context.Background(), "a/wheel.stl"))
	assert.Equal(t, http.MethodDelete, gotMethod)

	_, err = store.UploadFile(context.Background(), "broken.stl", strings.NewReader(""), "model/stl")
	assert.ErrorContains(t, err, "status 400")
}

func TestNewPicksBackend(t *testing.T) {
	_, err := New(&types.Config{StorageBackend: "s3"}, nil)
	assert.Error(t, err)

	store, err := New(&types.Config{StorageBackend: "supabase", SupabaseProjectID: "p", SupabaseAPIKey: "k", StorageBucketName: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://p.supabase.co/storage/v1/object/public/b/x", store.PublicURL("x"))

	_, err = New(&types.Config{StorageBackend: "ftp"}, nil)
	assert.Error(t, err)
}

func TestPartFileKey(t *testing.T) {
	key := PartFileKey("i1", "p1", "Handle.STL")
	assert.True(t, strings.HasPrefix(key, "initiatives/i1/parts/p1/"))
	assert.True(t, strings.HasSuffix(key, ".stl"))
}
