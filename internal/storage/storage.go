// Package storage keeps initiative part model files in object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileStore uploads and removes part files and resolves their public URL.
type FileStore interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	PublicURL(key string) string
}

// New picks the backend named by the config.
func New(config *types.Config, s3Client *s3.Client) (FileStore, error) {
	switch config.StorageBackend {
	case "", "s3":
		if s3Client == nil {
			return nil, fmt.Errorf("s3 storage selected without an s3 client")
		}
		return NewS3Storage(s3Client, config.StorageBucketName, config.S3PublicBaseURL), nil
	case "supabase":
		if config.SupabaseProjectID == "" || config.SupabaseAPIKey == "" {
			return nil, fmt.Errorf("supabase storage requires SUPABASE_PROJECT_ID and SUPABASE_API_KEY")
		}
		return NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseAPIKey, config.StorageBucketName), nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", config.StorageBackend)
}

// PartFileKey builds the object key for a part file, keeping the original
// extension and prefixing a random segment so re-uploads never collide.
func PartFileKey(initiativeID, partID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("initiatives/%s/parts/%s/%s%s", initiativeID, partID, utils.NanoIDSize(10), ext)
}

// KeyFromURL recovers the object key from a public URL produced by the store,
// or returns false when the URL points elsewhere.
func KeyFromURL(store FileStore, url string) (string, bool) {
	prefix := store.PublicURL("")
	if prefix == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
