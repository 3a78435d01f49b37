package publish

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/logging"
)

// Uploader é o mínimo que Publish precisa do cliente S3.
type Uploader interface {
	UploadFile(ctx context.Context, bucket, key, filePath, contentType string) error
}

type Client struct {
	mc *minio.Client
}

func New(cfg config.PublishConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cliente s3: %w", err)
	}
	return &Client{mc: mc}, nil
}

func (c *Client) UploadFile(ctx context.Context, bucket, key, filePath, contentType string) error {
	_, err := c.mc.FPutObject(ctx, bucket, key, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// ObjectKey monta <prefix>/<audit>/<runID>/<arquivo>.
func ObjectKey(prefix, audit, runID, file string) string {
	return path.Join(strings.Trim(prefix, "/"), audit, runID, filepath.Base(file))
}

func ContentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json", ".sarif":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Publish envia os relatórios gravados de uma execução e devolve as chaves.
// Para no primeiro erro.
func Publish(ctx context.Context, up Uploader, cfg config.PublishConfig, audit, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := ObjectKey(cfg.Prefix, audit, runID, f)
		if err := up.UploadFile(ctx, cfg.Bucket, key, f, ContentType(f)); err != nil {
			return keys, fmt.Errorf("upload %s: %w", key, err)
		}
		logging.Logger.Infow("Relatório publicado", "bucket", cfg.Bucket, "chave", key)
		keys = append(keys, key)
	}
	return keys, nil
}
