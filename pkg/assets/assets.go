package assets

import (
	"context"
	"time"

	"snapbounty-platform/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("assets", fx.Provide(registerClient, NewStore))

func registerClient(c *config.Config) *minio.Client {
	client, err := minio.New(c.Assets.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Assets.AccessKey, c.Assets.SecretKey, ""),
		Secure: c.Assets.Secure,
	})
	if err != nil {
		zap.L().Fatal("failed to create assets client", zap.Error(err))
	}

	exists, err := client.BucketExists(context.Background(), c.Assets.BucketName)
	if err != nil {
		zap.L().Fatal("failed to check assets bucket", zap.Error(err))
	}

	zap.L().Info("assets client initialized", zap.String("endpoint", c.Assets.Endpoint), zap.Bool("bucket_exists", exists))
	return client
}

// Store serves submission image objects to the admin review UI. Objects are
// keyed "submissions/{submissionID}/{filename}".
type Store interface {
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	CountObjects(ctx context.Context, prefix string) (int, error)
}

type store struct {
	client *minio.Client
	bucket string
}

type StoreParams struct {
	fx.In
	Client *minio.Client
	Config *config.Config
}

func NewStore(p StoreParams) Store {
	return &store{client: p.Client, bucket: p.Config.Assets.BucketName}
}

func (s *store) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *store) CountObjects(ctx context.Context, prefix string) (int, error) {
	count := 0
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return 0, object.Err
		}
		count++
	}
	return count, nil
}
