package s3

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/graphloom/graphloom/pkg/loader"
)

// S3FileLoader is a FileLoader implementation that loads file contents
// from an S3 bucket. It uses the AWS SDK v2 for Go.
//
// This loader is useful when the input documents are stored in S3
// instead of the local filesystem.
type S3FileLoader struct {
	bucket string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3FileLoaderParams defines the configuration parameters for
// creating a new S3FileLoader.
//
// Bucket specifies the S3 bucket name.
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
// Region specifies the AWS region.
// AccessKey and SecretKey provide static credentials.
type NewS3FileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3FileLoader creates a new S3FileLoader using the provided
// parameters. It initializes an AWS S3 client with static credentials
// and the given endpoint/region.
func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)

	return &S3FileLoader{
		bucket: params.Bucket,
		client: client,
		cache:  make(map[string][]byte),
	}, nil
}

// List enumerates the object keys under the given prefix and returns
// one SourceFile per object, backed by this loader. Keys are returned
// in the bucket's listing order.
func (l *S3FileLoader) List(ctx context.Context, prefix string) ([]loader.SourceFile, error) {
	var files []loader.SourceFile

	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			files = append(files, loader.SourceFile{
				ID:     key,
				Path:   key,
				Loader: l,
			})
		}
	}

	return files, nil
}

// GetFileText retrieves the contents of the given SourceFile from the
// configured S3 bucket. It implements the FileLoader interface.
func (l *S3FileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	cacheKey := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[cacheKey]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.Path),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
