package s3

import (
	"bytes"
	"os"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OssArtifactStorage keeps export artifacts in an aliyun OSS bucket and
// hands out presigned GET URLs.
type OssArtifactStorage struct {
	bucket *oss.Bucket
}

func NewOssArtifactStorageFromEnv() (*OssArtifactStorage, error) {
	bucket, err := buildBucketFromEnv()
	if err != nil {
		return nil, err
	}
	return &OssArtifactStorage{bucket: bucket}, nil
}

func (s *OssArtifactStorage) Put(key string, content []byte) error {
	return s.bucket.PutObject(key, bytes.NewReader(content))
}

func (s *OssArtifactStorage) SignURL(key string, expiresInSec int64) (string, error) {
	return s.bucket.SignURL(key, oss.HTTPGet, expiresInSec)
}

func buildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dummy"
	}
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	bucketName := os.Getenv("OSS_BUCKET")
	if bucketName == "" {
		bucketName = "cleanops-artifacts"
	}
	return buildBucket(endpoint, accessKey, secretKey, bucketName)
}

func buildBucket(endpoint, accessKey, secretKey, bucketName string) (*oss.Bucket, error) {
	cli, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return cli.Bucket(bucketName)
}
