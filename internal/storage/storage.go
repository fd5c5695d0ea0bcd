// Package storage はアップロード画像を保存するオブジェクトストレージを提供する。
// S3互換API（AWS S3, Cloudflare R2, MinIO）に対応し、未設定時は無効化された実装を使う。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrDisabled はストレージが未設定の状態でアップロードしようとした場合に返される。
var ErrDisabled = errors.New("object storage is not configured")

// ObjectStore はオブジェクトストレージ操作のインターフェース。
type ObjectStore interface {
	// Put はオブジェクトを保存し、公開URLを返す。
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete はオブジェクトを削除する。存在しないキーの削除は成功扱い。
	Delete(ctx context.Context, key string) error
	Enabled() bool
}

// S3Config はS3互換ストレージの接続設定。
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // 空の場合はAWS S3
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // 空の場合はエンドポイントから組み立てる
}

// s3API はS3Storeが使うs3.Clientの部分集合。テストで差し替える。
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store はS3互換ストレージへの保存を行う。
type S3Store struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store はS3Storeを生成する。
// 認証情報が指定されていない場合はAWS SDKの標準の解決順（環境変数、共有設定、IAMロール）に従う。
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client s3API, cfg S3Config) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL(cfg),
	}
}

// publicBaseURL はオブジェクトの公開URLの基底を決める。
func publicBaseURL(cfg S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Put はオブジェクトを保存し、公開URLを返す。
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete はオブジェクトを削除する。
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Enabled は常にtrueを返す。
func (s *S3Store) Enabled() bool { return true }

// URL はキーに対応する公開URLを返す。
func (s *S3Store) URL(key string) string {
	return s.publicBaseURL + "/" + key
}

// Disabled はストレージ未設定時のObjectStore。アップロードは常にErrDisabledを返す。
type Disabled struct{}

var _ ObjectStore = Disabled{}

func (Disabled) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrDisabled
}

// Delete はストレージに何も保存していないため常に成功する。
func (Disabled) Delete(context.Context, string) error { return nil }

func (Disabled) Enabled() bool { return false }

// NewObjectKey は推測困難なオブジェクトキーを生成する。
// 元のファイル名からは拡張子のみを引き継ぐ。
func NewObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return path.Join(prefix, uuid.NewString()+ext)
}
