package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	sc "github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in, optFns...)
	}
)

// uploadURLValidity bounds how long an admin has to PUT a file.
const uploadURLValidity = 15 * time.Minute

// Object is an opened storage object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStore is the slice of object storage the portal needs.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	Get(ctx context.Context, key string) (*Object, error)
}

// S3Store talks to an S3-compatible bucket (MinIO in development). The
// client is built on first use; a failed build is retried on the next call.
type S3Store struct {
	config *sc.Config

	mu     sync.Mutex
	client *s3.Client
}

func NewS3Store(config *sc.Config) *S3Store {
	return &S3Store{config: config}
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return s.client, nil
}

// PresignPut returns a URL the uploader can PUT the object bytes to.
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, in, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Get opens the object for streaming. A missing key maps to
// common.ErrNoFileAvailable.
func (s *S3Store) Get(ctx context.Context, key string) (*Object, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrNoFileAvailable
		}
		return nil, fmt.Errorf("get object: %w", err)
	}

	return &Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// DeliverableKey builds a fresh storage key for one variant ("preview" or
// "final") of a deliverable file.
func DeliverableKey(projectID, variant, ext string) string {
	return fmt.Sprintf("projects/%s/deliverables/%s-%v%s", projectID, variant, uuid.New(), normalizeExt(ext))
}

// ProjectFileKey builds a fresh storage key for a project attachment.
func ProjectFileKey(projectID, name string) string {
	d := time.Now()
	return fmt.Sprintf("projects/%s/files/%d/%02d/%v%s", projectID, d.Year(), d.Month(), uuid.New(), normalizeExt(path.Ext(name)))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
