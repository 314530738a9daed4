package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"osint_casework_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// EvidenceArchive is the off-machine copy of stored artifact files. It
// follows every local write and delete so the mirror never holds evidence
// the operator already removed.
type EvidenceArchive interface {
	Enabled() bool
	MirrorArtifactFiles(ctx context.Context, files *FileStore, artifactID uint, paths []string)
	DeleteArtifactFiles(ctx context.Context, artifactID uint, paths []string)
}

// ArchiveMirror copies captured artifact files to a Cloudflare R2 bucket as
// an off-machine evidence backup. The local file store stays the source of
// truth; mirroring is best-effort and never blocks a capture.
type ArchiveMirror struct {
	client *s3.Client
	bucket string
}

// NewArchiveMirror builds the mirror from config. Without full R2
// credentials it returns a disabled mirror rather than an error: archiving
// is an optional layer on top of the local store.
func NewArchiveMirror(cfg *config.Config) *ArchiveMirror {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" {
		return &ArchiveMirror{}
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		log.Printf("[Archive] R2 config failed: %v, archiving disabled", err)
		return &ArchiveMirror{}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	log.Printf("[Archive] R2 mirror enabled (bucket: %s)", cfg.R2BucketName)
	return &ArchiveMirror{client: client, bucket: cfg.R2BucketName}
}

// Enabled reports whether R2 is configured.
func (a *ArchiveMirror) Enabled() bool {
	return a != nil && a.client != nil && a.bucket != ""
}

// Ping verifies the bucket is reachable.
func (a *ArchiveMirror) Ping(ctx context.Context) error {
	if !a.Enabled() {
		return fmt.Errorf("archive mirror is not configured")
	}
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err
}

// MirrorArtifactFiles uploads the artifact's stored files under
// artifacts/<id>/<relative path>. Failures are logged per file; the
// caller already persisted everything locally.
func (a *ArchiveMirror) MirrorArtifactFiles(ctx context.Context, files *FileStore, artifactID uint, paths []string) {
	if !a.Enabled() {
		return
	}
	for _, relative := range paths {
		if relative == "" {
			continue
		}
		clean := SanitizeStoredPath(files.BaseDir(), relative)
		if clean == "" {
			log.Printf("[Archive] skip unsafe path %q for artifact %d", relative, artifactID)
			continue
		}
		key := path.Join("artifacts", fmt.Sprintf("%d", artifactID), clean)
		if err := a.uploadFile(ctx, filepath.Join(files.BaseDir(), filepath.FromSlash(clean)), key); err != nil {
			log.Printf("[Archive] mirror failed for artifact %d file %s: %v", artifactID, clean, err)
		}
	}
}

func (a *ArchiveMirror) uploadFile(ctx context.Context, localPath, key string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentTypeForKey(key)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// DeleteArtifactFiles removes the mirrored copies of a deleted artifact.
func (a *ArchiveMirror) DeleteArtifactFiles(ctx context.Context, artifactID uint, paths []string) {
	if !a.Enabled() {
		return
	}
	for _, relative := range paths {
		if relative == "" {
			continue
		}
		key := path.Join("artifacts", fmt.Sprintf("%d", artifactID), relative)
		_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			log.Printf("[Archive] delete failed for %s: %v", key, err)
		}
	}
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".html":
		return "text/html; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ArchiveTimeout bounds a single mirror operation.
const ArchiveTimeout = 2 * time.Minute
