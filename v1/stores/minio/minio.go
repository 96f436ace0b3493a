package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/docstore"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "minio"

const (
	extension   = ".json"
	contentType = "application/json"

	connectTimeout = 30 * time.Second
)

// ErrConnectionFailed is returned when no usable client is available.
var ErrConnectionFailed = errors.New("minio connection failed")

// Register adds the minio scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the minio scheme.
func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	cfg, err := ConfigFromLocator(loc)
	if err != nil {
		return nil, err
	}
	p, err := NewPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.Info("Connected to MinIO", nil, map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"bucket":   cfg.BucketName,
			"prefix":   cfg.Prefix,
		})
	}
	return docstore.New(loc, opts, p), nil
}

// Persister stores each collection as one JSON array object.
type Persister struct {
	cfg    Config
	client *minio.Client

	// bufs holds encode buffers reused across saves.
	bufs sync.Pool
}

// NewPersister connects to MinIO, validates the connection and makes sure
// the bucket exists.
func NewPersister(ctx context.Context, cfg Config) (*Persister, error) {
	client, err := connectToMinio(cfg)
	if err != nil {
		return nil, err
	}
	p := &Persister{
		cfg:    cfg,
		client: client,
		bufs: sync.Pool{New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 64*1024))
		}},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := p.ensureBucketExists(timeoutCtx); err != nil {
		return nil, err
	}
	return p, nil
}

// Config returns the settings the persister was created with.
func (p *Persister) Config() Config { return p.cfg }

func connectToMinio(cfg Config) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty: %w", store.ErrInvalidLocator)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return client, nil
}

func (p *Persister) ensureBucketExists(ctx context.Context) error {
	if p.cfg.BucketName == "" {
		return fmt.Errorf("bucket name is empty: %w", store.ErrInvalidLocator)
	}
	exists, err := p.client.BucketExists(ctx, p.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", p.cfg.BucketName, err)
	}
	if exists {
		return nil
	}
	if !p.cfg.AccessBucketCreation {
		return fmt.Errorf("bucket %s does not exist: %w", p.cfg.BucketName, store.ErrNotFound)
	}
	return p.client.MakeBucket(ctx, p.cfg.BucketName, minio.MakeBucketOptions{Region: p.cfg.Region})
}

func (p *Persister) key(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("collection name %q is not an object name: %w", name, store.ErrInvalidConfig)
	}
	return p.cfg.objectKey(name), nil
}

func (p *Persister) List(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range p.client.ListObjects(ctx, p.cfg.BucketName, minio.ListObjectsOptions{
		Prefix: p.cfg.listPrefix(),
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := p.cfg.collectionName(obj.Key); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *Persister) Load(ctx context.Context, name string) ([]query.Object, error) {
	key, err := p.key(name)
	if err != nil {
		return nil, err
	}
	reader, err := p.client.GetObject(ctx, p.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	b, err := io.ReadAll(reader)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := query.UnmarshalObjects(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return rows, nil
}

func (p *Persister) Save(ctx context.Context, name string, rows []query.Object) error {
	key, err := p.key(name)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []query.Object{}
	}

	buf := p.bufs.Get().(*bytes.Buffer)
	buf.Reset()
	defer p.bufs.Put(buf)

	if err := json.NewEncoder(buf).Encode(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %v: %w", name, err, store.ErrUnsupportedValue)
	}
	_, err = p.client.PutObject(ctx, p.cfg.BucketName, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (p *Persister) Remove(ctx context.Context, name string) error {
	key, err := p.key(name)
	if err != nil {
		return err
	}
	err = p.client.RemoveObject(ctx, p.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return err
	}
	return nil
}

// RemoveAll deletes every collection object. When the database has no prefix
// the bucket is removed too, provided nothing else is left in it.
func (p *Persister) RemoveAll(ctx context.Context) error {
	names, err := p.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := p.Remove(ctx, n); err != nil {
			return fmt.Errorf("failed to remove collection %s: %w", n, err)
		}
	}
	if p.cfg.Prefix != "" {
		return nil
	}
	if err := p.client.RemoveBucket(ctx, p.cfg.BucketName); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code != "BucketNotEmpty" && code != "NoSuchBucket" {
			return err
		}
	}
	return nil
}

func (p *Persister) Close(context.Context) error { return nil }

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
