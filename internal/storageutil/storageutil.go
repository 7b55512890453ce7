package storageutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// ErrObjectNotFound indicates an object was not found.
var ErrObjectNotFound = errors.New("object not found")

const (
	CompressedSuffix = ".lz4"
	writeTimeout     = 5 * time.Second
)

// OpenBucket opens a bucket from a URL such as file:///tmp/profiles or
// mem://.
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", url, err)
	}
	return b, nil
}

// Write stores payload under key and returns the key it was written to.
// Compressed payloads are stored with an lz4 frame and a .lz4 suffix.
func Write(ctx context.Context, b *blob.Bucket, key string, payload []byte, compress bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	opts := &blob.WriterOptions{}
	if compress {
		key += CompressedSuffix
		opts.ContentType = "application/x-lz4"
	}
	ow, err := b.NewWriter(ctx, key, opts)
	if err != nil {
		return "", err
	}
	var w io.Writer = ow
	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(ow)
		_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
		w = zw
	}
	if _, err := io.Copy(w, bytes.NewReader(payload)); err != nil {
		_ = ow.Close()
		return "", err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			_ = ow.Close()
			return "", err
		}
	}
	if err := ow.Close(); err != nil {
		return "", err
	}
	return key, nil
}

// Read returns the object stored under key, decompressing it when the key
// carries the .lz4 suffix.
func Read(ctx context.Context, b *blob.Bucket, key string) ([]byte, error) {
	or, err := open(ctx, b, key)
	if err != nil {
		return nil, err
	}
	defer or.Close()
	var r io.Reader = or
	if strings.HasSuffix(key, CompressedSuffix) {
		r = lz4.NewReader(or)
	}
	return io.ReadAll(r)
}

// CompressedWrite compresses and writes d as JSON.
func CompressedWrite(ctx context.Context, b *blob.Bucket, objectName string, d interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ow, err := b.NewWriter(ctx, objectName, nil)
	if err != nil {
		return err
	}
	zw := lz4.NewWriter(ow)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
	err = gojson.NewEncoder(zw).Encode(d)
	if err != nil {
		_ = ow.Close()
		return err
	}
	err = zw.Close()
	if err != nil {
		_ = ow.Close()
		return err
	}
	return ow.Close()
}

// UnmarshalCompressed reads compressed JSON data and unmarshals it.
func UnmarshalCompressed(ctx context.Context, b *blob.Bucket, objectName string, d interface{}) error {
	or, err := open(ctx, b, objectName)
	if err != nil {
		return err
	}
	defer or.Close()
	zr := lz4.NewReader(or)
	return gojson.NewDecoder(zr).Decode(d)
}

func open(ctx context.Context, b *blob.Bucket, key string) (*blob.Reader, error) {
	or, err := b.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return or, nil
}
