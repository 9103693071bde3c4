// Package archive bundles a finished self-play run's game records for cold
// storage: tar+gzip a directory in memory, then hand it to an HDFS client.
//
// Grounded on the teacher's cmd/train/main.go (compress/compressToTar/
// writeToHdfs), generalized away from its hardcoded namenode/user so it can
// archive self-play game records instead of model checkpoints.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/colinmarc/hdfs"
	"github.com/pkg/errors"
)

// CompressDir walks src and returns its contents as an in-memory tar.gz.
func CompressDir(src string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)

	err := filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(fi, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "archive: walking %s", src)
	}
	if err := tw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// WriteToHDFS uploads data to hdfsPath on the namenode at addr, authenticated
// as user.
func WriteToHDFS(addr, user string, data []byte, hdfsPath string) error {
	cli, err := hdfs.NewForUser(addr, user)
	if err != nil {
		return errors.Wrapf(err, "archive: connecting to %s", addr)
	}
	defer cli.Close()

	f, err := cli.Create(hdfsPath)
	if err != nil {
		return errors.Wrapf(err, "archive: creating %s", hdfsPath)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "archive: writing %s", hdfsPath)
	}
	return errors.WithStack(f.Close())
}
