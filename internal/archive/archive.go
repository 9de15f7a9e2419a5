// Package archive implements the failure-archival behavior of spec
// §4.8/§7: when an iteration is classified as a bug, copy the relevant
// kernel/data trees into failures/<bucket>/<iter_id>/ and write a
// human-readable failure.log, so the corpus directory itself can still be
// discarded to bound disk usage (spec §5 "Resource cleanup").
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Bucket names the three failure categories of spec §6's on-disk layout.
type Bucket string

const (
	BucketRefCrash Bucket = "ref_crash"
	BucketCrash    Bucket = "crash"
	BucketWC       Bucket = "wc"
)

// Archive copies srcDirs (e.g. the iteration's mutant kernel<k>/ tree, the
// seed kernel/ tree, and the data/ directory) into
// outputRoot/failures/<bucket>/<iterID>/, then writes failure.log with
// reason.
func Archive(outputRoot string, bucket Bucket, iterID string, reason string, srcDirs map[string]string) error {
	destRoot := filepath.Join(outputRoot, "failures", string(bucket), iterID)
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return fmt.Errorf("archive: mkdir %s: %w", destRoot, err)
	}

	for name, src := range srcDirs {
		dest := filepath.Join(destRoot, name)
		if err := copyTree(src, dest); err != nil {
			return fmt.Errorf("archive: copy %s -> %s: %w", src, dest, err)
		}
	}

	logPath := filepath.Join(destRoot, "failure.log")
	content := fmt.Sprintf("%s\nbucket: %s\niteration: %s\nreason: %s\n", time.Now().UTC().Format(time.RFC3339), bucket, iterID, reason)
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("archive: write failure.log: %w", err)
	}
	return nil
}

// copyTree recursively copies a file or directory tree from src to dest.
func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dest, info.Mode())
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyTree(filepath.Join(src, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Chmod(dest, mode)
}
