// Package fileops provides the byte-level copy primitive used by the
// backup executor.
package fileops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dirbackup/src/util/progress"
)

const chunkSize = 256 * 1024

// Copy copies src to dst atomically:
//  1. create dst's parent directories
//  2. stream src into dst+".tmp" in chunks, checking ctx between chunks
//  3. carry the source mtime onto the temp file
//  4. rename the temp file into place
//
// A failure on any step removes the temp file, so dst is either the old
// bytes or the complete new bytes, never a torn write. When progressOut
// is non-nil, copy progress for the file is rendered there.
func Copy(ctx context.Context, src, dst string, progressOut io.Writer) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open src: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat src: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir dst parent: %w", err)
	}

	tmp := dst + ".tmp"
	tmpFile, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}

	var reader io.Reader = srcFile
	if progressOut != nil {
		reader = progress.NewReader(srcFile, srcInfo.Size(), filepath.Base(dst), progressOut)
	}

	buf := make([]byte, chunkSize)
	var copyErr error
	for {
		select {
		case <-ctx.Done():
			copyErr = ctx.Err()
		default:
		}
		if copyErr != nil {
			break
		}
		n, readErr := reader.Read(buf)
		if n > 0 {
			if _, writeErr := tmpFile.Write(buf[:n]); writeErr != nil {
				copyErr = fmt.Errorf("write tmp: %w", writeErr)
				break
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			copyErr = fmt.Errorf("read src: %w", readErr)
			break
		}
	}

	if err := tmpFile.Close(); err != nil && copyErr == nil {
		copyErr = fmt.Errorf("close tmp: %w", err)
	}
	if copyErr != nil {
		os.Remove(tmp)
		return copyErr
	}

	if err := os.Chtimes(tmp, time.Now(), srcInfo.ModTime()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chtimes tmp: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename tmp to dst: %w", err)
	}
	return nil
}
