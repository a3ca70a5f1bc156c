// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fsutil holds the filesystem primitives the seed operations share.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// 📋 CopyOptions controls CopyFile
type CopyOptions struct {
	// Dereference copies the target of a symlink instead of the link itself.
	Dereference bool
	// Timestamps carries the source modification time over to the copy.
	Timestamps bool
}

// Exists reports whether anything exists at path.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// 📁 MkdirAll creates path and its parents with mode
func MkdirAll(path string, mode fs.FileMode) error {
	if err := os.MkdirAll(path, mode); err != nil {
		return errors.Errorf("creating directory: %w", err)
	}
	return nil
}

// 💾 WriteFileAtomic writes content to a temp file next to path and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(path string, content []byte, perm fs.FileMode) error {
	if err := MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// 📋 CopyFile copies src to dst, creating parent directories if needed.
// Without Dereference a symlink source is recreated as a symlink.
func CopyFile(src, dst string, opts CopyOptions) error {
	info, err := os.Lstat(src)
	if err != nil {
		return errors.Errorf("reading source file: %w", err)
	}

	if err := MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if info.Mode()&fs.ModeSymlink != 0 && !opts.Dereference {
		target, err := os.Readlink(src)
		if err != nil {
			return errors.Errorf("reading symlink: %w", err)
		}
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Errorf("replacing destination: %w", err)
		}
		if err := os.Symlink(target, dst); err != nil {
			return errors.Errorf("creating symlink: %w", err)
		}
		return nil
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if info, err = os.Stat(src); err != nil {
			return errors.Errorf("resolving symlink: %w", err)
		}
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.Errorf("copying file content: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}

	if opts.Timestamps {
		if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return errors.Errorf("copying timestamps: %w", err)
		}
	}

	return nil
}

// 🧹 EmptyDir removes everything inside dir, creating dir if it is missing
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return MkdirAll(dir, 0o755)
	}
	if err != nil {
		return errors.Errorf("reading directory: %w", err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return errors.Errorf("removing %q: %w", entry.Name(), err)
		}
	}
	return nil
}

// 🗑️ RemoveAll removes path and anything below it
func RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("removing %q: %w", path, err)
	}
	return nil
}
