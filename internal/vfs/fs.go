// Package vfs is the read-only, in-memory file table behind the fake shell.
// It is populated once and has no mutation API.
package vfs

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DirSize is the size reported for the synthetic "." and ".." entries.
	DirSize = 4096
	// DirPermissions is the permission string of the synthetic entries.
	DirPermissions = "drwxr-xr-x"
	// ModDateLayout formats the modification date the way ls -l does.
	ModDateLayout = "Jan _2 15:04"
)

// FileRecord is immutable once the filesystem is built.
type FileRecord struct {
	Content     string
	Permissions string
	Owner       string
	Group       string
	Size        int
	ModDate     string
}

// File is a construction input.
type File struct {
	Name        string
	Permissions string
	Content     string
}

// Entry is a named record, as produced for long listings.
type Entry struct {
	Name string
	FileRecord
	IsDir bool
}

type FS struct {
	order   []string
	records map[string]FileRecord
	owner   string
	group   string
	modDate string
}

// New builds the table in the given order. Every record shares the owner,
// group and modification date.
func New(owner, group, modDate string, files []File) (*FS, error) {
	if owner == "" || group == "" {
		return nil, errors.New("vfs: owner and group are required")
	}
	fs := &FS{
		order:   make([]string, 0, len(files)),
		records: make(map[string]FileRecord, len(files)),
		owner:   owner,
		group:   group,
		modDate: modDate,
	}
	for _, f := range files {
		if f.Name == "" {
			return nil, errors.New("vfs: empty file name")
		}
		if _, dup := fs.records[f.Name]; dup {
			return nil, fmt.Errorf("vfs: duplicate file %q", f.Name)
		}
		fs.order = append(fs.order, f.Name)
		fs.records[f.Name] = FileRecord{
			Content:     f.Content,
			Permissions: f.Permissions,
			Owner:       owner,
			Group:       group,
			Size:        utf8.RuneCountInString(f.Content),
			ModDate:     modDate,
		}
	}
	return fs, nil
}

func (fs *FS) Lookup(name string) (FileRecord, bool) {
	rec, ok := fs.records[name]
	return rec, ok
}

func (fs *FS) Len() int { return len(fs.order) }

// ListNames returns file names in construction order. Names starting with a
// dot are skipped unless includeHidden is set.
func (fs *FS) ListNames(includeHidden bool) []string {
	out := make([]string, 0, len(fs.order))
	for _, name := range fs.order {
		if !includeHidden && IsHidden(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// ListAll returns "." and ".." followed by every file, hidden ones included.
func (fs *FS) ListAll() []Entry {
	dir := FileRecord{
		Permissions: DirPermissions,
		Owner:       fs.owner,
		Group:       fs.group,
		Size:        DirSize,
		ModDate:     fs.modDate,
	}
	out := make([]Entry, 0, len(fs.order)+2)
	out = append(out, Entry{Name: ".", FileRecord: dir, IsDir: true}, Entry{Name: "..", FileRecord: dir, IsDir: true})
	for _, name := range fs.order {
		out = append(out, Entry{Name: name, FileRecord: fs.records[name]})
	}
	return out
}

// TotalSize sums regular file sizes; the synthetic directories are excluded.
func (fs *FS) TotalSize() int {
	total := 0
	for _, rec := range fs.records {
		total += rec.Size
	}
	return total
}

func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
