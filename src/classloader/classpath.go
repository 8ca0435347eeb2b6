/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"

	"github.com/Mathweuzz/CapivaraVM/src/trace"
)

// ClassPath is an ordered list of directory entries searched, in order,
// for a binary class name's backing .class file. Archive (.jar) entries
// are out of scope.
type ClassPath struct {
	Entries []string
}

// SplitClassPath splits a ':'-separated classpath string into its
// non-empty entries, the way the CLI's --cp flag is interpreted.
func SplitClassPath(cp string) []string {
	var out []string
	for _, p := range strings.Split(cp, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewClassPath builds a ClassPath from already-split entries.
func NewClassPath(entries []string) *ClassPath {
	return &ClassPath{Entries: entries}
}

func (cp *ClassPath) candidatePaths(binaryName string) []string {
	rel := binaryName + ".class"
	out := make([]string, 0, len(cp.Entries))
	for _, base := range cp.Entries {
		out = append(out, filepath.Join(base, rel))
	}
	return out
}

// ReadClassBytes locates binaryName (e.g. "pkg/Main") on the classpath and
// returns its raw .class contents, memory-mapping the file and copying the
// mapped bytes into a fresh slice before unmapping. Returns (nil, nil) if no
// classpath entry has it.
func (cp *ClassPath) ReadClassBytes(binaryName string) ([]byte, error) {
	for _, path := range cp.candidatePaths(binaryName) {
		info, statErr := os.Stat(path)
		if statErr != nil || !info.Mode().IsRegular() {
			continue
		}
		trace.Trace(fmt.Sprintf("classpath: reading %s", path))
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("classloader: opening %s: %w", path, err)
		}
		defer f.Close()

		if info.Size() == 0 {
			return []byte{}, nil
		}

		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("classloader: mmap %s: %w", path, err)
		}
		defer m.Unmap()

		out := make([]byte, len(m))
		copy(out, m)
		return out, nil
	}
	return nil, nil
}
