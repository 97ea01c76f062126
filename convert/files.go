package convert

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extension is the suffix of fast5 files.
const Extension = ".fast5"

// FindFiles returns the fast5 files below input in lexical order. A
// regular file is returned as is. A directory is searched one level deep,
// or completely when recursive is set, in which case symlinked directories
// are entered only if followSymlinks is set.
func FindFiles(input string, recursive, followSymlinks bool) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	if !recursive {
		files, err := filepath.Glob(filepath.Join(globEscape(input), "*"+Extension))
		if err != nil {
			return nil, err
		}
		return files, nil
	}
	var files []string
	seen := map[string]bool{}
	if err := walk(input, followSymlinks, seen, &files); err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func walk(dir string, followSymlinks bool, seen map[string]bool, files *[]string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if seen[resolved] {
		return nil
	}
	seen[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			if target, err := os.Stat(p); err == nil && target.IsDir() {
				if !followSymlinks {
					continue
				}
				isDir = true
			}
		}
		if isDir {
			if err := walk(p, followSymlinks, seen, files); err != nil {
				return fmt.Errorf("searching %s: %w", p, err)
			}
			continue
		}
		if strings.HasSuffix(e.Name(), Extension) {
			*files = append(*files, p)
		}
	}
	return nil
}

// globEscape quotes the glob metacharacters of a literal path.
func globEscape(p string) string {
	var b strings.Builder
	for _, r := range p {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
