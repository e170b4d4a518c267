package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// ErrInvalidArgument is returned for contradicting options and for paths
// that cannot be expressed relative to Options.RelativeTo.
var ErrInvalidArgument = errors.New("invalid argument")

// Options controls ListFiles.
type Options struct {
	// Exclude holds shell patterns matched against the slash separated path
	// relative to the target directory. '*' also matches '/', so "*.pyc"
	// excludes compiled files at any depth.
	Exclude []string

	// RelativeTo makes returned paths relative to this directory instead of
	// the target directory. Every listed file must live below it.
	RelativeTo string

	// Absolute returns absolute paths. It cannot be combined with RelativeTo.
	Absolute bool

	// Posix returns forward slash separated paths on every platform.
	Posix bool
}

// ListFiles walks targetDir recursively and returns the regular files that
// match none of the Exclude patterns, in lexical order. An empty targetDir
// means the working directory.
//
//	paths, err := files.ListFiles(afero.NewOsFs(), "docs", files.Options{
//	    Exclude: []string{"*.tmp", "drafts/*"},
//	    Posix:   true,
//	})
func ListFiles(fs afero.Fs, targetDir string, opts Options) ([]string, error) {
	if opts.Absolute && opts.RelativeTo != "" {
		return nil, fmt.Errorf("%w: cannot combine Absolute and RelativeTo", ErrInvalidArgument)
	}

	matchers := make([]*regexp.Regexp, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		re, err := compilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidArgument, pattern, err)
		}
		matchers = append(matchers, re)
	}

	target, err := absPath(targetDir)
	if err != nil {
		return nil, err
	}
	base := target
	if opts.RelativeTo != "" {
		if base, err = absPath(opts.RelativeTo); err != nil {
			return nil, err
		}
	}

	var out []string
	err = afero.Walk(fs, target, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)
		for _, re := range matchers {
			if re.MatchString(slashRel) {
				return nil
			}
		}

		result := path
		if !opts.Absolute {
			if result, err = filepath.Rel(base, path); err != nil {
				return err
			}
			if result == ".." || strings.HasPrefix(result, ".."+string(filepath.Separator)) {
				return fmt.Errorf("%w: %s is not below %s", ErrInvalidArgument, path, base)
			}
		}
		if opts.Posix {
			result = filepath.ToSlash(result)
		}
		out = append(out, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FileLink returns a file:// URL for path, which terminals and IDE consoles
// render as a clickable link.
func FileLink(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file:///" + strings.TrimPrefix(filepath.ToSlash(abs), "/")
}

func absPath(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("files: working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("files: resolve %s: %w", dir, err)
	}
	return abs, nil
}

// compilePattern translates a shell pattern to an anchored regexp. '*' and
// '?' match any characters including '/', "[...]" is a character class and
// "[!...]" its negation.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	pattern = filepath.ToSlash(pattern)

	var b strings.Builder
	b.WriteString(`^`)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end == 0 && i+2 < len(pattern) {
				// "[]...]" keeps the leading ']' inside the class.
				if next := strings.IndexByte(pattern[i+2:], ']'); next >= 0 {
					end = next + 1
				}
			}
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			b.WriteByte('[')
			if strings.HasPrefix(class, "!") {
				b.WriteByte('^')
				class = class[1:]
			} else if strings.HasPrefix(class, "^") {
				b.WriteString(`\^`)
				class = class[1:]
			}
			b.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			b.WriteByte(']')
			i += end + 1
		default:
			r, size := utf8.DecodeRuneInString(pattern[i:])
			b.WriteString(regexp.QuoteMeta(string(r)))
			i += size - 1
		}
	}
	b.WriteString(`$`)
	return regexp.Compile("(?s)" + b.String())
}
