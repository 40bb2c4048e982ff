package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

const (
	// MBToBytes converts the CLI megabyte setting into bytes.
	MBToBytes = 1024 * 1024
	// DefaultMaxFileSizeMB is the largest file scanned unless configured otherwise.
	DefaultMaxFileSizeMB = 5
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	"dist",
	"build",
	"venv",
	"env",
	".pytest_cache",
	"bin",
	"obj",
}

// ErrInvalidRoot is returned when the scan root is not a readable directory.
var ErrInvalidRoot = errors.New("invalid scan root")

// FileLocation is a line in a file that references a flag key.
type FileLocation struct {
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
}

// Scanner finds quoted flag keys in a source tree.
type Scanner struct {
	maxFileSize int64
	excludeDirs map[string]struct{}
	workers     int
	logger      logrus.FieldLogger
	readFile    func(path string) ([]byte, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFileSize sets the size limit in bytes; larger files are skipped.
func WithMaxFileSize(bytes int64) Option {
	return func(s *Scanner) { s.maxFileSize = bytes }
}

// WithMaxFileSizeMB sets the size limit in megabytes.
func WithMaxFileSizeMB(mb int) Option {
	return WithMaxFileSize(int64(mb) * MBToBytes)
}

// WithExcludeDirs replaces the set of pruned directory names.
func WithExcludeDirs(dirs []string) Option {
	return func(s *Scanner) {
		s.excludeDirs = make(map[string]struct{}, len(dirs))
		for _, d := range dirs {
			s.excludeDirs[d] = struct{}{}
		}
	}
}

// WithWorkers bounds the number of files read concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Scanner with the default limits applied before opts.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		maxFileSize: DefaultMaxFileSizeMB * MBToBytes,
		workers:     runtime.NumCPU(),
		logger:      logrus.StandardLogger(),
		readFile:    os.ReadFile,
	}
	WithExcludeDirs(DefaultExcludeDirs)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type matcher struct {
	key         string
	doubleQuote string
	singleQuote string
}

func (m matcher) matches(line string) bool {
	return strings.Contains(line, m.doubleQuote) || strings.Contains(line, m.singleQuote)
}

// ValidateRoot returns an error wrapping ErrInvalidRoot unless root is an
// existing directory.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return nil
}

// Search walks root and returns, for every key found, the locations where
// the key appears as a quoted literal. Keys without matches are omitted.
// Locations follow walk order (lexical) then line order.
func (s *Scanner) Search(ctx context.Context, root string, keys []string, extensions []string) (map[string][]FileLocation, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}

	matchers := buildMatchers(keys)
	files, err := s.collectFiles(ctx, root, extensions)
	if err != nil {
		return nil, err
	}

	results := make(map[string][]FileLocation)
	if len(matchers) == 0 || len(files) == 0 {
		return results, nil
	}

	perFile := make([]map[string][]int, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = s.searchFile(path, matchers)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, path := range files {
		for _, m := range matchers {
			for _, line := range perFile[i][m.key] {
				results[m.key] = append(results[m.key], FileLocation{FilePath: path, LineNumber: line})
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"root":          root,
		"files_scanned": len(files),
		"keys_found":    len(results),
	}).Debug("Codebase scan finished")

	return results, nil
}

// collectFiles lists candidate files under root, pruning excluded directories
// before they are opened.
func (s *Scanner) collectFiles(ctx context.Context, root string, extensions []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
			}
			s.logger.WithError(err).WithField("path", path).Debug("Skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && s.isExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !hasExtension(d.Name(), extensions) {
			return nil
		}

		// Stat follows symlinks.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > s.maxFileSize {
			s.logger.WithFields(logrus.Fields{"path": path, "size": info.Size()}).Debug("Skipping oversized file")
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) isExcluded(name string) bool {
	_, ok := s.excludeDirs[name]
	return ok
}

// searchFile returns matching line numbers per key. Read failures yield no
// matches.
func (s *Scanner) searchFile(path string, matchers []matcher) map[string][]int {
	text, err := s.readText(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("Skipping unreadable file")
		return nil
	}

	found := make(map[string][]int)
	sc := bufio.NewScanner(strings.NewReader(text))
	bufSize := len(text) + 1
	if bufSize < bufio.MaxScanTokenSize {
		bufSize = bufio.MaxScanTokenSize
	}
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), bufSize)
	sc.Split(scanLines)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		for _, m := range matchers {
			if m.matches(line) {
				found[m.key] = append(found[m.key], lineNum)
			}
		}
	}
	if err := sc.Err(); err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("Stopped reading file")
	}
	return found
}

// scanLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Wait for the byte after '\r'.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// readText returns the file content as UTF-8, decoding it as ISO-8859-1 when
// it is not valid UTF-8.
func (s *Scanner) readText(path string) (string, error) {
	data, err := s.readFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func buildMatchers(keys []string) []matcher {
	seen := make(map[string]struct{}, len(keys))
	matchers := make([]matcher, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matchers = append(matchers, matcher{
			key:         key,
			doubleQuote: `"` + key + `"`,
			singleQuote: `'` + key + `'`,
		})
	}
	return matchers
}

func hasExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}
