package survey

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// Catalog 데이터 디렉토리의 조사 파일을 이름으로 찾아 적재 (한 번 읽은 파일은 메모리에 유지)
type Catalog struct {
	dir    string
	logger *logger.Logger

	mu     sync.RWMutex
	loaded map[string]*Dataset
}

// NewCatalog 데이터 디렉토리 기준 카탈로그 생성
func NewCatalog(dir string, log *logger.Logger) *Catalog {
	return &Catalog{
		dir:    dir,
		logger: log.WithComponent("survey"),
		loaded: make(map[string]*Dataset),
	}
}

// Dir 데이터 디렉토리
func (c *Catalog) Dir() string {
	return c.dir
}

// List 디렉토리에 있는 데이터셋 이름 (정렬)
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", c.dir, err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatOf(e.Name()); err != nil {
			continue
		}
		seen[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = true
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Open 이름(확장자 생략 가능)으로 데이터 디렉토리의 데이터셋 적재
func (c *Catalog) Open(name string) (*Dataset, error) {
	c.mu.RLock()
	d, ok := c.loaded[name]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	path, err := c.resolve(name)
	if err != nil {
		return nil, err
	}

	d, err = Load(path)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Error("dataset load failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"dataset": name,
		"path":    path,
		"rows":    d.Rows(),
		"columns": len(d.Names()),
	}).Info("dataset loaded")

	c.mu.Lock()
	c.loaded[name] = d
	c.mu.Unlock()
	return d, nil
}

// resolve 데이터 디렉토리 안에서만 탐색: 확장자가 있으면 그 파일, 없으면 dta → csv → xlsx 순
func (c *Catalog) resolve(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: dataset name %q", wstat.ErrInvalidInput, name)
	}

	if filepath.Ext(name) != "" {
		path := filepath.Join(c.dir, name)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: dataset file %s not found in %s", wstat.ErrMissingField, name, c.dir)
		}
		return path, nil
	}

	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: dataset name %q", wstat.ErrInvalidInput, name)
	}
	for _, f := range Formats {
		path := filepath.Join(c.dir, name+"."+string(f))
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: dataset %q not found in %s", wstat.ErrMissingField, name, c.dir)
}
