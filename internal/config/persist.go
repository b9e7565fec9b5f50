package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the project-local settings file, read once at startup.
// Persistence is an external collaborator per spec.md §1 — this loader is
// intentionally thin: a flat key=value store, not a schema-aware editor.
const FileName = ".dbchunk.conf"

// Load reads FileName from the current directory. A missing file is not an
// error; it just means defaults apply.
func Load() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(".", FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	values := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return values, nil
}

// Apply overlays values loaded by Load onto s, leaving fields the file
// doesn't mention untouched.
func Apply(s *Settings, values map[string]string) {
	for k, v := range values {
		switch k {
		case "dump_dir":
			s.DumpDir = v
		case "chunk_rows":
			if n, err := strconv.Atoi(v); err == nil {
				s.ChunkRows = n
			}
		case "compress":
			if b, err := strconv.ParseBool(v); err == nil {
				s.Compress = b
			}
		case "compress_level":
			if n, err := strconv.Atoi(v); err == nil {
				s.CompressLevel = n
			}
		case "dump_mode":
			s.DumpMode = DumpMode(v)
		case "max_retries":
			if n, err := strconv.Atoi(v); err == nil {
				s.MaxRetries = n
			}
		case "retry_backoff":
			if n, err := strconv.Atoi(v); err == nil {
				s.RetryBackoff = n
			}
		}
	}
}
