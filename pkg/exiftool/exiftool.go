// Package exiftool wraps the exiftool executable, which knows how to pull
// FLIR tag values and embedded payloads out of RJPEG files.
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abworrall/rjpeg/pkg/thermal"
)

var log = logrus.WithField("pkg", "exiftool")

// A Selector names an embedded binary payload.
type Selector string

const (
	RawThermalImage Selector = "RawThermalImage"
	EmbeddedImage   Selector = "EmbeddedImage"
)

// Extractor is what the pipeline needs from a metadata source. Blob returns
// an empty slice, not an error, when the file has no such payload.
type Extractor interface {
	Metadata(ctx context.Context, filename string) (Metadata, error)
	Blob(ctx context.Context, filename string, sel Selector) ([]byte, error)
}

// Metadata maps tag names to values, as exiftool -j -n reports them.
type Metadata map[string]interface{}

func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Metadata) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return thermal.ToFloat(v)
}

func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

func (m Metadata) Copy() Metadata {
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// An ExternalToolError reports a failed exiftool run.
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 if the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	s := fmt.Sprintf("%s %s: exit %d", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		s += ": " + strings.TrimSpace(e.Stderr)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

const DefaultTimeout = 30 * time.Second

// Tool runs the real exiftool binary.
type Tool struct {
	Path    string        // Defaults to "exiftool", looked up on $PATH
	Timeout time.Duration // Per invocation; defaults to DefaultTimeout
}

func New(path string, timeout time.Duration) *Tool {
	if path == "" {
		path = "exiftool"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tool{Path: path, Timeout: timeout}
}

// LookPath checks that the executable can be found.
func (t *Tool) LookPath() error {
	if _, err := exec.LookPath(t.Path); err != nil {
		return &ExternalToolError{Tool: t.Path, ExitCode: -1, Err: fmt.Errorf("not found on PATH, please install ExifTool: %w", err)}
	}
	return nil
}

func (t *Tool) Metadata(ctx context.Context, filename string) (Metadata, error) {
	args := []string{"-j", "-n", filename}
	out, err := t.run(ctx, args)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	var records []Metadata
	if err := dec.Decode(&records); err != nil {
		return nil, &ExternalToolError{Tool: t.Path, Args: args, Err: fmt.Errorf("malformed json: %w", err)}
	}
	if len(records) == 0 {
		return nil, &ExternalToolError{Tool: t.Path, Args: args, Err: errors.New("no metadata records")}
	}

	log.WithField("file", filename).Debugf("read %d metadata tags", len(records[0]))
	return records[0], nil
}

func (t *Tool) Blob(ctx context.Context, filename string, sel Selector) ([]byte, error) {
	out, err := t.run(ctx, []string{"-b", "-" + string(sel), filename})
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"file": filename, "selector": sel}).Debugf("blob is %d bytes", len(out))
	return out, nil
}

func (t *Tool) run(ctx context.Context, args []string) ([]byte, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e := &ExternalToolError{Tool: t.Path, Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			e.Err = fmt.Errorf("%v: %w", err, ctx.Err())
		}
		return nil, e
	}

	return stdout.Bytes(), nil
}
