package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/erp/orderprint/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	defaultBinaryPath   = "wkhtmltopdf"
	defaultTimeout      = 30 * time.Second
	defaultDPI          = 96
	defaultImageQuality = 94

	// stdio is wkhtmltopdf's name for stdin as input and stdout as output
	stdio = "-"
	// killGrace bounds how long Wait blocks on inherited pipes after a kill
	killGrace = 2 * time.Second
	maxStderr = 512
)

// WkhtmltopdfConfig contains configuration for the wkhtmltopdf renderer
type WkhtmltopdfConfig struct {
	// BinaryPath is an absolute path or a name looked up in PATH
	BinaryPath     string
	DefaultTimeout time.Duration
	// EnableJavaScript lets templates run scripts; off by default
	EnableJavaScript bool
	// JavaScriptDelay in milliseconds
	JavaScriptDelay int
	DPI             int
	ImageQuality    int
	Logger          *zap.Logger
}

// WkhtmltopdfRenderer shells out to wkhtmltopdf, one process per render.
// HTML goes in on stdin and the PDF comes back on stdout, so renders share
// no files and no engine state.
type WkhtmltopdfRenderer struct {
	config *WkhtmltopdfConfig
	logger *zap.Logger
}

// NewWkhtmltopdfRenderer resolves the binary and applies defaults
func NewWkhtmltopdfRenderer(config *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	cfg := WkhtmltopdfConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = defaultBinaryPath
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultTimeout
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultDPI
	}
	if cfg.ImageQuality <= 0 || cfg.ImageQuality > 100 {
		cfg.ImageQuality = defaultImageQuality
	}

	binary, err := resolveBinaryPath(cfg.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", cfg.BinaryPath), err)
	}
	cfg.BinaryPath = binary

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WkhtmltopdfRenderer{config: &cfg, logger: logger.Named("wkhtmltopdf")}, nil
}

func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", path)
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Render converts req.HTML to PDF
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	args := r.buildArgs(req, stdio, stdio)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)
	cmd.Stdin = strings.NewReader(req.HTML)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		msg := tail(stderr.String(), maxStderr)
		r.logger.Warn("wkhtmltopdf exited with error", zap.Error(err), zap.String("stderr", msg))
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf execution failed: "+msg, err)
	}

	pdf := stdout.Bytes()
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf produced no PDF output", nil)
	}

	result := &RenderResult{
		PDFData:        pdf,
		PageCount:      estimatePageCount(pdf),
		RenderDuration: time.Since(start),
	}
	r.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result, nil
}

// buildArgs maps the page setup onto wkhtmltopdf flags, input and output last
func (r *WkhtmltopdfRenderer) buildArgs(req *RenderRequest, input, output string) []string {
	page := req.Page
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--dpi", strconv.Itoa(r.config.DPI),
		"--image-quality", strconv.Itoa(r.config.ImageQuality),
	}
	args = append(args, buildPaperSizeArgs(page.PaperSize, page.Orientation)...)
	args = append(args,
		"--margin-top", mm(page.Margins.Top),
		"--margin-right", mm(page.Margins.Right),
		"--margin-bottom", mm(page.Margins.Bottom),
		"--margin-left", mm(page.Margins.Left),
	)

	if page.PrintBackground {
		args = append(args, "--background")
	} else {
		args = append(args, "--no-background")
	}

	if r.config.EnableJavaScript {
		args = append(args, "--enable-javascript")
		if r.config.JavaScriptDelay > 0 {
			args = append(args, "--javascript-delay", strconv.Itoa(r.config.JavaScriptDelay))
		}
	} else {
		args = append(args, "--disable-javascript")
	}
	args = append(args, "--disable-local-file-access")

	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}
	return append(args, input, output)
}

func buildPaperSizeArgs(size printing.PaperSize, orientation printing.Orientation) []string {
	name := "A4"
	switch size {
	case printing.PaperSizeA5:
		name = "A5"
	case printing.PaperSizeLetter:
		name = "Letter"
	}

	orient := "Portrait"
	if orientation == printing.OrientationLandscape {
		orient = "Landscape"
	}
	return []string{"--page-size", name, "--orientation", orient}
}

func mm(v int) string {
	return strconv.Itoa(v) + "mm"
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Close is a no-op; each render owns its process.
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}

// estimatePageCount counts page objects, excluding the /Pages tree nodes
func estimatePageCount(pdf []byte) int {
	count := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(count, 1)
}

var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)
