package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/orderprint/internal/domain/artifact"
)

// Mode selects how a submission relates to its render
type Mode string

const (
	// ModeAsync acknowledges the submission and renders in the background
	ModeAsync Mode = "async"
	// ModeAwait renders before responding and returns the artifact URL
	ModeAwait Mode = "await"
)

// ParseMode converts a configuration value to a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAsync, ModeAwait:
		return m, nil
	case "":
		return ModeAsync, nil
	default:
		return "", fmt.Errorf("unknown print mode %q (want async or await)", s)
	}
}

// IsValid checks if the Mode is a known value
func (m Mode) IsValid() bool {
	return m == ModeAsync || m == ModeAwait
}

// Artifact describes a stored PDF
type Artifact struct {
	Identity artifact.Identity `json:"identity"`
	// Path is the absolute file location on disk
	Path string `json:"-"`
	// Relative is the slash-separated location under the storage root
	Relative string `json:"relative"`
	// URL is the static URL path
	URL      string        `json:"url"`
	Size     int64         `json:"size"`
	Pages    int           `json:"pages"`
	Duration time.Duration `json:"duration"`
	Mirrored bool          `json:"mirrored"`
}

// Submission is the outcome of Submit. Artifact is set only in await mode.
type Submission struct {
	Mode     Mode
	Identity artifact.Identity
	Artifact *Artifact
}

// Accepted reports whether the render was handed to the background
func (s *Submission) Accepted() bool {
	return s.Mode == ModeAsync
}
