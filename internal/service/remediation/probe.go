package remediation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

// ErrArtifactMissing marks a required artifact that does not exist.
var ErrArtifactMissing = errors.New("required artifact missing")

// Probe checks that every artifact exists.
type Probe interface {
	// Missing returns nil when all artifacts exist, otherwise an error
	// listing every missing one.
	Missing(ctx context.Context, artifacts maintenance.ArtifactSet) error
}

// FileProbe stats artifacts on the local filesystem.
type FileProbe struct{}

// Missing implements Probe. Paths that cannot be stat'ed for other reasons
// count as missing too, with the cause attached.
func (FileProbe) Missing(_ context.Context, artifacts maintenance.ArtifactSet) error {
	var result *multierror.Error

	for _, path := range artifacts {
		_, err := os.Stat(path)

		switch {
		case err == nil:
			continue
		case errors.Is(err, os.ErrNotExist):
			result = multierror.Append(result, fmt.Errorf("%s: %w", path, ErrArtifactMissing))
		default:
			result = multierror.Append(result, fmt.Errorf("%s: %w: %w", path, ErrArtifactMissing, err))
		}
	}

	return result.ErrorOrNil()
}
