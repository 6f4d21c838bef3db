package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ytget/ytqueue/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("media_container", validateMediaContainer)
	_ = validate.RegisterValidation("media_path", validateMediaPath)
}

// PlacementDefaults are the user's saved preferences offered in placement dialogs
type PlacementDefaults struct {
	Directory        string
	Container        model.Container
	FileNameTemplate model.FileNameTemplate
	SkipExisting     bool
}

// SinglePlacement is the user's answer for a single track
type SinglePlacement struct {
	FilePath string `validate:"required,media_path"`
}

// BatchPlacement is the user's answer for several tracks
type BatchPlacement struct {
	Tracks           []model.Track          `validate:"required,min=1"`
	Directory        string                 `validate:"required"`
	Container        model.Container        `validate:"required,media_container"`
	FileNameTemplate model.FileNameTemplate `validate:"required"`
	SkipExisting     bool
}

// Validate checks the placement and wraps failures in ErrInvalidPlacement
func (p *SinglePlacement) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlacement, err)
	}
	return nil
}

// Validate checks the placement and wraps failures in ErrInvalidPlacement
func (p *BatchPlacement) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlacement, err)
	}
	return nil
}

func validateMediaContainer(fl validator.FieldLevel) bool {
	c := model.Container(fl.Field().String())
	for _, known := range model.Containers {
		if c == known {
			return true
		}
	}
	return false
}

func validateMediaPath(fl validator.FieldLevel) bool {
	return model.ContainerFromPath(fl.Field().String()) != ""
}

// SuggestPath builds the default file path for a single track
func SuggestPath(defaults PlacementDefaults, track model.Track, reserved map[string]struct{}) string {
	container := defaults.Container
	if container == "" {
		container = model.ContainerMP3
	}
	name := defaults.FileNameTemplate.Apply(track, 0, 0, container)
	return UniquePath(filepath.Join(defaults.Directory, name), reserved)
}

// BatchItem is one planned download of a batch
type BatchItem struct {
	Track    model.Track
	FilePath string
}

// PlanBatch assigns file paths to the tracks of a batch placement. Positions
// come from the resolved result and are only rendered for ordered kinds.
// Tracks whose target exists are dropped when SkipExisting is set; other
// collisions with files on disk or reserved paths get a numeric suffix.
func PlanBatch(result *model.QueryResult, placement *BatchPlacement, reserved map[string]struct{}) []BatchItem {
	positions := make(map[string]int, len(result.Tracks))
	total := 0
	if result.Kind.IsOrdered() {
		total = len(result.Tracks)
		for i, track := range result.Tracks {
			if _, seen := positions[track.ID]; !seen {
				positions[track.ID] = i + 1
			}
		}
	}

	taken := make(map[string]struct{}, len(reserved)+len(placement.Tracks))
	for path := range reserved {
		taken[path] = struct{}{}
	}

	items := make([]BatchItem, 0, len(placement.Tracks))
	for _, track := range placement.Tracks {
		name := placement.FileNameTemplate.Apply(track, positions[track.ID], total, placement.Container)
		path := filepath.Join(placement.Directory, name)

		if placement.SkipExisting && fileExists(path) {
			continue
		}

		path = UniquePath(path, taken)
		taken[path] = struct{}{}
		items = append(items, BatchItem{Track: track, FilePath: path})
	}
	return items
}

// UniquePath returns path, or "name (N).ext" for the first N that is free
// both on disk and in reserved
func UniquePath(path string, reserved map[string]struct{}) string {
	if isFree(path, reserved) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if isFree(candidate, reserved) {
			return candidate
		}
	}
}

func isFree(path string, reserved map[string]struct{}) bool {
	if _, ok := reserved[path]; ok {
		return false
	}
	return !fileExists(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
