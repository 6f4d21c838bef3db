package transcode

import (
	"context"

	"github.com/ytget/ytqueue/internal/model"
)

// Converter defines the interface for the conversion service.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, container model.Container, progress func(float64)) error
}

var _ Converter = (*Service)(nil)
