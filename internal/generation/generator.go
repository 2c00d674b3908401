package generation

import (
	"context"

	"github.com/anthemlabs/anthem-api/internal/domain"
)

// Generator defines the interface for the two-step generative pipeline.
// This interface is the boundary between the application core and the
// external media provider; the pipeline never sees provider specifics.
type Generator interface {
	// EditImage stylizes the uploaded photo at imagePath using the
	// template for the given category, returning the URL of the edited
	// image hosted by the provider.
	EditImage(ctx context.Context, imagePath string, category domain.Category) (string, error)

	// SynthesizeVideo produces a singing video from a previously edited
	// image URL using the audio template for the given category, returning
	// the URL of the finished video hosted by the provider.
	SynthesizeVideo(ctx context.Context, imageURL string, category domain.Category) (string, error)
}
