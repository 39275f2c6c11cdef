package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// NewGenerator picks the generator for a DE format. An empty format means
// single elimination.
func NewGenerator(format string) (BracketGenerator, error) {
	switch format {
	case "", models.DEFormatSingle:
		return NewSingleEliminationGenerator(), nil
	case models.DEFormatDouble, models.DEFormatCompass:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrUnsupportedFormat, format)
	}
}
