package snap

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Grid contains the pitch of the grid the dataset's tiles are laid out on,
// in units of the projected reference system.
// The defaults are those of the DMR 5G (S-JTSK) sheet grid.
type Grid struct {
	CellWidth  float64 `default:"2500" validate:"gt=0" json:"cellWidth"`
	CellHeight float64 `default:"2000" validate:"gt=0" json:"cellHeight"`
}

// DefaultGrid returns a Grid with the default cell size
func DefaultGrid() Grid {
	var g Grid
	if err := defaults.Set(&g); err != nil {
		panic(fmt.Errorf("could not set grid defaults: %w", err))
	}
	return g
}

func (g Grid) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("invalid grid %v x %v: %w", g.CellWidth, g.CellHeight, err)
	}
	return nil
}

func (g Grid) String() string {
	return fmt.Sprintf("%vx%v", g.CellWidth, g.CellHeight)
}
