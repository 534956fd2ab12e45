package lifecycle

import (
	"math"

	"comproposito/pkg/types"
)

// Progress counts parts by lifecycle bucket. Done covers printed, shipped and
// complete; the percentage is rounded to the nearest whole number.
func Progress(parts []*types.ProjectPart) *types.Progress {
	p := &types.Progress{Total: len(parts)}

	for _, part := range parts {
		switch {
		case part.Status.Done():
			p.Done++
		case part.Status == types.PartStatusUnassigned:
			p.Unassigned++
		default:
			p.InProgress++
		}
	}

	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Done) * 100 / float64(p.Total)))
	}

	return p
}
