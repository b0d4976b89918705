// Package assemble validates and normalizes submitted material lines into a
// canonical material list.
package assemble

import (
	"fmt"
	"math"
	"strings"

	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/pkg/utils"
)

// LineError describes one rejected submission line.
type LineError struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// ValidationError reports every offending line of a submission at once, so
// the caller can surface all problems in a single round trip.
type ValidationError struct {
	Lines []LineError `json:"lines"`
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 0 {
		return "invalid submission"
	}
	parts := make([]string, len(e.Lines))
	for i, le := range e.Lines {
		parts[i] = fmt.Sprintf("line %d (%q): %s", le.Index, le.Description, le.Reason)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Assemble turns raw submitted lines into a canonical MaterialList.
//
// Lines whose description is empty after trimming are dropped. Lines with a
// non-positive or non-finite quantity are offending; every offending line is
// reported in one *ValidationError. Duplicate descriptions (case-insensitive,
// whitespace-normalized) merge by summing quantities, keeping the casing,
// unit, and position of the first occurrence. An empty resulting list is
// itself a validation failure: a document needs at least one line.
func Assemble(raw []models.RawLine) (models.MaterialList, error) {
	var verr ValidationError
	list := make(models.MaterialList, 0, len(raw))
	byKey := make(map[string]int, len(raw))

	for i, line := range raw {
		desc := strings.TrimSpace(line.Description)
		if desc == "" {
			continue
		}
		switch {
		case math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0):
			verr.Lines = append(verr.Lines, LineError{Index: i, Description: desc, Reason: "quantity is not a finite number"})
			continue
		case line.Quantity <= 0:
			verr.Lines = append(verr.Lines, LineError{Index: i, Description: desc, Reason: "quantity must be greater than zero"})
			continue
		}

		key := utils.NormalizeDescription(desc)
		if at, seen := byKey[key]; seen {
			list[at].Quantity += line.Quantity
			continue
		}
		byKey[key] = len(list)
		list = append(list, models.MaterialLine{
			Description: desc,
			Quantity:    line.Quantity,
			Unit:        strings.TrimSpace(line.Unit),
		})
	}

	if len(verr.Lines) > 0 {
		return nil, &verr
	}
	if len(list) == 0 {
		return nil, &ValidationError{Lines: []LineError{{Index: -1, Reason: "at least one material line is required"}}}
	}
	return list, nil
}
