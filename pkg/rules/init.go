// Package rules holds the concrete validation rule implementations.
// Importing it (usually blank) registers every rule with the validator.
package rules

import (
	"github.com/empd2/empd-admin/pkg/validator"

	"github.com/empd2/empd-admin/pkg/types"
)

func init() {
	validator.Register(types.RuleRequired, &RequiredRule{})
	validator.Register(types.RuleFormat, &FormatRule{})
	validator.Register(types.RuleReference, &ReferenceRule{})
	validator.Register(types.RuleRange, &RangeRule{})

	validator.RegisterCross(CheckCoordinates, &CoordinatesRule{})
	validator.RegisterCross(CheckOkExcept, &OkExceptRule{})
}
