package rubric

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

// Validate performs structural and cross-field validation on a loaded rubric.
// It rejects duplicate ids and any `requires` entry that does not name an
// earlier-declared test: unknown, forward, and self references are all
// configuration errors. Because dependencies must point backwards, cycles
// cannot form. Unknown kinds are tolerated here (the evaluator reports them
// per test); UnknownKinds exposes them for strict validation.
func Validate(r *Rubric) error {
	if r == nil {
		return crucibleerrors.NewValidationError("rubric", "rubric is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(r); err != nil {
		return convertValidationError(err)
	}

	idIndex := make(map[string]int, len(r.Tests))

	for i, test := range r.Tests {
		if test.ID != "" {
			if _, exists := idIndex[test.ID]; exists {
				return crucibleerrors.NewValidationError(fieldForTest(i, "id"), fmt.Sprintf("duplicate test id %q", test.ID), nil)
			}
			idIndex[test.ID] = i
		}

		if err := validateTest(test, i); err != nil {
			return err
		}
	}

	for i, test := range r.Tests {
		for _, dep := range test.Requires {
			if dep == test.ID {
				return crucibleerrors.NewValidationError(fieldForTest(i, "requires"), fmt.Sprintf("test %q requires itself", dep), nil)
			}
			index, ok := idIndex[dep]
			if !ok {
				return crucibleerrors.NewValidationError(fieldForTest(i, "requires"), fmt.Sprintf("references unknown test id %q", dep), nil)
			}
			if index >= i {
				return crucibleerrors.NewValidationError(fieldForTest(i, "requires"), fmt.Sprintf("forward reference to %q: required tests must be declared first", dep), nil)
			}
		}
	}

	return nil
}

// validateTest inspects a single test independent of the others. Param
// presence is only enforced for known kinds.
func validateTest(test TestSpec, index int) error {
	v := validatorInstance()

	switch test.Type {
	case KindCommandExists:
		if test.CommandExists == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "name is required", nil)
		}
		if err := v.Struct(test.CommandExists); err != nil {
			return convertValidationError(err)
		}
	case KindEnvVarSet:
		if test.EnvVarSet == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "name is required", nil)
		}
		if err := v.Struct(test.EnvVarSet); err != nil {
			return convertValidationError(err)
		}
	case KindDirsExist:
		if test.DirsExist == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "path list is required", nil)
		}
		if err := v.Struct(test.DirsExist); err != nil {
			return convertValidationError(err)
		}
	case KindFilesExist:
		if test.FilesExist == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "path list is required", nil)
		}
		if err := v.Struct(test.FilesExist); err != nil {
			return convertValidationError(err)
		}
	case KindFileContains:
		if test.FileContains == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "path and contains are required", nil)
		}
		if err := v.Struct(test.FileContains); err != nil {
			return convertValidationError(err)
		}
	case KindRunCommand:
		if test.RunCommand == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "command is required", nil)
		}
		if err := v.Struct(test.RunCommand); err != nil {
			return convertValidationError(err)
		}
	case KindOutputContains:
		if test.OutputContains == nil {
			return crucibleerrors.NewValidationError(fieldForTest(index, "params"), "command and contains are required", nil)
		}
		if err := v.Struct(test.OutputContains); err != nil {
			return convertValidationError(err)
		}
	}

	return nil
}

// UnknownKinds lists the kinds in r that are not built in, in declaration
// order without duplicates. Used by strict validation surfaces.
func UnknownKinds(r *Rubric) []Kind {
	if r == nil {
		return nil
	}
	seen := make(map[Kind]struct{})
	var unknown []Kind
	for _, test := range r.Tests {
		if test.Type.Known() {
			continue
		}
		if _, ok := seen[test.Type]; ok {
			continue
		}
		seen[test.Type] = struct{}{}
		unknown = append(unknown, test.Type)
	}
	return unknown
}

// convertValidationError normalizes validator errors into crucible validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := jsonishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return crucibleerrors.NewValidationError(field, msg, err)
	}

	return crucibleerrors.NewValidationError("rubric", err.Error(), err)
}

func jsonishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForTest(index int, field string) string {
	return fmt.Sprintf("tests[%d].%s", index, field)
}
