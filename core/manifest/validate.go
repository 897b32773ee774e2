package manifest

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"font-license/core/types"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report paths with document field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the typed manifest for required fields, enumerations and
// identifier uniqueness. It returns one Issue per violation.
func Validate(m *types.Manifest) []Issue {
	var issues []Issue

	if err := structValidator().Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return []Issue{{Path: "$", Message: err.Error()}}
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{Path: fieldPath(fe.Namespace()), Message: describe(fe)})
		}
	}

	issues = append(issues, duplicates("$.fonts", "font_id", len(m.Fonts), func(i int) string {
		return m.Fonts[i].FontID
	})...)
	issues = append(issues, duplicates("$.license_instances", "license_id", len(m.Instances), func(i int) string {
		return m.Instances[i].LicenseID
	})...)
	issues = append(issues, duplicates("$.license_offerings", "offering_id@offering_version", len(m.Offerings), func(i int) string {
		return m.Offerings[i].Key().String()
	})...)

	return issues
}

// fieldPath turns "Manifest.fonts[0].font_id" into "$.fonts[0].font_id"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return "$" + namespace[i:]
	}
	return "$"
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "semver":
		return fmt.Sprintf("must be a semantic version, got %q", fe.Value())
	case "len", "hexadecimal":
		return "must be a sha256 hex digest"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func duplicates(path, field string, n int, id func(int) string) []Issue {
	var issues []Issue
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := id(i)
		if first, ok := seen[key]; ok {
			issues = append(issues, Issue{
				Path:    fmt.Sprintf("%s[%d].%s", path, i, field),
				Message: fmt.Sprintf("duplicates entry %d (%s)", first, key),
			})
			continue
		}
		seen[key] = i
	}
	return issues
}
