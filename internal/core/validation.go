package core

// validation.go validates and normalizes a single buyer.
//
// Validation happens in two ordered stages:
//  1. Per-field rules, declared as validate tags on BuyerFields
//  2. Cross-field rules, which only run once every per-field rule has passed
//
// Input is normalized before either stage runs. On failure the caller gets
// ValidationErrors and no normalized value; the input itself is never mutated.

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`           // json field path
	Value   string `json:"value,omitempty"` // The invalid value
	Message string `json:"message"`         // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is every field failure for one buyer.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

var (
	buyerValidate     *validator.Validate
	buyerValidateOnce sync.Once
)

func fieldValidator() *validator.Validate {
	buyerValidateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// enum=<field> checks membership in enumSets[field].
		if err := v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
			return inSet(enumSets[fl.Param()], fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register enum validation: %v", err))
		}
		buyerValidate = v
	})
	return buyerValidate
}

// ValidateCreate validates a new buyer. Status defaults to New when empty.
func ValidateCreate(in BuyerFields) (BuyerFields, error) {
	out := normalize(in, true)
	if errs := checkFields(out, nil); len(errs) > 0 {
		return BuyerFields{}, errs
	}
	return out, nil
}

// ValidateUpdate validates the full merged state of an existing buyer.
// Unlike ValidateCreate an empty status is an error, so an update can never
// silently reset a lead to New.
func ValidateUpdate(in BuyerFields) (BuyerFields, error) {
	out := normalize(in, false)
	if errs := checkFields(out, nil); len(errs) > 0 {
		return BuyerFields{}, errs
	}
	return out, nil
}

// ValidateCSVRow validates one parsed CSV row, where every cell is text.
// Empty budgets are absent, empty bhk is absent, and tags are split on
// commas or semicolons.
func ValidateCSVRow(row CSVRow) (BuyerFields, error) {
	out, errs := validateCSVRow(row)
	if len(errs) > 0 {
		return BuyerFields{}, errs
	}
	return out, nil
}

func validateCSVRow(row CSVRow) (BuyerFields, ValidationErrors) {
	var coerce ValidationErrors
	in := BuyerFields{
		FullName:     row["fullName"],
		Email:        optional(row["email"]),
		Phone:        row["phone"],
		City:         row["city"],
		PropertyType: row["propertyType"],
		BHK:          optional(row["bhk"]),
		Purpose:      row["purpose"],
		BudgetMin:    parseBudget("budgetMin", row["budgetMin"], &coerce),
		BudgetMax:    parseBudget("budgetMax", row["budgetMax"], &coerce),
		Timeline:     row["timeline"],
		Source:       row["source"],
		Notes:        optional(row["notes"]),
		Tags:         SplitTags(row["tags"]),
		Status:       row["status"],
	}
	out := normalize(in, true)
	if errs := checkFields(out, coerce); len(errs) > 0 {
		return BuyerFields{}, errs
	}
	return out, nil
}

// checkFields runs per-field rules, then cross-field rules if those passed.
// pre carries failures found before struct validation (CSV coercion).
func checkFields(f BuyerFields, pre ValidationErrors) ValidationErrors {
	errs := append(ValidationErrors(nil), pre...)
	errs = append(errs, structErrors(f)...)
	if len(errs) > 0 {
		return errs
	}
	return crossFieldErrors(f)
}

func structErrors(f BuyerFields) ValidationErrors {
	err := fieldValidator().Struct(f)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fmt.Sprint(fe.Value()),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "number":
		return "must contain digits only"
	case "email":
		return "must be a valid email address"
	case "enum":
		return "must be one of: " + enumList(fe.Param())
	case "min", "max":
		if fe.Field() == "phone" {
			return "must be 10 to 15 digits"
		}
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be %s %s characters", bound, fe.Param())
		}
		return fmt.Sprintf("must be %s %s", bound, fe.Param())
	}
	return "is invalid"
}

// crossFieldErrors names exactly one field per failure.
func crossFieldErrors(f BuyerFields) ValidationErrors {
	var errs ValidationErrors
	if requiresBHK(f.PropertyType) && f.BHK == nil {
		errs = append(errs, ValidationError{
			Field:   "bhk",
			Message: "is required for Apartment and Villa",
		})
	}
	if f.BudgetMin != nil && f.BudgetMax != nil && *f.BudgetMax < *f.BudgetMin {
		errs = append(errs, ValidationError{
			Field:   "budgetMax",
			Value:   strconv.Itoa(*f.BudgetMax),
			Message: "must be greater than or equal to budgetMin",
		})
	}
	return errs
}

// normalize returns a trimmed deep copy of in.
func normalize(in BuyerFields, defaultStatus bool) BuyerFields {
	out := BuyerFields{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        trimOptional(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		PropertyType: strings.TrimSpace(in.PropertyType),
		BHK:          trimOptional(in.BHK),
		Purpose:      strings.TrimSpace(in.Purpose),
		BudgetMin:    copyInt(in.BudgetMin),
		BudgetMax:    copyInt(in.BudgetMax),
		Timeline:     strings.TrimSpace(in.Timeline),
		Source:       strings.TrimSpace(in.Source),
		Notes:        trimOptional(in.Notes),
		Tags:         NormalizeTags(in.Tags),
		Status:       strings.TrimSpace(in.Status),
	}
	if out.Status == "" && defaultStatus {
		out.Status = DefaultStatus
	}
	return out
}

// NormalizeTags splits tags on "," and ";", trims them and drops empties and
// duplicates, keeping first-seen order. A tag can therefore never contain a
// delimiter, so exported tag cells import back to the same set. The result is
// never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		for _, t := range strings.FieldsFunc(raw, isTagDelimiter) {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func isTagDelimiter(r rune) bool {
	return r == ',' || r == ';'
}

// SplitTags parses a delimited tag cell. Export joins with ";" and hand-made
// files tend to use ",", so both are accepted.
func SplitTags(s string) []string {
	return NormalizeTags([]string{s})
}

func parseBudget(field, raw string, errs *ValidationErrors) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{
			Field:   field,
			Value:   raw,
			Message: "must be a whole number",
		})
		return nil
	}
	return &n
}

func optional(s string) *string {
	return &s
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
