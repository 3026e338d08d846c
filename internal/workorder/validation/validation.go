package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/smallbiznis/spk/internal/workorder/split"
)

const (
	CodeRequired        = "required"
	CodeInvalidEmail    = "invalid_email"
	CodeInvalidDate     = "invalid_date"
	CodeMustBePositive  = "must_be_positive"
	CodeOutOfRange      = "out_of_range"
	CodeSplitSum        = "split_sum"
	CodeInvalidChoice   = "invalid_choice"
	CodeTooLong         = "too_long"
	CodeInvalidCurrency = "invalid_currency"
	CodeTooPrecise      = "too_precise"
)

// PercentagePlaces matches the scale of the percentage columns.
const PercentagePlaces = 2

var hundred = decimal.NewFromInt(100)

// fieldOrder fixes the order in which failures are reported.
var fieldOrder = map[string]int{
	"vendor_name":         0,
	"project_name":        1,
	"start_date":          2,
	"vendor_email":        3,
	"contract_value":      4,
	"dp_percentage":       5,
	"progress_percentage": 6,
	"final_percentage":    7,
	"currency":            8,
	"end_date":            9,
	"vendor_phone":        10,
	"status":              11,
	"paid_date":           12,
	"payment_reference":   13,
}

var messages = map[string]string{
	"vendor_name":       "Vendor name is required",
	"project_name":      "Project name is required",
	"vendor_email":      "Invalid email format",
	"contract_value":    "Contract value must be greater than 0",
	"currency":          "Currency must be a 3-letter code",
	"vendor_phone":      "Vendor phone is too long",
	"status":            "Status must be one of pending, paid, overdue",
	"paid_date":         "Paid date must be a valid date",
	"payment_reference": "Payment reference is too long",
	"end_date":          "End date must be a valid date",
}

// Validator checks work order and payment input before anything is written.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(createRules, domain.CreateWorkOrderRequest{})
	return &Validator{v: v}
}

// ValidateCreate returns a *domain.ValidationError when req is not acceptable.
func (v *Validator) ValidateCreate(req domain.CreateWorkOrderRequest) error {
	return v.check(req)
}

// ValidatePaymentUpdate returns a *domain.ValidationError when req is not acceptable.
func (v *Validator) ValidatePaymentUpdate(req domain.UpdatePaymentRequest) error {
	return v.check(req)
}

func (v *Validator) check(req interface{}) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make([]domain.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, translate(fe))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Field) < rank(out[j].Field)
	})
	return &domain.ValidationError{Errors: out}
}

// createRules holds the checks that need more than one field: the contract
// value after rounding to the currency, percentage scale, and the split sum.
func createRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(domain.CreateWorkOrderRequest)
	if req.ContractValue.IsPositive() && !req.ContractValue.Round(split.MinorUnits(req.Currency)).IsPositive() {
		sl.ReportError(req.ContractValue, "contract_value", "ContractValue", "gt", "")
	}
	splitSum(sl, req)
}

// splitSum attributes an unbalanced split to dp_percentage, whichever term is off.
// It only runs once every percentage is in range and at column scale.
func splitSum(sl validator.StructLevel, req domain.CreateWorkOrderRequest) {
	pcts := []struct {
		value decimal.Decimal
		field string
		name  string
	}{
		{req.DpPercentage, "dp_percentage", "DpPercentage"},
		{req.ProgressPercentage, "progress_percentage", "ProgressPercentage"},
		{req.FinalPercentage, "final_percentage", "FinalPercentage"},
	}
	total := decimal.Zero
	balanced := true
	for _, pct := range pcts {
		if pct.value.IsNegative() || pct.value.GreaterThan(hundred) {
			balanced = false
			continue
		}
		if !pct.value.Equal(pct.value.Round(PercentagePlaces)) {
			sl.ReportError(pct.value, pct.field, pct.name, CodeTooPrecise, "")
			balanced = false
			continue
		}
		total = total.Add(pct.value)
	}
	if balanced && !total.Equal(hundred) {
		sl.ReportError(req.DpPercentage, "dp_percentage", "DpPercentage", CodeSplitSum, "")
	}
}

func translate(fe validator.FieldError) domain.FieldError {
	field := fe.Field()
	out := domain.FieldError{Field: field, Message: messages[field]}

	switch fe.Tag() {
	case "notblank", "required":
		out.Code = CodeRequired
		if out.Message == "" || field == "status" {
			out.Message = humanize(field) + " is required"
		}
	case "email":
		out.Code = CodeInvalidEmail
	case "date":
		out.Code = CodeInvalidDate
		out.Message = humanize(field) + " must be a valid date"
	case "gt":
		out.Code = CodeMustBePositive
	case "gte", "lte":
		out.Code = CodeOutOfRange
		out.Message = humanize(field) + " must be between 0 and 100"
	case CodeSplitSum:
		out.Code = CodeSplitSum
		out.Message = "Payment percentages must sum to 100%"
	case CodeTooPrecise:
		out.Code = CodeTooPrecise
		out.Message = humanize(field) + " must have at most 2 decimal places"
	case "oneof":
		out.Code = CodeInvalidChoice
	case "max":
		out.Code = CodeTooLong
	case "len", "alpha":
		out.Code = CodeInvalidCurrency
	default:
		out.Code = fe.Tag()
	}
	if out.Message == "" {
		out.Message = humanize(field) + " is invalid"
	}
	return out
}

func rank(field string) int {
	if r, ok := fieldOrder[field]; ok {
		return r
	}
	return len(fieldOrder)
}

func humanize(field string) string {
	words := strings.Split(field, "_")
	if len(words) > 0 && words[0] != "" {
		words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	}
	return strings.Join(words, " ")
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and
// returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
