package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() domain.CreateWorkOrderRequest {
	return domain.CreateWorkOrderRequest{
		VendorName:         "Acme Supplies",
		VendorEmail:        "ops@acme.test",
		ProjectName:        "Warehouse Fit-out",
		ContractValue:      decimal.NewFromInt(100_000_000),
		Currency:           "IDR",
		StartDate:          "2026-01-05",
		DpPercentage:       decimal.NewFromInt(30),
		ProgressPercentage: decimal.NewFromInt(40),
		FinalPercentage:    decimal.NewFromInt(30),
	}
}

func validationErr(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve
}

func TestValidateCreateAcceptsValidInput(t *testing.T) {
	assert.NoError(t, New().ValidateCreate(validRequest()))
}

func TestValidateCreateUnbalancedSplitBlamesDP(t *testing.T) {
	req := validRequest()
	req.FinalPercentage = decimal.NewFromInt(29)

	ve := validationErr(t, New().ValidateCreate(req))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "dp_percentage", ve.Errors[0].Field)
	assert.Equal(t, CodeSplitSum, ve.Errors[0].Code)
	assert.Equal(t, "Payment percentages must sum to 100%", ve.Errors[0].Message)
}

func TestValidateCreateSumMustBeExact(t *testing.T) {
	req := validRequest()
	req.DpPercentage = decimal.RequireFromString("33.33")
	req.ProgressPercentage = decimal.RequireFromString("33.33")
	req.FinalPercentage = decimal.RequireFromString("33.34")
	assert.NoError(t, New().ValidateCreate(req))

	req.FinalPercentage = decimal.RequireFromString("33.33")
	ve := validationErr(t, New().ValidateCreate(req))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "dp_percentage", ve.Errors[0].Field)
	assert.Equal(t, CodeSplitSum, ve.Errors[0].Code)
}

func TestValidateCreateRejectsSubCentPercentages(t *testing.T) {
	req := validRequest()
	req.FinalPercentage = decimal.RequireFromString("29.995")

	ve := validationErr(t, New().ValidateCreate(req))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "final_percentage", ve.Errors[0].Field)
	assert.Equal(t, CodeTooPrecise, ve.Errors[0].Code)
	assert.Equal(t, "Final percentage must have at most 2 decimal places", ve.Errors[0].Message)

	req = validRequest()
	req.DpPercentage = decimal.RequireFromString("33.333")
	req.ProgressPercentage = decimal.RequireFromString("33.333")
	req.FinalPercentage = decimal.RequireFromString("33.334")
	ve = validationErr(t, New().ValidateCreate(req))
	assert.Len(t, ve.Errors, 3)
	for _, fe := range ve.Errors {
		assert.Equal(t, CodeTooPrecise, fe.Code, fe.Field)
	}

	// trailing zeros are not extra precision
	req = validRequest()
	req.DpPercentage = decimal.RequireFromString("30.000")
	assert.NoError(t, New().ValidateCreate(req))
}

func TestValidateCreateContractValueRoundsToZero(t *testing.T) {
	req := validRequest()
	req.ContractValue = decimal.RequireFromString("0.4")

	ve := validationErr(t, New().ValidateCreate(req))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "contract_value", ve.Errors[0].Field)
	assert.Equal(t, CodeMustBePositive, ve.Errors[0].Code)

	req.ContractValue = decimal.RequireFromString("0.5")
	assert.NoError(t, New().ValidateCreate(req))

	req.Currency = "USD"
	req.ContractValue = decimal.RequireFromString("0.004")
	ve = validationErr(t, New().ValidateCreate(req))
	assert.Equal(t, "contract_value", ve.Errors[0].Field)

	req.ContractValue = decimal.RequireFromString("0.4")
	assert.NoError(t, New().ValidateCreate(req))
}

func TestValidateCreateIndependentChecks(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.CreateWorkOrderRequest)
		field  string
		code   string
	}{
		{"blank vendor", func(r *domain.CreateWorkOrderRequest) { r.VendorName = "   " }, "vendor_name", CodeRequired},
		{"blank project", func(r *domain.CreateWorkOrderRequest) { r.ProjectName = "" }, "project_name", CodeRequired},
		{"missing start", func(r *domain.CreateWorkOrderRequest) { r.StartDate = "" }, "start_date", CodeRequired},
		{"unparseable start", func(r *domain.CreateWorkOrderRequest) { r.StartDate = "05/01/2026" }, "start_date", CodeInvalidDate},
		{"bad email", func(r *domain.CreateWorkOrderRequest) { r.VendorEmail = "not-an-email" }, "vendor_email", CodeInvalidEmail},
		{"zero contract", func(r *domain.CreateWorkOrderRequest) { r.ContractValue = decimal.Zero }, "contract_value", CodeMustBePositive},
		{"negative contract", func(r *domain.CreateWorkOrderRequest) { r.ContractValue = decimal.NewFromInt(-5) }, "contract_value", CodeMustBePositive},
		{"progress above range", func(r *domain.CreateWorkOrderRequest) {
			r.DpPercentage = decimal.NewFromInt(0)
			r.ProgressPercentage = decimal.NewFromInt(101)
			r.FinalPercentage = decimal.NewFromInt(-1)
		}, "progress_percentage", CodeOutOfRange},
		{"bad currency", func(r *domain.CreateWorkOrderRequest) { r.Currency = "RUPIAH" }, "currency", CodeInvalidCurrency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			ve := validationErr(t, New().ValidateCreate(req))
			fe, ok := ve.Field(tc.field)
			require.True(t, ok, "no error for %s in %v", tc.field, ve.Errors)
			assert.Equal(t, tc.code, fe.Code)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestValidateCreateOutOfRangeSkipsSumRule(t *testing.T) {
	req := validRequest()
	req.DpPercentage = decimal.NewFromInt(150)

	ve := validationErr(t, New().ValidateCreate(req))
	fe, ok := ve.Field("dp_percentage")
	require.True(t, ok)
	assert.Equal(t, CodeOutOfRange, fe.Code)
	assert.Len(t, ve.Errors, 1)
}

func TestValidateCreateReportsInFixedOrder(t *testing.T) {
	req := validRequest()
	req.VendorEmail = "broken"
	req.ProjectName = ""
	req.VendorName = ""

	ve := validationErr(t, New().ValidateCreate(req))
	require.Len(t, ve.Errors, 3)
	assert.Equal(t, "vendor_name", ve.Errors[0].Field)
	assert.Equal(t, "project_name", ve.Errors[1].Field)
	assert.Equal(t, "vendor_email", ve.Errors[2].Field)
}

func TestValidateCreateEmptyEmailIsAllowed(t *testing.T) {
	req := validRequest()
	req.VendorEmail = ""
	assert.NoError(t, New().ValidateCreate(req))
}

func TestValidatePaymentUpdate(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidatePaymentUpdate(domain.UpdatePaymentRequest{Status: "paid", PaidDate: "2026-01-15", PaymentReference: "TRX-001"}))
	assert.NoError(t, v.ValidatePaymentUpdate(domain.UpdatePaymentRequest{Status: "overdue"}))
	assert.NoError(t, v.ValidatePaymentUpdate(domain.UpdatePaymentRequest{Status: "paid"}))

	ve := validationErr(t, v.ValidatePaymentUpdate(domain.UpdatePaymentRequest{Status: "refunded"}))
	assert.Equal(t, "status", ve.Errors[0].Field)
	assert.Equal(t, CodeInvalidChoice, ve.Errors[0].Code)

	ve = validationErr(t, v.ValidatePaymentUpdate(domain.UpdatePaymentRequest{Status: "paid", PaidDate: "yesterday"}))
	assert.Equal(t, "paid_date", ve.Errors[0].Field)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Day())

	got, err = ParseDate("2026-01-15T10:00:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Hour())

	_, err = ParseDate("15 Jan 2026")
	assert.Error(t, err)
}
