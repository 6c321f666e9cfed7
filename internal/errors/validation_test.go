package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidationError() {
	ve := errors.NewValidationError()
	ve.AddFieldError("user", "is required")
	ve.AddFieldError("hall", "is unknown")
	ve.AddFieldErrorf("account_ids", "must contain at least %d entry", 1)

	s.Assert().True(ve.HasErrors())
	s.Assert().Contains(ve.Error(), "user: is required")
	s.Assert().Contains(ve.Error(), "hall: is unknown")
	s.Assert().Contains(ve.Error(), "account_ids: must contain at least 1 entry")

	err := ve.ToError()
	s.Assert().Equal(errors.CodeInvalidArgument, err.Code)
	s.Assert().NotNil(err.Meta["validation_errors"])
}

func (s *ValidationTestSuite) TestValidationBuilder() {
	vb := errors.NewValidationBuilder()
	vb.Field("user", "is required").
		Fieldf("max_workers", "must be between %d and %d", 1, 64).
		RequiredField("account_ids").
		InvalidField("hall", "not a known hall")

	err := vb.Build()
	s.Require().NotNil(err)
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *ValidationTestSuite) TestValidationBuilderNoErrors() {
	vb := errors.NewValidationBuilder()
	err := vb.Build()
	s.Assert().Nil(err)
}

func (s *ValidationTestSuite) TestValidateRequired() {
	testCases := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"valid value", "acct-1", false},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"valid with spaces", "  acct-1  ", false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			vb := errors.NewValidationBuilder()
			errors.ValidateRequired("account_id", tc.value, vb)
			err := vb.Build()
			if tc.shouldErr {
				s.Assert().NotNil(err)
			} else {
				s.Assert().Nil(err)
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateRange() {
	testCases := []struct {
		name      string
		value     int
		shouldErr bool
	}{
		{"lower bound", 1, false},
		{"upper bound", 64, false},
		{"zero workers", 0, true},
		{"too many workers", 65, true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			vb := errors.NewValidationBuilder()
			errors.ValidateRange("max_workers", tc.value, 1, 64, vb)
			err := vb.Build()
			if tc.shouldErr {
				s.Require().NotNil(err)
				s.Assert().Contains(err.Error(), "must be between 1 and 64")
			} else {
				s.Assert().Nil(err)
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateEnum() {
	formats := []string{"text", "json"}

	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("log_format", "json", formats, vb)
	s.Assert().Nil(vb.Build())

	vb = errors.NewValidationBuilder()
	errors.ValidateEnum("log_format", "xml", formats, vb)
	err := vb.Build()
	s.Require().NotNil(err)
	s.Assert().Contains(err.Error(), "must be one of: text, json")
}

func (s *ValidationTestSuite) TestStartSessionStyleValidation() {
	type startInput struct {
		User       string
		AccountIDs []string
		Workers    int
	}

	validate := func(in startInput) error {
		vb := errors.NewValidationBuilder()
		errors.ValidateRequired("user", in.User, vb)
		if len(in.AccountIDs) == 0 {
			vb.RequiredField("account_ids")
		}
		for _, id := range in.AccountIDs {
			errors.ValidateRequired("account_ids", id, vb)
		}
		errors.ValidateRange("workers", in.Workers, 1, 16, vb)
		return vb.Build()
	}

	s.Assert().Nil(validate(startInput{User: "alice", AccountIDs: []string{"a1"}, Workers: 4}))

	err := validate(startInput{Workers: 0})
	s.Require().NotNil(err)
	meta := errors.GetMeta(err)
	fields, ok := meta["validation_errors"].(map[string][]string)
	s.Require().True(ok)
	s.Assert().Contains(fields, "user")
	s.Assert().Contains(fields, "account_ids")
	s.Assert().Contains(fields, "workers")
}

func (s *ValidationTestSuite) TestPortAndMinHelpers() {
	vb := errors.NewValidationBuilder()
	errors.ValidatePort("http_port", 0, false, vb)
	errors.ValidatePort("grpc_port", 0, true, vb)
	errors.ValidateMin("workers", 0, 1, vb)

	err := vb.Build()
	s.Require().Error(err)
	s.Assert().Equal(
		"validation failed: http_port: must be between 1 and 65535; workers: must be at least 1",
		errors.GetMessage(err),
	)
}
