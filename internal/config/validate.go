package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var chartIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks the configuration against its struct tags and the rules the
// tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	v := newValidator()
	if err := v.Struct(c); err != nil {
		return describeValidation(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("chartid", isChartID); err != nil {
		panic(fmt.Sprintf("register chartid validation: %v", err))
	}
	return v
}

// isChartID accepts ids that are safe in URLs and sheet names
func isChartID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if strings.EqualFold(id, WorkbookDataSheet) {
		return false
	}
	return len(id) <= 31 && chartIDPattern.MatchString(id)
}

// describeValidation flattens validator errors into one readable error
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
