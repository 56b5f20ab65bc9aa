package dsl

import (
	"regexp"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// CollectOption configures a collect_data action.
type CollectOption func(*domain.CollectData)

func validator(c *domain.CollectData) *domain.InputValidator {
	if c.Validator == nil {
		c.Validator = &domain.InputValidator{}
	}
	return c.Validator
}

// Digits accepts only ASCII digits.
func Digits() CollectOption {
	return func(c *domain.CollectData) { validator(c).Digits = true }
}

// Length requires exactly n characters.
func Length(n int) CollectOption {
	return func(c *domain.CollectData) { validator(c).Length = n }
}

// Between bounds the input length.
func Between(min, max int) CollectOption {
	return func(c *domain.CollectData) {
		v := validator(c)
		v.MinLength, v.MaxLength = min, max
	}
}

// Matching requires the input to match expr. It panics on an invalid expression.
func Matching(expr string) CollectOption {
	re := regexp.MustCompile(expr)
	return func(c *domain.CollectData) { validator(c).Pattern = re }
}

// RejectWith sets the corrective message spoken on rejection.
func RejectWith(msg string) CollectOption {
	return func(c *domain.CollectData) { validator(c).Message = msg }
}

// Attempts bounds consecutive rejections; once reached the call moves to onExhausted.
func Attempts(max int, onExhausted string) CollectOption {
	return func(c *domain.CollectData) {
		c.MaxAttempts = max
		if onExhausted != "" {
			t := domain.ParseTarget(onExhausted)
			c.OnExhausted = &t
		}
	}
}
