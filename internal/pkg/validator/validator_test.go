package validator

import (
	"errors"
	"testing"

	"devroots-sacco/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string   `json:"name" validate:"required,max=5"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Status string   `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED"`
	Term   int      `json:"term_months" validate:"gt=0"`
	IDs    []uint   `json:"guarantor_ids" validate:"omitempty,unique"`
	Secret string   `json:"-" validate:"omitempty,min=3"`
	Tags   []string `validate:"omitempty,len=2"`
}

func TestStruct(t *testing.T) {
	valid := sample{Name: "Amina", Term: 12}
	assert.NoError(t, Struct(valid))

	tests := []struct {
		name   string
		mutate func(*sample)
		reason string
	}{
		{"Required", func(s *sample) { s.Name = "" }, "name is required"},
		{"Max", func(s *sample) { s.Name = "Amina Okello" }, "name must be at most 5"},
		{"Email", func(s *sample) { s.Email = "nope" }, "email must be a valid email"},
		{"OneOf", func(s *sample) { s.Status = "DORMANT" }, "status must be one of [ACTIVE SUSPENDED]"},
		{"Gt", func(s *sample) { s.Term = 0 }, "term_months must be greater than 0"},
		{"Unique", func(s *sample) { s.IDs = []uint{1, 1} }, "guarantor_ids must not contain duplicates"},
		{"Len", func(s *sample) { s.Tags = []string{"a"} }, "Tags must contain exactly 2 items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := Struct(s)

			var verr *domain.ValidationError
			if assert.True(t, errors.As(err, &verr), "got %v", err) {
				assert.Equal(t, tt.reason, verr.Reason)
			}
		})
	}
}

func TestStruct_NotAStruct(t *testing.T) {
	assert.True(t, domain.IsValidation(Struct(42)))
}
