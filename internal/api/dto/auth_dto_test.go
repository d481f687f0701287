package dto

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validate(t *testing.T) {
	valid := RegisterRequest{Name: "Ana", Email: "ana@x.com", Password: "secret1", Role: "student"}

	tests := []struct {
		name      string
		mutate    func(r *RegisterRequest)
		wantField string
	}{
		{name: "valid", mutate: func(*RegisterRequest) {}},
		{name: "role omitted", mutate: func(r *RegisterRequest) { r.Role = "" }},
		{name: "name too short", mutate: func(r *RegisterRequest) { r.Name = "A" }, wantField: "name"},
		{name: "name too long", mutate: func(r *RegisterRequest) { r.Name = strings.Repeat("a", 101) }, wantField: "name"},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }, wantField: "email"},
		{name: "missing email", mutate: func(r *RegisterRequest) { r.Email = "" }, wantField: "email"},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "12345" }, wantField: "password"},
		{name: "long password", mutate: func(r *RegisterRequest) { r.Password = strings.Repeat("p", 51) }, wantField: "password"},
		{name: "unknown role", mutate: func(r *RegisterRequest) { r.Role = "root" }, wantField: "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs, ok := err.(validation.Errors)
			require.True(t, ok)
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "ana@x.com", Password: "x"}.Validate())

	err := LoginRequest{Email: "ana", Password: ""}.Validate()
	require.Error(t, err)
	errs := err.(validation.Errors)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestChangeRoleRequest_Validate(t *testing.T) {
	assert.NoError(t, ChangeRoleRequest{Role: "instructor"}.Validate())
	assert.Error(t, ChangeRoleRequest{Role: ""}.Validate())
	assert.Error(t, ChangeRoleRequest{Role: "owner"}.Validate())
}
