package form

import (
	"strings"
	"testing"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sub     domain.Submission
		policy  Policy
		wantErr string // empty means valid
	}{
		{
			name: "Valid submission",
			sub:  domain.Submission{FullName: "Jane", Email: "jane@x.com", ContactNumber: "5551234567"},
		},
		{
			name:    "Invalid email shape",
			sub:     domain.Submission{Email: "not-an-email"},
			wantErr: "Invalid email format",
		},
		{
			name:    "Email without tld",
			sub:     domain.Submission{Email: "user@host"},
			wantErr: "Invalid email format",
		},
		{
			name: "Empty email skipped",
			sub:  domain.Submission{FullName: "Jane"},
		},
		{
			name:    "Contact number too short",
			sub:     domain.Submission{ContactNumber: "12345"},
			wantErr: "Contact number length looks invalid",
		},
		{
			name: "Contact number at lower bound",
			sub:  domain.Submission{ContactNumber: "123456"},
		},
		{
			name: "Contact number at upper bound",
			sub:  domain.Submission{ContactNumber: strings.Repeat("9", 20)},
		},
		{
			name:    "Contact number too long",
			sub:     domain.Submission{ContactNumber: strings.Repeat("9", 21)},
			wantErr: "Contact number length looks invalid",
		},
		{
			name: "Completely empty submission passes by default",
			sub:  domain.Submission{},
		},
		{
			name:    "Required fields enforced when enabled",
			sub:     domain.Submission{Email: "a@b.co"},
			policy:  Policy{RequireFields: true},
			wantErr: "Full name is required",
		},
		{
			name:    "Required description enforced when enabled",
			sub:     domain.Submission{FullName: "Jane"},
			policy:  Policy{RequireFields: true},
			wantErr: "Project description is required",
		},
		{
			name:    "Email checked before contact number",
			sub:     domain.Submission{Email: "bad", ContactNumber: "1"},
			wantErr: "Invalid email format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sub, tt.policy)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid, got %q", err.Error())
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
