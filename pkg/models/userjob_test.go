package models

import "testing"

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{"new", "applied", "interview", "offer", "rejected"} {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("status %q should be valid: %v", s, err)
		}
	}
}

func TestValidateStatus_Rejected(t *testing.T) {
	for _, s := range []string{"", "ghosted", "Applied", "NEW", "withdrawn"} {
		if err := ValidateStatus(s); err == nil {
			t.Errorf("status %q should be rejected", s)
		}
	}
}
