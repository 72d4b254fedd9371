package validation

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	if res := ValidateEmail("a@b.com"); !res.IsValid {
		t.Errorf("expected a@b.com valid, got error %q", res.Error)
	}

	res := ValidateEmail("not-an-email")
	if res.IsValid {
		t.Error("expected not-an-email invalid")
	}
	if res.Error != "Please enter a valid email address" {
		t.Errorf("unexpected message: %q", res.Error)
	}

	if res := ValidateEmail(""); res.IsValid || res.Error != "Email is required" {
		t.Errorf("expected required message, got %+v", res)
	}

	long := strings.Repeat("a", 250) + "@example.com"
	if res := ValidateEmail(long); res.IsValid || res.Error != "Email must be less than 255 characters" {
		t.Errorf("expected length message, got %+v", res)
	}

	if res := ValidateEmail("a b@c.com"); res.IsValid {
		t.Error("expected address with whitespace invalid")
	}
}

func TestValidateMalaysiaPhone(t *testing.T) {
	validNumbers := []string{
		"012-345 6789",
		"0123456789",
		"+6012-345 6789",
	}

	for _, number := range validNumbers {
		if res := ValidateMalaysiaPhone(number, true); !res.IsValid {
			t.Errorf("expected %q valid, got error %q", number, res.Error)
		}
	}

	landlines := []string{"03-123 4567", "04-1234567", "+603-123 4567"}
	for _, number := range landlines {
		if res := ValidateMalaysiaPhone(number, true); !res.IsValid {
			t.Errorf("expected landline %q valid, got error %q", number, res.Error)
		}
	}

	res := ValidateMalaysiaPhone("", true)
	if res.IsValid || res.Error != "Phone number is required" {
		t.Errorf("expected required message, got %+v", res)
	}

	if res := ValidateMalaysiaPhone("", false); !res.IsValid {
		t.Error("expected empty optional phone valid")
	}

	invalidNumbers := []string{"12345", "02-123 4567", "abc", "+44 20 7946 0958"}
	for _, number := range invalidNumbers {
		res := ValidateMalaysiaPhone(number, true)
		if res.IsValid {
			t.Errorf("expected %q invalid", number)
		}
		if res.Error != "Please enter a valid Malaysian phone number" {
			t.Errorf("%q: unexpected message %q", number, res.Error)
		}
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"Aina", "Tan Mei-Ling", "O'Brien", "Siti Nurhaliza"} {
		if res := ValidateName(name); !res.IsValid {
			t.Errorf("expected %q valid, got error %q", name, res.Error)
		}
	}

	if res := ValidateName(""); res.IsValid || res.Error != "Name is required" {
		t.Errorf("expected required message, got %+v", res)
	}

	res := ValidateName("R2-D2")
	if res.IsValid || res.Error != "Name can only contain letters, spaces, hyphens and apostrophes" {
		t.Errorf("expected character message, got %+v", res)
	}

	if res := ValidateName(strings.Repeat("a", 101)); res.IsValid || res.Error != "Name must be between 1 and 100 characters" {
		t.Errorf("expected length message, got %+v", res)
	}
}

func TestValidateNumber(t *testing.T) {
	if res := ValidateNumber("150", 0, 100000, "Fee", false, true); !res.IsValid {
		t.Errorf("expected 150 valid, got error %q", res.Error)
	}

	res := ValidateNumber("-5", 0, 100000, "Fee", false, true)
	if res.IsValid || res.Error != "Fee must be at least 0" {
		t.Errorf("expected minimum message, got %+v", res)
	}

	res = ValidateNumber("2000000", 0, 100000, "Fee", false, true)
	if res.IsValid || res.Error != "Fee cannot exceed 100000" {
		t.Errorf("expected maximum message, got %+v", res)
	}

	res = ValidateNumber("abc", 0, 100000, "Fee", false, true)
	if res.IsValid || res.Error != "Fee must be a number" {
		t.Errorf("expected number message, got %+v", res)
	}

	res = ValidateNumber("10.5", 0, 100000, "Fee", false, true)
	if res.IsValid || res.Error != "Fee must be a whole number" {
		t.Errorf("expected whole-number message, got %+v", res)
	}

	if res := ValidateNumber("10.5", 0, 100000, "Fee", true, true); !res.IsValid {
		t.Errorf("expected 10.5 valid with decimals allowed, got error %q", res.Error)
	}

	if res := ValidateNumber("", 0, 100000, "Fee", false, false); !res.IsValid {
		t.Error("expected empty optional number valid")
	}

	res = ValidateNumber("", 0, 100000, "Fee", false, true)
	if res.IsValid || res.Error != "Fee is required" {
		t.Errorf("expected required message, got %+v", res)
	}
}

func TestValidateAge(t *testing.T) {
	dob := time.Now().AddDate(-30, 0, 0).Format("2006-01-02")
	if res := ValidateAge(dob, 0, 150); !res.IsValid {
		t.Errorf("expected 30-year-old valid, got error %q", res.Error)
	}

	ancient := time.Now().AddDate(-200, 0, 0).Format("2006-01-02")
	res := ValidateAge(ancient, 0, 150)
	if res.IsValid || res.Error != "Age cannot exceed 150 years" {
		t.Errorf("expected maximum message, got %+v", res)
	}

	minor := time.Now().AddDate(-10, 0, 0).Format("2006-01-02")
	res = ValidateAge(minor, 18, 150)
	if res.IsValid || res.Error != "Age must be at least 18 years" {
		t.Errorf("expected minimum message, got %+v", res)
	}

	if res := ValidateAge("not-a-date", 0, 150); res.IsValid || res.Error != "Please enter a valid date of birth" {
		t.Errorf("expected parse message, got %+v", res)
	}

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	if res := ValidateAge(future, 0, 150); res.IsValid {
		t.Error("expected future date of birth invalid")
	}
}

func TestValidateAge_CalendarAware(t *testing.T) {
	// A birthday later this year must not count as a completed year.
	now := time.Now()
	notYet := now.AddDate(-18, 0, 7).Format("2006-01-02")
	res := ValidateAge(notYet, 18, 150)
	if res.IsValid {
		t.Errorf("expected 17-going-on-18 rejected for min 18, got %+v", res)
	}

	passed := now.AddDate(-18, 0, -7).Format("2006-01-02")
	if res := ValidateAge(passed, 18, 150); !res.IsValid {
		t.Errorf("expected just-turned-18 accepted, got error %q", res.Error)
	}
}

func TestValidateJSON(t *testing.T) {
	if res := ValidateJSON(`{"a": 1}`, true); !res.IsValid {
		t.Errorf("expected valid JSON accepted, got error %q", res.Error)
	}

	if res := ValidateJSON("{", true); res.IsValid || res.Error != "Please enter valid JSON" {
		t.Errorf("expected parse message, got %+v", res)
	}

	if res := ValidateJSON("", false); !res.IsValid {
		t.Error("expected empty optional JSON valid")
	}

	if res := ValidateJSON("", true); res.IsValid || res.Error != "This field is required" {
		t.Errorf("expected required message, got %+v", res)
	}
}

func TestValidateFile(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png", "application/pdf"}

	if res := ValidateFile("image/png", 1024*1024, allowed, 5); !res.IsValid {
		t.Errorf("expected 1MB png valid, got error %q", res.Error)
	}

	if res := ValidateFile("IMAGE/PNG", 1024, allowed, 5); !res.IsValid {
		t.Error("expected MIME comparison case-insensitive")
	}

	res := ValidateFile("application/zip", 1024, allowed, 5)
	if res.IsValid || res.Error != "File type not allowed" {
		t.Errorf("expected type message, got %+v", res)
	}

	res = ValidateFile("image/jpeg", 6*1024*1024, allowed, 5)
	if res.IsValid || res.Error != fmt.Sprintf("File size cannot exceed %d MB", 5) {
		t.Errorf("expected size message, got %+v", res)
	}
}
