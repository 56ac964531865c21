package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shyness-client/internal/models"
)

func goodFile() VideoFile {
	return VideoFile{Name: "talk.mp4", Size: 5 * 1024 * 1024, ContentType: "video/mp4"}
}

func TestValidateTitle_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty", "", "Video title is required"},
		{"whitespace", "   ", "Video title is required"},
		{"two chars", "ab", "Title must be at least 3 characters long"},
		{"two chars padded", "  ab  ", "Title must be at least 3 characters long"},
		{"three chars", "abc", ""},
		{"hundred chars", strings.Repeat("a", 100), ""},
		{"hundred one chars", strings.Repeat("a", 101), "Title cannot be more than 100 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateTitle(tt.title).Field("title")
			if got != tt.want {
				t.Errorf("ValidateTitle(%d chars) = %q, want %q", len(tt.title), got, tt.want)
			}
		})
	}
}

func TestValidateVideoFile(t *testing.T) {
	tests := []struct {
		name string
		file VideoFile
		want []string
	}{
		{"valid", goodFile(), nil},
		{
			"wrong type",
			VideoFile{Name: "clip.avi", Size: 5 << 20, ContentType: "video/x-msvideo"},
			[]string{
				"Invalid file type: video/x-msvideo. Only MP4, WebM, and MOV files are allowed.",
				"Invalid file extension: .avi. Only .mp4, .webm, and .mov files are allowed.",
			},
		},
		{
			"too large",
			VideoFile{Name: "big.mov", Size: 150 << 20, ContentType: "video/quicktime"},
			[]string{"File too large: 150 MiB. Maximum size is 100MB."},
		},
		{
			"too small",
			VideoFile{Name: "tiny.webm", Size: 512 << 10, ContentType: "video/webm"},
			[]string{"File too small: 512 KiB. Minimum size is 1MB."},
		},
		{"exact max", VideoFile{Name: "a.MP4", Size: MaxVideoSize, ContentType: "video/mp4"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateVideoFile(tt.file).Messages()
			if len(got) != len(tt.want) {
				t.Fatalf("messages = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("message[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	errs := ValidateUpload(Upload{File: goodFile(), Title: "My first talk", TopicID: "t1"})
	if errs.Err() != nil {
		t.Fatalf("valid upload rejected: %v", errs)
	}

	errs = ValidateUpload(Upload{
		File:        goodFile(),
		Title:       "ok",
		Description: strings.Repeat("d", 501),
	})
	if got := errs.Field("topic"); got != "Please select a topic first" {
		t.Errorf("topic = %q", got)
	}
	if got := errs.Field("description"); got != "Description cannot be more than 500 characters" {
		t.Errorf("description = %q", got)
	}
	if !errs.ValidationFailed() || len(errs) != 3 {
		t.Errorf("errs = %v, want 3 violations", errs)
	}
}

func TestInspectVideo(t *testing.T) {
	dir := t.TempDir()

	// ftyp box with an mp4 brand
	mp4 := append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0, 0, 0, 0, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}, make([]byte, 1000)...)
	path := filepath.Join(dir, "clip.bin")
	if err := os.WriteFile(path, mp4, 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := InspectVideo(path)
	if err != nil {
		t.Fatalf("InspectVideo() error = %v", err)
	}
	if f.ContentType != "video/mp4" || f.Size != int64(len(mp4)) || f.Name != "clip.bin" {
		t.Errorf("InspectVideo() = %+v", f)
	}

	mov := filepath.Join(dir, "clip.MOV")
	if err := os.WriteFile(mov, []byte("not a recognised header"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err = InspectVideo(mov)
	if err != nil {
		t.Fatalf("InspectVideo() error = %v", err)
	}
	if f.ContentType != "video/quicktime" {
		t.Errorf("ContentType = %q, want extension fallback", f.ContentType)
	}

	if _, err := InspectVideo(filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("InspectVideo(missing) returned no error")
	}
}

func TestValidateLoginAndRegister(t *testing.T) {
	if errs := ValidateLogin("user@example.com", "secret1"); errs.Err() != nil {
		t.Errorf("ValidateLogin(valid) = %v", errs)
	}

	errs := ValidateLogin("not-an-email", "123")
	if got := errs.Field("email"); got != "Invalid email address" {
		t.Errorf("email = %q", got)
	}
	if got := errs.Field("password"); got != "Password must be at least 6 characters" {
		t.Errorf("password = %q", got)
	}

	errs = ValidateRegister(" ", "", "")
	want := []string{"Name is required", "Email is required", "Password is required"}
	if got := errs.Messages(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("ValidateRegister() = %q, want %q", got, want)
	}
}

func TestValidateResetPassword(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		password string
		confirm  string
		want     []string
	}{
		{"valid", "tok", "Secret1", "Secret1", nil},
		{"missing token", "", "Secret1", "Secret1", []string{"Invalid or missing reset token"}},
		{"no digit", "tok", "Secretx", "Secretx", []string{"Password must contain uppercase, lowercase, and number"}},
		{"mismatch", "tok", "Secret1", "Secret2", []string{"Passwords do not match"}},
		{"short", "tok", "Se1", "", []string{"Password must be at least 6 characters", "Please confirm your password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateResetPassword(tt.token, tt.password, tt.confirm).Messages()
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("messages = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePaymentInfo(t *testing.T) {
	tests := []struct {
		name  string
		info  models.PaymentInfo
		field string
		want  string
	}{
		{"no method", models.PaymentInfo{}, "preferredMethod", "Please select a payment method"},
		{
			"valid upi",
			models.PaymentInfo{PreferredMethod: models.MethodUPI, UPI: &models.UPI{UPIID: "asha@okbank", UPIName: "Asha"}},
			"upiId", "",
		},
		{
			"bad upi",
			models.PaymentInfo{PreferredMethod: models.MethodUPI, UPI: &models.UPI{UPIID: "asha", UPIName: "Asha"}},
			"upiId", "Please enter a valid UPI ID",
		},
		{
			"bad ifsc",
			models.PaymentInfo{PreferredMethod: models.MethodBank, BankAccount: &models.BankAccount{
				AccountHolderName: "Asha", AccountNumber: "123456789", BankName: "SBI", IFSCCode: "SBIN1234567",
			}},
			"ifscCode", "Please enter a valid IFSC code",
		},
		{
			"short account",
			models.PaymentInfo{PreferredMethod: models.MethodBank, BankAccount: &models.BankAccount{AccountNumber: "1234"}},
			"accountNumber", "Please enter a valid account number",
		},
		{
			"bad paypal",
			models.PaymentInfo{PreferredMethod: models.MethodPayPal, PayPal: &models.PayPal{Email: "x@y", Name: "A"}},
			"paypalEmail", "Please enter a valid email address",
		},
		{
			"bad wallet number",
			models.PaymentInfo{PreferredMethod: models.MethodWallet, Wallet: &models.Wallet{Type: "paytm", Number: "98765", Name: "A"}},
			"walletNumber", "Please enter a valid 10-digit mobile number",
		},
		{
			"missing wallet block",
			models.PaymentInfo{PreferredMethod: models.MethodWallet},
			"walletType", "Wallet type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePaymentInfo(tt.info).Field(tt.field); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	ok := models.Topic{Title: "Order coffee", Category: "daily", Difficulty: "easy"}
	if errs := ValidateTopic(ok); errs.ValidationFailed() {
		t.Errorf("ValidateTopic(valid) = %v", errs.Messages())
	}

	errs := ValidateTopic(models.Topic{Title: " ", Difficulty: "extreme"})
	for field, want := range map[string]string{
		"title":      "Title is required",
		"category":   "Category is required",
		"difficulty": "Difficulty must be easy, medium or hard",
	} {
		if got := errs.Field(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
}

func TestValidateAdminForms(t *testing.T) {
	if got := ValidateAdminProfile("", " ").Field("name"); got != "Enter a new name or email" {
		t.Errorf("empty profile = %q", got)
	}
	if got := ValidateAdminProfile("", "root@").Field("email"); got != "Invalid email address" {
		t.Errorf("bad email = %q", got)
	}
	if errs := ValidateAdminProfile("Root", ""); errs.ValidationFailed() {
		t.Errorf("name-only profile rejected: %v", errs.Messages())
	}

	errs := ValidateChangePassword("", "abc")
	if got := errs.Field("currentPassword"); got != "Current password is required" {
		t.Errorf("currentPassword = %q", got)
	}
	if got := errs.Field("password"); got != "Password must be at least 6 characters" {
		t.Errorf("password = %q", got)
	}
	if got := ValidateChangePassword("secret123", "secret123").Field("password"); got != "New password must differ from the current one" {
		t.Errorf("unchanged password = %q", got)
	}
}
