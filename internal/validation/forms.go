package validation

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"shyness-client/internal/models"
)

const MinPasswordLength = 6

var (
	emailPattern   = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	upiPattern     = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	walletPattern  = regexp.MustCompile(`^[0-9]{10}$`)

	walletTypes = []string{"phonepe", "googlepay", "paytm", "amazonpay", "other"}
)

func validateEmail(errs *Errors, field, email, invalid string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		errs.add(field, "Email is required")
	case !emailPattern.MatchString(email):
		errs.add(field, invalid)
	}
}

func validatePassword(errs *Errors, password string) {
	switch {
	case password == "":
		errs.add("password", "Password is required")
	case len(password) < MinPasswordLength:
		errs.add("password", "Password must be at least 6 characters")
	}
}

// ValidateLogin checks the login form
func ValidateLogin(email, password string) Errors {
	var errs Errors
	validateEmail(&errs, "email", email, "Invalid email address")
	validatePassword(&errs, password)
	return errs
}

// ValidateRegister checks the sign-up form
func ValidateRegister(name, email, password string) Errors {
	var errs Errors
	if strings.TrimSpace(name) == "" {
		errs.add("name", "Name is required")
	}
	validateEmail(&errs, "email", email, "Invalid email address")
	validatePassword(&errs, password)
	return errs
}

// ValidateForgotPassword checks the reset request form
func ValidateForgotPassword(email string) Errors {
	var errs Errors
	validateEmail(&errs, "email", email, "Invalid email address")
	return errs
}

// ValidateResetPassword checks the new-password form
func ValidateResetPassword(token, password, confirm string) Errors {
	var errs Errors
	if strings.TrimSpace(token) == "" {
		errs.add("token", "Invalid or missing reset token")
	}

	validatePassword(&errs, password)
	if len(password) >= MinPasswordLength && !mixedCase(password) {
		errs.add("password", "Password must contain uppercase, lowercase, and number")
	}

	switch {
	case confirm == "":
		errs.add("confirmPassword", "Please confirm your password")
	case confirm != password:
		errs.add("confirmPassword", "Passwords do not match")
	}
	return errs
}

func mixedCase(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidateProfileName checks a profile rename
func ValidateProfileName(name string) Errors {
	var errs Errors
	if strings.TrimSpace(name) == "" {
		errs.add("name", "Name cannot be empty")
	}
	return errs
}

// ValidateAdminProfile checks the console profile form; either field may
// be left out but not both
func ValidateAdminProfile(name, email string) Errors {
	var errs Errors
	if strings.TrimSpace(name) == "" && strings.TrimSpace(email) == "" {
		errs.add("name", "Enter a new name or email")
		return errs
	}
	if strings.TrimSpace(email) != "" {
		validateEmail(&errs, "email", email, "Invalid email address")
	}
	return errs
}

// ValidateChangePassword checks the console password form
func ValidateChangePassword(current, next string) Errors {
	var errs Errors
	if current == "" {
		errs.add("currentPassword", "Current password is required")
	}
	validatePassword(&errs, next)
	if next != "" && next == current {
		errs.add("password", "New password must differ from the current one")
	}
	return errs
}

// ValidateTopic checks a topic before it is created or replaced
func ValidateTopic(t models.Topic) Errors {
	var errs Errors
	if strings.TrimSpace(t.Title) == "" {
		errs.add("title", "Title is required")
	}
	if strings.TrimSpace(t.Category) == "" {
		errs.add("category", "Category is required")
	}
	if !slices.Contains(models.Difficulties, t.Difficulty) {
		errs.add("difficulty", "Difficulty must be easy, medium or hard")
	}
	return errs
}

// ValidatePaymentInfo checks only the block of the preferred method
func ValidatePaymentInfo(info models.PaymentInfo) Errors {
	var errs Errors

	required := func(field, value, msg string) bool {
		if strings.TrimSpace(value) == "" {
			errs.add(field, msg)
			return false
		}
		return true
	}

	switch info.PreferredMethod {
	case models.MethodUPI:
		upi := info.UPI
		if upi == nil {
			upi = &models.UPI{}
		}
		if required("upiId", upi.UPIID, "UPI ID is required") && !upiPattern.MatchString(upi.UPIID) {
			errs.add("upiId", "Please enter a valid UPI ID")
		}
		required("upiName", upi.UPIName, "Name is required")

	case models.MethodBank:
		bank := info.BankAccount
		if bank == nil {
			bank = &models.BankAccount{}
		}
		required("accountHolderName", bank.AccountHolderName, "Account holder name is required")
		if required("accountNumber", bank.AccountNumber, "Account number is required") && !accountPattern.MatchString(bank.AccountNumber) {
			errs.add("accountNumber", "Please enter a valid account number")
		}
		required("bankName", bank.BankName, "Bank name is required")
		if required("ifscCode", bank.IFSCCode, "IFSC code is required") && !ifscPattern.MatchString(bank.IFSCCode) {
			errs.add("ifscCode", "Please enter a valid IFSC code")
		}

	case models.MethodPayPal:
		pp := info.PayPal
		if pp == nil {
			pp = &models.PayPal{}
		}
		if required("paypalEmail", pp.Email, "PayPal email is required") && !emailPattern.MatchString(pp.Email) {
			errs.add("paypalEmail", "Please enter a valid email address")
		}
		required("paypalName", pp.Name, "Name is required")

	case models.MethodWallet:
		w := info.Wallet
		if w == nil {
			w = &models.Wallet{}
		}
		if required("walletType", w.Type, "Wallet type is required") && !slices.Contains(walletTypes, w.Type) {
			errs.add("walletType", "Wallet type is required")
		}
		if required("walletNumber", w.Number, "Wallet number is required") && !walletPattern.MatchString(w.Number) {
			errs.add("walletNumber", "Please enter a valid 10-digit mobile number")
		}
		required("walletName", w.Name, "Name is required")

	default:
		errs.add("preferredMethod", "Please select a payment method")
	}

	return errs
}
