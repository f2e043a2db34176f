package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"todoctl/internal/service"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgLoginFailed        = "Connection or server error."
	msgRegisterFailed     = "Registration failed. Please try again."
)

var validate = validator.New()

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginForm exchanges credentials for a session.
type LoginForm struct {
	inflight
	auth     service.Authenticator
	sessions Sessions
}

// NewLoginForm creates a LoginForm.
func NewLoginForm(auth service.Authenticator, sessions Sessions) *LoginForm {
	return &LoginForm{auth: auth, sessions: sessions}
}

// Submit logs in. The session user is the API's profile when the response
// carries one, otherwise a placeholder holding the typed email.
func (f *LoginForm) Submit(ctx context.Context, email, password string) (*service.User, error) {
	if !f.begin() {
		return nil, ErrBusy
	}
	defer f.end()

	email = strings.TrimSpace(email)
	if err := validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return nil, inputError(err)
	}

	res, err := f.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return nil, &Error{Message: msgInvalidCredentials, Err: err}
		}
		return nil, &Error{Message: msgLoginFailed, Err: err}
	}

	user := res.User
	if user == nil {
		user = &service.User{Name: "User", Email: email}
	}
	if err := f.sessions.Login(res.Token, user); err != nil {
		return nil, &Error{Message: msgLoginFailed, Err: err}
	}
	return user, nil
}

// RegisterForm creates an account and starts a session for it.
type RegisterForm struct {
	inflight
	auth     service.Authenticator
	sessions Sessions
}

// NewRegisterForm creates a RegisterForm.
func NewRegisterForm(auth service.Authenticator, sessions Sessions) *RegisterForm {
	return &RegisterForm{auth: auth, sessions: sessions}
}

// Submit registers the account. Password rules are left to the API.
func (f *RegisterForm) Submit(ctx context.Context, in service.RegisterInput) (*service.User, error) {
	if !f.begin() {
		return nil, ErrBusy
	}
	defer f.end()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, inputError(err)
	}

	res, err := f.auth.Register(ctx, in)
	if err != nil {
		return nil, &Error{Message: submitMessage(err, "", msgRegisterFailed), Err: err}
	}

	user := res.User
	if user == nil {
		user = &service.User{Name: in.Name, Email: in.Email}
	}
	if err := f.sessions.Register(res.Token, user); err != nil {
		return nil, &Error{Message: msgRegisterFailed, Err: err}
	}
	return user, nil
}

// inputError turns validator failures into one message per field.
func inputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Message: err.Error(), Err: ErrInvalidInput}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &Error{Message: strings.Join(msgs, " "), Err: ErrInvalidInput}
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func fieldLabel(name string) string {
	if name == "PasswordConfirmation" {
		return "password confirmation"
	}
	return strings.ToLower(name)
}
