package validate

import "github.com/reelshelf/reelshelf-go/internal/model"

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type credentialsInput struct {
	Name     string `json:"name" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ValidatedCredentials are credentials that passed Credentials. The zero value
// is never handed out by this package.
type ValidatedCredentials struct {
	name     string
	email    string
	password string
}

func (c ValidatedCredentials) Name() string     { return c.name }
func (c ValidatedCredentials) Email() string    { return c.email }
func (c ValidatedCredentials) Password() string { return c.password }

// Credentials validates raw sign-in input. Fields are checked in the order
// name, email, password and the first failure is reported.
func Credentials(raw model.Credentials) (ValidatedCredentials, error) {
	in := credentialsInput{Name: raw.Name, Email: raw.Email, Password: raw.Password}
	if err := check(in); err != nil {
		return ValidatedCredentials{}, err
	}
	if len(in.Password) > maxPasswordBytes {
		return ValidatedCredentials{}, &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}

	return ValidatedCredentials{name: in.Name, email: in.Email, password: in.Password}, nil
}
