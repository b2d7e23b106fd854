package validation

import (
	"strings"

	"commerce-service/internal/model"
)

// UserInput is the raw registration or profile payload
type UserInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// NewUser is validated registration data. Password is still plain text.
type NewUser struct {
	Name     string
	Phone    string
	Email    string
	Password string
	Role     model.Role
}

// ProfileUpdate is a validated name/phone change
type ProfileUpdate struct {
	Name  string
	Phone string
}

// AdminUserUpdate is a validated admin edit of another account
type AdminUserUpdate struct {
	Name  string
	Phone string
	Role  model.Role
}

// Name requires at least five characters
func Name(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errorf("Incorrect or missing name %s", display(nil))
	}
	if len(name) < 5 {
		return "", errorf("Name must be at least 5 characters")
	}
	return name, nil
}

// Phone requires at least eleven characters
func Phone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", errorf("Incorrect or missing phone %s", display(nil))
	}
	if len(phone) < 11 {
		return "", errorf("Phone number must be at least 11 characters")
	}
	return phone, nil
}

// Email checks the address format and normalises it to lower case
func Email(email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", errorf("Missing or invalid email %s", display(nilIfEmpty(email)))
	}
	return strings.ToLower(email), nil
}

// Password requires at least six characters
func Password(password string) (string, error) {
	if password == "" {
		return "", errorf("Incorrect or missing password %s", display(nil))
	}
	if len(password) < 6 {
		return "", errorf("Password must be at least 6 characters")
	}
	return password, nil
}

// Role accepts "user" or "admin"
func Role(role string) (model.Role, error) {
	if err := validate.Var(role, oneOf(model.Roles)); err != nil {
		if role == "" {
			return "", errorf("Incorrect or missing role %s", display(nil))
		}
		return "", errorf("Incorrect or missing role %s", role)
	}
	return model.Role(role), nil
}

// Registration validates a sign-up payload. The requested role is honoured only when
// allowRole is set; otherwise every new account is a plain user.
func Registration(in UserInput, allowRole bool) (NewUser, error) {
	name, err := Name(in.Name)
	if err != nil {
		return NewUser{}, err
	}
	password, err := Password(in.Password)
	if err != nil {
		return NewUser{}, err
	}
	phone, err := Phone(in.Phone)
	if err != nil {
		return NewUser{}, err
	}

	role := model.RoleUser
	if allowRole {
		if role, err = Role(in.Role); err != nil {
			return NewUser{}, err
		}
	}

	email, err := Email(in.Email)
	if err != nil {
		return NewUser{}, err
	}

	return NewUser{Name: name, Phone: phone, Email: email, Password: password, Role: role}, nil
}

// Profile validates a self-service profile edit
func Profile(in UserInput) (ProfileUpdate, error) {
	name, err := Name(in.Name)
	if err != nil {
		return ProfileUpdate{}, err
	}
	phone, err := Phone(in.Phone)
	if err != nil {
		return ProfileUpdate{}, err
	}
	return ProfileUpdate{Name: name, Phone: phone}, nil
}

// AdminUpdate validates an admin edit including the role
func AdminUpdate(in UserInput) (AdminUserUpdate, error) {
	name, err := Name(in.Name)
	if err != nil {
		return AdminUserUpdate{}, err
	}
	role, err := Role(in.Role)
	if err != nil {
		return AdminUserUpdate{}, err
	}
	phone, err := Phone(in.Phone)
	if err != nil {
		return AdminUserUpdate{}, err
	}
	return AdminUserUpdate{Name: name, Phone: phone, Role: role}, nil
}
