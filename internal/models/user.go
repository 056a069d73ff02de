package models

import "time"

// Profile enumerations accepted on profile completion.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"

	ClimateHot      = "hot"
	ClimateModerate = "moderate"
	ClimateCold     = "cold"
)

// User represents an application user stored in the users table.
type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Age           *int      `db:"age" json:"age,omitempty"`
	PhoneNumber   *string   `db:"phone_number" json:"phone_number,omitempty"`
	Gender        *string   `db:"gender" json:"gender,omitempty"`
	ActivityLevel *string   `db:"activity_level" json:"activity_level,omitempty"`
	ClimateType   *string   `db:"climate_type" json:"climate_type,omitempty"`
	Height        *float64  `db:"height" json:"height,omitempty"`
	Weight        *float64  `db:"weight" json:"weight,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateProfileRequest completes the optional profile fields. Nil fields keep
// their stored value.
type UpdateProfileRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	Age           *int     `json:"age" validate:"omitempty,min=1,max=130"`
	PhoneNumber   *string  `json:"phone_number" validate:"omitempty,max=32"`
	Gender        *string  `json:"gender" validate:"omitempty,oneof=male female other"`
	ActivityLevel *string  `json:"activity_level" validate:"omitempty,oneof=sedentary light moderate active very_active"`
	ClimateType   *string  `json:"climate_type" validate:"omitempty,oneof=hot moderate cold"`
	Height        *float64 `json:"height" validate:"omitempty,gt=0,lt=300"`
	Weight        *float64 `json:"weight" validate:"omitempty,gt=0,lt=500"`
}

// DeleteUserRequest identifies the account to remove.
type DeleteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}
