package models

import "time"

// WaterIntake is one logged drink.
type WaterIntake struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	AmountML  int       `db:"amount_ml" json:"amount_ml"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateIntakeRequest logs an intake; Timestamp defaults to now.
type CreateIntakeRequest struct {
	AmountML  int        `json:"amount_ml" validate:"required,gt=0,lte=10000"`
	Timestamp *time.Time `json:"timestamp"`
}

// IntakeTotal is the summed intake of one calendar day.
type IntakeTotal struct {
	Date    string `json:"date"`
	TotalML int    `json:"total"`
}

// WaterGoal is a user's daily target. At most one goal per user is active.
type WaterGoal struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DailyGoalML int       `db:"daily_goal_ml" json:"daily_goal_ml"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SetGoalRequest replaces the active goal.
type SetGoalRequest struct {
	DailyGoalML *int `json:"daily_goal_ml" validate:"required,min=0,max=20000"`
}

// FavoritePoint links a user to a point they bookmarked.
type FavoritePoint struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	PointID   string      `json:"point_id"`
	CreatedAt time.Time   `json:"created_at"`
	Point     *WaterPoint `json:"point,omitempty"`
}
