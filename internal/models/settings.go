package models

// Settings is a user's per-account preference row (1:1 with users).
type Settings struct {
	UserID                 int    `json:"user_id"`
	WeightUnit             string `json:"weight_unit"`
	DistanceUnit           string `json:"distance_unit"`
	LengthUnit             string `json:"length_unit"`
	DefaultRestSeconds     int    `json:"default_rest_seconds"`
	AutoFillPreviousValues bool   `json:"auto_fill_previous_values"`
	SoundEnabled           bool   `json:"sound_enabled"`
	Theme                  string `json:"theme"`
	AppLockEnabled         bool   `json:"app_lock_enabled"`
}

// DefaultSettings are applied when a user has no settings row yet.
func DefaultSettings(userID int) Settings {
	return Settings{
		UserID:             userID,
		WeightUnit:         "kg",
		DistanceUnit:       "km",
		LengthUnit:         "cm",
		DefaultRestSeconds: 60,
		SoundEnabled:       true,
		Theme:              "system",
	}
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	WeightUnit             *string `json:"weight_unit,omitempty"`
	DistanceUnit           *string `json:"distance_unit,omitempty"`
	LengthUnit             *string `json:"length_unit,omitempty"`
	DefaultRestSeconds     *int    `json:"default_rest_seconds,omitempty"`
	AutoFillPreviousValues *bool   `json:"auto_fill_previous_values,omitempty"`
	SoundEnabled           *bool   `json:"sound_enabled,omitempty"`
	Theme                  *string `json:"theme,omitempty"`
	AppLockEnabled         *bool   `json:"app_lock_enabled,omitempty"`
}
