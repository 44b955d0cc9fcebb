package dto

// UpsertSettingRequest creates or replaces a setting value.
type UpsertSettingRequest struct {
	Value       string  `json:"value" validate:"required,max=2000"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}
