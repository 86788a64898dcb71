package profile

// UpdateMeRequest is a partial update; nil fields are left untouched.
type UpdateMeRequest struct {
	DisplayName   *string `json:"display_name"`
	JobOccupation *string `json:"job_occupation"`
}

type MeResponse struct {
	Profile    *Profile `json:"profile"`
	JobChoices []string `json:"job_choices"`
}
