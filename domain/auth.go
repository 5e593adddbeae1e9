package domain

var MessageFailedIssueToken = "failed to issue token"

type IssueTokenRequest struct {
	Subject string `json:"subject" validate:"required,max=64"`
	TTLHour int    `json:"ttl_hours" validate:"omitempty,min=1,max=8760"`
}
