package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Tokens         []string `json:"tokens" validate:"required,min=1,max=500,dive,required"`
	MatchThreshold float64  `json:"match_threshold" default:"0.5" validate:"gte=0,lte=1"`
	MatchCount     int      `json:"match_count" default:"20" validate:"gte=1,lte=100"`
}

type ConfidenceRequest struct {
	Token          string  `query:"token" json:"token" validate:"required"`
	MatchThreshold float64 `query:"match_threshold" json:"match_threshold" default:"0.5" validate:"gte=0,lte=1"`
	MatchCount     int     `query:"match_count" json:"match_count" default:"20" validate:"gte=1,lte=100"`
}

type DecisionsRequest struct {
	Token  string `query:"token" json:"token" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=PENDING_EXECUTION EXECUTION_FAILED AWAITING_24H_RESULT AWAITING_7D_RESULT COMPLETED"`
	Since  string `query:"since" json:"since"`
}
