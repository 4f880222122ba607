package tiktok

// QueryRequest is the body of the research API video query.
type QueryRequest struct {
	Query     Query  `json:"query"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	MaxCount  int    `json:"max_count"`
	IsRandom  bool   `json:"is_random"`
}

type Query struct {
	And []Condition `json:"and"`
}

type Condition struct {
	Operation   string   `json:"operation"`
	FieldName   string   `json:"field_name"`
	FieldValues []string `json:"field_values"`
}

type APIResponse struct {
	Data  Data     `json:"data"`
	Error APIError `json:"error"`
}

type Data struct {
	Videos  []Video `json:"videos"`
	Cursor  int     `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

type Video struct {
	ID               int64  `json:"id"`
	VideoDescription string `json:"video_description"`
	CreateTime       int64  `json:"create_time"`
	Username         string `json:"username"`
	ViewCount        int64  `json:"view_count"`
	LikeCount        int64  `json:"like_count"`
	ShareCount       int64  `json:"share_count"`
	VideoDuration    int    `json:"video_duration"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
