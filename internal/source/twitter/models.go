package twitter

// SearchResponse is the v2 recent search response with author and media
// expansions.
type SearchResponse struct {
	Data     []Tweet  `json:"data"`
	Includes Includes `json:"includes"`
	Meta     Meta     `json:"meta"`
}

type Tweet struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
	Attachments   *Attachments  `json:"attachments"`
}

type PublicMetrics struct {
	RetweetCount    int64 `json:"retweet_count"`
	ReplyCount      int64 `json:"reply_count"`
	LikeCount       int64 `json:"like_count"`
	QuoteCount      int64 `json:"quote_count"`
	ImpressionCount int64 `json:"impression_count"`
}

type Attachments struct {
	MediaKeys []string `json:"media_keys"`
}

type Includes struct {
	Users []User  `json:"users"`
	Media []Media `json:"media"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Media struct {
	MediaKey        string        `json:"media_key"`
	Type            string        `json:"type"`
	PreviewImageURL string        `json:"preview_image_url"`
	DurationMs      int64         `json:"duration_ms"`
	PublicMetrics   *MediaMetrics `json:"public_metrics"`
}

type MediaMetrics struct {
	ViewCount int64 `json:"view_count"`
}

type Meta struct {
	ResultCount int `json:"result_count"`
}
