package instagram

type HashtagSearchResponse struct {
	Data []Hashtag `json:"data"`
}

type Hashtag struct {
	ID string `json:"id"`
}

type MediaResponse struct {
	Data []Media `json:"data"`
}

type Media struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
	ThumbnailURL  string `json:"thumbnail_url"`
	LikeCount     int64  `json:"like_count"`
	CommentsCount int64  `json:"comments_count"`
	Timestamp     string `json:"timestamp"`
}
