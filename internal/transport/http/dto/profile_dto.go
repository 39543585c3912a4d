package dto

type ProfileResponse struct {
	UserID       string                 `json:"user_id"`
	Email        string                 `json:"email,omitempty"`
	Subscription SubscriptionResponse   `json:"subscription"`
	Stats        ListeningStatsResponse `json:"stats"`
}

type ListeningStatsResponse struct {
	TotalPlays     int                `json:"total_plays"`
	UniqueArtists  int                `json:"unique_artists"`
	TodayPlays     int                `json:"today_plays"`
	WeekPlays      int                `json:"week_plays"`
	EstimatedHours int                `json:"estimated_hours"`
	TopArtist      *TopArtistResponse `json:"top_artist,omitempty"`
}

type TopArtistResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type RecordPlayRequest struct {
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
}

type RecordPlayResponse struct {
	Success bool `json:"success"`
}
