package model

import "time"

type Play struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	PlayedAt   time.Time `json:"played_at"`
}

type ListeningStats struct {
	TotalPlays     int        `json:"total_songs_played"`
	UniqueArtists  int        `json:"unique_artists"`
	TodayPlays     int        `json:"today_plays"`
	WeekPlays      int        `json:"week_plays"`
	EstimatedHours int        `json:"estimated_hours"`
	TopArtist      *TopArtist `json:"top_artist"`
}

type TopArtist struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
