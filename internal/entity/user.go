package entity

import "time"

type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	SkillsOffered SkillSet  `json:"skills_offered"`
	SkillsWanted  SkillSet  `json:"skills_wanted"`
	Location      string    `json:"location"`
	Category      Category  `json:"category"`
	Points        int       `json:"points"`
	Badges        BadgeSet  `json:"badges"`
	Notifications int       `json:"notifications"`
	Rating        float64   `json:"rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// PublicUser is what other users get to see in search results and profiles.
type PublicUser struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	SkillsOffered SkillSet `json:"skills_offered"`
	SkillsWanted  SkillSet `json:"skills_wanted"`
	Location      string   `json:"location"`
	Category      Category `json:"category"`
	Badges        BadgeSet `json:"badges"`
	Rating        float64  `json:"rating"`
	RatingCount   int      `json:"rating_count"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		SkillsOffered: u.SkillsOffered,
		SkillsWanted:  u.SkillsWanted,
		Location:      u.Location,
		Category:      u.Category,
		Badges:        u.Badges,
		Rating:        u.Rating,
		RatingCount:   u.RatingCount,
	}
}

type UserStats struct {
	Sessions int `json:"sessions"`
	Messages int `json:"messages"`
}
