// Package account registers users, checks their passwords and serves
// profiles and search.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"skillswap/internal/apperr"
	"skillswap/internal/entity"
	"skillswap/internal/logger"
	"skillswap/internal/repository"
)

const DefaultStartingPoints = 10

type Options struct {
	StartingPoints int
	// PasswordCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	PasswordCost int
}

type Service struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	messages *repository.MessageRepository
	validate *validator.Validate
	opts     Options
	log      *logger.Logger
}

func New(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	messages *repository.MessageRepository,
	opts Options,
	log *logger.Logger,
) *Service {
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		sessions: sessions,
		messages: messages,
		validate: newValidator(),
		opts:     opts,
		log:      logger.OrNop(log).With("service", "account"),
	}
}

type RegisterInput struct {
	Username      string `json:"username" validate:"required,min=3,max=80"`
	Email         string `json:"email" validate:"required,email,max=120"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	SkillsOffered string `json:"skills_offered"`
	SkillsWanted  string `json:"skills_wanted"`
	Location      string `json:"location" validate:"max=100"`
	Category      string `json:"category" validate:"category"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (entity.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate.Struct(in); err != nil {
		return entity.User{}, validationError(err)
	}

	if _, err := s.users.GetByUsername(ctx, nil, in.Username); err == nil {
		return entity.User{}, apperr.Wrap(apperr.ErrConflict, "username is already taken")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return entity.User{}, err
	}
	if _, err := s.users.GetByEmail(ctx, nil, in.Email); err == nil {
		return entity.User{}, apperr.Wrap(apperr.ErrConflict, "email is already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return entity.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.PasswordCost)
	if err != nil {
		return entity.User{}, err
	}

	user := entity.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  string(hash),
		SkillsOffered: entity.ParseSkillSet(in.SkillsOffered),
		SkillsWanted:  entity.ParseSkillSet(in.SkillsWanted),
		Location:      in.Location,
		Category:      entity.Category(in.Category),
		Points:        s.opts.StartingPoints,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return entity.User{}, err
	}

	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (entity.User, error) {
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return entity.User{}, apperr.ErrInvalidCredentials
		}
		return entity.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("Password mismatch", "user_id", user.ID)
		return entity.User{}, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// PrivateDetails is only shown to the profile owner.
type PrivateDetails struct {
	Email         string `json:"email"`
	Points        int    `json:"points"`
	Notifications int    `json:"notifications"`
	Unread        int    `json:"unread_messages"`
}

type Profile struct {
	User     entity.PublicUser `json:"user"`
	Stats    entity.UserStats  `json:"stats"`
	Private  *PrivateDetails   `json:"private,omitempty"`
	Sessions []entity.Session  `json:"sessions,omitempty"`
}

// Profile shows userID as seen by viewerID. Sessions and private details are
// included only when they are the same user.
func (s *Service) Profile(ctx context.Context, viewerID, userID int64) (Profile, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return Profile{}, err
	}
	stats, err := s.users.Stats(ctx, nil, userID)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{User: user.Public(), Stats: stats}
	if viewerID != userID {
		return p, nil
	}

	unread, err := s.messages.UnreadCount(ctx, nil, userID)
	if err != nil {
		return Profile{}, err
	}
	p.Private = &PrivateDetails{
		Email:         user.Email,
		Points:        user.Points,
		Notifications: user.Notifications,
		Unread:        unread,
	}
	if p.Sessions, err = s.sessions.ListForUser(ctx, nil, userID); err != nil {
		return Profile{}, err
	}
	return p, nil
}

type UpdateProfileInput struct {
	Username      string `json:"username" validate:"required,min=3,max=80"`
	SkillsOffered string `json:"skills_offered"`
	SkillsWanted  string `json:"skills_wanted"`
	Location      string `json:"location" validate:"max=100"`
	Category      string `json:"category" validate:"category"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (entity.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate.Struct(in); err != nil {
		return entity.User{}, validationError(err)
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return entity.User{}, err
	}
	user.Username = in.Username
	user.SkillsOffered = entity.ParseSkillSet(in.SkillsOffered)
	user.SkillsWanted = entity.ParseSkillSet(in.SkillsWanted)
	user.Location = in.Location
	user.Category = entity.Category(in.Category)

	if err := s.users.UpdateProfile(ctx, nil, user); err != nil {
		return entity.User{}, err
	}
	return s.users.GetByID(ctx, nil, userID)
}

type SearchInput struct {
	Skill    string `json:"skill" validate:"max=80"`
	Category string `json:"category" validate:"category"`
	Location string `json:"location" validate:"max=100"`
}

// Search lists other users matching every non-empty field of in.
func (s *Service) Search(ctx context.Context, viewerID int64, in SearchInput) ([]entity.PublicUser, error) {
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	users, err := s.users.Search(ctx, nil, viewerID, repository.SearchFilter{
		Skill:    in.Skill,
		Category: entity.Category(in.Category),
		Location: in.Location,
	})
	if err != nil {
		return nil, err
	}

	out := make([]entity.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *Service) Categories() []entity.CategoryInfo {
	return entity.Categories()
}
