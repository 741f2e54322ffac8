package service

import (
	"context"
	"strings"

	"scribble/internal/models"
	"scribble/internal/repository"
	"scribble/internal/validation"
)

const avatarMaxLength = 500

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput is the profile form. RequesterID must equal TargetID.
type UpdateProfileInput struct {
	RequesterID uint
	TargetID    uint
	FirstName   string
	LastName    string
	Email       string
	Bio         string
	Avatar      string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetUserByUsername returns NOT_FOUND for an unknown username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// EditableProfile returns the requester's own profile; any other id is NOT_FOUND.
func (s *UserService) EditableProfile(ctx context.Context, requesterID, targetID uint) (*models.User, error) {
	if requesterID == 0 || requesterID != targetID {
		return nil, models.NewNotFoundError("User", targetID)
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// UpdateProfile saves the profile form. Field problems come back as *models.FormError.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.EditableProfile(ctx, in.RequesterID, in.TargetID)
	if err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(in.Email)
	in.Avatar = strings.TrimSpace(in.Avatar)

	form := models.NewFormError()
	if err := validation.ValidateName(in.FirstName); err != nil {
		form.Add("first_name", err.Error())
	}
	if err := validation.ValidateName(in.LastName); err != nil {
		form.Add("last_name", err.Error())
	}
	if in.Email == "" {
		form.Add("email", "this field is required")
	} else if err := validation.ValidateEmail(in.Email); err != nil {
		form.Add("email", err.Error())
	}
	if err := validation.ValidateBio(in.Bio); err != nil {
		form.Add("bio", err.Error())
	}
	if len(in.Avatar) > avatarMaxLength {
		form.Add("avatar", "must not exceed 500 characters")
	}
	if err := form.OrNil(); err != nil {
		return nil, err
	}

	if !strings.EqualFold(in.Email, user.Email) {
		other, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			form.Add("email", "user with this email already exists")
			return nil, form
		}
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.Bio = in.Bio
	user.Avatar = in.Avatar

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		// A concurrent writer can still take the address between the check and the write.
		if models.HasCode(err, models.CodeConflict) {
			form.Add("email", "user with this email already exists")
			return nil, form
		}
		return nil, err
	}
	return user, nil
}
