package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
)

type ProfileInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Timezone *string `json:"timezone"`
}

type ProfileService struct {
	profileRepo     repository.ProfileRepository
	hub             *realtime.Hub
	defaultLocation *time.Location
}

func NewProfileService(profileRepo repository.ProfileRepository, hub *realtime.Hub, defaultLocation *time.Location) *ProfileService {
	return &ProfileService{
		profileRepo:     profileRepo,
		hub:             hub,
		defaultLocation: defaultLocation,
	}
}

func (s *ProfileService) ByUserID(userID string) (*model.Profile, error) {
	return s.profileRepo.ByUserID(userID)
}

// Update applies the fields present in input.
func (s *ProfileService) Update(userID string, input ProfileInput) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, invalid(err)
		}
		profile.FullName = name
	}

	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		err = validation.ValidatePhone(phone)
		if err != nil {
			return nil, invalid(err)
		}
		profile.Phone = phone
	}

	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		err = validation.ValidateTimezone(tz)
		if err != nil {
			return nil, invalid(err)
		}
		profile.Timezone = tz
	}

	err = s.profileRepo.Update(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableProfiles, Op: realtime.OpUpdate, RecordID: profile.ID})
	return profile, nil
}

// Location is the zone used for day boundaries and all-day events of a user.
func (s *ProfileService) Location(profile *model.Profile) *time.Location {
	return profile.Location(s.defaultLocation)
}
